package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"goarena/config"
	"goarena/engine"
	"goarena/types"
)

const nineByNine = `{"initialState": {"board": 9, "players": {"remainingTime": 60000}}}`

type harness struct {
	m       *Manager
	clock   *clock.Mock
	paths   Paths
	ends    chan types.EndReason
	reloads chan struct{}
}

func newHarness(t *testing.T, gameConfig string, opts Options) *harness {
	t.Helper()
	dir := t.TempDir()
	paths := Paths{
		ConfigFile:     filepath.Join(dir, "game.config.json"),
		CheckpointFile: filepath.Join(dir, "checkpoints", "checkpoint.json"),
	}
	if gameConfig != "" {
		require.NoError(t, os.WriteFile(paths.ConfigFile, []byte(gameConfig), 0644))
	}
	return openHarness(t, paths, opts)
}

func openHarness(t *testing.T, paths Paths, opts Options) *harness {
	t.Helper()
	h := &harness{
		clock:   clock.NewMock(),
		paths:   paths,
		ends:    make(chan types.EndReason, 4),
		reloads: make(chan struct{}, 4),
	}
	h.clock.Set(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC))
	opts.Logger = zaptest.NewLogger(t)
	opts.Clock = h.clock
	opts.OnEnd = func(r types.EndReason) { h.ends <- r }
	opts.OnReload = func() { h.reloads <- struct{}{} }

	m, err := NewManager(paths, opts)
	require.NoError(t, err)
	h.m = m
	return h
}

func (h *harness) checkpointDir() string {
	return filepath.Dir(h.paths.CheckpointFile)
}

func (h *harness) glob(t *testing.T, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.checkpointDir(), pattern))
	require.NoError(t, err)
	return matches
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestManagerStartsReady(t *testing.T) {
	h := newHarness(t, nineByNine, Options{})

	require.False(t, h.m.GameRunning())
	require.Equal(t, "READY", h.m.Status())
	require.False(t, h.m.HasCheckpoint())
	require.False(t, h.m.CanClear())
	require.Equal(t, 9, h.m.CurrentState().Board.Size())
	require.DirExists(t, h.checkpointDir())

	res, err := h.m.Apply(types.PlaceAt(0, 0))
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, MsgNoGame, res.Message)
}

func TestManagerPlay(t *testing.T) {
	h := newHarness(t, nineByNine, Options{})
	require.NoError(t, h.m.Start())
	require.True(t, h.m.GameRunning())
	require.Equal(t, "PLAYING", h.m.Status())
	require.False(t, h.m.CanClear())

	h.clock.Add(2 * time.Second)
	require.Equal(t, types.Millis(58000), h.m.CurrentState().Players[types.Black].RemainingTime)
	require.Equal(t, types.Millis(2000), h.m.CurrentConfiguration().IdleDeltaTime)

	res, err := h.m.Apply(types.PlaceAt(2, 2))
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, types.White, res.State.Turn)
	require.Equal(t, types.Millis(58000), res.State.Players[types.Black].RemainingTime)
	require.True(t, h.m.HasCheckpoint())

	saved, err := config.LoadGameConfiguration(h.paths.CheckpointFile)
	require.NoError(t, err)
	require.Len(t, saved.MoveLog, 1)
	require.Equal(t, types.Millis(2000), saved.MoveLog[0].DeltaTime)
	require.Equal(t, types.Move(types.PlaceAt(2, 2)), saved.MoveLog[0].Move)

	h.clock.Add(500 * time.Millisecond)
	state := h.m.CurrentState()
	require.Equal(t, types.Millis(59500), state.Players[types.White].RemainingTime)
	require.Equal(t, types.Millis(58000), state.Players[types.Black].RemainingTime)
	require.Len(t, h.m.History(), 1)
	require.Contains(t, h.m.Render(false), "Turn: White")
}

func TestManagerRejectedMovePausesClock(t *testing.T) {
	h := newHarness(t, `{"initialState": {"board": 9, "players": {"remainingTime": 5000}}}`, Options{})
	require.NoError(t, h.m.Start())

	h.clock.Add(time.Second)
	res, err := h.m.Apply(types.PlaceAt(20, 20))
	require.NoError(t, err)
	require.False(t, res.Valid)
	require.Equal(t, engine.MsgOutOfBound, res.Message)
	require.True(t, h.m.GameRunning())
	require.False(t, h.m.countdown.Running())

	// The frozen clock neither runs down nor expires.
	h.clock.Add(10 * time.Second)
	require.Equal(t, types.Millis(4000), h.m.CurrentState().Players[types.Black].RemainingTime)
	require.Never(t, h.m.HasGameEnded, 50*time.Millisecond, 5*time.Millisecond)

	res, err = h.m.Apply(types.PlaceAt(4, 4))
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, types.Millis(4000), res.State.Players[types.Black].RemainingTime)
	require.True(t, h.m.countdown.Running())

	h.clock.Add(time.Second)
	require.Equal(t, types.Millis(4000), h.m.CurrentState().Players[types.White].RemainingTime)
}

func TestManagerResignArchivesGame(t *testing.T) {
	h := newHarness(t, nineByNine, Options{})
	require.NoError(t, h.m.Start())
	_, err := h.m.Apply(types.PlaceAt(2, 2))
	require.NoError(t, err)
	require.FileExists(t, h.paths.CheckpointFile)

	res, err := h.m.Apply(types.Resign{})
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, types.EndResign, <-h.ends)

	require.False(t, h.m.GameRunning())
	require.True(t, h.m.HasGameEnded())
	require.False(t, h.m.HasCheckpoint())
	require.NoFileExists(t, h.paths.CheckpointFile)

	info, ok := h.m.EndGameInfo()
	require.True(t, ok)
	require.Equal(t, types.Black, info.Winner)

	archives := h.glob(t, "archive-*.json")
	require.Equal(t, []string{filepath.Join(h.checkpointDir(), "archive-2024-03-01-12-30-00.json")}, archives)
	archived, err := config.LoadGameConfiguration(archives[0])
	require.NoError(t, err)
	require.Len(t, archived.MoveLog, 3)
	last := archived.MoveLog[2]
	require.NotNil(t, last.End)
	require.Equal(t, types.EndResign, last.End.Reason)
	require.Empty(t, h.glob(t, "*.sgf"))

	reloaded, err := engine.New(*archived)
	require.NoError(t, err, "archives load back as configurations")
	require.True(t, reloaded.HasGameEnded())

	// A finished game is replaced by the config layer on the next start.
	require.NoError(t, h.m.Start())
	require.Equal(t, 0, len(h.m.History()))
}

func TestManagerAbort(t *testing.T) {
	h := newHarness(t, `{"initialState": {"board": 9, "players": {"remainingTime": 5000}}}`, Options{})
	require.NoError(t, h.m.Abort(), "abort without a game does nothing")
	require.NoError(t, h.m.Start())
	_, err := h.m.Apply(types.PlaceAt(4, 4))
	require.NoError(t, err)

	h.clock.Add(1500 * time.Millisecond)
	require.NoError(t, h.m.Abort())
	require.Equal(t, types.EndError, <-h.ends)

	require.False(t, h.m.GameRunning())
	info, ok := h.m.EndGameInfo()
	require.True(t, ok)
	require.Equal(t, types.None, info.Winner)
	require.Equal(t, types.Millis(3500), h.m.CurrentState().Players[types.White].RemainingTime)
	require.False(t, h.m.HasCheckpoint())

	archives := h.glob(t, "archive-*.json")
	require.Len(t, archives, 1)
	archived, err := config.LoadGameConfiguration(archives[0])
	require.NoError(t, err)
	reloaded, err := engine.New(*archived)
	require.NoError(t, err)
	reloadedInfo, ok := reloaded.EndGameInfo()
	require.True(t, ok)
	require.Equal(t, types.EndError, reloadedInfo.Reason)

	// The countdown of the aborted turn never fires.
	h.clock.Add(10 * time.Second)
	require.Never(t, func() bool { return len(h.ends) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestManagerTimeout(t *testing.T) {
	h := newHarness(t, `{"initialState": {"board": 9, "players": {"remainingTime": 5000}}}`, Options{})
	require.NoError(t, h.m.Start())

	h.clock.Add(4 * time.Second)
	require.True(t, h.m.GameRunning())
	h.clock.Add(time.Second)

	require.Eventually(t, func() bool { return !h.m.GameRunning() }, time.Second, 5*time.Millisecond)
	require.Equal(t, types.EndTimeout, <-h.ends)

	info, ok := h.m.EndGameInfo()
	require.True(t, ok)
	require.Equal(t, types.EndTimeout, info.Reason)
	require.Equal(t, types.White, info.Winner)
	require.Equal(t, types.Millis(0), h.m.CurrentState().Players[types.Black].RemainingTime)
	require.Len(t, h.glob(t, "archive-*.json"), 1)
}

func TestManagerIgnoresStaleExpiry(t *testing.T) {
	h := newHarness(t, nineByNine, Options{})
	require.NoError(t, h.m.Start())
	stale := h.m.turn

	_, err := h.m.Apply(types.PlaceAt(2, 2))
	require.NoError(t, err)

	h.m.expire(stale)
	require.True(t, h.m.GameRunning())
	require.False(t, h.m.HasGameEnded())
}

func TestManagerStopRecordsIdleTime(t *testing.T) {
	h := newHarness(t, nineByNine, Options{})
	require.NoError(t, h.m.Start())
	h.clock.Add(3 * time.Second)

	require.NoError(t, h.m.Stop())
	require.False(t, h.m.GameRunning())
	require.NoError(t, h.m.Stop(), "stopping twice is a no-op")
	require.True(t, h.m.HasCheckpoint())
	require.True(t, h.m.CanClear())

	saved, err := config.LoadGameConfiguration(h.paths.CheckpointFile)
	require.NoError(t, err)
	require.Equal(t, types.Millis(3000), saved.IdleDeltaTime)
	require.Equal(t, types.Millis(57000), h.m.CurrentState().Players[types.Black].RemainingTime)

	// The paused clock does not run.
	h.clock.Add(10 * time.Second)
	require.Equal(t, types.Millis(57000), h.m.CurrentState().Players[types.Black].RemainingTime)

	// A new process resumes from the checkpoint and folds the idle time
	// into the next move.
	next := openHarness(t, h.paths, Options{})
	require.True(t, next.m.HasCheckpoint())
	require.Equal(t, types.Millis(3000), next.m.CurrentConfiguration().IdleDeltaTime)
	require.NoError(t, next.m.Start())
	next.clock.Add(2 * time.Second)

	res, err := next.m.Apply(types.PlaceAt(4, 4))
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, types.Millis(55000), res.State.Players[types.Black].RemainingTime)
	history := next.m.History()
	require.Len(t, history, 1)
	require.Equal(t, types.Millis(5000), history[0].DeltaTime)
	require.Equal(t, types.Millis(0), next.m.CurrentConfiguration().IdleDeltaTime)
}

func TestManagerClearCheckpoint(t *testing.T) {
	h := newHarness(t, nineByNine, Options{})
	require.NoError(t, h.m.Start())
	_, err := h.m.Apply(types.PlaceAt(2, 2))
	require.NoError(t, err)

	require.NoError(t, h.m.ClearCheckpoint(), "ignored while playing")
	require.FileExists(t, h.paths.CheckpointFile)

	require.NoError(t, h.m.Stop())
	require.True(t, h.m.CanClear())
	require.NoError(t, h.m.ClearCheckpoint())
	<-h.reloads

	require.NoFileExists(t, h.paths.CheckpointFile)
	require.Len(t, h.glob(t, "discarded-*.json"), 1)
	require.False(t, h.m.HasCheckpoint())
	require.False(t, h.m.CanClear())
	require.Equal(t, types.None, h.m.CurrentState().Board.At(types.Point{Row: 2, Column: 2}))
	require.Empty(t, h.m.History())
}

func TestManagerLayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		ConfigFile:     filepath.Join(dir, "game.config.json"),
		CheckpointFile: filepath.Join(dir, "checkpoint.json"),
	}
	require.NoError(t, os.WriteFile(paths.ConfigFile, []byte(nineByNine), 0644))
	require.NoError(t, os.WriteFile(paths.CheckpointFile,
		[]byte(`{"initialState": {"board": 13, "players": {"remainingTime": 60000}}}`), 0644))

	h := openHarness(t, paths, Options{})
	require.True(t, h.m.HasCheckpoint())
	require.True(t, h.m.CanClear())
	require.Equal(t, 13, h.m.CurrentState().Board.Size())
}

func TestManagerMalformedLayersFallBack(t *testing.T) {
	tests := []struct {
		name       string
		config     string
		checkpoint string
		size       int
	}{
		{"both malformed", `{"initialState":`, `not json`, 19},
		{"checkpoint malformed", nineByNine, `{"komi": 1}`, 9},
		{"checkpoint does not replay", nineByNine,
			`{"initialState": {"board": 9, "players": {"remainingTime": 1}}, "moveLog": [{"move": {"type": "place", "point": {"row": 30, "column": 0}}}]}`, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := Paths{
				ConfigFile:     filepath.Join(dir, "game.config.json"),
				CheckpointFile: filepath.Join(dir, "checkpoint.json"),
			}
			require.NoError(t, os.WriteFile(paths.ConfigFile, []byte(tt.config), 0644))
			require.NoError(t, os.WriteFile(paths.CheckpointFile, []byte(tt.checkpoint), 0644))

			h := openHarness(t, paths, Options{})
			require.False(t, h.m.HasCheckpoint())
			require.Equal(t, tt.size, h.m.CurrentState().Board.Size())
			require.NoError(t, h.m.Start())
		})
	}
}

func TestManagerStartRejectsFinishedConfiguration(t *testing.T) {
	h := newHarness(t, `{
		"initialState": {"board": 9, "players": {"remainingTime": 60000}},
		"moveLog": [{"deltaTime": 100, "move": {"type": "resign"}}]
	}`, Options{})

	require.Error(t, h.m.Start())
	require.False(t, h.m.GameRunning())
}

func TestManagerPersistenceFailure(t *testing.T) {
	h := newHarness(t, nineByNine, Options{})
	require.NoError(t, h.m.Start())
	_, err := h.m.Apply(types.PlaceAt(2, 2))
	require.NoError(t, err)

	// Make the checkpoint path unwritable by putting a directory there.
	require.NoError(t, os.Remove(h.paths.CheckpointFile))
	require.NoError(t, os.MkdirAll(filepath.Join(h.paths.CheckpointFile, "blocker"), 0755))

	res, err := h.m.Apply(types.PlaceAt(6, 6))
	require.Error(t, err)
	require.True(t, res.Valid)
	require.False(t, h.m.GameRunning())
	require.Error(t, h.m.Err())

	require.NoError(t, os.RemoveAll(h.paths.CheckpointFile))
	require.NoError(t, h.m.Start())
	require.NoError(t, h.m.Err())
	require.Len(t, h.m.History(), 1, "resumes from the last checkpoint written")
	require.Equal(t, types.White, h.m.CurrentState().Turn)
}

func TestManagerExportSGF(t *testing.T) {
	h := newHarness(t, nineByNine, Options{ExportSGF: true})
	require.NoError(t, h.m.Start())
	_, err := h.m.Apply(types.PlaceAt(4, 4))
	require.NoError(t, err)
	_, err = h.m.Apply(types.Resign{})
	require.NoError(t, err)

	files := h.glob(t, "archive-*.sgf")
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "RE[B+R]"), string(data))
	require.Contains(t, string(data), ";B[ee]")
}

func TestManagerReload(t *testing.T) {
	h := newHarness(t, "", Options{})
	require.Equal(t, 19, h.m.CurrentState().Board.Size())

	require.NoError(t, os.WriteFile(h.paths.ConfigFile, []byte(nineByNine), 0644))
	h.m.Reload()
	<-h.reloads
	require.Equal(t, 9, h.m.CurrentState().Board.Size())

	// A committed game is not replaced by a reload.
	require.NoError(t, h.m.Start())
	_, err := h.m.Apply(types.PlaceAt(0, 0))
	require.NoError(t, err)
	require.NoError(t, h.m.Stop())
	require.NoError(t, os.WriteFile(h.paths.ConfigFile,
		[]byte(`{"initialState": {"board": 5, "players": {"remainingTime": 1000}}}`), 0644))
	h.m.Reload()
	require.Equal(t, 9, h.m.CurrentState().Board.Size())
	require.Len(t, h.m.History(), 1)
}

func TestManagerScoresAndTerritories(t *testing.T) {
	h := newHarness(t, `{"initialState": {"board": [[".", "B", "."], ["B", "B", "."], [".", ".", "."]], "players": {"remainingTime": 60000}}, "komi": 0.5}`, Options{})

	scores := h.m.Scores()
	require.Equal(t, 9.0, scores[types.Black])
	require.Equal(t, 0.5, scores[types.White])
	require.Equal(t, types.Black, h.m.Territories().At(types.Point{Row: 0, Column: 0}))
}
