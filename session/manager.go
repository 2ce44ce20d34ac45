// Package session runs one game at a time against a real-time clock. It owns
// a rules engine, a countdown for the player to move and an on-disk
// checkpoint that lets an interrupted game resume.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"goarena/config"
	"goarena/engine"
	"goarena/sgf"
	"goarena/types"
)

// MsgNoGame is the rejection message for moves sent while no game runs.
const MsgNoGame = "No Game"

// DefaultTickInterval is how often OnTick fires while a clock runs.
const DefaultTickInterval = 500 * time.Millisecond

// Paths locates the two configuration layers of a session.
type Paths struct {
	ConfigFile     string
	CheckpointFile string
}

// DefaultPaths returns the paths relative to the working directory.
func DefaultPaths() Paths {
	return Paths{
		ConfigFile:     "./game.config.json",
		CheckpointFile: "./checkpoints/checkpoint.json",
	}
}

// Options configures a Manager. Every field is optional.
type Options struct {
	Logger       *zap.Logger
	Clock        clock.Clock
	TickInterval time.Duration

	// OnTick is called from the clock goroutine while a countdown runs.
	OnTick func()
	// OnEnd is called after a game ends, without the manager lock held.
	OnEnd func(types.EndReason)
	// OnReload is called after the engine was reset from the layers.
	OnReload func()

	// ExportSGF writes an .sgf next to every archived game.
	ExportSGF bool
}

type state int

const (
	ready state = iota
	playing
)

func (s state) String() string {
	if s == playing {
		return "PLAYING"
	}
	return "READY"
}

// Manager is the session manager. All methods are safe for concurrent use;
// clock expiry and moves are serialized by one mutex.
type Manager struct {
	mu        sync.Mutex
	paths     Paths
	opts      Options
	log       *zap.Logger
	store     *CheckpointStore
	countdown *Countdown
	game      *engine.Game

	configLayer     *types.GameConfiguration
	checkpointLayer *types.GameConfiguration

	state     state
	volatile  bool
	turnStart types.Millis
	turn      uint64
	err       error
}

// NewManager reads both configuration layers and prepares an engine from
// the effective one. The session starts READY.
func NewManager(paths Paths, opts Options) (*Manager, error) {
	if paths.ConfigFile == "" && paths.CheckpointFile == "" {
		paths = DefaultPaths()
	}
	if paths.CheckpointFile == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if err := os.MkdirAll(filepath.Dir(paths.CheckpointFile), 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}

	m := &Manager{
		paths:    paths,
		opts:     opts,
		log:      opts.Logger.Named("session"),
		store:    NewCheckpointStore(paths.CheckpointFile, opts.Clock),
		state:    ready,
		volatile: true,
	}
	m.countdown = NewCountdown(opts.Clock, opts.TickInterval, m.tick)
	m.configLayer = m.readLayer(paths.ConfigFile)
	m.checkpointLayer = m.readLayer(paths.CheckpointFile)

	game, err := engine.New(m.startingConfiguration())
	if err != nil {
		return nil, fmt.Errorf("build game: %w", err)
	}
	m.game = game
	return m, nil
}

// readLayer loads a layer and checks that it replays. Anything unusable is
// logged and treated as absent.
func (m *Manager) readLayer(path string) *types.GameConfiguration {
	if path == "" {
		return nil
	}
	cfg, err := config.LoadGameConfiguration(path)
	if err != nil {
		m.log.Error("failed to read configuration layer", zap.String("path", path), zap.Error(err))
		return nil
	}
	if cfg == nil {
		return nil
	}
	if _, err := engine.New(*cfg); err != nil {
		m.log.Error("configuration layer does not replay", zap.String("path", path), zap.Error(err))
		return nil
	}
	return cfg
}

// startingConfiguration picks the checkpoint, then the config file, then
// the defaults.
func (m *Manager) startingConfiguration() types.GameConfiguration {
	switch {
	case m.checkpointLayer != nil:
		return m.checkpointLayer.Clone()
	case m.configLayer != nil:
		return m.configLayer.Clone()
	default:
		return types.DefaultConfiguration()
	}
}

// Start loads the effective configuration and starts the clock of the
// player to move. Idle time recorded in the configuration is debited at
// once. It does nothing while a game runs.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == playing {
		return nil
	}
	if err := m.game.SetConfiguration(m.startingConfiguration()); err != nil {
		return fmt.Errorf("load starting configuration: %w", err)
	}
	if m.game.HasGameEnded() {
		return fmt.Errorf("starting configuration describes a finished game")
	}
	m.err = nil
	m.state = playing
	m.volatile = false
	m.startTurn()
	s := m.game.CurrentState()
	m.log.Info("game started",
		zap.String("turn", s.Turn.Name()),
		zap.Int("moves", m.game.MoveCount()),
		zap.Duration("remaining", s.Players[s.Turn].RemainingTime.Duration()))
	return nil
}

// startTurn starts the countdown for the player to move. turnStart is the
// remaining time recorded in the history, before idle debit.
func (m *Manager) startTurn() {
	s := m.game.CurrentState()
	remaining := s.Players[s.Turn].RemainingTime
	m.turnStart = remaining + m.game.IdleTime()
	m.turn++
	turn := m.turn
	m.countdown.Start(remaining.Duration(), func() { m.expire(turn) })
}

func (m *Manager) lap() types.Millis {
	return types.MillisOf(m.countdown.Lap())
}

// Stop freezes the clock, records the time spent as idle time and writes a
// checkpoint. It does nothing while READY.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != playing {
		return nil
	}
	m.countdown.Pause()
	s := m.game.CurrentState()
	m.game.Pause(s.Players[s.Turn].RemainingTime - m.lap())
	m.countdown.Stop()
	m.state = ready
	if err := m.saveCheckpoint(); err != nil {
		return m.fail(err)
	}
	m.log.Info("game paused", zap.Duration("idle", m.game.IdleTime().Duration()))
	return nil
}

// Abort ends the running game without a winner. Time spent since the last
// move is charged to the player to move and the game is archived like any
// other finished game. It does nothing while READY.
func (m *Manager) Abort() error {
	m.mu.Lock()
	if m.state != playing {
		m.mu.Unlock()
		return nil
	}
	m.countdown.Pause()
	s := m.game.CurrentState()
	m.game.Pause(s.Players[s.Turn].RemainingTime - m.lap())
	m.game.Abort()
	m.log.Info("game aborted", zap.String("player", s.Turn.Name()))
	reason, err := m.finish()
	m.mu.Unlock()
	m.notifyEnd(reason)
	return err
}

// Apply submits a move for the player to move. Rejected moves are reported
// in the result and leave the clock paused until the next attempt. The
// error is only set when the session could not persist the game.
func (m *Manager) Apply(move types.Move) (engine.Result, error) {
	m.mu.Lock()
	res, ended, err := m.apply(move)
	m.mu.Unlock()
	if ended != "" {
		m.notifyEnd(ended)
	}
	return res, err
}

func (m *Manager) apply(move types.Move) (engine.Result, types.EndReason, error) {
	if m.state != playing {
		return engine.Result{State: m.game.CurrentState(), Message: MsgNoGame}, "", nil
	}

	m.countdown.Pause()
	elapsed := m.turnStart - m.lap()
	mover := m.game.CurrentState().Turn
	res := m.game.Apply(move, elapsed)
	if !res.Valid {
		m.log.Debug("move rejected",
			zap.String("player", mover.Name()),
			zap.String("move", types.DescribeMove(move)),
			zap.String("message", res.Message))
		return res, "", nil
	}
	m.log.Debug("move accepted",
		zap.String("player", mover.Name()),
		zap.String("move", types.DescribeMove(move)),
		zap.Duration("elapsed", elapsed.Duration()))

	if m.game.HasGameEnded() {
		reason, err := m.finish()
		return res, reason, err
	}
	if err := m.saveCheckpoint(); err != nil {
		return res, "", m.fail(err)
	}
	m.startTurn()
	return res, "", nil
}

// expire handles the countdown reaching zero. A countdown that belongs to
// an earlier turn is ignored.
func (m *Manager) expire(turn uint64) {
	m.mu.Lock()
	if m.state != playing || turn != m.turn {
		m.mu.Unlock()
		return
	}
	s := m.game.CurrentState()
	m.log.Info("clock expired", zap.String("player", s.Turn.Name()))
	m.game.Timeout()
	reason, _ := m.finish()
	m.mu.Unlock()
	m.notifyEnd(reason)
}

// finish stops the session after the engine recorded an end and archives
// the game.
func (m *Manager) finish() (types.EndReason, error) {
	m.countdown.Stop()
	m.state = ready
	info, _ := m.game.EndGameInfo()
	m.log.Info("game ended",
		zap.String("reason", string(info.Reason)),
		zap.String("winner", info.Winner.Name()),
		zap.Float64("black", info.Scores[types.Black]),
		zap.Float64("white", info.Scores[types.White]))
	if err := m.archive(); err != nil {
		m.err = err
		m.log.Error("failed to archive game", zap.Error(err))
		return info.Reason, err
	}
	return info.Reason, nil
}

func (m *Manager) archive() error {
	path, err := m.store.Archive(m.game.Configuration())
	m.checkpointLayer = nil
	if err != nil {
		return fmt.Errorf("archive checkpoint: %w", err)
	}
	m.log.Info("archived game", zap.String("path", path))
	if m.opts.ExportSGF {
		sgfPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".sgf"
		if err := sgf.WriteFile(sgfPath, m.game); err != nil {
			m.log.Warn("failed to export sgf", zap.String("path", sgfPath), zap.Error(err))
		}
	}
	return nil
}

func (m *Manager) saveCheckpoint() error {
	cfg := m.game.Configuration()
	if err := m.store.Save(cfg); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	m.checkpointLayer = &cfg
	m.log.Debug("saved checkpoint", zap.String("path", m.store.Path()), zap.Int("moves", len(cfg.MoveLog)))
	return nil
}

// fail stops the session after a persistence error. Start resumes from the
// last checkpoint that was written.
func (m *Manager) fail(err error) error {
	m.countdown.Stop()
	m.state = ready
	m.err = err
	m.log.Error("session stopped", zap.Error(err))
	return err
}

// ClearCheckpoint discards the live checkpoint, if any, and resets the
// engine to the starting configuration. It only acts while READY.
func (m *Manager) ClearCheckpoint() error {
	m.mu.Lock()
	if m.state != ready {
		m.mu.Unlock()
		return nil
	}
	m.volatile = true
	path, err := m.store.Discard()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if path != "" {
		m.log.Info("discarded checkpoint", zap.String("path", path))
	}
	m.checkpointLayer = nil
	m.resetLocked()
	m.mu.Unlock()
	m.notifyReload()
	return nil
}

// Reload rereads both layers. While READY with no committed game the
// engine is rebuilt from them.
func (m *Manager) Reload() {
	m.mu.Lock()
	m.configLayer = m.readLayer(m.paths.ConfigFile)
	m.checkpointLayer = m.readLayer(m.paths.CheckpointFile)
	reset := m.state != playing && m.volatile
	if reset {
		m.resetLocked()
	}
	m.mu.Unlock()
	if reset {
		m.notifyReload()
	}
}

func (m *Manager) resetLocked() {
	if err := m.game.SetConfiguration(m.startingConfiguration()); err != nil {
		m.log.Error("failed to reset game", zap.Error(err))
	}
}

func (m *Manager) tick() {
	if m.opts.OnTick != nil {
		m.opts.OnTick()
	}
}

func (m *Manager) notifyEnd(reason types.EndReason) {
	if m.opts.OnEnd != nil {
		m.opts.OnEnd(reason)
	}
}

func (m *Manager) notifyReload() {
	if m.opts.OnReload != nil {
		m.opts.OnReload()
	}
}

// CurrentState returns the latest state. While playing, the mover's time
// is read from the running clock.
func (m *Manager) CurrentState() types.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentState()
}

func (m *Manager) currentState() types.GameState {
	s := m.game.CurrentState()
	if m.state == playing {
		s.SetTime(s.Turn, m.lap())
	}
	return s
}

// CurrentConfiguration returns the running game with its live idle time,
// or the starting configuration while READY.
func (m *Manager) CurrentConfiguration() types.GameConfiguration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == playing {
		cfg := m.game.Configuration()
		cfg.IdleDeltaTime = m.turnStart - m.lap()
		return cfg
	}
	return m.startingConfiguration()
}

// Scores returns the scores of the current position.
func (m *Manager) Scores() types.Scores {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Scores()
}

// EndGameInfo returns how the game ended, if it has.
func (m *Manager) EndGameInfo() (types.EndGameInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.EndGameInfo()
}

// HasGameEnded reports whether the engine recorded an end.
func (m *Manager) HasGameEnded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.HasGameEnded()
}

// GameRunning reports whether the session is PLAYING.
func (m *Manager) GameRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == playing
}

// HasCheckpoint reports whether a resumable game is known.
func (m *Manager) HasCheckpoint() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpointLayer != nil
}

// CanClear reports whether ClearCheckpoint would have an effect.
func (m *Manager) CanClear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != playing && (!m.volatile || m.checkpointLayer != nil)
}

// History returns the move log of the game.
func (m *Manager) History() []types.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Configuration().MoveLog
}

// Err returns the persistence error that stopped the session, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Status returns "READY" or "PLAYING".
func (m *Manager) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.String()
}

// Paths returns the layer paths of the session.
func (m *Manager) Paths() Paths {
	return m.paths
}

// Render draws the current state as text.
func (m *Manager) Render(showTerritories bool) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.currentState()
	return m.game.Render(showTerritories, &s)
}

// Territories returns the owner of every empty point.
func (m *Manager) Territories() types.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Territories()
}
