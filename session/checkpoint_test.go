package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"goarena/types"
)

func newTestStore(t *testing.T) (*CheckpointStore, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2023, 11, 5, 8, 9, 10, 0, time.UTC))
	return NewCheckpointStore(filepath.Join(t.TempDir(), "cp", "checkpoint.json"), mock), mock
}

func TestCheckpointSaveLoad(t *testing.T) {
	store, _ := newTestStore(t)
	require.False(t, store.Exists())

	cfg, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, cfg)

	saved := types.DefaultConfiguration()
	saved.MoveLog = append(saved.MoveLog, types.LogEntry{DeltaTime: 1200, Move: types.PlaceAt(3, 3)})
	saved.IdleDeltaTime = 300
	require.NoError(t, store.Save(saved))
	require.True(t, store.Exists())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "{\n    \""), "indented with four spaces")
	require.True(t, strings.HasSuffix(string(data), "}\n"))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, saved.IdleDeltaTime, loaded.IdleDeltaTime)
	require.Equal(t, saved.MoveLog, loaded.MoveLog)
	require.True(t, saved.InitialState.Board.Equal(loaded.InitialState.Board))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files are left behind")
}

func TestCheckpointArchive(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Save(types.DefaultConfiguration()))

	first, err := store.Archive(types.DefaultConfiguration())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(store.Dir(), "archive-2023-11-05-08-09-10.json"), first)
	require.False(t, store.Exists())

	second, err := store.Archive(types.DefaultConfiguration())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(store.Dir(), "archive-2023-11-05-08-09-10-1.json"), second)
	require.FileExists(t, first)
	require.FileExists(t, second)
}

func TestCheckpointDiscard(t *testing.T) {
	store, mock := newTestStore(t)

	path, err := store.Discard()
	require.NoError(t, err)
	require.Empty(t, path)

	require.NoError(t, store.Save(types.DefaultConfiguration()))
	mock.Add(time.Minute)
	path, err = store.Discard()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(store.Dir(), "discarded-2023-11-05-08-10-10.json"), path)
	require.False(t, store.Exists())
	require.FileExists(t, path)
}
