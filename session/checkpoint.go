package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/benbjohnson/clock"

	"goarena/config"
	"goarena/types"
)

// timestampLayout names archived and discarded checkpoints.
const timestampLayout = "2006-01-02-15-04-05"

// CheckpointStore keeps the live checkpoint of a session and moves it aside
// when a game ends or is discarded. Archives live next to the checkpoint.
type CheckpointStore struct {
	path  string
	clock clock.Clock
}

// NewCheckpointStore creates a store for the checkpoint at path. Timestamps
// are taken from clk, or from wall time if clk is nil.
func NewCheckpointStore(path string, clk clock.Clock) *CheckpointStore {
	if clk == nil {
		clk = clock.New()
	}
	return &CheckpointStore{path: path, clock: clk}
}

// Path returns the location of the live checkpoint.
func (s *CheckpointStore) Path() string {
	return s.path
}

// Dir returns the directory holding the checkpoint and its archives.
func (s *CheckpointStore) Dir() string {
	return filepath.Dir(s.path)
}

// Exists reports whether a live checkpoint file is present.
func (s *CheckpointStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the live checkpoint. A missing file yields (nil, nil).
func (s *CheckpointStore) Load() (*types.GameConfiguration, error) {
	return config.LoadGameConfiguration(s.path)
}

// Save overwrites the live checkpoint with cfg.
func (s *CheckpointStore) Save(cfg types.GameConfiguration) error {
	return writeConfiguration(s.path, cfg)
}

// Archive writes cfg to a timestamped archive file and removes the live
// checkpoint. It returns the archive path.
func (s *CheckpointStore) Archive(cfg types.GameConfiguration) (string, error) {
	path := s.freshPath("archive")
	if err := writeConfiguration(path, cfg); err != nil {
		return "", err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return path, fmt.Errorf("remove checkpoint: %w", err)
	}
	return path, nil
}

// Discard renames the live checkpoint to a timestamped discarded file and
// returns its new path. Without a checkpoint it returns "".
func (s *CheckpointStore) Discard() (string, error) {
	if !s.Exists() {
		return "", nil
	}
	path := s.freshPath("discarded")
	if err := os.Rename(s.path, path); err != nil {
		return "", fmt.Errorf("discard checkpoint: %w", err)
	}
	return path, nil
}

// freshPath returns <dir>/<prefix>-<timestamp>.json, adding a numeric
// suffix if that name is taken.
func (s *CheckpointStore) freshPath(prefix string) string {
	stem := filepath.Join(s.Dir(), prefix+"-"+s.clock.Now().Format(timestampLayout))
	path := stem + ".json"
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		path = fmt.Sprintf("%s-%d.json", stem, i)
	}
}

// writeConfiguration writes cfg as indented JSON through a temporary file in
// the same directory, so readers never see a partial checkpoint.
func writeConfiguration(path string, cfg types.GameConfiguration) error {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(path), ".json")+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
