package types

import (
	"encoding/json"
	"fmt"
)

// EndReason says why a game ended.
type EndReason string

const (
	EndResign  EndReason = "resign"
	EndPass    EndReason = "pass"
	EndTimeout EndReason = "timeout"
	EndMercy   EndReason = "mercy"
	// EndError is a neutral forced end, e.g. after a disconnect.
	EndError EndReason = "error"

	// EndPause only appears in transport end messages.
	EndPause EndReason = "pause"
)

// Valid reports whether r is a reason the rules engine can record.
func (r EndReason) Valid() bool {
	switch r {
	case EndResign, EndPass, EndTimeout, EndMercy, EndError:
		return true
	}
	return false
}

// Scores maps each player color to its score.
type Scores map[Color]float64

// Winner returns the color with the higher score, or None on a tie.
func (s Scores) Winner() Color {
	switch {
	case s[Black] == s[White]:
		return None
	case s[Black] > s[White]:
		return Black
	default:
		return White
	}
}

// Clone copies the score map.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for c, v := range s {
		out[c] = v
	}
	return out
}

// EndGameInfo describes a finished game.
type EndGameInfo struct {
	Winner Color     `json:"winner"`
	Reason EndReason `json:"reason"`
	Scores Scores    `json:"scores"`
}

// Clone returns a deep copy of the info.
func (e EndGameInfo) Clone() EndGameInfo {
	e.Scores = e.Scores.Clone()
	return e
}

// ScoringMethod selects area or territory counting.
type ScoringMethod string

const (
	ScoringArea      ScoringMethod = "area"
	ScoringTerritory ScoringMethod = "territory"
)

// LogEntry is one element of a configuration's move log. Exactly one of Move
// and End is set, except for a leading idle gap where neither is.
type LogEntry struct {
	DeltaTime Millis
	Move      Move
	End       *EndGameInfo
}

type logEntryJSON struct {
	DeltaTime Millis          `json:"deltaTime"`
	Move      json.RawMessage `json:"move,omitempty"`
	End       *EndGameInfo    `json:"end,omitempty"`
}

// MarshalJSON writes {"deltaTime": n, "move"|"end": ...}.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	out := logEntryJSON{DeltaTime: e.DeltaTime, End: e.End}
	if e.Move != nil {
		move, err := MarshalMove(e.Move)
		if err != nil {
			return nil, err
		}
		out.Move = move
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a log entry; deltaTime defaults to zero.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var raw logEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Move) > 0 && raw.End != nil {
		return fmt.Errorf("log entry has both move and end")
	}
	entry := LogEntry{DeltaTime: raw.DeltaTime, End: raw.End}
	if len(raw.Move) > 0 && string(raw.Move) != "null" {
		move, err := UnmarshalMove(raw.Move)
		if err != nil {
			return err
		}
		entry.Move = move
	}
	if entry.End != nil && !entry.End.Reason.Valid() {
		return fmt.Errorf("log entry has unknown end reason %q", entry.End.Reason)
	}
	*e = entry
	return nil
}

// GameConfiguration is the complete, replayable description of a game: an
// initial state, the moves played from it and the rule settings. It is both
// the configuration file format and the checkpoint format.
type GameConfiguration struct {
	InitialState        GameState     `json:"initialState"`
	MoveLog             []LogEntry    `json:"moveLog"`
	IdleDeltaTime       Millis        `json:"idleDeltaTime"`
	Komi                float64       `json:"komi"`
	Ko                  bool          `json:"ko"`
	Superko             bool          `json:"superko"`
	Mercy               float64       `json:"mercy"`
	MercyStart          int           `json:"mercyStart"`
	ScoringMethod       ScoringMethod `json:"scoringMethod"`
	PrisonerScore       float64       `json:"prisonerScore"`
	PassAddsToPrisoners bool          `json:"passAddsToPrisoners"`
}

// DefaultConfiguration returns an empty 19×19 game with ten minute clocks,
// komi 6.5, simple ko and area scoring.
func DefaultConfiguration() GameConfiguration {
	cfg := defaultRules()
	cfg.InitialState = NewGameState(DefaultBoardSize, 10*Minute)
	return cfg
}

func defaultRules() GameConfiguration {
	return GameConfiguration{
		MoveLog:       []LogEntry{},
		Komi:          6.5,
		Ko:            true,
		MercyStart:    50,
		ScoringMethod: ScoringArea,
		PrisonerScore: 1,
	}
}

// Clone returns a deep copy of the configuration.
func (c GameConfiguration) Clone() GameConfiguration {
	out := c
	out.InitialState = c.InitialState.Clone()
	out.MoveLog = make([]LogEntry, len(c.MoveLog))
	for i, e := range c.MoveLog {
		if e.End != nil {
			end := e.End.Clone()
			e.End = &end
		}
		out.MoveLog[i] = e
	}
	return out
}

// UnmarshalJSON fills every absent field with its default. initialState is
// required.
func (c *GameConfiguration) UnmarshalJSON(data []byte) error {
	var probe struct {
		InitialState json.RawMessage `json:"initialState"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if len(probe.InitialState) == 0 || string(probe.InitialState) == "null" {
		return fmt.Errorf("configuration is missing initialState")
	}
	type plain GameConfiguration
	v := plain(defaultRules())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.MoveLog == nil {
		v.MoveLog = []LogEntry{}
	}
	switch v.ScoringMethod {
	case ScoringArea, ScoringTerritory:
	default:
		return fmt.Errorf("unknown scoring method %q", v.ScoringMethod)
	}
	*c = GameConfiguration(v)
	return nil
}
