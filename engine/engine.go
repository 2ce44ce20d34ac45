// Package engine implements the rules of Go as a replayable state machine:
// stone placement legality, captures, ko and superko, scoring, and the end
// conditions (resignation, two passes, timeout and the mercy rule).
package engine

import (
	"fmt"
	"math"

	"goarena/types"
)

// Rejection messages reported in Result.Message.
const (
	MsgOutOfBound  = "Out of Bound"
	MsgNonempty    = "Nonempty point"
	MsgSuicide     = "Suicide"
	MsgSuperKo     = "SuperKo"
	MsgKo          = "Ko"
	MsgInvalidType = "Invalid type"
	MsgEnded       = "Game has ended"
)

// Result is the outcome of Apply. State is the position after the move when
// Valid, and the unchanged position otherwise.
type Result struct {
	Valid   bool
	State   types.GameState
	Message string
}

// Game owns one configuration and the history built from it. A Game is not
// safe for concurrent use; the session layer serializes access.
type Game struct {
	rules   types.GameConfiguration
	history []Entry
	idle    types.Millis
}

// New builds a game by replaying cfg.
func New(cfg types.GameConfiguration) (*Game, error) {
	g := &Game{}
	if err := g.SetConfiguration(cfg); err != nil {
		return nil, err
	}
	return g, nil
}

// NewDefault builds a game from types.DefaultConfiguration.
func NewDefault() *Game {
	g, err := New(types.DefaultConfiguration())
	if err != nil {
		panic(fmt.Sprintf("engine: default configuration rejected: %v", err))
	}
	return g
}

// SetConfiguration discards the current history and rebuilds it by
// replaying cfg.MoveLog from cfg.InitialState. If any entry is rejected the
// game is left as it was.
func (g *Game) SetConfiguration(cfg types.GameConfiguration) error {
	cfg = cfg.Clone()
	if err := cfg.InitialState.Validate(); err != nil {
		return fmt.Errorf("initial state: %w", err)
	}

	start := cfg.InitialState.Clone()
	log := cfg.MoveLog
	offset := 0
	if len(log) > 0 && log[0].Move == nil && log[0].End == nil {
		// leading idle gap
		start.AddTime(start.Turn, -log[0].DeltaTime)
		log = log[1:]
		offset = 1
	}

	next := &Game{rules: cfg, history: []Entry{Start{State: start}}}
	next.rules.MoveLog = nil
	next.rules.InitialState = types.GameState{}
	// generated is set while the last entry is an end that step appended
	// itself; the logged end of that game may still follow and replaces it.
	generated := false
	for i, entry := range log {
		n := i + offset
		if next.HasGameEnded() {
			if !generated || entry.End == nil {
				return fmt.Errorf("move log entry #%d follows the end of the game", n)
			}
			if err := next.replaceEnd(entry); err != nil {
				return fmt.Errorf("move log entry #%d: %w", n, err)
			}
			generated = false
			continue
		}
		switch {
		case entry.Move != nil:
			res := next.step(entry.Move, entry.DeltaTime)
			if !res.Valid {
				return fmt.Errorf("move log entry #%d (%s by %s): %s",
					n, types.DescribeMove(entry.Move), next.current().Turn.Name(), res.Message)
			}
			generated = next.HasGameEnded()
		case entry.End != nil:
			if !entry.End.Reason.Valid() {
				return fmt.Errorf("move log entry #%d: unknown end reason %q", n, entry.End.Reason)
			}
			state := next.current().Clone()
			state.AddTime(state.Turn, -entry.DeltaTime)
			next.history = append(next.history, End{State: state, Info: entry.End.Clone()})
		default:
			return fmt.Errorf("move log entry #%d has neither move nor end", n)
		}
	}
	next.idle = cfg.IdleDeltaTime

	*g = *next
	return nil
}

// replaceEnd swaps the end entry recorded by the last move for the logged
// one. The reasons must agree.
func (g *Game) replaceEnd(entry types.LogEntry) error {
	last := len(g.history) - 1
	recorded := g.history[last].(End)
	if entry.End.Reason != recorded.Info.Reason {
		return fmt.Errorf("logged end reason %q does not match %q", entry.End.Reason, recorded.Info.Reason)
	}
	state := g.history[last-1].Snapshot().Clone()
	state.AddTime(state.Turn, -entry.DeltaTime)
	g.history[last] = End{State: state, Info: entry.End.Clone()}
	return nil
}

// Configuration serializes the game. Each log entry's delta is the drop in
// total remaining time since the previous entry, so feeding the result back
// into SetConfiguration reproduces the same history.
func (g *Game) Configuration() types.GameConfiguration {
	cfg := g.rules.Clone()
	cfg.InitialState = g.history[0].Snapshot().Clone()
	cfg.IdleDeltaTime = g.idle
	cfg.MoveLog = make([]types.LogEntry, 0, len(g.history)-1)

	last := cfg.InitialState.TotalRemaining()
	for _, e := range g.history[1:] {
		remaining := e.Snapshot().TotalRemaining()
		entry := types.LogEntry{DeltaTime: last - remaining}
		switch e := e.(type) {
		case Played:
			entry.Move = e.Move
		case End:
			info := e.Info.Clone()
			entry.End = &info
		}
		cfg.MoveLog = append(cfg.MoveLog, entry)
		last = remaining
	}
	return cfg
}

// Apply plays move for the player to move, who spent elapsed milliseconds on
// it. Rejected moves leave the history untouched.
func (g *Game) Apply(move types.Move, elapsed types.Millis) Result {
	if g.HasGameEnded() {
		return g.reject(MsgEnded)
	}
	return g.step(move, elapsed)
}

// step is shared by Apply and configuration replay.
func (g *Game) step(move types.Move, elapsed types.Millis) Result {
	next := g.current().Clone()
	next.AddTime(next.Turn, -elapsed)

	switch m := move.(type) {
	case types.Resign:
		g.push(Played{State: next, Move: m})
		g.finish(types.EndResign, next.Turn.Opponent(), g.Scores())
		return accept(next)
	case types.Pass:
		previous := g.history[len(g.history)-1]
		next.Turn = next.Turn.Opponent()
		if g.rules.PassAddsToPrisoners {
			next.AddPrisoners(next.Turn, 1)
		}
		g.push(Played{State: next, Move: m})
		if isPass(previous) {
			scores := g.Scores()
			g.finish(types.EndPass, scores.Winner(), scores)
		} else {
			g.checkMercy()
		}
		return accept(next)
	case types.Place:
		return g.place(next, m)
	default:
		return g.reject(MsgInvalidType)
	}
}

func (g *Game) place(next types.GameState, m types.Place) Result {
	p := m.Point
	if !p.InBounds(next.Board.Size()) {
		return g.reject(MsgOutOfBound)
	}
	if next.Board.At(p) != types.None {
		return g.reject(MsgNonempty)
	}

	mover := next.Turn
	opponent := mover.Opponent()
	next.Board.Set(p, mover)
	analysis := Analyze(next.Board)
	captured := false
	for id, c := range analysis.Clusters {
		if c.Color != opponent || c.Liberties() > 0 {
			continue
		}
		captured = true
		for _, q := range analysis.Points(id) {
			next.Board.Set(q, types.None)
		}
		next.AddPrisoners(mover, c.Count)
	}
	if !captured && analysis.ClusterAt(p).Liberties() == 0 {
		return g.reject(MsgSuicide)
	}
	next.Turn = opponent

	if g.rules.Superko && g.repeats(next) {
		return g.reject(MsgSuperKo)
	}
	if g.rules.Ko && len(g.history) >= 2 && g.history[len(g.history)-2].Snapshot().Board.Equal(next.Board) {
		return g.reject(MsgKo)
	}

	g.push(Played{State: next, Move: m})
	g.checkMercy()
	return accept(next)
}

// repeats reports whether the board and turn of s already occurred.
func (g *Game) repeats(s types.GameState) bool {
	for _, e := range g.history {
		prev := e.Snapshot()
		if prev.Turn == s.Turn && prev.Board.Equal(s.Board) {
			return true
		}
	}
	return false
}

func (g *Game) checkMercy() {
	if g.rules.Mercy == 0 || g.MoveCount() < g.rules.MercyStart {
		return
	}
	scores := g.Scores()
	if math.Abs(scores[types.Black]-scores[types.White]) >= g.rules.Mercy {
		g.finish(types.EndMercy, scores.Winner(), scores)
	}
}

// Timeout ends the game in favor of the opponent of the player to move,
// whose clock is set to zero.
func (g *Game) Timeout() {
	if g.HasGameEnded() {
		return
	}
	next := g.current().Clone()
	next.SetTime(next.Turn, 0)
	g.idle = 0
	g.history = append(g.history, End{
		State: next,
		Info: types.EndGameInfo{
			Winner: next.Turn.Opponent(),
			Reason: types.EndTimeout,
			Scores: g.Scores(),
		},
	})
}

// Abort force-ends the game without a winner, for example when a player
// disconnects. Pending idle time is charged to the player to move and the
// scores of the current position are recorded.
func (g *Game) Abort() {
	if g.HasGameEnded() {
		return
	}
	g.history = append(g.history, End{
		State: g.CurrentState(),
		Info: types.EndGameInfo{
			Winner: types.None,
			Reason: types.EndError,
			Scores: g.Scores(),
		},
	})
	g.idle = 0
}

// Pause records idle time spent by the player to move since the last
// history entry. It shows in CurrentState and Configuration and is folded
// into the next move.
func (g *Game) Pause(idle types.Millis) {
	if g.HasGameEnded() {
		return
	}
	g.idle += idle
}

// Undo removes the end entry, if any, and the last move.
func (g *Game) Undo() {
	if g.HasGameEnded() {
		g.history = g.history[:len(g.history)-1]
	}
	if len(g.history) > 1 {
		g.history = g.history[:len(g.history)-1]
	}
}

func (g *Game) push(e Entry) {
	g.history = append(g.history, e)
	g.idle = 0
}

// finish appends an end entry that shares the last recorded state.
func (g *Game) finish(reason types.EndReason, winner types.Color, scores types.Scores) {
	state := g.current().Clone()
	g.history = append(g.history, End{
		State: state,
		Info:  types.EndGameInfo{Winner: winner, Reason: reason, Scores: scores},
	})
}

func (g *Game) reject(message string) Result {
	return Result{State: g.current().Clone(), Message: message}
}

func accept(s types.GameState) Result {
	return Result{Valid: true, State: s.Clone()}
}

// current returns the last recorded state without the idle debit. Callers
// must not modify it.
func (g *Game) current() types.GameState {
	return g.history[len(g.history)-1].Snapshot()
}

// CurrentState returns the latest state with pending idle time debited from
// the player to move.
func (g *Game) CurrentState() types.GameState {
	s := g.current().Clone()
	s.AddTime(s.Turn, -g.idle)
	return s
}

// IdleTime returns the idle time not yet folded into the history.
func (g *Game) IdleTime() types.Millis {
	return g.idle
}

// StateHistory returns a copy of every recorded state in order.
func (g *Game) StateHistory() []types.GameState {
	states := make([]types.GameState, len(g.history))
	for i, e := range g.history {
		states[i] = e.Snapshot().Clone()
	}
	return states
}

// History returns a copy of the history entries.
func (g *Game) History() []Entry {
	entries := make([]Entry, len(g.history))
	for i, e := range g.history {
		entries[i] = cloneEntry(e)
	}
	return entries
}

// BoardSize returns the side length of the board.
func (g *Game) BoardSize() int {
	return g.current().Board.Size()
}

// MoveCount returns the number of entries recorded after the start.
func (g *Game) MoveCount() int {
	return len(g.history) - 1
}

// EndGameInfo returns how the game ended, if it has.
func (g *Game) EndGameInfo() (types.EndGameInfo, bool) {
	end, ok := g.history[len(g.history)-1].(End)
	if !ok {
		return types.EndGameInfo{}, false
	}
	return end.Info.Clone(), true
}

// HasGameEnded reports whether the last history entry is an end.
func (g *Game) HasGameEnded() bool {
	_, ok := g.history[len(g.history)-1].(End)
	return ok
}
