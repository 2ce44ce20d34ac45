package engine

import "goarena/types"

// Entry is one element of a game's history. The variants are Start, Played
// and End; history always begins with a Start and holds at most one End,
// which is then its last element.
type Entry interface {
	// Snapshot returns the state recorded by the entry.
	Snapshot() types.GameState
	isEntry()
}

// Start records the initial state.
type Start struct {
	State types.GameState
}

// Played records an accepted move and the state it produced.
type Played struct {
	State types.GameState
	Move  types.Move
}

// End records how the game finished.
type End struct {
	State types.GameState
	Info  types.EndGameInfo
}

func (e Start) Snapshot() types.GameState  { return e.State }
func (e Played) Snapshot() types.GameState { return e.State }
func (e End) Snapshot() types.GameState    { return e.State }

func (Start) isEntry()  {}
func (Played) isEntry() {}
func (End) isEntry()    {}

func cloneEntry(e Entry) Entry {
	switch e := e.(type) {
	case Start:
		return Start{State: e.State.Clone()}
	case Played:
		return Played{State: e.State.Clone(), Move: e.Move}
	case End:
		return End{State: e.State.Clone(), Info: e.Info.Clone()}
	}
	panic("engine: unknown history entry")
}

func isPass(e Entry) bool {
	p, ok := e.(Played)
	if !ok {
		return false
	}
	_, pass := p.Move.(types.Pass)
	return pass
}
