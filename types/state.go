package types

import (
	"encoding/json"
	"fmt"
)

// PlayerState holds one player's clock and capture count.
type PlayerState struct {
	RemainingTime Millis `json:"remainingTime"`
	Prisoners     int    `json:"prisoners"`
}

// UnmarshalJSON requires remainingTime and defaults prisoners to zero.
func (p *PlayerState) UnmarshalJSON(data []byte) error {
	var raw struct {
		RemainingTime *Millis `json:"remainingTime"`
		Prisoners     *int    `json:"prisoners"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.RemainingTime == nil {
		return fmt.Errorf("player state is missing remainingTime")
	}
	p.RemainingTime = *raw.RemainingTime
	p.Prisoners = 0
	if raw.Prisoners != nil {
		if *raw.Prisoners < 0 {
			return fmt.Errorf("prisoners must not be negative, got %d", *raw.Prisoners)
		}
		p.Prisoners = *raw.Prisoners
	}
	return nil
}

// GameState is an immutable snapshot of a position: the board, both players
// and whose turn it is. Mutating helpers are only used on fresh clones.
type GameState struct {
	Board   Board                 `json:"board"`
	Players map[Color]PlayerState `json:"players"`
	Turn    Color                 `json:"turn"`
}

// NewGameState creates an empty position with both clocks set to remaining.
func NewGameState(size int, remaining Millis) GameState {
	return GameState{
		Board: NewBoard(size),
		Players: map[Color]PlayerState{
			Black: {RemainingTime: remaining},
			White: {RemainingTime: remaining},
		},
		Turn: Black,
	}
}

// Clone returns a deep copy of the state.
func (s GameState) Clone() GameState {
	players := make(map[Color]PlayerState, len(s.Players))
	for c, p := range s.Players {
		players[c] = p
	}
	return GameState{Board: s.Board.Clone(), Players: players, Turn: s.Turn}
}

// Player returns the state of the player with color c.
func (s GameState) Player(c Color) PlayerState {
	return s.Players[c]
}

// AddTime adjusts the remaining time of player c by delta.
func (s GameState) AddTime(c Color, delta Millis) {
	p := s.Players[c]
	p.RemainingTime += delta
	s.Players[c] = p
}

// SetTime overwrites the remaining time of player c.
func (s GameState) SetTime(c Color, remaining Millis) {
	p := s.Players[c]
	p.RemainingTime = remaining
	s.Players[c] = p
}

// AddPrisoners credits n prisoners to player c.
func (s GameState) AddPrisoners(c Color, n int) {
	p := s.Players[c]
	p.Prisoners += n
	s.Players[c] = p
}

// TotalRemaining sums the remaining time of both players.
func (s GameState) TotalRemaining() Millis {
	var total Millis
	for _, c := range Colors {
		total += s.Players[c].RemainingTime
	}
	return total
}

// Validate checks the invariants a loaded state must satisfy.
func (s GameState) Validate() error {
	if err := s.Board.Validate(); err != nil {
		return fmt.Errorf("invalid board: %w", err)
	}
	for _, c := range Colors {
		if _, ok := s.Players[c]; !ok {
			return fmt.Errorf("missing player state for %s", c.Name())
		}
	}
	if s.Turn != Black && s.Turn != White {
		return fmt.Errorf("turn must be B or W, got %s", s.Turn)
	}
	return nil
}

// UnmarshalJSON decodes a state leniently: the board may be an integer size
// and defaults to 19×19, turn defaults to Black, and players may be a single
// object shared by both colors.
func (s *GameState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Board   *Board          `json:"board"`
		Players json.RawMessage `json:"players"`
		Turn    *Color          `json:"turn"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Players) == 0 || string(raw.Players) == "null" {
		return fmt.Errorf("cannot find players info in state")
	}
	players, err := decodePlayers(raw.Players)
	if err != nil {
		return err
	}
	board := NewBoard(DefaultBoardSize)
	if raw.Board != nil {
		board = *raw.Board
	}
	turn := Black
	if raw.Turn != nil {
		turn = *raw.Turn
	}
	*s = GameState{Board: board, Players: players, Turn: turn}
	return nil
}

func decodePlayers(data json.RawMessage) (map[Color]PlayerState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("players must be a dictionary: %w", err)
	}
	perColor := map[Color]json.RawMessage{}
	for key, value := range fields {
		c, err := ParseColor(key)
		if err == nil && c != None {
			perColor[c] = value
		}
	}
	players := make(map[Color]PlayerState, 2)
	if len(perColor) == 2 {
		for c, value := range perColor {
			var p PlayerState
			if err := json.Unmarshal(value, &p); err != nil {
				return nil, fmt.Errorf("player %s: %w", c.Name(), err)
			}
			players[c] = p
		}
		return players, nil
	}
	var shared PlayerState
	if err := json.Unmarshal(data, &shared); err != nil {
		return nil, fmt.Errorf("players: %w", err)
	}
	players[Black] = shared
	players[White] = shared
	return players, nil
}
