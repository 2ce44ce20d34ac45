package types

import (
	"encoding/json"
	"fmt"
)

// Move is what a player does on their turn: Pass, Resign or Place.
type Move interface {
	// Kind returns the wire discriminant: "pass", "resign" or "place".
	Kind() string
	isMove()
}

// Pass gives up the turn.
type Pass struct{}

// Resign concedes the game.
type Resign struct{}

// Place puts a stone of the mover's color on Point.
type Place struct {
	Point Point
}

func (Pass) Kind() string   { return "pass" }
func (Resign) Kind() string { return "resign" }
func (Place) Kind() string  { return "place" }

func (Pass) isMove()   {}
func (Resign) isMove() {}
func (Place) isMove()  {}

// PlaceAt is shorthand for Place{Point{row, column}}.
func PlaceAt(row, column int) Place {
	return Place{Point: Point{Row: row, Column: column}}
}

// DescribeMove renders a move for logs and status lines.
func DescribeMove(m Move) string {
	switch m := m.(type) {
	case Pass:
		return "pass"
	case Resign:
		return "resign"
	case Place:
		return m.Point.Label()
	default:
		return "invalid"
	}
}

type moveJSON struct {
	Type  string `json:"type"`
	Point *Point `json:"point,omitempty"`
}

// MarshalMove encodes a move in its tagged JSON form.
func MarshalMove(m Move) ([]byte, error) {
	switch m := m.(type) {
	case Pass, Resign:
		return json.Marshal(moveJSON{Type: m.Kind()})
	case Place:
		p := m.Point
		return json.Marshal(moveJSON{Type: m.Kind(), Point: &p})
	default:
		return nil, fmt.Errorf("cannot encode move %T", m)
	}
}

// UnmarshalMove decodes a tagged JSON move.
func UnmarshalMove(data []byte) (Move, error) {
	var raw moveJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode move: %w", err)
	}
	switch raw.Type {
	case "pass":
		return Pass{}, nil
	case "resign":
		return Resign{}, nil
	case "place":
		if raw.Point == nil {
			return nil, fmt.Errorf("decode move: place without point")
		}
		return Place{Point: *raw.Point}, nil
	default:
		return nil, fmt.Errorf("decode move: unknown type %q", raw.Type)
	}
}
