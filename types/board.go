package types

import (
	"encoding/json"
	"fmt"
)

// DefaultBoardSize is used when a state omits its board.
const DefaultBoardSize = 19

// MaxBoardSize bounds the side length of a loaded board.
const MaxBoardSize = 52

// Board is a square grid of colors indexed as Board[row][column].
type Board [][]Color

// NewBoard creates an empty size×size board.
func NewBoard(size int) Board {
	board := make(Board, size)
	for i := range board {
		board[i] = make([]Color, size)
	}
	return board
}

// Size returns the side length of the board.
func (b Board) Size() int {
	return len(b)
}

// At returns the color at p. The caller checks bounds.
func (b Board) At(p Point) Color {
	return b[p.Row][p.Column]
}

// Set stores c at p. The caller checks bounds.
func (b Board) Set(p Point, c Color) {
	b[p.Row][p.Column] = c
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = append([]Color(nil), row...)
	}
	return out
}

// Equal reports whether both boards hold the same stones.
func (b Board) Equal(other Board) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if len(b[i]) != len(other[i]) {
			return false
		}
		for j := range b[i] {
			if b[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// Validate checks that the board is square and holds only known colors.
func (b Board) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("board is empty")
	}
	if len(b) > MaxBoardSize {
		return fmt.Errorf("board size %d exceeds %d", len(b), MaxBoardSize)
	}
	for i, row := range b {
		if len(row) != len(b) {
			return fmt.Errorf("row #%d has %d columns, want %d", i, len(row), len(b))
		}
		for j, c := range row {
			if !c.Valid() {
				return fmt.Errorf("unknown color at (%d, %d)", i, j)
			}
		}
	}
	return nil
}

// Neighbors returns the 4-connected neighbors of p that lie on the board.
func (b Board) Neighbors(p Point) []Point {
	size := len(b)
	adj := make([]Point, 0, 4)
	if p.Row > 0 {
		adj = append(adj, Point{p.Row - 1, p.Column})
	}
	if p.Column > 0 {
		adj = append(adj, Point{p.Row, p.Column - 1})
	}
	if p.Row < size-1 {
		adj = append(adj, Point{p.Row + 1, p.Column})
	}
	if p.Column < size-1 {
		adj = append(adj, Point{p.Row, p.Column + 1})
	}
	return adj
}

// UnmarshalJSON accepts a 2-D array of colors or an integer size for an
// empty board.
func (b *Board) UnmarshalJSON(data []byte) error {
	var size float64
	if err := json.Unmarshal(data, &size); err == nil {
		if size < 1 || size > MaxBoardSize || size != float64(int(size)) {
			return fmt.Errorf("board size must be an integer from 1 to %d, got %v", MaxBoardSize, size)
		}
		*b = NewBoard(int(size))
		return nil
	}
	var rows [][]Color
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("board must be a 2D array or an integer: %w", err)
	}
	board := Board(rows)
	if err := board.Validate(); err != nil {
		return err
	}
	*b = board
	return nil
}
