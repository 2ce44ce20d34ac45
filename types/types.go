// Package types contains the shared data model of goarena and its JSON codecs.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Color is the color of a stone, of a player, or of nobody.
type Color uint8

const (
	None Color = iota
	Black
	White
)

// Colors lists the two player colors in play order.
var Colors = [2]Color{Black, White}

// Opponent returns the other player's color. None stays None.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return None
	}
}

// Valid reports whether c is one of the three known colors.
func (c Color) Valid() bool {
	return c <= White
}

// String returns the single-character form used on the wire and in board dumps.
func (c Color) String() string {
	switch c {
	case Black:
		return "B"
	case White:
		return "W"
	case None:
		return "."
	default:
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
}

// Name returns the human readable color name.
func (c Color) Name() string {
	switch c {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "None"
	}
}

// MarshalText encodes the color as "B", "W" or ".".
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown color %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts "B", "W", "." and the long names, in any case.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses a color name.
func ParseColor(s string) (Color, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "B", "BLACK":
		return Black, nil
	case "W", "WHITE":
		return White, nil
	case ".", "", "NONE", "N":
		return None, nil
	}
	return None, fmt.Errorf("unknown color %q", s)
}

// Point is a 0-indexed board coordinate.
type Point struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// columnLabels skips 'I' to avoid confusion with '1'.
const columnLabels = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

// ColumnLabel returns the display label of a column.
func ColumnLabel(column int) string {
	if column >= 0 && column < len(columnLabels) {
		return string(columnLabels[column])
	}
	return strconv.Itoa(column + 1)
}

// Label formats the point for display: column letter then 1-based row, so
// (0, 0) is "A1" and (3, 8) is "J4".
func (p Point) Label() string {
	return fmt.Sprintf("%s%d", ColumnLabel(p.Column), p.Row+1)
}

// ParseLabel converts a label produced by Label back into a point.
func ParseLabel(label string) (Point, error) {
	label = strings.TrimSpace(strings.ToUpper(label))
	if len(label) < 2 {
		return Point{}, fmt.Errorf("invalid point label: %q", label)
	}
	column := strings.IndexByte(columnLabels, label[0])
	if column < 0 {
		return Point{}, fmt.Errorf("invalid column in point label: %q", label)
	}
	row, err := strconv.Atoi(label[1:])
	if err != nil || row < 1 {
		return Point{}, fmt.Errorf("invalid row in point label: %q", label)
	}
	return Point{Row: row - 1, Column: column}, nil
}

// InBounds reports whether p lies on a size×size board.
func (p Point) InBounds(size int) bool {
	return p.Row >= 0 && p.Row < size && p.Column >= 0 && p.Column < size
}

// UnmarshalJSON accepts either {"row":r,"column":c} or a [row, column] pair.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("point pair must have 2 elements, got %d", len(pair))
		}
		p.Row = int(pair[0])
		p.Column = int(pair[1])
		return nil
	}
	type plain Point
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Point(v)
	return nil
}
