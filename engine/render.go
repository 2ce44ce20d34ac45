package engine

import (
	"fmt"
	"strconv"
	"strings"

	"goarena/types"
)

// Render draws state as plain text: a labelled grid followed by one line
// per player and the turn. A nil state renders CurrentState. With
// showTerritories, owned empty points are drawn as lower-case "b" or "w".
func (g *Game) Render(showTerritories bool, state *types.GameState) string {
	s := g.CurrentState()
	if state != nil {
		s = *state
	}
	size := s.Board.Size()

	var territories types.Board
	if showTerritories {
		territories = territoriesOf(s.Board)
	}

	labels := make([]string, size)
	for i := range labels {
		labels[i] = types.ColumnLabel(i)
	}
	header := "   " + strings.Join(labels, " ") + "   \n"

	var b strings.Builder
	b.WriteString(header)
	for row := 0; row < size; row++ {
		label := fmt.Sprintf("%02d", row+1)
		b.WriteString(label)
		for column := 0; column < size; column++ {
			cell := s.Board[row][column].String()
			if territories != nil && territories[row][column] != types.None {
				cell = strings.ToLower(territories[row][column].String())
			}
			b.WriteString(" " + cell)
		}
		b.WriteString(" " + label + "\n")
	}
	b.WriteString(header)

	scores := g.scoresOf(s)
	for _, c := range types.Colors {
		p := s.Players[c]
		fmt.Fprintf(&b, "%s: Score=%s, Prisoners=%d, Time Remaining=%s\n",
			c.Name(), strconv.FormatFloat(scores[c], 'f', -1, 64), p.Prisoners, types.FormatMillis(p.RemainingTime))
	}
	b.WriteString("Turn: " + s.Turn.Name())
	return b.String()
}
