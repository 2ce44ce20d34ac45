package engine

import "goarena/types"

// Scores computes both scores on the latest board. Prisoners are worth
// PrisonerScore each and White receives komi. Every empty region bordered
// by a single color counts for that color; area scoring also counts the
// stones on the board, territory scoring does not.
func (g *Game) Scores() types.Scores {
	return g.scoresOf(g.current())
}

func (g *Game) scoresOf(s types.GameState) types.Scores {
	scores := types.Scores{
		types.Black: g.rules.PrisonerScore * float64(s.Players[types.Black].Prisoners),
		types.White: g.rules.Komi + g.rules.PrisonerScore*float64(s.Players[types.White].Prisoners),
	}
	for _, c := range Analyze(s.Board).Clusters {
		if c.Color == types.None {
			if owner := c.owner(); owner != types.None {
				scores[owner] += float64(c.Count)
			}
		} else if g.rules.ScoringMethod == types.ScoringArea {
			scores[c.Color] += float64(c.Count)
		}
	}
	return scores
}

// Territories returns a board where each empty point holds the color that
// owns it, or None when it is neutral. Stones map to None.
func (g *Game) Territories() types.Board {
	return territoriesOf(g.current().Board)
}

func territoriesOf(board types.Board) types.Board {
	analysis := Analyze(board)
	out := types.NewBoard(board.Size())
	for row := range analysis.IDs {
		for column, id := range analysis.IDs[row] {
			out[row][column] = analysis.Clusters[id].owner()
		}
	}
	return out
}
