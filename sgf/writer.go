// Package sgf converts games to and from SGF FF[4] records.
package sgf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"goarena/engine"
	"goarena/types"
)

// GameRecord is the SGF view of a game.
type GameRecord struct {
	BoardSize   int
	Komi        float64
	PlayerBlack string
	PlayerWhite string
	Date        string
	Result      string
	TimeLimit   types.Millis // TM, from Black's initial clock
	FirstPlayer types.Color  // PL, written when White starts
	moves       []string     // ";B[pd]", ";W[dp]", ...
	setupBlack  []string     // AB coords of the initial position
	setupWhite  []string     // AW coords
}

// FromGame builds a record from the history of g.
func FromGame(g *engine.Game) *GameRecord {
	cfg := g.Configuration()
	initial := cfg.InitialState
	rec := &GameRecord{
		BoardSize:   initial.Board.Size(),
		Komi:        cfg.Komi,
		PlayerBlack: "Black",
		PlayerWhite: "White",
		Date:        time.Now().Format("2006-01-02"),
		Result:      "?",
		TimeLimit:   initial.Players[types.Black].RemainingTime,
		FirstPlayer: initial.Turn,
	}
	rec.addSetupPosition(initial.Board)

	mover := initial.Turn
	for _, e := range g.History()[1:] {
		switch e := e.(type) {
		case engine.Played:
			rec.addMove(e.Move, mover)
			mover = e.State.Turn
		case engine.End:
			rec.Result = formatResult(e.Info)
		}
	}
	return rec
}

// WriteFile writes the SGF record of g to path.
func WriteFile(path string, g *engine.Game) error {
	if err := os.WriteFile(path, []byte(FromGame(g).Encode()), 0644); err != nil {
		return fmt.Errorf("write sgf: %w", err)
	}
	return nil
}

// sgfCoord converts a board point to an SGF letter pair, column first.
// (0,0) -> "aa", row 4 column 3 -> "de".
func sgfCoord(p types.Point) string {
	return string(rune('a'+p.Column)) + string(rune('a'+p.Row))
}

// addMove appends a move node. Resignations are recorded in RE only.
func (r *GameRecord) addMove(m types.Move, color types.Color) {
	switch m := m.(type) {
	case types.Pass:
		r.moves = append(r.moves, fmt.Sprintf(";%s[]", color))
	case types.Place:
		r.moves = append(r.moves, fmt.Sprintf(";%s[%s]", color, sgfCoord(m.Point)))
	}
}

// addSetupPosition records AB[]/AW[] for the stones of board.
func (r *GameRecord) addSetupPosition(board types.Board) {
	r.setupBlack = nil
	r.setupWhite = nil
	for row := range board {
		for column, c := range board[row] {
			p := types.Point{Row: row, Column: column}
			switch c {
			case types.Black:
				r.setupBlack = append(r.setupBlack, sgfCoord(p))
			case types.White:
				r.setupWhite = append(r.setupWhite, sgfCoord(p))
			}
		}
	}
}

// Encode renders the complete SGF text.
func (r *GameRecord) Encode() string {
	var b strings.Builder

	// Root node
	b.WriteString("(;GM[1]FF[4]CA[UTF-8]")
	b.WriteString("AP[goarena:1.0]")
	b.WriteString(fmt.Sprintf("SZ[%d]", r.BoardSize))
	b.WriteString(fmt.Sprintf("KM[%s]", strconv.FormatFloat(r.Komi, 'f', -1, 64)))
	if r.TimeLimit > 0 {
		b.WriteString(fmt.Sprintf("TM[%s]", strconv.FormatFloat(float64(r.TimeLimit)/1000, 'f', -1, 64)))
	}
	b.WriteString(fmt.Sprintf("PB[%s]", escape(r.PlayerBlack)))
	b.WriteString(fmt.Sprintf("PW[%s]", escape(r.PlayerWhite)))
	b.WriteString(fmt.Sprintf("DT[%s]", r.Date))
	b.WriteString(fmt.Sprintf("RE[%s]", r.Result))
	if r.FirstPlayer == types.White {
		b.WriteString("PL[W]")
	}
	b.WriteString("\n")

	// Setup node
	if len(r.setupBlack) > 0 || len(r.setupWhite) > 0 {
		b.WriteString(";")
		if len(r.setupBlack) > 0 {
			b.WriteString("AB")
			for _, c := range r.setupBlack {
				b.WriteString(fmt.Sprintf("[%s]", c))
			}
		}
		if len(r.setupWhite) > 0 {
			b.WriteString("AW")
			for _, c := range r.setupWhite {
				b.WriteString(fmt.Sprintf("[%s]", c))
			}
		}
		b.WriteString("\n")
	}

	// Move nodes
	for _, m := range r.moves {
		b.WriteString(m)
	}

	b.WriteString(")\n")
	return b.String()
}

// formatResult converts an end of game to an SGF RE[] value.
func formatResult(info types.EndGameInfo) string {
	if info.Reason == types.EndError {
		return "Void"
	}
	if info.Winner == types.None {
		return "0"
	}
	winner := info.Winner.String()
	switch info.Reason {
	case types.EndResign:
		return winner + "+R"
	case types.EndTimeout:
		return winner + "+T"
	}
	diff := info.Scores[info.Winner] - info.Scores[info.Winner.Opponent()]
	if diff <= 0 {
		return winner + "+?"
	}
	return winner + "+" + strconv.FormatFloat(diff, 'f', -1, 64)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "]", `\]`)
}
