package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/tview"

	"goarena/types"
)

// maxVisibleMoves is how many log entries the panel lists.
const maxVisibleMoves = 12

// SessionInfo is everything the status panel shows about one session.
type SessionInfo struct {
	ID            string
	Status        string // READY or PLAYING
	State         types.GameState
	FirstTurn     types.Color
	Scores        types.Scores
	Komi          float64
	Moves         []types.LogEntry
	End           *types.EndGameInfo
	HasCheckpoint bool
	Message       string // last rejection or error
}

// StatusPanel displays clocks, scores and the move log alongside the board.
type StatusPanel struct {
	box *tview.TextView
}

func NewStatusPanel() *StatusPanel {
	panel := &StatusPanel{box: tview.NewTextView()}
	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)
	return panel
}

// Box returns the underlying tview component.
func (p *StatusPanel) Box() *tview.TextView {
	return p.box
}

// SetInfo redraws the panel.
func (p *StatusPanel) SetInfo(info SessionInfo) {
	p.box.SetText(FormatSessionInfo(info))
}

// FormatSessionInfo renders info as tview color-tagged text.
func FormatSessionInfo(info SessionInfo) string {
	var b strings.Builder

	b.WriteString("[white::b]Session[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	if info.ID != "" {
		fmt.Fprintf(&b, "[dimgray]%s[-]\n", shortID(info.ID))
	}
	status := "[yellow]" + info.Status + "[-]"
	if info.Status == "PLAYING" {
		status = "[green]" + info.Status + "[-]"
	}
	fmt.Fprintf(&b, "[white]State:[-:-:-] %s\n", status)
	checkpoint := "none"
	if info.HasCheckpoint {
		checkpoint = "saved"
	}
	fmt.Fprintf(&b, "[white]Checkpoint:[-:-:-] %s\n", checkpoint)

	b.WriteString("\n[white::b]Game Info[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	fmt.Fprintf(&b, "[white]Komi:[-:-:-] %s\n", strconv.FormatFloat(info.Komi, 'f', -1, 64))
	fmt.Fprintf(&b, "[white]Move:[-:-:-] %d\n", countMoves(info.Moves))
	for _, c := range types.Colors {
		p := info.State.Players[c]
		marker := " "
		if info.End == nil && info.State.Turn == c {
			marker = "[white]>[-]"
		}
		fmt.Fprintf(&b, "%s%-5s %s  cap %d  pts %s\n", marker, c.Name(),
			types.FormatMillis(p.RemainingTime), p.Prisoners,
			strconv.FormatFloat(info.Scores[c], 'f', -1, 64))
	}

	if info.End != nil {
		b.WriteString("\n[white::b]Result[-:-:-]\n")
		b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
		fmt.Fprintf(&b, "%s (%s)\n", describeWinner(info.End.Winner), info.End.Reason)
	}

	if len(info.Moves) > 0 {
		b.WriteString("\n[white::b]Moves[-:-:-]\n")
		b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
		b.WriteString(formatMoves(info.Moves, info.FirstTurn))
	}

	if info.Message != "" {
		fmt.Fprintf(&b, "\n[red]%s[-]\n", tview.Escape(info.Message))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func describeWinner(c types.Color) string {
	if c == types.None {
		return "Draw"
	}
	return c.Name() + " wins"
}

func countMoves(log []types.LogEntry) int {
	n := 0
	for _, e := range log {
		if e.Move != nil {
			n++
		}
	}
	return n
}

// formatMoves lists the last moves of log, numbering from the first move.
func formatMoves(log []types.LogEntry, first types.Color) string {
	type line struct {
		color types.Color
		move  types.Move
	}
	var lines []line
	mover := first
	for _, e := range log {
		if e.Move == nil {
			continue
		}
		lines = append(lines, line{mover, e.Move})
		mover = mover.Opponent()
	}

	var b strings.Builder
	start := 0
	if len(lines) > maxVisibleMoves {
		start = len(lines) - maxVisibleMoves
	}
	for i := start; i < len(lines); i++ {
		colorStr := "[white]B[-]"
		if lines[i].color == types.White {
			colorStr = "[dimgray]W[-]"
		}
		marker := " "
		if i == len(lines)-1 {
			marker = "[white]>[-]"
		}
		fmt.Fprintf(&b, "%s[dimgray]%3d.[-] %s %s\n", marker, i+1, colorStr, types.DescribeMove(lines[i].move))
	}
	if start > 0 {
		fmt.Fprintf(&b, "[dimgray]  ··· %d earlier[-]\n", start)
	}
	return b.String()
}

// HintText is the key help shown under the board.
func HintText(running, canClear bool) string {
	if running {
		return "  hjkl/↑↓←→ move  ⏎ play  p pass  R resign  A abort  s stop  t territory  q quit"
	}
	hint := "  s start  L reload  t territory"
	if canClear {
		hint += "  c clear"
	}
	return hint + "  q quit"
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *BoardView, panel *StatusPanel, hint *tview.TextView) *tview.Flex {
	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)     // Board (flexible, takes remaining space)
	boardRow.AddItem(panel.Box(), 34, 0, false) // Info panel (fixed width)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(boardRow, 0, 1, true)
	mainFlex.AddItem(hint, 2, 0, false)
	return mainFlex
}
