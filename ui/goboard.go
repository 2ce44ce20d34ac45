// Package ui specifies custom controls for tview to display a running Go session in the terminal.
package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"goarena/config"
	"goarena/types"
)

// style indexes
const (
	styleBoard = iota
	styleBlack
	styleWhite
	styleBoardAlt
	styleBlackAlt
	styleWhiteAlt
	styleCursorFG
	styleLastPlayed
	styleCursorBG
	styleLine
	styleTerritory
)

// BoardView draws a game state. Row 0 is the top row and is labelled 1,
// matching types.Point labels.
type BoardView struct {
	Box         *tview.Box
	theme       config.Theme
	styles      []tcell.Color
	state       types.GameState
	territories types.Board
	lastMove    *types.Point
	selRow      int
	selCol      int
}

func NewBoardView(theme config.Theme) *BoardView {
	b := &BoardView{
		Box:    tview.NewBox(),
		selRow: -1,
		selCol: -1,
	}
	b.SetTheme(theme)
	b.Box.SetDrawFunc(b.draw)
	return b
}

func (b *BoardView) SetTheme(theme config.Theme) {
	c := theme.Colors
	b.styles = []tcell.Color{
		tcell.PaletteColor(c.BoardColor),        // 0
		tcell.PaletteColor(c.BlackColor),        // 1
		tcell.PaletteColor(c.WhiteColor),        // 2
		tcell.PaletteColor(c.BoardColorAlt),     // 3
		tcell.PaletteColor(c.BlackColorAlt),     // 4
		tcell.PaletteColor(c.WhiteColorAlt),     // 5
		tcell.PaletteColor(c.CursorColorFG),     // 6
		tcell.PaletteColor(c.LastPlayedColorBG), // 7
		tcell.PaletteColor(c.CursorColorBG),     // 8
		tcell.PaletteColor(c.LineColor),         // 9
		tcell.PaletteColor(c.TerritoryColor),    // 10
	}
	b.theme = theme
}

// SetState replaces the displayed position. territories may be nil to hide
// the ownership overlay; last marks the most recently placed stone.
func (b *BoardView) SetState(state types.GameState, last *types.Point, territories types.Board) {
	b.state = state
	b.lastMove = last
	b.territories = territories
	if !b.inBounds(b.selRow, b.selCol) {
		b.ResetSelection()
	}
}

func (b *BoardView) size() int {
	return b.state.Board.Size()
}

func (b *BoardView) inBounds(row, col int) bool {
	return types.Point{Row: row, Column: col}.InBounds(b.size())
}

// SelectedPoint returns the cursor position, if a cursor is shown.
func (b *BoardView) SelectedPoint() (types.Point, bool) {
	if b.selRow == -1 && b.selCol == -1 {
		return types.Point{}, false
	}
	return types.Point{Row: b.selRow, Column: b.selCol}, true
}

// MoveSelection moves the cursor by the given offsets. The first call
// places the cursor on the last move, or the center of the board.
func (b *BoardView) MoveSelection(dRow, dCol int) {
	if b.size() == 0 {
		return
	}
	if _, ok := b.SelectedPoint(); !ok {
		if b.lastMove != nil {
			b.selRow, b.selCol = b.lastMove.Row, b.lastMove.Column
		} else {
			b.selRow, b.selCol = b.size()/2, b.size()/2
		}
		return
	}
	if !b.inBounds(b.selRow+dRow, b.selCol+dCol) {
		return
	}
	b.selRow += dRow
	b.selCol += dCol
}

func (b *BoardView) ResetSelection() {
	b.selRow = -1
	b.selCol = -1
}

func (b *BoardView) isLastMove(row, col int) bool {
	return b.lastMove != nil && b.lastMove.Row == row && b.lastMove.Column == col
}

func (b *BoardView) draw(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
	size := b.size()
	if size == 0 {
		return x, y, 1, 1
	}
	theme := b.theme
	// 2 characters per cell for square appearance
	boardW, boardH := size*2, size

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			stone := b.state.Board[row][col]
			i := int(stone)
			if !theme.DrawStoneBackground {
				i = 0
			}
			// Get color and inverted color
			iInv := 0
			if stone == types.Black {
				iInv = styleWhite
			} else if stone == types.White {
				iInv = styleBlack
			}
			if (col%2 + row%2) == 1 {
				i += 3
				iInv += 3
			}

			var fgColor tcell.Color
			var drawRune rune
			if theme.UseGridLines && stone == types.None {
				drawRune = getGridRune(col, row, size, size, isHoshiPoint(col, row, size))
			} else {
				drawRune = theme.Symbols.BoardSquare
			}

			switch stone {
			case types.Black, types.White:
				drawRune = theme.Symbols.BlackStone
				if stone == types.White {
					drawRune = theme.Symbols.WhiteStone
				}
				if theme.DrawStoneBackground {
					fgColor = b.styles[iInv]
				} else {
					fgColor = b.styles[stone]
				}
			default:
				fgColor = b.styles[styleLine]
				if b.territories != nil && b.territories[row][col] != types.None {
					drawRune = theme.Symbols.Territory
					fgColor = b.styles[b.territories[row][col]]
					if !theme.DrawStoneBackground {
						i = styleTerritory
					}
				}
			}

			if row == b.selRow && col == b.selCol {
				if theme.DrawCursorBackground {
					i = styleCursorBG
				} else if !theme.UseGridLines {
					drawRune = theme.Symbols.Cursor
				}
			} else if b.isLastMove(row, col) {
				if theme.DrawLastPlayedBackground {
					i = styleLastPlayed
				} else if !theme.UseGridLines {
					drawRune = theme.Symbols.LastPlayed
				}
			}

			style := tcell.StyleDefault.Background(b.styles[i]).Foreground(fgColor)
			if theme.UseGridLines && stone == types.None {
				hasStoneRight := col < size-1 && b.state.Board[row][col+1] != types.None
				drawGridCell(screen, style, drawRune, col, row, x+4, y, size, hasStoneRight)
			} else {
				drawStoneCell(screen, style, drawRune, col, row, x+4, y)
			}
		}
	}
	b.drawCoordinates(screen, x, y)
	return x, y, boardW + 4, boardH + 2
}

// drawStoneCell draws a stone cell (2 characters wide)
func drawStoneCell(s tcell.Screen, c tcell.Style, r rune, x, y, l, t int) {
	s.SetContent(l+x*2, t+y, r, nil, c)
	s.SetContent(l+x*2+1, t+y, ' ', nil, c)
}

// drawGridCell draws a cell using box-drawing characters for grid lines
func drawGridCell(s tcell.Screen, c tcell.Style, r rune, x, y, l, t, boardWidth int, hasStoneRight bool) {
	// 2-char cell: [intersection][right-line]
	s.SetContent(l+x*2, t+y, r, nil, c)

	rightConn := '─'
	if x == boardWidth-1 || hasStoneRight {
		rightConn = ' '
	}
	s.SetContent(l+x*2+1, t+y, rightConn, nil, c)
}

// getGridRune returns the appropriate box-drawing character for a grid position
func getGridRune(x, y, width, height int, isHoshi bool) rune {
	if isHoshi {
		return '◦'
	}

	isTop := y == 0
	isBottom := y == height-1
	isLeft := x == 0
	isRight := x == width-1

	switch {
	case isTop && isLeft:
		return '┌'
	case isTop && isRight:
		return '┐'
	case isBottom && isLeft:
		return '└'
	case isBottom && isRight:
		return '┘'
	case isTop:
		return '┬'
	case isBottom:
		return '┴'
	case isLeft:
		return '├'
	case isRight:
		return '┤'
	default:
		return '┼'
	}
}

// isHoshiPoint checks if a position is a star point. Boards of other sizes
// have none.
func isHoshiPoint(x, y, boardSize int) bool {
	var hoshi []int
	switch boardSize {
	case 9:
		if x == 4 && y == 4 {
			return true
		}
		hoshi = []int{2, 6}
	case 13:
		if x == 6 && y == 6 {
			return true
		}
		hoshi = []int{3, 9}
	case 19:
		hoshi = []int{3, 9, 15}
	default:
		return false
	}
	in := func(v int) bool {
		for _, h := range hoshi {
			if v == h {
				return true
			}
		}
		return false
	}
	return in(x) && in(y)
}

func (b *BoardView) drawCoordinates(s tcell.Screen, x, y int) {
	size := b.size()
	style := tcell.StyleDefault
	highlight := tcell.StyleDefault.Background(b.styles[styleCursorBG])
	lpHighlight := tcell.StyleDefault.Background(b.styles[styleLastPlayed])

	for col := 0; col < size; col++ {
		_style := style
		if col == b.selCol {
			_style = highlight
		} else if b.lastMove != nil && col == b.lastMove.Column {
			_style = lpHighlight
		}
		label := []rune(types.ColumnLabel(col))
		r := label[0]
		if b.theme.FullWidthLetters && len(label) == 1 {
			r = r - 'A' + 'Ａ'
		}
		s.SetContent(x+4+(col*2), y+size+1, r, nil, _style)
		s.SetContent(x+4+(col*2)+1, y+size+1, ' ', nil, _style)
	}

	for row := 0; row < size; row++ {
		_style := style
		if row == b.selRow {
			_style = highlight
		} else if b.lastMove != nil && row == b.lastMove.Row {
			_style = lpHighlight
		}
		displayNum := row + 1
		tensRune := ' '
		if displayNum >= 10 {
			tensRune = rune('0' + displayNum/10)
		}
		s.SetContent(x+1, y+row, tensRune, nil, _style)
		s.SetContent(x+2, y+row, rune('0'+(displayNum%10)), nil, _style)
	}
}

// LastPlaced returns the point of the last stone placed in log, or nil if
// the last move was not a placement.
func LastPlaced(log []types.LogEntry) *types.Point {
	for i := len(log) - 1; i >= 0; i-- {
		switch m := log[i].Move.(type) {
		case types.Place:
			p := m.Point
			return &p
		case nil:
			continue
		default:
			return nil
		}
	}
	return nil
}
