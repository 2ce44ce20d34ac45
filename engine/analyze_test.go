package engine

import (
	"testing"

	"goarena/types"
)

func boardFrom(rows ...string) types.Board {
	board := types.NewBoard(len(rows))
	for r, line := range rows {
		for c, ch := range line {
			switch ch {
			case 'B':
				board[r][c] = types.Black
			case 'W':
				board[r][c] = types.White
			}
		}
	}
	return board
}

func TestAnalyze(t *testing.T) {
	board := boardFrom(
		"BB.",
		"W..",
		"...",
	)
	a := Analyze(board)

	if len(a.Clusters) != 3 {
		t.Fatalf("got %d clusters, want 3", len(a.Clusters))
	}
	wantIDs := [][]int{
		{0, 0, 1},
		{2, 1, 1},
		{1, 1, 1},
	}
	for r := range wantIDs {
		for c := range wantIDs[r] {
			if a.IDs[r][c] != wantIDs[r][c] {
				t.Errorf("IDs[%d][%d] = %d, want %d", r, c, a.IDs[r][c], wantIDs[r][c])
			}
		}
	}

	tests := []struct {
		id        int
		color     types.Color
		count     int
		neighbors [3]int // None, Black, White
	}{
		{0, types.Black, 2, [3]int{2, 0, 1}},
		{1, types.None, 6, [3]int{0, 2, 2}},
		{2, types.White, 1, [3]int{2, 1, 0}},
	}
	for _, tt := range tests {
		c := a.Clusters[tt.id]
		if c.Color != tt.color || c.Count != tt.count {
			t.Errorf("cluster %d = %s x%d, want %s x%d", tt.id, c.Color, c.Count, tt.color, tt.count)
		}
		got := [3]int{c.Neighbors[types.None], c.Neighbors[types.Black], c.Neighbors[types.White]}
		if got != tt.neighbors {
			t.Errorf("cluster %d neighbors = %v, want %v", tt.id, got, tt.neighbors)
		}
	}
	if a.ClusterAt(types.Point{Row: 0, Column: 1}).Liberties() != 2 {
		t.Errorf("black group should have 2 liberties")
	}
	if got := len(a.Points(1)); got != 6 {
		t.Errorf("empty region has %d points, want 6", got)
	}
}

func TestAnalyzeEmptyBoard(t *testing.T) {
	a := Analyze(types.NewBoard(19))
	if len(a.Clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(a.Clusters))
	}
	c := a.Clusters[0]
	if c.Count != 361 || c.owner() != types.None {
		t.Errorf("empty board cluster = %+v", c)
	}
}

func TestTerritories(t *testing.T) {
	g := newTestGame(t, 5, nil)
	g.history[0] = Start{State: types.GameState{
		Board: boardFrom(
			".B.W.",
			"BB.WW",
			".....",
			"WW...",
			".W...",
		),
		Players: g.current().Players,
		Turn:    types.Black,
	}}
	terr := g.Territories()
	tests := []struct {
		p    types.Point
		want types.Color
	}{
		{types.Point{Row: 0, Column: 0}, types.Black},
		{types.Point{Row: 0, Column: 4}, types.White},
		{types.Point{Row: 4, Column: 0}, types.White},
		{types.Point{Row: 2, Column: 2}, types.None},
		{types.Point{Row: 0, Column: 1}, types.None},
	}
	for _, tt := range tests {
		if got := terr.At(tt.p); got != tt.want {
			t.Errorf("territory at %s = %s, want %s", tt.p.Label(), got, tt.want)
		}
	}
}
