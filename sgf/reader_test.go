package sgf

import (
	"testing"

	"goarena/types"
)

const testSGF = `(;GM[1]FF[4]CA[UTF-8]AP[goarena:1.0]SZ[9]KM[7.5]TM[600]PB[Ann]PW[Bo\]b]DT[2026-01-15]RE[B+3.5]
;B[ee];W[cc];B[gg];W[cg];B[gc];W[tt])`

func TestParse(t *testing.T) {
	cfg, err := Parse(testSGF)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	s := cfg.InitialState
	if s.Board.Size() != 9 {
		t.Errorf("BoardSize = %d, want 9", s.Board.Size())
	}
	if cfg.Komi != 7.5 {
		t.Errorf("Komi = %f, want 7.5", cfg.Komi)
	}
	if s.Players[types.Black].RemainingTime != 10*types.Minute || s.Players[types.White].RemainingTime != 10*types.Minute {
		t.Errorf("TM should set both clocks, got %+v", s.Players)
	}
	if s.Turn != types.Black {
		t.Errorf("Turn = %s, want B", s.Turn)
	}
	if len(cfg.MoveLog) != 6 {
		t.Fatalf("got %d moves, want 6", len(cfg.MoveLog))
	}

	// B[ee] = (4,4), W[cc] = (2,2), B[gg] = (6,6), W[cg] = row 6 col 2, B[gc] = row 2 col 6
	want := []types.Move{
		types.PlaceAt(4, 4),
		types.PlaceAt(2, 2),
		types.PlaceAt(6, 6),
		types.PlaceAt(6, 2),
		types.PlaceAt(2, 6),
		types.Pass{},
	}
	for i, m := range want {
		if cfg.MoveLog[i].Move != m {
			t.Errorf("move %d = %#v, want %#v", i, cfg.MoveLog[i].Move, m)
		}
	}
}

func TestParseSetup(t *testing.T) {
	content := `(;FF[4]SZ[5]PL[W]AB[aa][bb]AW[ee];W[cc];B[dd])`
	cfg, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := cfg.InitialState.Board
	checks := []struct {
		row, column int
		color       types.Color
	}{
		{0, 0, types.Black},
		{1, 1, types.Black},
		{4, 4, types.White},
		{2, 2, types.None}, // moves are not setup
	}
	for _, c := range checks {
		if got := b[c.row][c.column]; got != c.color {
			t.Errorf("board[%d][%d] = %s, want %s", c.row, c.column, got, c.color)
		}
	}
	if cfg.InitialState.Turn != types.White {
		t.Errorf("PL[W] should make White move first")
	}
	if cfg.Komi != 6.5 {
		t.Errorf("missing KM should keep the default komi, got %v", cfg.Komi)
	}
}

func TestParseMainLineOnly(t *testing.T) {
	cfg, err := Parse(`(;SZ[9];B[aa](;W[bb];B[cc])(;W[dd]))`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.MoveLog) != 3 || cfg.MoveLog[2].Move != types.PlaceAt(2, 2) {
		t.Errorf("main line = %+v", cfg.MoveLog)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not sgf", "hello"},
		{"bad size", "(;SZ[x])"},
		{"huge board", "(;SZ[40])"},
		{"out of turn", "(;SZ[9];B[aa];B[bb])"},
		{"setup off board", "(;SZ[3]AB[zz])"},
		{"bad player", "(;SZ[9]PL[X])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.content); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExtractProps(t *testing.T) {
	props := extractProps(`AB[aa][bb]C[a \] b]KM[6.5]`)
	if len(props["AB"]) != 2 || props["AB"][1] != "bb" {
		t.Errorf("AB = %v", props["AB"])
	}
	if props["C"][0] != "a ] b" {
		t.Errorf("C = %q, want escaped bracket kept", props["C"][0])
	}
	if props["KM"][0] != "6.5" {
		t.Errorf("KM = %v", props["KM"])
	}
}
