package sgf

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"goarena/types"
)

// MaxBoardSize is the largest board an SGF record may describe here.
const MaxBoardSize = 25

// Parse converts an SGF record into a game configuration. The root node
// supplies SZ, KM, TM and PL, AB/AW nodes supply the initial position, and
// every B/W node becomes a move log entry. Rules not expressible in SGF
// keep their defaults.
func Parse(content string) (types.GameConfiguration, error) {
	if !strings.Contains(content, "(;") {
		return types.GameConfiguration{}, fmt.Errorf("not an SGF record")
	}
	props := parseProperties(content)

	boardSize := types.DefaultBoardSize
	if v, ok := props["SZ"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return types.GameConfiguration{}, fmt.Errorf("invalid SZ %q", v)
		}
		boardSize = n
	}
	if boardSize < 1 || boardSize > MaxBoardSize {
		return types.GameConfiguration{}, fmt.Errorf("board size %d out of range 1-%d", boardSize, MaxBoardSize)
	}

	cfg := types.DefaultConfiguration()
	if v, ok := props["KM"]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			cfg.Komi = f
		}
	}

	remaining := cfg.InitialState.Players[types.Black].RemainingTime
	if v, ok := props["TM"]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			remaining = types.Millis(math.Round(f * 1000))
		}
	}
	cfg.InitialState = types.NewGameState(boardSize, remaining)

	if v, ok := props["PL"]; ok {
		c, err := types.ParseColor(v)
		if err != nil || c == types.None {
			return types.GameConfiguration{}, fmt.Errorf("invalid PL %q", v)
		}
		cfg.InitialState.Turn = c
	}

	if err := applySetup(content, cfg.InitialState.Board); err != nil {
		return types.GameConfiguration{}, err
	}

	turn := cfg.InitialState.Turn
	for _, node := range parseNodes(content) {
		color, move, ok := parseMoveNode(node, boardSize)
		if !ok {
			continue
		}
		if color != turn {
			return types.GameConfiguration{}, fmt.Errorf("move %d: %s plays out of turn", len(cfg.MoveLog)+1, color.Name())
		}
		cfg.MoveLog = append(cfg.MoveLog, types.LogEntry{Move: move})
		turn = turn.Opponent()
	}
	return cfg, nil
}

// parseProperties extracts KEY[value] pairs from the root node of an SGF string.
func parseProperties(content string) map[string]string {
	props := make(map[string]string)

	// Find the root node: starts after "(;"
	start := strings.Index(content, "(;")
	if start == -1 {
		return props
	}
	start += 2 // skip "(;"

	root := content[start:nodeEnd(content, start)]
	for key, values := range extractProps(root) {
		props[key] = values[len(values)-1] // last value wins for simple props
	}
	return props
}

// nodeEnd returns the index of the ';' or ')' that ends the node starting
// at start, skipping bracketed values.
func nodeEnd(content string, start int) int {
	i := start
	for i < len(content) {
		switch content[i] {
		case ';', ')', '(':
			return i
		case '[':
			i = skipValue(content, i)
			continue
		}
		i++
	}
	return len(content)
}

// skipValue returns the index just past the value starting at the '[' at i.
func skipValue(content string, i int) int {
	i++
	for i < len(content) && content[i] != ']' {
		if content[i] == '\\' && i+1 < len(content) {
			i++ // skip escaped char
		}
		i++
	}
	return i + 1
}

// extractProps parses KEY[value][value]... pairs from a node string.
func extractProps(node string) map[string][]string {
	props := make(map[string][]string)
	i := 0
	for i < len(node) {
		// Read property identifier (uppercase letters)
		keyStart := i
		for i < len(node) && node[i] >= 'A' && node[i] <= 'Z' {
			i++
		}
		if i == keyStart {
			i++
			continue
		}
		key := node[keyStart:i]

		for i < len(node) && node[i] == '[' {
			end := skipValue(node, i)
			val := node[i+1 : min(end-1, len(node))]
			props[key] = append(props[key], unescape(val))
			i = end
		}
	}
	return props
}

// parseNodes returns the nodes of the main line, the root included. The
// first variation is followed and the rest of the tree is ignored.
func parseNodes(content string) []string {
	var nodes []string
	i := strings.Index(content, "(;")
	if i == -1 {
		return nodes
	}
	i++
	for i < len(content) {
		switch content[i] {
		case ')':
			return nodes
		case ';':
			end := nodeEnd(content, i+1)
			nodes = append(nodes, content[i:end])
			i = end
			continue
		case '[':
			i = skipValue(content, i)
			continue
		}
		i++
	}
	return nodes
}

// parseMoveNode extracts the color and move of a node like ";B[pd]". An
// empty value, or "tt" on boards up to 19, is a pass.
func parseMoveNode(node string, boardSize int) (types.Color, types.Move, bool) {
	props := extractProps(strings.TrimPrefix(strings.TrimSpace(node), ";"))
	for _, key := range []string{"B", "W"} {
		values, ok := props[key]
		if !ok || len(values) == 0 {
			continue
		}
		color, _ := types.ParseColor(key)
		coord := strings.TrimSpace(values[0])
		if coord == "" || (coord == "tt" && boardSize <= 19) {
			return color, types.Pass{}, true
		}
		p, ok := parseCoord(coord)
		if !ok {
			return types.None, nil, false
		}
		return color, types.Place{Point: p}, true
	}
	return types.None, nil, false
}

func parseCoord(coord string) (types.Point, bool) {
	if len(coord) != 2 || coord[0] < 'a' || coord[0] > 'z' || coord[1] < 'a' || coord[1] > 'z' {
		return types.Point{}, false
	}
	return types.Point{Row: int(coord[1] - 'a'), Column: int(coord[0] - 'a')}, true
}

// applySetup places the AB[]/AW[] stones of every node on board.
func applySetup(content string, board types.Board) error {
	for _, node := range parseNodes(content) {
		props := extractProps(strings.TrimPrefix(node, ";"))
		for key, color := range map[string]types.Color{"AB": types.Black, "AW": types.White} {
			for _, v := range props[key] {
				p, ok := parseCoord(v)
				if !ok || !p.InBounds(board.Size()) {
					return fmt.Errorf("invalid %s point %q", key, v)
				}
				board.Set(p, color)
			}
		}
	}
	return nil
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
