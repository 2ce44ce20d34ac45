package types

import "encoding/json"

// Message shapes exchanged with a transport layer. The transport itself
// lives outside this module; these only fix the payloads.

// MoveMessage carries a move submitted by a player.
type MoveMessage struct {
	Move Move
}

// MarshalJSON writes {"type":"MOVE","move":{...}}.
func (m MoveMessage) MarshalJSON() ([]byte, error) {
	move, err := MarshalMove(m.Move)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type string          `json:"type"`
		Move json.RawMessage `json:"move"`
	}{"MOVE", move})
}

// UnmarshalJSON reads the move out of a MOVE message.
func (m *MoveMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Move json.RawMessage `json:"move"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	move, err := UnmarshalMove(raw.Move)
	if err != nil {
		return err
	}
	m.Move = move
	return nil
}

// ResultMessage reports whether a submitted move was accepted.
type ResultMessage struct {
	Type          string           `json:"type"`
	Valid         bool             `json:"valid"`
	RemainingTime map[Color]Millis `json:"remainingTime"`
	Message       string           `json:"message,omitempty"`
}

// NewResultMessage builds a VALID or INVALID message from a move outcome.
func NewResultMessage(valid bool, state GameState, message string) ResultMessage {
	kind := "VALID"
	if !valid {
		kind = "INVALID"
	}
	return ResultMessage{
		Type:          kind,
		Valid:         valid,
		RemainingTime: remainingTimes(state),
		Message:       message,
	}
}

// StartMessage announces a game and the color assigned to the receiver.
type StartMessage struct {
	Type          string            `json:"type"`
	Configuration GameConfiguration `json:"configuration"`
	Color         Color             `json:"color"`
}

// NewStartMessage builds a START message.
func NewStartMessage(cfg GameConfiguration, color Color) StartMessage {
	return StartMessage{Type: "START", Configuration: cfg, Color: color}
}

// PlayerSummary is one player's line in an END message.
type PlayerSummary struct {
	RemainingTime Millis  `json:"remainingTime"`
	Score         float64 `json:"score"`
}

// EndMessage announces the end of a game.
type EndMessage struct {
	Type    string                  `json:"type"`
	Reason  EndReason               `json:"reason"`
	Winner  Color                   `json:"winner"`
	Players map[Color]PlayerSummary `json:"players"`
}

// NewEndMessage builds an END message. Scores come from info when present.
func NewEndMessage(reason EndReason, winner Color, scores Scores, state GameState) EndMessage {
	players := make(map[Color]PlayerSummary, 2)
	for _, c := range Colors {
		players[c] = PlayerSummary{
			RemainingTime: state.Players[c].RemainingTime,
			Score:         scores[c],
		}
	}
	return EndMessage{Type: "END", Reason: reason, Winner: winner, Players: players}
}

func remainingTimes(state GameState) map[Color]Millis {
	out := make(map[Color]Millis, 2)
	for _, c := range Colors {
		out[c] = state.Players[c].RemainingTime
	}
	return out
}
