package arenadto

import (
	"encoding/json"
	"fmt"
)

const (
	EnvelopeSnapshot = "snapshot"
	EnvelopeMove     = "move"
	EnvelopeGameOver = "game_over"
	EnvelopeError    = "error"
)

// Envelope frames every websocket message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(typ string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return Envelope{Type: typ, Payload: raw}, nil
}

func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type MoveEvent struct {
	GameID string   `json:"game_id"`
	Move   MoveView `json:"move"`
	FEN    string   `json:"fen"`
	Turn   string   `json:"turn"`
	State  string   `json:"state"`
}

// GameOverEvent announces the end of a game. Winner is empty for draws.
type GameOverEvent struct {
	GameID   string `json:"game_id"`
	Kind     string `json:"kind"`
	Winner   string `json:"winner,omitempty"`
	WinnerID string `json:"winner_id,omitempty"`
	Draw     bool   `json:"draw"`
	Message  string `json:"message"`
	FEN      string `json:"fen"`
	Plies    int    `json:"plies"`
}
