package store

import (
	"errors"
	"time"

	"github.com/park285/cheese-arena/internal/game"
)

var (
	ErrNotFound   = errors.New("game not found")
	ErrExists     = errors.New("game already exists")
	ErrConflict   = errors.New("concurrent update, reload and retry")
	ErrGameClosed = errors.New("game is no longer active")
)

// Status represents a game lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusDraw     Status = "DRAW"
	StatusAborted  Status = "ABORTED"
)

// GameRecord is the persisted header of an online game. The board itself is
// always derived by replaying the move log from InitialFEN.
type GameRecord struct {
	ID          string    `json:"id"`
	InitialFEN  string    `json:"initial_fen"`
	FEN         string    `json:"fen"`
	Turn        string    `json:"turn"`
	State       string    `json:"state"`
	Status      Status    `json:"status"`
	WhiteID     string    `json:"white_id"`
	BlackID     string    `json:"black_id"`
	Plies       int       `json:"plies"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Winner      string    `json:"winner,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Termination string    `json:"termination,omitempty"`
	Flagged     string    `json:"flagged,omitempty"` // color that ran out of time
	Opening     string    `json:"opening,omitempty"`
}

func (g *GameRecord) Active() bool { return g.Status == StatusActive }

// MoveRecord is one entry in the ordered move log. Seq is assigned by the store.
type MoveRecord struct {
	GameID    string    `json:"game_id"`
	Seq       int64     `json:"seq"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Promotion string    `json:"promotion,omitempty"`
	UCI       string    `json:"uci"`
	SAN       string    `json:"san,omitempty"`
	MoverID   string    `json:"mover_id"`
	FENAfter  string    `json:"fen_after"`
	Timestamp time.Time `json:"ts"`
}

func (m MoveRecord) Replayable() game.Record {
	return game.Record{Seq: m.Seq, At: m.Timestamp, UCI: m.UCI}
}

// Replayable converts a log for game.Replay.
func Replayable(moves []MoveRecord) []game.Record {
	out := make([]game.Record, len(moves))
	for i, m := range moves {
		out[i] = m.Replayable()
	}
	return out
}

type EventType string

const (
	EventMove     EventType = "move"
	EventGameOver EventType = "game_over"
)

// Event is published on the game's channel after each committed change.
type Event struct {
	Type EventType   `json:"type"`
	Move *MoveRecord `json:"move,omitempty"`
	Game *GameRecord `json:"game"`
}
