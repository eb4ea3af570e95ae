package arenadto

import "time"

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// MoveView is one committed move of the server log.
type MoveView struct {
	Seq       int64     `json:"seq"`
	UCI       string    `json:"uci"`
	SAN       string    `json:"san,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Promotion string    `json:"promotion,omitempty"`
	MoverID   string    `json:"mover_id"`
	At        time.Time `json:"at"`
}

// GameState is the full view of an online game as derived from its move log.
type GameState struct {
	ID         string         `json:"id"`
	WhiteID    string         `json:"white_id"`
	BlackID    string         `json:"black_id"`
	InitialFEN string         `json:"initial_fen"`
	FEN        string         `json:"fen"`
	Turn       string         `json:"turn"`
	State      string         `json:"state"`
	Status     string         `json:"status"`
	InCheck    bool           `json:"in_check"`
	Plies      int            `json:"plies"`
	Moves      []MoveView     `json:"moves"`
	LastMove   *MoveView      `json:"last_move,omitempty"`
	Opening    string         `json:"opening,omitempty"`
	Material   MaterialScore  `json:"material"`
	Captured   CapturedPieces `json:"captured"`
	Result     *GameOverEvent `json:"result,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
