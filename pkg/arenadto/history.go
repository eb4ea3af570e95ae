package arenadto

import "time"

type ArchivedGame struct {
	GameID      string        `json:"game_id"`
	WhiteID     string        `json:"white_id"`
	BlackID     string        `json:"black_id"`
	Result      string        `json:"result"`
	Termination string        `json:"termination"`
	MovesSAN    []string      `json:"moves_san"`
	Opening     string        `json:"opening,omitempty"`
	PGN         string        `json:"pgn"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     time.Time     `json:"ended_at"`
	Duration    time.Duration `json:"duration_ns"`
}

type HistoryResponse struct {
	Games []ArchivedGame `json:"games"`
}
