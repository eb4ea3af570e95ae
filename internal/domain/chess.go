package domain

import "time"

// ArchivedGame is the durable summary of a finished online game.
type ArchivedGame struct {
	GameID      string
	WhiteID     string
	BlackID     string
	InitialFEN  string
	FinalFEN    string
	Result      string // white | black | draw
	Termination string // checkmate | stalemate | timeout
	MovesUCI    []string
	MovesSAN    []string
	Opening     string
	PGN         string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}

// Involves reports whether playerID sat at either side of the board.
func (g *ArchivedGame) Involves(playerID string) bool {
	return playerID != "" && (g.WhiteID == playerID || g.BlackID == playerID)
}
