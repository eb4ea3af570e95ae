package arenadto

type CreateGameRequest struct {
	WhiteID string `json:"white_id"`
	BlackID string `json:"black_id"`
	FEN     string `json:"fen,omitempty"`
}

type PlayMoveRequest struct {
	UCI string `json:"uci"`
}

type TimeoutRequest struct {
	Color string `json:"color"`
}

type LegalTargetsResponse struct {
	From    string   `json:"from"`
	Targets []string `json:"targets"`
}

type SuggestionResponse struct {
	Available bool   `json:"available"`
	Move      string `json:"move,omitempty"`
}
