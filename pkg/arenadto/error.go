package arenadto

// Error codes carried in DomainError.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeNotFound          = "not_found"
	CodeIllegalMove       = "illegal_move"
	CodeNotYourTurn       = "not_your_turn"
	CodeNotParticipant    = "not_participant"
	CodePromotionRequired = "promotion_required"
	CodeConflict          = "conflict"
	CodeGameOver          = "game_over"
	CodeOracleMismatch    = "oracle_mismatch"
	CodeInternal          = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "arena service error"
}
