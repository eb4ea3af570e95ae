package arena

import "errors"

var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrNotParticipant    = errors.New("player is not part of this game")
	ErrPromotionRequired = errors.New("promotion piece required")
	ErrOracleMismatch    = errors.New("move rejected by cross-check")
	ErrInvalidPlayers    = errors.New("two distinct players are required")
)
