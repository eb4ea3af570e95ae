package game

import (
	"errors"
	"time"

	"github.com/park285/cheese-arena/internal/rules"
)

var (
	ErrIllegalMove        = errors.New("illegal move")
	ErrNotYourPiece       = errors.New("no piece of the side to move on that square")
	ErrGameOver           = errors.New("game is over")
	ErrPromotionPending   = errors.New("promotion choice pending")
	ErrNoPromotionPending = errors.New("no promotion pending")
	ErrInvalidPromotion   = errors.New("invalid promotion piece")
	ErrPromotionExpired   = errors.New("promotion choice expired")
)

// State is the orchestrator's view of the game lifecycle.
type State uint8

const (
	StateOngoing State = iota
	StateCheck
	StateCheckmate
	StateStalemate
	StateTimeout
)

func (s State) String() string {
	switch s {
	case StateCheck:
		return "check"
	case StateCheckmate:
		return "checkmate"
	case StateStalemate:
		return "stalemate"
	case StateTimeout:
		return "timeout"
	default:
		return "ongoing"
	}
}

func (s State) Terminal() bool {
	return s == StateCheckmate || s == StateStalemate || s == StateTimeout
}

func stateOf(st rules.Status) State {
	switch st {
	case rules.StatusCheck:
		return StateCheck
	case rules.StatusCheckmate:
		return StateCheckmate
	case rules.StatusStalemate:
		return StateStalemate
	default:
		return StateOngoing
	}
}

type EndKind string

const (
	EndCheckmate EndKind = "checkmate"
	EndStalemate EndKind = "stalemate"
	EndTimeout   EndKind = "timeout"
)

// GameOver is delivered once when the game reaches a terminal state.
// Winner is meaningful only when Draw is false.
type GameOver struct {
	Kind   EndKind
	Winner rules.Color
	Draw   bool
	FEN    string
	Plies  int
}

type Result uint8

const (
	ResultApplied Result = iota
	ResultPromotionPending
)

type MoveResult struct {
	Result Result
	Move   rules.Move
	State  State
	FEN    string
}

// PendingPromotion is a pawn move waiting for the mover's piece choice.
// A zero Deadline never expires.
type PendingPromotion struct {
	Move     rules.Move
	Since    time.Time
	Deadline time.Time
}

func (p PendingPromotion) Expired(now time.Time) bool {
	return !p.Deadline.IsZero() && !now.Before(p.Deadline)
}
