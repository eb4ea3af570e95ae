package rules

type Status uint8

const (
	StatusOngoing Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Terminal reports whether no further move can be played.
func (s Status) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate
}

func IsCheckmate(pos *Position, c Color) bool {
	return IsInCheck(pos, c) && !HasLegalMove(pos, c)
}

func IsStalemate(pos *Position, c Color) bool {
	return !IsInCheck(pos, c) && !HasLegalMove(pos, c)
}

// Evaluate classifies the position for the side to move.
func Evaluate(pos *Position) Status {
	c := pos.Turn
	check := IsInCheck(pos, c)
	if HasLegalMove(pos, c) {
		if check {
			return StatusCheck
		}
		return StatusOngoing
	}
	if check {
		return StatusCheckmate
	}
	return StatusStalemate
}
