package rules

import "fmt"

type MoveFlag uint8

const (
	FlagCapture MoveFlag = 1 << iota
	FlagEnPassant
	FlagDoublePush
	FlagCastleKingside
	FlagCastleQueenside
	// FlagPromotion marks a pawn move onto the last rank. The piece choice lives in Move.Promotion.
	FlagPromotion
)

func (f MoveFlag) Has(x MoveFlag) bool { return f&x != 0 }

type Move struct {
	From      Square
	To        Square
	Promotion Kind
	Flags     MoveFlag
}

func (m Move) IsCapture() bool   { return m.Flags.Has(FlagCapture) }
func (m Move) IsEnPassant() bool { return m.Flags.Has(FlagEnPassant) }
func (m Move) IsCastle() bool    { return m.Flags.Has(FlagCastleKingside | FlagCastleQueenside) }
func (m Move) IsPromotion() bool { return m.Flags.Has(FlagPromotion) }

// WithPromotion returns a copy resolved to kind.
func (m Move) WithPromotion(kind Kind) Move {
	m.Promotion = kind
	return m
}

// UCI returns long algebraic notation such as e2e4 or e7e8q.
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}

func (m Move) String() string { return m.UCI() }

// ParseUCI parses coordinates only. Flags are filled in by Resolve.
func ParseUCI(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		k := kindFromLetter(s[4])
		if !k.Promotable() {
			return Move{}, fmt.Errorf("%w: promotion piece %q", ErrInvalidMove, s[4])
		}
		m.Promotion = k
	}
	return m, nil
}

// Resolve finds the legal move matching m's squares. A promotion kind on m is carried over.
func Resolve(pos *Position, m Move) (Move, bool) {
	for _, lm := range LegalMovesFrom(pos, m.From) {
		if lm.To != m.To {
			continue
		}
		if lm.IsPromotion() {
			if m.Promotion != NoKind {
				lm.Promotion = m.Promotion
			}
		} else if m.Promotion != NoKind {
			return Move{}, false
		}
		return lm, true
	}
	return Move{}, false
}
