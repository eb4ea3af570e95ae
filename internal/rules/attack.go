package rules

// Attacks returns the squares the piece on from captures onto if an enemy piece stood there.
// Pawns attack their forward diagonals regardless of occupancy; castling never attacks.
func Attacks(pos *Position, from Square) []Square {
	return appendAttacks(make([]Square, 0, 16), pos, from)
}

func appendAttacks(dst []Square, pos *Position, from Square) []Square {
	pc := pos.At(from)
	if pc.IsEmpty() {
		return dst
	}
	if pc.Kind() == Pawn {
		fwd := pawnForward(pc.Color())
		for _, df := range [2]int{-1, 1} {
			if to := offset(from, delta{df, fwd}); to != NoSquare {
				dst = append(dst, to)
			}
		}
		return dst
	}
	var buf [32]Move
	for _, m := range appendPseudo(buf[:0], pos, from, false) {
		dst = append(dst, m.To)
	}
	return dst
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
func IsSquareAttacked(pos *Position, sq Square, by Color) bool {
	var buf [32]Square
	for from := Square(0); from < 64; from++ {
		pc := pos.Board[from]
		if pc.IsEmpty() || pc.Color() != by {
			continue
		}
		for _, to := range appendAttacks(buf[:0], pos, from) {
			if to == sq {
				return true
			}
		}
	}
	return false
}

// IsInCheck reports whether the king of color c is attacked. A position without that king is never in check.
func IsInCheck(pos *Position, c Color) bool {
	k := pos.KingSquare(c)
	if k == NoSquare {
		return false
	}
	return IsSquareAttacked(pos, k, c.Other())
}
