package rules

// IsLegal reports whether m leaves the mover's king unattacked. m must be a pseudo-legal move;
// castling transit safety is enforced by the generator.
func IsLegal(pos *Position, m Move) bool {
	pc := pos.At(m.From)
	if pc.IsEmpty() {
		return false
	}
	mover := pc.Color()
	return pos.Try(m, func(after *Position) bool {
		return !IsInCheck(after, mover)
	})
}

// LegalMovesFrom filters the pseudo-legal moves of the piece on from. pos is restored before return.
func LegalMovesFrom(pos *Position, from Square) []Move {
	pseudo := PseudoMoves(pos, from)
	out := pseudo[:0]
	for _, m := range pseudo {
		if IsLegal(pos, m) {
			out = append(out, m)
		}
	}
	return out
}

// LegalTargets returns the destination squares of the legal moves from a square.
func LegalTargets(pos *Position, from Square) []Square {
	moves := LegalMovesFrom(pos, from)
	out := make([]Square, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.To)
	}
	return out
}

// LegalMoves returns every legal move of color c. Promotions appear once with Promotion unset.
func LegalMoves(pos *Position, c Color) []Move {
	var out []Move
	for _, sq := range pos.Pieces(c) {
		out = append(out, LegalMovesFrom(pos, sq)...)
	}
	return out
}

func HasLegalMove(pos *Position, c Color) bool {
	for _, sq := range pos.Pieces(c) {
		for _, m := range PseudoMoves(pos, sq) {
			if IsLegal(pos, m) {
				return true
			}
		}
	}
	return false
}
