package rules

var promotionKinds = [...]Kind{Queen, Rook, Bishop, Knight}

// Expand turns each unresolved promotion into one move per promotable kind.
func Expand(moves []Move) []Move {
	out := make([]Move, 0, len(moves))
	for _, m := range moves {
		if m.IsPromotion() && m.Promotion == NoKind {
			for _, k := range promotionKinds {
				out = append(out, m.WithPromotion(k))
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

// Perft counts leaf nodes of the legal move tree to the given depth.
func Perft(pos *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := Expand(LegalMoves(pos, pos.Turn))
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		pos.Try(m, func(next *Position) bool {
			nodes += Perft(next, depth-1)
			return true
		})
	}
	return nodes
}

// Divide reports the perft count below each root move, keyed by UCI.
func Divide(pos *Position, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth <= 0 {
		return out
	}
	for _, m := range Expand(LegalMoves(pos, pos.Turn)) {
		pos.Try(m, func(next *Position) bool {
			out[m.UCI()] = Perft(next, depth-1)
			return true
		})
	}
	return out
}
