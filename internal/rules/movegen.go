package rules

type delta struct{ df, dr int }

var (
	knightDeltas = [...]delta{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingDeltas   = [...]delta{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	bishopDirs   = [...]delta{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookDirs     = [...]delta{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
)

func offset(sq Square, d delta) Square {
	return NewSquare(sq.File()+d.df, sq.Row()+d.dr)
}

// pawnForward is the row delta of a pawn advance. Row 0 is rank 8.
func pawnForward(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func lastRow(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

type castleRule struct {
	right  CastlingRights
	flag   MoveFlag
	king   Square
	rook   Square
	kingTo Square
	rookTo Square
	empty  []Square
	safe   []Square
}

var castleRules = [2][2]castleRule{
	White: {
		{right: WhiteKingside, flag: FlagCastleKingside, king: E1, rook: H1, kingTo: G1, rookTo: F1,
			empty: []Square{F1, G1}, safe: []Square{E1, F1, G1}},
		{right: WhiteQueenside, flag: FlagCastleQueenside, king: E1, rook: A1, kingTo: C1, rookTo: D1,
			empty: []Square{B1, C1, D1}, safe: []Square{E1, D1, C1}},
	},
	Black: {
		{right: BlackKingside, flag: FlagCastleKingside, king: E8, rook: H8, kingTo: G8, rookTo: F8,
			empty: []Square{F8, G8}, safe: []Square{E8, F8, G8}},
		{right: BlackQueenside, flag: FlagCastleQueenside, king: E8, rook: A8, kingTo: C8, rookTo: D8,
			empty: []Square{B8, C8, D8}, safe: []Square{E8, D8, C8}},
	},
}

// PseudoMoves returns the moves of the piece on from that obey its movement
// pattern, ignoring whether the mover's own king is left attacked.
func PseudoMoves(pos *Position, from Square) []Move {
	return appendPseudo(make([]Move, 0, 16), pos, from, true)
}

func appendPseudo(dst []Move, pos *Position, from Square, castling bool) []Move {
	pc := pos.At(from)
	if pc.IsEmpty() {
		return dst
	}
	c := pc.Color()
	switch pc.Kind() {
	case Pawn:
		return appendPawn(dst, pos, from, c)
	case Knight:
		return appendSteps(dst, pos, from, c, knightDeltas[:])
	case Bishop:
		return appendRays(dst, pos, from, c, bishopDirs[:])
	case Rook:
		return appendRays(dst, pos, from, c, rookDirs[:])
	case Queen:
		dst = appendRays(dst, pos, from, c, bishopDirs[:])
		return appendRays(dst, pos, from, c, rookDirs[:])
	case King:
		dst = appendSteps(dst, pos, from, c, kingDeltas[:])
		if castling {
			dst = appendCastling(dst, pos, from, c)
		}
		return dst
	}
	return dst
}

func appendSteps(dst []Move, pos *Position, from Square, c Color, deltas []delta) []Move {
	for _, d := range deltas {
		to := offset(from, d)
		if to == NoSquare {
			continue
		}
		occ := pos.Board[to]
		if occ.IsEmpty() {
			dst = append(dst, Move{From: from, To: to})
		} else if occ.Color() != c {
			dst = append(dst, Move{From: from, To: to, Flags: FlagCapture})
		}
	}
	return dst
}

func appendRays(dst []Move, pos *Position, from Square, c Color, dirs []delta) []Move {
	for _, d := range dirs {
		for to := offset(from, d); to != NoSquare; to = offset(to, d) {
			occ := pos.Board[to]
			if occ.IsEmpty() {
				dst = append(dst, Move{From: from, To: to})
				continue
			}
			if occ.Color() != c {
				dst = append(dst, Move{From: from, To: to, Flags: FlagCapture})
			}
			break
		}
	}
	return dst
}

func appendPawn(dst []Move, pos *Position, from Square, c Color) []Move {
	fwd := pawnForward(c)
	promo := func(to Square) MoveFlag {
		if to.Row() == lastRow(c) {
			return FlagPromotion
		}
		return 0
	}

	one := offset(from, delta{0, fwd})
	if one != NoSquare && pos.Board[one].IsEmpty() {
		dst = append(dst, Move{From: from, To: one, Flags: promo(one)})
		if from.Row() == pawnStartRow(c) {
			two := offset(one, delta{0, fwd})
			if two != NoSquare && pos.Board[two].IsEmpty() {
				dst = append(dst, Move{From: from, To: two, Flags: FlagDoublePush})
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to := offset(from, delta{df, fwd})
		if to == NoSquare {
			continue
		}
		occ := pos.Board[to]
		if !occ.IsEmpty() {
			if occ.Color() != c {
				dst = append(dst, Move{From: from, To: to, Flags: FlagCapture | promo(to)})
			}
			continue
		}
		if to == pos.EnPassant && c == pos.Turn {
			// the double-pushed pawn stands beside the capturer
			victim := NewSquare(to.File(), from.Row())
			if pos.Board[victim] == NewPiece(c.Other(), Pawn) {
				dst = append(dst, Move{From: from, To: to, Flags: FlagCapture | FlagEnPassant})
			}
		}
	}
	return dst
}

func appendCastling(dst []Move, pos *Position, from Square, c Color) []Move {
	for i := range castleRules[c] {
		r := &castleRules[c][i]
		if !pos.Castling.Has(r.right) || from != r.king {
			continue
		}
		if pos.Board[r.king] != NewPiece(c, King) || pos.Board[r.rook] != NewPiece(c, Rook) {
			continue
		}
		if !allEmpty(pos, r.empty) {
			continue
		}
		if anyAttacked(pos, r.safe, c.Other()) {
			continue
		}
		dst = append(dst, Move{From: r.king, To: r.kingTo, Flags: r.flag})
	}
	return dst
}

func allEmpty(pos *Position, squares []Square) bool {
	for _, sq := range squares {
		if !pos.Board[sq].IsEmpty() {
			return false
		}
	}
	return true
}

func anyAttacked(pos *Position, squares []Square, by Color) bool {
	for _, sq := range squares {
		if IsSquareAttacked(pos, sq, by) {
			return true
		}
	}
	return false
}
