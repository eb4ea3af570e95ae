package rules

var castleMask [64]CastlingRights

func init() {
	for i := range castleMask {
		castleMask[i] = AllCastling
	}
	castleMask[E1] &^= WhiteKingside | WhiteQueenside
	castleMask[H1] &^= WhiteKingside
	castleMask[A1] &^= WhiteQueenside
	castleMask[E8] &^= BlackKingside | BlackQueenside
	castleMask[H8] &^= BlackKingside
	castleMask[A8] &^= BlackQueenside
}

// Apply plays m without legality checks. Castling, en passant and double pushes
// are recognised from the board, so a bare from/to move is applied correctly.
// An unresolved promotion becomes a queen.
func (p *Position) Apply(m Move) {
	pc := p.Board[m.From]
	if pc.IsEmpty() {
		return
	}
	mover := pc.Color()
	captured := p.Board[m.To]
	p.Board[m.From] = NoPiece

	if pc.Kind() == Pawn {
		if m.From.File() != m.To.File() && captured.IsEmpty() {
			victim := NewSquare(m.To.File(), m.From.Row())
			captured = p.Board[victim]
			p.Board[victim] = NoPiece
		}
		if m.To.Row() == lastRow(mover) {
			kind := m.Promotion
			if !kind.Promotable() {
				kind = Queen
			}
			pc = NewPiece(mover, kind)
		}
	}
	p.Board[m.To] = pc

	if pc.Kind() == King {
		switch m.To.File() - m.From.File() {
		case 2:
			p.relocateRook(NewSquare(7, m.From.Row()), NewSquare(5, m.From.Row()))
		case -2:
			p.relocateRook(NewSquare(0, m.From.Row()), NewSquare(3, m.From.Row()))
		}
	}

	p.Castling &= castleMask[m.From] & castleMask[m.To]

	p.EnPassant = NoSquare
	if pc.Kind() == Pawn {
		if d := m.To.Row() - m.From.Row(); d == 2 || d == -2 {
			p.EnPassant = NewSquare(m.From.File(), (m.From.Row()+m.To.Row())/2)
		}
	}

	if pc.Kind() == Pawn || !captured.IsEmpty() {
		p.HalfmoveClock = 0
	} else {
		p.HalfmoveClock++
	}
	if mover == Black {
		p.FullmoveNumber++
	}
	p.Turn = mover.Other()
}

func (p *Position) relocateRook(from, to Square) {
	p.Board[to] = p.Board[from]
	p.Board[from] = NoPiece
}
