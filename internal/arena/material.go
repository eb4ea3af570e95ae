package arena

import (
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/internal/store"
	"github.com/park285/cheese-arena/pkg/arenadto"
)

var pieceValue = [...]int{
	rules.Pawn:   1,
	rules.Knight: 3,
	rules.Bishop: 3,
	rules.Rook:   5,
	rules.Queen:  9,
	rules.King:   0,
}

func materialOf(pos *rules.Position) arenadto.MaterialScore {
	var s arenadto.MaterialScore
	for _, pc := range pos.Board {
		if pc.IsEmpty() {
			continue
		}
		if pc.Color() == rules.White {
			s.White += pieceValue[pc.Kind()]
		} else {
			s.Black += pieceValue[pc.Kind()]
		}
	}
	return s
}

// capturedBy walks the log once more and records, per side, the pieces that
// side has taken. Letters are lower case.
func capturedBy(initialFEN string, moves []store.MoveRecord) arenadto.CapturedPieces {
	out := arenadto.CapturedPieces{White: []string{}, Black: []string{}}
	pos, err := rules.ParseFEN(initialFEN)
	if err != nil {
		return out
	}
	for _, mv := range moves {
		want, err := rules.ParseUCI(mv.UCI)
		if err != nil {
			return out
		}
		m, ok := rules.Resolve(&pos, want)
		if !ok {
			return out
		}
		var victim rules.Piece
		switch {
		case m.IsEnPassant():
			victim = rules.NewPiece(pos.Turn.Other(), rules.Pawn)
		case m.IsCapture():
			victim = pos.At(m.To)
		}
		if !victim.IsEmpty() {
			letter := string(victim.Kind().Letter())
			if pos.Turn == rules.White {
				out.White = append(out.White, letter)
			} else {
				out.Black = append(out.Black, letter)
			}
		}
		pos.Apply(m)
	}
	return out
}
