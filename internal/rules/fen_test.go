package rules

import (
	"errors"
	"testing"
)

func TestParseFEN_RoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K3 b - - 12 40",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.FEN(); got != fen {
			t.Fatalf("round trip mismatch:\n got %s\nwant %s", got, fen)
		}
	}
}

func TestParseFEN_Fields(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w Kq d6 5 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.Turn != White {
		t.Fatalf("turn = %v", pos.Turn)
	}
	if pos.Castling != WhiteKingside|BlackQueenside {
		t.Fatalf("castling = %s", pos.Castling)
	}
	if pos.EnPassant != D6 {
		t.Fatalf("en passant = %s", pos.EnPassant)
	}
	if pos.HalfmoveClock != 5 || pos.FullmoveNumber != 3 {
		t.Fatalf("clocks = %d %d", pos.HalfmoveClock, pos.FullmoveNumber)
	}
	if pos.At(E5) != NewPiece(White, Pawn) || pos.At(D5) != NewPiece(Black, Pawn) {
		t.Fatalf("unexpected placement %s", pos.Placement())
	}
	if pos.At(A8) != NewPiece(Black, Rook) || pos.At(H1) != NewPiece(White, Rook) {
		t.Fatalf("corner rooks misplaced")
	}
}

func TestParseFEN_Invalid(t *testing.T) {
	cases := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"five fields", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0"},
		{"seven ranks", "rnbqkbnr/pppppppp/8/8/8/8/RNBQKBNR w KQkq - 0 1"},
		{"rank too long", "rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"rank too short", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad piece", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1"},
		{"bad side", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq - 0 1"},
		{"bad en passant", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e4 0 1"},
		{"negative halfmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1"},
		{"zero fullmove", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0"},
		{"two white kings", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBKKBNR w KQkq - 0 1"},
		{"no black king", "rnbqqbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1"},
		{"pawn on back rank", "rnbqkbnP/pppppppp/8/8/8/8/PPPPPPP1/RNBQKBNR w KQq - 0 1"},
		{"side not to move in check", "4k2R/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"adjacent kings", "8/8/8/3kK3/8/8/8/8 w - - 0 1"},
		{"black to move, white in check", "4k3/8/8/8/8/8/8/r3K3 b - - 0 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFEN(tc.fen)
			if !errors.Is(err, ErrInvalidFEN) {
				t.Fatalf("err = %v, want ErrInvalidFEN", err)
			}
		})
	}
}

func TestSquareParse(t *testing.T) {
	if MustSquare("a8") != A8 || MustSquare("h1") != H1 || MustSquare("e4") != E4 {
		t.Fatalf("square constants disagree with ParseSquare")
	}
	if E4.File() != 4 || E4.Rank() != 4 {
		t.Fatalf("e4 file/rank = %d/%d", E4.File(), E4.Rank())
	}
	for _, bad := range []string{"", "i1", "a9", "a0", "e44"} {
		if _, err := ParseSquare(bad); !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("ParseSquare(%q) err = %v", bad, err)
		}
	}
}

func TestParseUCI(t *testing.T) {
	m, err := ParseUCI("e7e8n")
	if err != nil {
		t.Fatalf("ParseUCI: %v", err)
	}
	if m.From != E7 || m.To != E8 || m.Promotion != Knight {
		t.Fatalf("unexpected move %+v", m)
	}
	if m.UCI() != "e7e8n" {
		t.Fatalf("UCI() = %s", m.UCI())
	}
	for _, bad := range []string{"e2", "e2e9", "e7e8k", "e7e8qq"} {
		if _, err := ParseUCI(bad); err == nil {
			t.Fatalf("ParseUCI(%q) accepted", bad)
		}
	}
}
