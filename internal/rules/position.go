package rules

// CastlingRights holds the four independent castling flags. Flags are only cleared.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
)

func (c CastlingRights) Has(r CastlingRights) bool {
	return c&r == r
}

func (c CastlingRights) String() string {
	if c == NoCastling {
		return "-"
	}
	out := make([]byte, 0, 4)
	if c.Has(WhiteKingside) {
		out = append(out, 'K')
	}
	if c.Has(WhiteQueenside) {
		out = append(out, 'Q')
	}
	if c.Has(BlackKingside) {
		out = append(out, 'k')
	}
	if c.Has(BlackQueenside) {
		out = append(out, 'q')
	}
	return string(out)
}

// Board is indexed by Square. The zero value is an empty board.
type Board [64]Piece

// Position is a complete snapshot of a chess position. Copying the value copies the position.
type Position struct {
	Board          Board
	Turn           Color
	Castling       CastlingRights
	EnPassant      Square
	HalfmoveClock  int
	FullmoveNumber int
}

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func StartPosition() Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

func (p *Position) At(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return p.Board[sq]
}

func (p *Position) KingSquare(c Color) Square {
	want := NewPiece(c, King)
	for sq := Square(0); sq < 64; sq++ {
		if p.Board[sq] == want {
			return sq
		}
	}
	return NoSquare
}

// Pieces returns the squares occupied by pieces of color c, in board order.
func (p *Position) Pieces(c Color) []Square {
	out := make([]Square, 0, 16)
	for sq := Square(0); sq < 64; sq++ {
		pc := p.Board[sq]
		if !pc.IsEmpty() && pc.Color() == c {
			out = append(out, sq)
		}
	}
	return out
}

// Try applies m, runs probe against the resulting position and restores the
// exact prior position on every exit path, including a panicking probe.
func (p *Position) Try(m Move, probe func(*Position) bool) bool {
	saved := *p
	defer func() { *p = saved }()
	p.Apply(m)
	return probe(p)
}
