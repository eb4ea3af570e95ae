package rules

import "fmt"

// Color 는 기물/차례의 진영이다.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{0, 'p', 'n', 'b', 'r', 'q', 'k'}

// Letter 는 소문자 FEN/UCI 문자를 반환한다.
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return 0
	}
	return kindLetters[k]
}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

func kindFromLetter(b byte) Kind {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	for k := Pawn; k <= King; k++ {
		if kindLetters[k] == b {
			return k
		}
	}
	return NoKind
}

// Promotable 는 승급 선택지로 허용되는 기물인지 확인한다.
func (k Kind) Promotable() bool {
	return k == Queen || k == Rook || k == Bishop || k == Knight
}

// Piece 는 (color, kind) 쌍이다. 0 은 빈 칸.
type Piece uint8

const NoPiece Piece = 0

func NewPiece(c Color, k Kind) Piece {
	return Piece(uint8(k) | uint8(c)<<3)
}

func (p Piece) Kind() Kind   { return Kind(p & 7) }
func (p Piece) Color() Color { return Color(p >> 3) }
func (p Piece) IsEmpty() bool {
	return p.Kind() == NoKind
}

// Letter 는 FEN 문자 (백은 대문자).
func (p Piece) Letter() byte {
	l := p.Kind().Letter()
	if l == 0 {
		return '.'
	}
	if p.Color() == White {
		return l - ('a' - 'A')
	}
	return l
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return p.Color().String() + " " + p.Kind().String()
}

// Square 는 row*8+file 인덱스. row 0 = 8랭크, file 0 = a파일.
type Square int8

const NoSquare Square = -1

func NewSquare(file, row int) Square {
	if file < 0 || file > 7 || row < 0 || row > 7 {
		return NoSquare
	}
	return Square(row*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Row() int  { return int(s) / 8 }

// Rank 는 1..8 의 랭크 번호.
func (s Square) Rank() int { return 8 - s.Row() }

func (s Square) Valid() bool {
	return s >= 0 && s < 64
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('0' + s.Rank())})
}

func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: square %q", ErrInvalidMove, s)
	}
	f, r := s[0], s[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return NoSquare, fmt.Errorf("%w: square %q", ErrInvalidMove, s)
	}
	return NewSquare(int(f-'a'), 7-int(r-'1')), nil
}

// MustSquare 는 테스트/상수용.
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

const (
	A8 Square = iota
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A1
	B1
	C1
	D1
	E1
	F1
	G1
	H1
)
