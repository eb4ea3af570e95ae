package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFEN parses all six FEN fields. Malformed input returns an error wrapping ErrInvalidFEN.
func ParseFEN(fen string) (Position, error) {
	var pos Position
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return pos, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	if err := parsePlacement(&pos, fields[0]); err != nil {
		return pos, err
	}

	switch fields[1] {
	case "w":
		pos.Turn = White
	case "b":
		pos.Turn = Black
	default:
		return pos, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	castling, err := parseCastling(fields[2])
	if err != nil {
		return pos, err
	}
	pos.Castling = castling

	pos.EnPassant = NoSquare
	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return pos, fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, fields[3])
		}
		if sq.Rank() != 3 && sq.Rank() != 6 {
			return pos, fmt.Errorf("%w: en passant square %q not on rank 3 or 6", ErrInvalidFEN, fields[3])
		}
		pos.EnPassant = sq
	}

	half, err := strconv.Atoi(fields[4])
	if err != nil || half < 0 {
		return pos, fmt.Errorf("%w: halfmove clock %q", ErrInvalidFEN, fields[4])
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return pos, fmt.Errorf("%w: fullmove number %q", ErrInvalidFEN, fields[5])
	}
	pos.HalfmoveClock = half
	pos.FullmoveNumber = full

	// the side that just moved may not be left in check; adjacent kings fail here too
	if IsInCheck(&pos, pos.Turn.Other()) {
		return pos, fmt.Errorf("%w: %s to move but %s is in check", ErrInvalidFEN, pos.Turn, pos.Turn.Other())
	}
	return pos, nil
}

func parsePlacement(pos *Position, placement string) error {
	rows := strings.Split(placement, "/")
	if len(rows) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(rows))
	}
	kings := [2]int{}
	for row, text := range rows {
		file := 0
		for i := 0; i < len(text); i++ {
			ch := text[i]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			kind := kindFromLetter(ch)
			if kind == NoKind {
				return fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			if file > 7 {
				return fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, 8-row)
			}
			color := Black
			if ch >= 'A' && ch <= 'Z' {
				color = White
			}
			if kind == Pawn && (row == 0 || row == 7) {
				return fmt.Errorf("%w: pawn on rank %d", ErrInvalidFEN, 8-row)
			}
			if kind == King {
				kings[color]++
			}
			pos.Board[NewSquare(file, row)] = NewPiece(color, kind)
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-row, file)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	return nil
}

func parseCastling(s string) (CastlingRights, error) {
	if s == "-" {
		return NoCastling, nil
	}
	var c CastlingRights
	for i := 0; i < len(s); i++ {
		var r CastlingRights
		switch s[i] {
		case 'K':
			r = WhiteKingside
		case 'Q':
			r = WhiteQueenside
		case 'k':
			r = BlackKingside
		case 'q':
			r = BlackQueenside
		default:
			return NoCastling, fmt.Errorf("%w: castling field %q", ErrInvalidFEN, s)
		}
		if c.Has(r) {
			return NoCastling, fmt.Errorf("%w: castling field %q repeats a flag", ErrInvalidFEN, s)
		}
		c |= r
	}
	return c, nil
}

// FEN serializes the position.
func (p *Position) FEN() string {
	var sb strings.Builder
	sb.Grow(90)
	sb.WriteString(p.Placement())
	sb.WriteByte(' ')
	if p.Turn == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(p.Castling.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullmoveNumber))
	return sb.String()
}

// Placement is the first FEN field.
func (p *Position) Placement() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.Board[NewSquare(file, row)]
			if pc.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(pc.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}
