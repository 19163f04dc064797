package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the setup string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a position from a FEN-style setup string.
// The placement, side, castling and en passant fields are read; clock fields
// are accepted and ignored. The result is validated before it is returned.
func ParseFEN(fen string) (Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return Position{}, setupErr("need at least 4 fields, got %d", len(parts))
	}

	pos := emptyPosition()

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(&pos, parts[0]); err != nil {
		return Position{}, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return Position{}, setupErr("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2)
	if err := parseCastlingRights(&pos, parts[2]); err != nil {
		return Position{}, err
	}

	// Parse en passant square (field 3)
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return Position{}, setupErr("invalid en passant square: %s", parts[3])
		}
		// The target sits behind the pawn that just advanced
		mover := pos.SideToMove.Other()
		if sq.Row() != doubleStepRow(mover)-PawnDirection(mover) {
			return Position{}, setupErr("en passant square %s on wrong rank", sq)
		}
		pos.EnPassantFile = sq.Col()
	}

	// Clock fields must at least be numbers
	for _, f := range parts[4:min(len(parts), 6)] {
		if _, err := strconv.Atoi(f); err != nil {
			return Position{}, setupErr("invalid move counter: %s", f)
		}
	}

	if err := pos.Validate(); err != nil {
		return Position{}, err
	}
	return pos, nil
}

// MustParseFEN is ParseFEN for fixtures known to be valid. It panics on error.
func MustParseFEN(fen string) Position {
	pos, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return pos
}

// parsePiecePlacement parses the first FEN field, rank 8 first.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return setupErr("need 8 ranks, got %d", len(ranks))
	}

	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			piece := PieceFromChar(c)
			if piece == NoPiece {
				return setupErr("invalid piece character %q", c)
			}
			if col > 7 {
				return setupErr("rank %d overflows", 8-row)
			}
			pos.setPiece(piece, NewSquare(row, col))
			col++
		}
		if col != 8 {
			return setupErr("rank %d has %d squares", 8-row, col)
		}
	}
	return nil
}

// parseCastlingRights parses the castling field.
func parseCastlingRights(pos *Position, s string) error {
	pos.Castling = NoCastling
	if s == "-" {
		return nil
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'K':
			pos.Castling |= WhiteKingSideCastle
		case 'Q':
			pos.Castling |= WhiteQueenSideCastle
		case 'k':
			pos.Castling |= BlackKingSideCastle
		case 'q':
			pos.Castling |= BlackQueenSideCastle
		default:
			return setupErr("invalid castling character %q", s[i])
		}
	}
	return nil
}

// FEN renders the position as a setup string with zeroed clocks.
func (p *Position) FEN() string {
	var sb strings.Builder

	for row := 0; row < 8; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < 8; col++ {
			piece := p.Board[NewSquare(row, col)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(piece.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}

	if p.SideToMove == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}
	sb.WriteString(p.Castling.String())

	if p.EnPassantFile == NoFile {
		sb.WriteString(" -")
	} else {
		mover := p.SideToMove.Other()
		sq := NewSquare(doubleStepRow(mover)-PawnDirection(mover), p.EnPassantFile)
		sb.WriteString(" " + sq.String())
	}
	sb.WriteString(" 0 1")
	return sb.String()
}

func setupErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadSetup, fmt.Sprintf(format, args...))
}
