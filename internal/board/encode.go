package board

import (
	"strconv"
	"strings"
)

// Encode serializes a position for lookup. The result has three
// space-separated parts: the placement, the castling rights and the en
// passant file.
//
// The placement lists squares row by row from a8, writing each piece letter
// (uppercase White) and collapsing runs of empty squares into a count. Runs
// continue across rows and a trailing run is written too, so the placement
// alone fixes all 64 squares. The rights part lists the side to move's rights
// in uppercase, then the opponent's in lowercase, or "-" if none.
func Encode(pos Position) string {
	return encode(pos.Board, pos.Castling, pos.SideToMove, pos.EnPassantFile)
}

// Orientation records the flips applied by EncodeNormalized.
// Each flip is its own inverse, so the same Orientation maps real squares to
// normalized ones and back.
type Orientation struct {
	FlipRows bool
	FlipCols bool
}

// Square maps a square through the orientation.
func (o Orientation) Square(sq Square) Square {
	if !sq.IsValid() {
		return sq
	}
	if o.FlipRows {
		sq = sq.FlipRows()
	}
	if o.FlipCols {
		sq = sq.FlipCols()
	}
	return sq
}

// Move maps both squares of a move through the orientation, keeping any promotion.
func (o Orientation) Move(m Move) Move {
	if m == NoMove {
		return NoMove
	}
	return NewPromotion(o.Square(m.From()), o.Square(m.To()), m.Promotion())
}

// Denormalize translates a move read back from a normalized encoding into
// real board coordinates.
func (o Orientation) Denormalize(m Move) Move {
	return o.Move(m)
}

// EncodeNormalized serializes the position from the mover's point of view,
// so that positions that only differ by color or mirroring share one key.
//
// If the mover is Black, piece colors are swapped. The board is then flipped
// top to bottom if the mover's king stands on a lower row index than the
// opponent's, and left to right if the mover's king is on a higher column.
// When both kings share a row (or column) that flip is chosen to give the
// smaller string. The returned Orientation maps moves between the two frames.
func EncodeNormalized(pos Position, mover Color) (string, Orientation) {
	grid := pos.Board
	if mover == Black {
		for i, piece := range grid {
			grid[i] = piece.SwapColor()
		}
	}

	own, opp := pos.KingSquare[mover], pos.KingSquare[mover.Other()]
	rowChoices := []bool{own.Row() < opp.Row()}
	if own.Row() == opp.Row() {
		rowChoices = []bool{false, true}
	}
	colChoices := []bool{own.Col() > opp.Col()}
	if own.Col() == opp.Col() {
		colChoices = []bool{false, true}
	}

	var best string
	var bestOrient Orientation
	for _, fr := range rowChoices {
		for _, fc := range colChoices {
			o := Orientation{FlipRows: fr, FlipCols: fc}
			var flipped [64]Piece
			for sq := A8; sq < NoSquare; sq++ {
				flipped[o.Square(sq)] = grid[sq]
			}
			epFile := pos.EnPassantFile
			if fc && epFile != NoFile {
				epFile = 7 - epFile
			}
			s := encode(flipped, pos.Castling, mover, epFile)
			if best == "" || s < best {
				best, bestOrient = s, o
			}
		}
	}
	return best, bestOrient
}

func encode(grid [64]Piece, rights CastlingRights, mover Color, epFile int) string {
	var sb strings.Builder
	empty := 0
	for _, piece := range grid {
		if piece == NoPiece {
			empty++
			continue
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
			empty = 0
		}
		sb.WriteByte(piece.Char())
	}
	if empty > 0 {
		sb.WriteString(strconv.Itoa(empty))
	}

	sb.WriteByte(' ')
	own := rights.Side(mover)
	opp := strings.ToLower(rights.Side(mover.Other()))
	if own+opp == "" {
		sb.WriteByte('-')
	} else {
		sb.WriteString(own + opp)
	}

	sb.WriteByte(' ')
	if epFile == NoFile {
		sb.WriteByte('-')
	} else {
		sb.WriteByte(byte('a' + epFile))
	}
	return sb.String()
}
