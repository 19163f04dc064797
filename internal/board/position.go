package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the castling rights in FEN order, or "-".
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// castleRight returns the single right for a color and wing.
func castleRight(c Color, kingSide bool) CastlingRights {
	switch {
	case c == White && kingSide:
		return WhiteKingSideCastle
	case c == White:
		return WhiteQueenSideCastle
	case kingSide:
		return BlackKingSideCastle
	default:
		return BlackQueenSideCastle
	}
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

// Side returns the rights held by one color as "K", "Q", "KQ" or "".
func (cr CastlingRights) Side(c Color) string {
	s := ""
	if cr.CanCastle(c, true) {
		s += "K"
	}
	if cr.CanCastle(c, false) {
		s += "Q"
	}
	return s
}

// Position is a board snapshot plus the metadata the rules depend on.
// It is a plain value: copying it yields an independent position, and two
// positions compare equal with == when board, rights, en passant file and
// side to move all match.
type Position struct {
	Board [64]Piece

	// King locations, always equal to where the kings stand on Board.
	KingSquare [2]Square

	Castling CastlingRights

	// Column of a pawn that just advanced two squares, or NoFile.
	EnPassantFile int

	SideToMove Color
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewPosition creates the starting position.
func NewPosition() Position {
	p := emptyPosition()
	for col, pt := range backRank {
		p.setPiece(NewPiece(pt, Black), NewSquare(0, col))
		p.setPiece(BlackPawn, NewSquare(1, col))
		p.setPiece(WhitePawn, NewSquare(6, col))
		p.setPiece(NewPiece(pt, White), NewSquare(7, col))
	}
	p.Castling = AllCastling
	return p
}

// emptyPosition returns a board with no pieces and no kings.
func emptyPosition() Position {
	p := Position{EnPassantFile: NoFile, SideToMove: White}
	for i := range p.Board {
		p.Board[i] = NoPiece
	}
	p.KingSquare = [2]Square{NoSquare, NoSquare}
	return p
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return p.Board[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.PieceAt(sq) == NoPiece
}

// setPiece places a piece on a square and tracks kings.
func (p *Position) setPiece(piece Piece, sq Square) {
	p.Board[sq] = piece
	if piece.Type() == King {
		p.KingSquare[piece.Color()] = sq
	}
}

// removePiece clears a square and returns what stood there.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.Board[sq]
	p.Board[sq] = NoPiece
	return piece
}

// movePiece moves a piece from one square to another.
func (p *Position) movePiece(from, to Square) {
	piece := p.removePiece(from)
	if piece == NoPiece {
		return
	}
	p.setPiece(piece, to)
}

// Pieces returns the squares holding pieces of a color, in board order.
func (p *Position) Pieces(c Color) []Square {
	var out []Square
	for sq := A8; sq < NoSquare; sq++ {
		if p.Board[sq].Color() == c {
			out = append(out, sq)
		}
	}
	return out
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&sb, "%d  ", 8-row)
		for col := 0; col < 8; col++ {
			piece := p.Board[NewSquare(row, col)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.Castling)
	if p.EnPassantFile == NoFile {
		sb.WriteString("En passant: -\n")
	} else {
		fmt.Fprintf(&sb, "En passant: %c\n", 'a'+p.EnPassantFile)
	}
	return sb.String()
}

// checkKings verifies the cached king squares against the board.
func (p *Position) checkKings() error {
	for _, c := range [2]Color{White, Black} {
		ksq := p.KingSquare[c]
		if ksq >= NoSquare || p.Board[ksq] != NewPiece(King, c) {
			return invariantf("%s king not on tracked square %s", c, ksq)
		}
	}
	return nil
}

// Validate checks if the position satisfies the board invariants.
func (p *Position) Validate() error {
	// Check that each side has exactly one king
	var kings [2]int
	for sq := A8; sq < NoSquare; sq++ {
		piece := p.Board[sq]
		if piece.Type() == King {
			kings[piece.Color()]++
		}
		if piece.Type() == Pawn && (sq.Row() == 0 || sq.Row() == 7) {
			return invariantf("pawn on back rank at %s", sq)
		}
	}
	for _, c := range [2]Color{White, Black} {
		if kings[c] != 1 {
			return invariantf("%s has %d kings", c, kings[c])
		}
	}
	if err := p.checkKings(); err != nil {
		return err
	}

	if p.SideToMove >= NoColor {
		return invariantf("no side to move")
	}

	// Castling rights need the king and the matching rook on their home squares
	for _, c := range [2]Color{White, Black} {
		row := HomeRow(c)
		for _, kingSide := range [2]bool{true, false} {
			if !p.Castling.CanCastle(c, kingSide) {
				continue
			}
			rookCol := 0
			if kingSide {
				rookCol = 7
			}
			if p.Board[NewSquare(row, 4)] != NewPiece(King, c) ||
				p.Board[NewSquare(row, rookCol)] != NewPiece(Rook, c) {
				return invariantf("%s castling right %s without king and rook at home", c, castleRight(c, kingSide))
			}
		}
	}

	// En passant needs the pawn that just double-stepped
	if p.EnPassantFile != NoFile {
		if p.EnPassantFile < 0 || p.EnPassantFile > 7 {
			return invariantf("en passant file %d out of range", p.EnPassantFile)
		}
		mover := p.SideToMove.Other()
		landing := NewSquare(doubleStepRow(mover), p.EnPassantFile)
		passed := NewSquare(doubleStepRow(mover)-PawnDirection(mover), p.EnPassantFile)
		if p.Board[landing] != NewPiece(Pawn, mover) || p.Board[passed] != NoPiece {
			return invariantf("en passant file %c without a double-stepped pawn", 'a'+p.EnPassantFile)
		}
	}

	return nil
}

// doubleStepRow returns the row a pawn of color c lands on after a two-square advance.
func doubleStepRow(c Color) int {
	if c == White {
		return 4
	}
	return 3
}

// startRow returns the row pawns of color c start on.
func startRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// promotionRow returns the far rank for pawns of color c.
func promotionRow(c Color) int {
	return HomeRow(c.Other())
}
