// Package board implements the chess rule engine: positions on an 8x8 grid,
// legal move generation, attack detection and move application.
package board

import "fmt"

// Square represents a square on the chess board (0-63).
// Squares are stored row-major from Black's back rank: A8=0, H8=7, A1=56, H1=63.
// Row 0 is rank 8 and row 7 is rank 1, so White's back rank is row 7.
type Square uint8

// Square constants for all 64 squares.
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
	NoSquare Square = 64
)

// NoFile marks an absent column, e.g. when no en passant capture is possible.
const NoFile = -1

// Row returns the row of the square (0-7, where 0 is rank 8).
func (sq Square) Row() int {
	return int(sq) >> 3
}

// Col returns the column of the square (0-7, where 0 is the a-file).
func (sq Square) Col() int {
	return int(sq) & 7
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.Col(), '8'-sq.Row())
}

// NewSquare creates a square from row and column (0-indexed).
func NewSquare(row, col int) Square {
	return Square(row*8 + col)
}

// squareAt is NewSquare with bounds checking.
func squareAt(row, col int) (Square, bool) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return NoSquare, false
	}
	return NewSquare(row, col), true
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	col := int(s[0]) - 'a'
	row := '8' - int(s[1])

	sq, ok := squareAt(row, col)
	if !ok {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	return sq, nil
}

// IsValid returns true if the square is a valid board square (0-63).
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// FlipRows mirrors the square top to bottom.
func (sq Square) FlipRows() Square {
	return sq ^ 56
}

// FlipCols mirrors the square left to right.
func (sq Square) FlipCols() Square {
	return sq ^ 7
}

// HomeRow returns the back rank row for a color.
func HomeRow(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

// PawnDirection returns the row delta of a pawn advance for a color.
func PawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}
