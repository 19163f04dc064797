package board

// Direction tables as (row, col) deltas.
var (
	knightOffsets = [8][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	rookDirs      = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	bishopDirs    = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// IsSquareAttacked returns true if any piece of color by attacks sq.
// Attack patterns are matched in reverse from the target square; en passant
// is a move, not an attack, and is never considered here.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	row, col := sq.Row(), sq.Col()

	// Pawns attack one row forward, diagonally
	pawnRow := row - PawnDirection(by)
	for _, dc := range [2]int{-1, 1} {
		if from, ok := squareAt(pawnRow, col+dc); ok && p.Board[from] == NewPiece(Pawn, by) {
			return true
		}
	}

	if p.attackedByStepper(row, col, knightOffsets[:], NewPiece(Knight, by)) {
		return true
	}
	if p.attackedByStepper(row, col, kingOffsets[:], NewPiece(King, by)) {
		return true
	}

	queen := NewPiece(Queen, by)
	if p.attackedBySlider(row, col, rookDirs[:], NewPiece(Rook, by), queen) {
		return true
	}
	return p.attackedBySlider(row, col, bishopDirs[:], NewPiece(Bishop, by), queen)
}

// attackedByStepper checks the fixed offsets around (row, col) for piece.
func (p *Position) attackedByStepper(row, col int, offsets [][2]int, piece Piece) bool {
	for _, d := range offsets {
		if from, ok := squareAt(row+d[0], col+d[1]); ok && p.Board[from] == piece {
			return true
		}
	}
	return false
}

// attackedBySlider walks each ray from (row, col) to the first occupied square.
func (p *Position) attackedBySlider(row, col int, dirs [][2]int, slider, queen Piece) bool {
	for _, d := range dirs {
		r, c := row+d[0], col+d[1]
		for {
			from, ok := squareAt(r, c)
			if !ok {
				break
			}
			if piece := p.Board[from]; piece != NoPiece {
				if piece == slider || piece == queen {
					return true
				}
				break
			}
			r += d[0]
			c += d[1]
		}
	}
	return false
}

// InCheck returns true if the king of color c is attacked.
func (p *Position) InCheck(c Color) bool {
	ksq := p.KingSquare[c]
	if ksq >= NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, c.Other())
}

// Attackers returns the squares of pieces of color by that attack sq, in board order.
func (p *Position) Attackers(sq Square, by Color) []Square {
	var out []Square
	for from := A8; from < NoSquare; from++ {
		if p.Board[from].Color() == by && p.pieceAttacks(from, sq) {
			out = append(out, from)
		}
	}
	return out
}

// pieceAttacks tests the attack pattern of the piece on from against target.
func (p *Position) pieceAttacks(from, target Square) bool {
	piece := p.Board[from]
	dr, dc := target.Row()-from.Row(), target.Col()-from.Col()

	switch piece.Type() {
	case Pawn:
		return dr == PawnDirection(piece.Color()) && (dc == 1 || dc == -1)
	case Knight:
		return (abs(dr) == 1 && abs(dc) == 2) || (abs(dr) == 2 && abs(dc) == 1)
	case King:
		return from != target && abs(dr) <= 1 && abs(dc) <= 1
	case Rook:
		return (dr == 0 || dc == 0) && p.clearPath(from, target)
	case Bishop:
		return abs(dr) == abs(dc) && p.clearPath(from, target)
	case Queen:
		return (dr == 0 || dc == 0 || abs(dr) == abs(dc)) && p.clearPath(from, target)
	}
	return false
}

// clearPath reports whether every square strictly between two aligned squares is empty.
func (p *Position) clearPath(from, to Square) bool {
	if from == to {
		return false
	}
	stepR, stepC := sign(to.Row()-from.Row()), sign(to.Col()-from.Col())
	r, c := from.Row()+stepR, from.Col()+stepC
	for r != to.Row() || c != to.Col() {
		if p.Board[NewSquare(r, c)] != NoPiece {
			return false
		}
		r += stepR
		c += stepC
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
