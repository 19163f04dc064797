package board

// LegalMoves returns the legal moves of the piece on sq.
// Pawn moves onto the far rank appear once per promotion piece.
// An empty square yields no moves.
func (p *Position) LegalMoves(sq Square) []Move {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return nil
	}
	var ml MoveList
	p.generatePieceMoves(&ml, sq)
	return p.filterLegalMoves(&ml, piece.Color()).Slice()
}

// LegalDestinations returns the distinct destination squares of the piece on sq.
func (p *Position) LegalDestinations(sq Square) []Square {
	var out []Square
	var seen [64]bool
	for _, m := range p.LegalMoves(sq) {
		if to := m.To(); !seen[to] {
			seen[to] = true
			out = append(out, to)
		}
	}
	return out
}

// AllLegalMoves returns every legal move for color c, in board order.
func (p *Position) AllLegalMoves(c Color) []Move {
	var ml MoveList
	for sq := A8; sq < NoSquare; sq++ {
		if p.Board[sq].Color() == c {
			p.generatePieceMoves(&ml, sq)
		}
	}
	return p.filterLegalMoves(&ml, c).Slice()
}

// IsLegal returns true if m is a legal move in this position.
func (p *Position) IsLegal(m Move) bool {
	piece := p.PieceAt(m.From())
	if piece == NoPiece {
		return false
	}
	var ml MoveList
	p.generatePieceMoves(&ml, m.From())
	return ml.Contains(m) && p.leavesKingSafe(m, piece.Color())
}

// HasLegalMove returns true as soon as any legal move for color c is found.
func (p *Position) HasLegalMove(c Color) bool {
	var ml MoveList
	for sq := A8; sq < NoSquare; sq++ {
		if p.Board[sq].Color() != c {
			continue
		}
		ml.Clear()
		p.generatePieceMoves(&ml, sq)
		for i := 0; i < ml.Len(); i++ {
			if p.leavesKingSafe(ml.Get(i), c) {
				return true
			}
		}
	}
	return false
}

// InCheckmate returns true if color c is in check and has no legal move.
func (p *Position) InCheckmate(c Color) bool {
	return p.InCheck(c) && !p.HasLegalMove(c)
}

// IsStalemate returns true if color c is not in check and has no legal move.
func (p *Position) IsStalemate(c Color) bool {
	return !p.InCheck(c) && !p.HasLegalMove(c)
}

// filterLegalMoves keeps the moves that do not leave us in check.
func (p *Position) filterLegalMoves(ml *MoveList, us Color) *MoveList {
	legal := &MoveList{}
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if p.leavesKingSafe(m, us) {
			legal.Add(m)
		}
	}
	return legal
}

// leavesKingSafe plays m on a scratch copy and checks our king afterwards.
func (p *Position) leavesKingSafe(m Move, us Color) bool {
	scratch := *p
	scratch.play(m)
	return !scratch.InCheck(us)
}

// generatePieceMoves appends the pseudo-legal moves of the piece on from.
func (p *Position) generatePieceMoves(ml *MoveList, from Square) {
	piece := p.Board[from]
	us := piece.Color()

	switch piece.Type() {
	case Pawn:
		p.generatePawnMoves(ml, from, us)
	case Knight:
		p.generateStepperMoves(ml, from, us, knightOffsets[:])
	case Bishop:
		p.generateSliderMoves(ml, from, us, bishopDirs[:])
	case Rook:
		p.generateSliderMoves(ml, from, us, rookDirs[:])
	case Queen:
		p.generateSliderMoves(ml, from, us, rookDirs[:])
		p.generateSliderMoves(ml, from, us, bishopDirs[:])
	case King:
		p.generateKingMoves(ml, from, us)
		p.generateCastlingMoves(ml, from, us)
	}
}

// generatePawnMoves generates pushes, captures, en passant and promotions.
func (p *Position) generatePawnMoves(ml *MoveList, from Square, us Color) {
	dir := PawnDirection(us)
	row, col := from.Row(), from.Col()

	add := func(to Square) {
		if to.Row() == promotionRow(us) {
			addPromotions(ml, from, to)
			return
		}
		ml.Add(NewMove(from, to))
	}

	// Single and double pushes
	if one, ok := squareAt(row+dir, col); ok && p.IsEmpty(one) {
		add(one)
		if row == startRow(us) {
			if two, ok := squareAt(row+2*dir, col); ok && p.IsEmpty(two) {
				ml.Add(NewMove(from, two))
			}
		}
	}

	// Captures
	for _, dc := range [2]int{-1, 1} {
		to, ok := squareAt(row+dir, col+dc)
		if !ok {
			continue
		}
		if target := p.Board[to]; target != NoPiece {
			if target.Color() != us {
				add(to)
			}
			continue
		}
		if p.isEnPassant(from, to, us) {
			ml.Add(NewMove(from, to))
		}
	}
}

// isEnPassant reports whether a pawn of color us moving from -> to captures
// en passant. Only the side to move can; the double-stepper is the other side.
func (p *Position) isEnPassant(from, to Square, us Color) bool {
	if us != p.SideToMove || p.EnPassantFile == NoFile || to.Col() != p.EnPassantFile || from.Col() == to.Col() {
		return false
	}
	if p.Board[from] != NewPiece(Pawn, us) || !p.IsEmpty(to) {
		return false
	}
	// The capturer stands beside the pawn that just landed on its double-step row
	if from.Row() != doubleStepRow(us.Other()) {
		return false
	}
	return p.Board[NewSquare(from.Row(), to.Col())] == NewPiece(Pawn, us.Other())
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateStepperMoves handles knights: fixed offsets onto empty or enemy squares.
func (p *Position) generateStepperMoves(ml *MoveList, from Square, us Color, offsets [][2]int) {
	for _, d := range offsets {
		to, ok := squareAt(from.Row()+d[0], from.Col()+d[1])
		if !ok {
			continue
		}
		if target := p.Board[to]; target == NoPiece || target.Color() != us {
			ml.Add(NewMove(from, to))
		}
	}
}

// generateSliderMoves walks each ray until the edge, an own piece, or a capture.
func (p *Position) generateSliderMoves(ml *MoveList, from Square, us Color, dirs [][2]int) {
	for _, d := range dirs {
		r, c := from.Row()+d[0], from.Col()+d[1]
		for {
			to, ok := squareAt(r, c)
			if !ok {
				break
			}
			target := p.Board[to]
			if target == NoPiece {
				ml.Add(NewMove(from, to))
			} else {
				if target.Color() != us {
					ml.Add(NewMove(from, to))
				}
				break
			}
			r += d[0]
			c += d[1]
		}
	}
}

// generateKingMoves generates king steps onto squares the opponent does not attack.
func (p *Position) generateKingMoves(ml *MoveList, from Square, us Color) {
	them := us.Other()
	for _, d := range kingOffsets {
		to, ok := squareAt(from.Row()+d[0], from.Col()+d[1])
		if !ok {
			continue
		}
		if target := p.Board[to]; target != NoPiece && target.Color() == us {
			continue
		}
		if p.IsSquareAttacked(to, them) {
			continue
		}
		ml.Add(NewMove(from, to))
	}
}

// generateCastlingMoves generates castling as a two-column king move.
func (p *Position) generateCastlingMoves(ml *MoveList, from Square, us Color) {
	row := HomeRow(us)
	if from != NewSquare(row, 4) {
		return
	}
	kingSide := p.Castling.CanCastle(us, true)
	queenSide := p.Castling.CanCastle(us, false)
	if !kingSide && !queenSide {
		return
	}

	them := us.Other()
	if p.IsSquareAttacked(from, them) {
		return
	}
	rook := NewPiece(Rook, us)

	// Kingside (O-O): f and g empty and safe
	if kingSide && p.Board[NewSquare(row, 7)] == rook {
		f, g := NewSquare(row, 5), NewSquare(row, 6)
		if p.IsEmpty(f) && p.IsEmpty(g) &&
			!p.IsSquareAttacked(f, them) && !p.IsSquareAttacked(g, them) {
			ml.Add(NewMove(from, g))
		}
	}

	// Queenside (O-O-O): b, c and d empty; c and d safe
	if queenSide && p.Board[NewSquare(row, 0)] == rook {
		b, c, d := NewSquare(row, 1), NewSquare(row, 2), NewSquare(row, 3)
		if p.IsEmpty(b) && p.IsEmpty(c) && p.IsEmpty(d) &&
			!p.IsSquareAttacked(d, them) && !p.IsSquareAttacked(c, them) {
			ml.Add(NewMove(from, c))
		}
	}
}

// isCastling reports whether a king move from -> to is a castling move.
func isCastling(piece Piece, from, to Square) bool {
	return piece.Type() == King && from.Row() == to.Row() &&
		from == NewSquare(HomeRow(piece.Color()), 4) && abs(to.Col()-from.Col()) == 2
}
