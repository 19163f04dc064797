package board

// Apply validates m against this position and returns the position after it.
// The receiver is never modified. On failure the returned position equals
// the receiver and the error wraps ErrInvalidMove or ErrInvariantViolation.
//
// A pawn move onto the far rank without a promotion piece promotes to a queen.
func (p *Position) Apply(m Move) (Position, error) {
	if err := p.checkKings(); err != nil {
		return *p, err
	}

	from := m.From()
	if !from.IsValid() || !m.To().IsValid() {
		return *p, invalidMove(m, "square off the board")
	}
	if p.IsEmpty(from) {
		return *p, invalidMove(m, "no piece on "+from.String())
	}

	m = p.DefaultPromotion(m)
	if !p.IsLegal(m) {
		return *p, invalidMove(m, "not a legal move")
	}

	next := *p
	next.play(m)
	return next, nil
}

// DefaultPromotion adds a queen promotion to a pawn move onto the far rank
// that lacks one. Other moves are returned unchanged.
func (p *Position) DefaultPromotion(m Move) Move {
	piece := p.PieceAt(m.From())
	if piece.Type() == Pawn && !m.IsPromotion() && m.To().Row() == promotionRow(piece.Color()) {
		return m.WithPromotion(Queen)
	}
	return m
}

// IsCapture returns true if m removes an enemy piece, en passant included.
func (p *Position) IsCapture(m Move) bool {
	return p.Captured(m) != NoPiece
}

// Captured returns the piece m would remove from the board, or NoPiece.
func (p *Position) Captured(m Move) Piece {
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return NoPiece
	}
	if piece.Type() == Pawn && p.isEnPassant(from, to, piece.Color()) {
		return p.Board[NewSquare(from.Row(), to.Col())]
	}
	if target := p.PieceAt(to); target.Color() != piece.Color() {
		return target
	}
	return NoPiece
}

// IsEnPassant returns true if m is an en passant capture in this position.
func (p *Position) IsEnPassant(m Move) bool {
	piece := p.PieceAt(m.From())
	return piece.Type() == Pawn && p.isEnPassant(m.From(), m.To(), piece.Color())
}

// IsCastling returns true if m is a castling king move in this position.
func (p *Position) IsCastling(m Move) bool {
	return isCastling(p.PieceAt(m.From()), m.From(), m.To())
}

// play applies m without validation. Callers must pass a pseudo-legal move.
func (p *Position) play(m Move) {
	from, to := m.From(), m.To()
	piece := p.Board[from]
	if piece == NoPiece {
		return
	}

	us := piece.Color()
	pt := piece.Type()
	enPassant := pt == Pawn && p.isEnPassant(from, to, us)
	castling := isCastling(piece, from, to)

	// Clear en passant
	p.EnPassantFile = NoFile

	// The pawn taken en passant stands beside the capturer, not on the target
	if enPassant {
		p.removePiece(NewSquare(from.Row(), to.Col()))
	}

	// Move the piece (overwrites a normal capture)
	p.movePiece(from, to)

	// Handle promotion
	if pt == Pawn && m.IsPromotion() && to.Row() == promotionRow(us) {
		p.setPiece(NewPiece(m.Promotion(), us), to)
	}

	// Handle castling
	if castling {
		row := from.Row()
		if to.Col() > from.Col() {
			p.movePiece(NewSquare(row, 7), NewSquare(row, 5))
		} else {
			p.movePiece(NewSquare(row, 0), NewSquare(row, 3))
		}
	}

	// Set en passant file for double pawn push
	if pt == Pawn && abs(to.Row()-from.Row()) == 2 {
		p.EnPassantFile = from.Col()
	}

	// Update castling rights
	if pt == King {
		p.Castling &^= castleRight(us, true) | castleRight(us, false)
	}

	// Rook moves or captures on a corner affect castling
	for _, corner := range rookCorners {
		if from == corner.sq || to == corner.sq {
			p.Castling &^= corner.right
		}
	}

	p.SideToMove = us.Other()
}

var rookCorners = [4]struct {
	sq    Square
	right CastlingRights
}{
	{H1, WhiteKingSideCastle},
	{A1, WhiteQueenSideCastle},
	{H8, BlackKingSideCastle},
	{A8, BlackQueenSideCastle},
}
