package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-14: promotion piece type + 1 (0 = no promotion)
//
// Castling and en passant are not flagged; they follow from the position
// the move is applied to.
type Move uint16

// NoMove represents an invalid or null move.
const NoMove Move = 0

// NewMove creates a move without promotion.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion creates a promotion move.
func NewPromotion(from, to Square, promo PieceType) Move {
	if promo >= NoPieceType {
		return NewMove(from, to)
	}
	return Move(from) | Move(to)<<6 | Move(promo+1)<<12
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Promotion returns the promotion piece type, or NoPieceType.
func (m Move) Promotion() PieceType {
	p := (m >> 12) & 7
	if p == 0 {
		return NoPieceType
	}
	return PieceType(p - 1)
}

// IsPromotion returns true if the move carries a promotion piece.
func (m Move) IsPromotion() bool {
	return m.Promotion() != NoPieceType
}

// WithPromotion returns the move with its promotion piece replaced.
func (m Move) WithPromotion(pt PieceType) Move {
	return NewPromotion(m.From(), m.To(), pt)
}

// String returns the coordinate form of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// ParseMove parses a coordinate move string such as "e2e4" or "e7e8q".
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, &MoveError{Err: ErrBadNotation, Text: s, Reason: "want 4 or 5 characters"}
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, &MoveError{Err: ErrBadNotation, Text: s, Reason: err.Error()}
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, &MoveError{Err: ErrBadNotation, Text: s, Reason: err.Error()}
	}

	if len(s) == 5 {
		promo := PieceTypeFromChar(s[4])
		switch promo {
		case Knight, Bishop, Rook, Queen:
			return NewPromotion(from, to, promo), nil
		default:
			return NoMove, &MoveError{Err: ErrBadNotation, Text: s, Reason: fmt.Sprintf("invalid promotion piece %q", s[4])}
		}
	}

	return NewMove(from, to), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns a copy of the moves as a slice.
func (ml *MoveList) Slice() []Move {
	out := make([]Move, ml.count)
	copy(out, ml.moves[:ml.count])
	return out
}
