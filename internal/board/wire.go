package board

import "fmt"

// EncodeWire renders a move in the compact peer format: four digits
// fromRow, fromCol, toRow, toCol, plus a lowercase promotion letter when the
// move promotes. For example e2e4 is "6444" and a7a8=Q is "1000q".
func EncodeWire(m Move) string {
	from, to := m.From(), m.To()
	s := fmt.Sprintf("%d%d%d%d", from.Row(), from.Col(), to.Row(), to.Col())
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// DecodeWire parses the compact peer format produced by EncodeWire.
func DecodeWire(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, &MoveError{Err: ErrBadNotation, Text: s, Reason: "want 4 digits and an optional promotion"}
	}

	var coords [4]int
	for i := 0; i < 4; i++ {
		c := s[i]
		if c < '0' || c > '7' {
			return NoMove, &MoveError{Err: ErrBadNotation, Text: s, Reason: fmt.Sprintf("bad coordinate %q", c)}
		}
		coords[i] = int(c - '0')
	}
	from := NewSquare(coords[0], coords[1])
	to := NewSquare(coords[2], coords[3])

	if len(s) == 4 {
		return NewMove(from, to), nil
	}
	switch promo := PieceTypeFromChar(s[4]); promo {
	case Knight, Bishop, Rook, Queen:
		return NewPromotion(from, to, promo), nil
	default:
		return NoMove, &MoveError{Err: ErrBadNotation, Text: s, Reason: fmt.Sprintf("bad promotion %q", s[4])}
	}
}
