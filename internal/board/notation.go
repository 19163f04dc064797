package board

import (
	"regexp"
	"strings"
)

// notationRE matches short move notation such as "e4", "nf3", "qxh1",
// "nbd7", "exd5", "e8q" or "g1f3". Matching is done on lowercased text.
var notationRE = regexp.MustCompile(`^([pnbrqk])?([a-h]?[1-8]?)(x)?([a-h][1-8])=?([nbrq])?$`)

type notation struct {
	piece   PieceType // NoPieceType when omitted
	fromCol int       // -1 when omitted
	fromRow int       // -1 when omitted
	dest    Square
	promo   PieceType
}

// ParseNotation converts short move notation into a move for color.
//
// Accepted forms are [piece][from][x]dest[promotion] in either case, plus
// 0-0 and 0-0-0 (or O-O, O-O-O) for castling. Check marks are ignored. When
// the origin is elided, the board is scanned in a fixed order for a piece of
// the right type and color whose legal moves reach the destination: White
// scans from row 7 to row 0 and column 7 to column 0, Black the reverse.
// A single candidate yields the move. No candidate is ErrInvalidMove and
// several are ErrAmbiguousNotation; nothing is guessed. Recorded lines that
// relied on taking the first piece found in scan order are rejected, and the
// book loaders skip them.
//
// A leading "b" is read both as a bishop and as a b-file pawn; if both
// readings find a move the notation is ambiguous.
func ParseNotation(pos *Position, text string, color Color) (Move, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRight(s, "+#!?")

	switch s {
	case "0-0", "o-o":
		return castleFromNotation(pos, text, color, true)
	case "0-0-0", "o-o-o":
		return castleFromNotation(pos, text, color, false)
	}

	match := notationRE.FindStringSubmatch(s)
	if match == nil {
		return NoMove, &MoveError{Err: ErrBadNotation, Text: text}
	}

	readings := []notation{decodeNotation(match, false)}
	// A b-file pawn can only leave its file by capturing onto a or c
	if match[1] == "b" && (match[2] == "" || (len(match[2]) == 1 && match[2][0] <= '8')) &&
		(match[4][0] == 'a' || match[4][0] == 'c') {
		readings = append(readings, decodeNotation(match, true))
	}

	var candidates []Move
	for _, n := range readings {
		for _, m := range pos.notationCandidates(n, color) {
			if !containsMove(candidates, m) {
				candidates = append(candidates, m)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return NoMove, &MoveError{Err: ErrInvalidMove, Text: text, Reason: "no " + color.String() + " piece can make this move"}
	case 1:
		return candidates[0], nil
	default:
		origins := make([]string, len(candidates))
		for i, m := range candidates {
			origins[i] = m.From().String()
		}
		return NoMove, &MoveError{Err: ErrAmbiguousNotation, Text: text, Reason: "candidates " + strings.Join(origins, ", ")}
	}
}

// decodeNotation turns regexp groups into fields. With bPawn set, a leading
// "b" is taken as the origin file of a pawn instead of a bishop.
func decodeNotation(match []string, bPawn bool) notation {
	n := notation{piece: NoPieceType, fromCol: -1, fromRow: -1, promo: NoPieceType}
	from := match[2]
	if bPawn {
		n.piece = Pawn
		from = "b" + from
	} else if match[1] != "" {
		n.piece = PieceTypeFromChar(match[1][0])
	}
	for i := 0; i < len(from); i++ {
		if c := from[i]; c >= 'a' && c <= 'h' {
			n.fromCol = int(c - 'a')
		} else {
			n.fromRow = int('8' - c)
		}
	}
	n.dest, _ = ParseSquare(match[4])
	if match[5] != "" {
		n.promo = PieceTypeFromChar(match[5][0])
	}
	return n
}

// notationCandidates scans the board in notation order for legal moves matching n.
func (p *Position) notationCandidates(n notation, color Color) []Move {
	explicit := n.fromCol >= 0 && n.fromRow >= 0

	order := [8]int{7, 6, 5, 4, 3, 2, 1, 0}
	if color == Black {
		order = [8]int{0, 1, 2, 3, 4, 5, 6, 7}
	}

	var out []Move
	for _, row := range order {
		if n.fromRow >= 0 && n.fromRow != row {
			continue
		}
		for _, col := range order {
			if n.fromCol >= 0 && n.fromCol != col {
				continue
			}
			from := NewSquare(row, col)
			piece := p.Board[from]
			if piece.Color() != color {
				continue
			}
			switch {
			case n.piece != NoPieceType:
				if piece.Type() != n.piece {
					continue
				}
			case !explicit:
				// Bare destination means a pawn
				if piece.Type() != Pawn {
					continue
				}
			}

			m := p.DefaultPromotion(NewPromotion(from, n.dest, n.promo))
			if p.IsLegal(m) {
				out = append(out, m)
			}
		}
	}
	return out
}

func castleFromNotation(pos *Position, text string, color Color, kingSide bool) (Move, error) {
	row := HomeRow(color)
	to := NewSquare(row, 2)
	if kingSide {
		to = NewSquare(row, 6)
	}
	m := NewMove(NewSquare(row, 4), to)
	if pos.PieceAt(m.From()) != NewPiece(King, color) || !pos.IsLegal(m) {
		return NoMove, &MoveError{Err: ErrInvalidMove, Text: text, Reason: "castling not allowed"}
	}
	return m, nil
}

// Notation renders a legal move in the short form accepted by ParseNotation,
// adding origin detail only as far as needed to parse back to the same move.
// It returns "" for a move that is not legal here.
func (p *Position) Notation(m Move) string {
	m = p.DefaultPromotion(m)
	if !p.IsLegal(m) {
		return ""
	}
	piece := p.Board[m.From()]
	color := piece.Color()

	if p.IsCastling(m) {
		if m.To().Col() > m.From().Col() {
			return "0-0"
		}
		return "0-0-0"
	}

	from, to := m.From().String(), m.To().String()
	x := ""
	if p.IsCapture(m) {
		x = "x"
	}
	promo := ""
	if m.IsPromotion() {
		promo = strings.ToUpper(string(m.Promotion().Char()))
	}

	var forms []string
	if piece.Type() == Pawn {
		if x != "" {
			forms = append(forms, from[:1]+x+to+promo)
		} else {
			forms = append(forms, to+promo)
		}
		forms = append(forms, from+x+to+promo, "P"+from+x+to+promo)
	} else {
		letter := strings.ToUpper(string(piece.Type().Char()))
		forms = append(forms,
			letter+x+to,
			letter+from[:1]+x+to,
			letter+from[1:]+x+to,
			letter+from+x+to,
		)
	}

	for _, f := range forms {
		if got, err := ParseNotation(p, f, color); err == nil && got == m {
			return f
		}
	}
	return forms[len(forms)-1]
}

func containsMove(moves []Move, m Move) bool {
	for _, x := range moves {
		if x == m {
			return true
		}
	}
	return false
}
