package game

import "github.com/hailam/chesscore/internal/board"

// DrawReason identifies which rule ended the game in a draw.
type DrawReason int

const (
	DrawNone DrawReason = iota
	DrawRepetition
	DrawFiftyMove
	DrawInsufficientMaterial
)

func (r DrawReason) String() string {
	switch r {
	case DrawRepetition:
		return "repetition"
	case DrawFiftyMove:
		return "fifty-move rule"
	case DrawInsufficientMaterial:
		return "insufficient material"
	default:
		return "none"
	}
}

// DrawRules configures draw detection.
type DrawRules struct {
	// MinPlies is the history length below which the repetition and
	// fifty-move checks are skipped. Zero always runs them.
	MinPlies int

	// Repetitions is how many times a position must occur, counting the
	// current one, to be a draw.
	Repetitions int

	// FiftyMoveHalfMoves is the number of quiet plies that draws the game.
	FiftyMoveHalfMoves int
}

// DefaultDrawRules returns threefold repetition, the fifty-move rule and a
// seven ply warm-up.
func DefaultDrawRules() DrawRules {
	return DrawRules{
		MinPlies:           7,
		Repetitions:        3,
		FiftyMoveHalfMoves: 100,
	}
}

// Detect reports whether current, reached after the plies in h, is drawn.
func (r DrawRules) Detect(h *History, current board.Position) DrawReason {
	if InsufficientMaterial(current) {
		return DrawInsufficientMaterial
	}
	if h.Len() < r.MinPlies {
		return DrawNone
	}
	if r.Repetitions > 0 && h.Occurrences(current)+1 >= r.Repetitions {
		return DrawRepetition
	}
	if r.FiftyMoveHalfMoves > 0 && h.quietPlies() >= r.FiftyMoveHalfMoves {
		return DrawFiftyMove
	}
	return DrawNone
}

// InsufficientMaterial reports positions where neither side can ever mate:
// bare kings, a single minor piece against a bare king, two knights against
// a bare king, and one bishop each on squares of the same color.
func InsufficientMaterial(pos board.Position) bool {
	var minors [2][]board.Square
	var knights [2]int
	for _, c := range [2]board.Color{board.White, board.Black} {
		for _, sq := range pos.Pieces(c) {
			switch pos.Board[sq].Type() {
			case board.King:
				continue
			case board.Knight:
				knights[c]++
				minors[c] = append(minors[c], sq)
			case board.Bishop:
				minors[c] = append(minors[c], sq)
			default:
				return false
			}
		}
	}

	w, b := len(minors[board.White]), len(minors[board.Black])
	switch {
	case w == 0 && b == 0:
		return true
	case w+b == 1:
		return true
	case w == 2 && b == 0:
		return knights[board.White] == 2
	case b == 2 && w == 0:
		return knights[board.Black] == 2
	case w == 1 && b == 1:
		ws, bs := minors[board.White][0], minors[board.Black][0]
		return knights[board.White] == 0 && knights[board.Black] == 0 &&
			squareShade(ws) == squareShade(bs)
	}
	return false
}

func squareShade(sq board.Square) int {
	return (sq.Row() + sq.Col()) % 2
}
