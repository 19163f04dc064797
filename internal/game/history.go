package game

import "github.com/hailam/chesscore/internal/board"

// Entry is one recorded ply: the position before the move and the move itself.
type Entry struct {
	Before board.Position
	Move   board.Move

	// Mover is the color that made the move.
	Mover board.Color

	// Irreversible is set for pawn moves and captures; it resets the fifty-move count.
	Irreversible bool
}

// History is the ordered record of a game. It also counts how often each
// position has been seen so repetition checks don't rescan the record.
type History struct {
	entries []Entry
	seen    map[board.Position]int
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{seen: make(map[board.Position]int)}
}

// Record appends a ply. The move should already have been validated against before.
func (h *History) Record(before board.Position, m board.Move) {
	piece := before.PieceAt(m.From())
	h.entries = append(h.entries, Entry{
		Before:       before,
		Move:         m,
		Mover:        piece.Color(),
		Irreversible: piece.Type() == board.Pawn || before.IsCapture(m),
	})
	h.seen[before]++
}

// Undo pops the last ply. It reports false when the history is empty.
func (h *History) Undo() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]

	if h.seen[last.Before]--; h.seen[last.Before] <= 0 {
		delete(h.seen, last.Before)
	}
	return last, true
}

// Len returns the number of recorded plies.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the record, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Last returns the most recent ply.
func (h *History) Last() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Occurrences returns how many recorded plies started from pos.
func (h *History) Occurrences(pos board.Position) int {
	return h.seen[pos]
}

// quietPlies counts plies since the last pawn move or capture.
func (h *History) quietPlies() int {
	n := 0
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Irreversible {
			break
		}
		n++
	}
	return n
}
