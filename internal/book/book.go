// Package book is an opening book keyed by the normalized position encoding,
// so a line entered once also answers for its color-swapped mirror.
package book

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/storage"
)

// BookEntry represents a single book entry. Move is in the normalized frame
// when stored and in real coordinates when returned by ProbeAll.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// Step is one book move ready to be merged: the normalized key of the
// position and the move in the same frame.
type Step struct {
	Key  string
	Move board.Move
}

// Store is the persistence the book needs. storage.Storage implements it.
type Store interface {
	SaveBookEntries(key string, recs []storage.BookRecord) error
	ForEachBook(fn func(key string, recs []storage.BookRecord) error) error
}

// Book represents an opening book.
type Book struct {
	entries map[string][]BookEntry
	rng     *rand.Rand
	log     zerolog.Logger
}

// Option configures a Book.
type Option func(*Book)

// WithRand sets the source used by Probe. Tests pass a seeded source.
func WithRand(r *rand.Rand) Option {
	return func(b *Book) {
		b.rng = r
	}
}

// WithLogger sets the logger used by LoadLines.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Book) {
		b.log = log
	}
}

// New creates an empty book.
func New(opts ...Option) *Book {
	b := &Book{
		entries: make(map[string][]BookEntry),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b
}

// ParseLine replays a space-separated line of short notation from the
// standard setup and returns one Step per move. Move numbers such as "1."
// are skipped. The first move that does not parse or is not legal stops the
// line with an error naming it.
func ParseLine(line string) ([]Step, error) {
	pos := board.NewPosition()
	var steps []Step

	for _, tok := range strings.Fields(line) {
		tok = stripMoveNumber(tok)
		if tok == "" {
			continue
		}
		m, err := board.ParseNotation(&pos, tok, pos.SideToMove)
		if err != nil {
			return nil, fmt.Errorf("move %d %q: %w", len(steps)+1, tok, err)
		}
		next, err := pos.Apply(m)
		if err != nil {
			return nil, fmt.Errorf("move %d %q: %w", len(steps)+1, tok, err)
		}

		key, orient := board.EncodeNormalized(pos, pos.SideToMove)
		steps = append(steps, Step{Key: key, Move: orient.Move(m)})
		pos = next
	}
	return steps, nil
}

// stripMoveNumber removes a leading "12." or "12..." from a token.
func stripMoveNumber(tok string) string {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 || i == len(tok) || tok[i] != '.' {
		return tok
	}
	return strings.TrimLeft(tok[i:], ".")
}

// AddSteps merges parsed steps, raising the weight of moves already present.
func (b *Book) AddSteps(steps []Step) {
	for _, s := range steps {
		b.add(s.Key, s.Move, 1)
	}
}

func (b *Book) add(key string, m board.Move, weight uint16) {
	entries := b.entries[key]
	for i := range entries {
		if entries[i].Move == m {
			if entries[i].Weight <= ^uint16(0)-weight {
				entries[i].Weight += weight
			} else {
				entries[i].Weight = ^uint16(0)
			}
			return
		}
	}
	b.entries[key] = append(entries, BookEntry{Move: m, Weight: weight})
}

// Merge adds every entry of other into b, summing weights.
func (b *Book) Merge(other *Book) {
	if other == nil {
		return
	}
	for key, entries := range other.entries {
		for _, e := range entries {
			b.add(key, e.Move, e.Weight)
		}
	}
}

// AddLine parses line and merges it. A bad line leaves the book unchanged.
func (b *Book) AddLine(line string) error {
	steps, err := ParseLine(line)
	if err != nil {
		return err
	}
	b.AddSteps(steps)
	return nil
}

// LoadLines adds every line read from r. Blank lines and lines starting
// with "#" are skipped. Bad lines are logged and returned, not fatal.
func (b *Book) LoadLines(r io.Reader) (added int, errs []error) {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := b.AddLine(line); err != nil {
			err = fmt.Errorf("line %d: %w", lineNo, err)
			b.log.Warn().Err(err).Msg("skipping book line")
			errs = append(errs, err)
			continue
		}
		added++
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, err)
	}
	return added, errs
}

// Probe looks up a position in the book and returns a move using weighted random selection.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return board.NoMove, false
	}

	// Weighted random selection
	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	if totalWeight == 0 {
		return entries[0].Move, true
	}

	r := uint32(b.rng.Int63n(int64(totalWeight)))
	cumulative := uint32(0)
	for _, e := range entries {
		cumulative += uint32(e.Weight)
		if r < cumulative {
			return e.Move, true
		}
	}

	return entries[0].Move, true
}

// ProbeAll returns all legal book moves for the position in real
// coordinates, sorted by weight, highest first.
func (b *Book) ProbeAll(pos *board.Position) []BookEntry {
	if b == nil {
		return nil
	}

	key, orient := board.EncodeNormalized(*pos, pos.SideToMove)
	entries, ok := b.entries[key]
	if !ok {
		return nil
	}

	result := make([]BookEntry, 0, len(entries))
	for _, e := range entries {
		m := orient.Denormalize(e.Move)
		if !pos.IsLegal(m) {
			continue
		}
		result = append(result, BookEntry{Move: m, Weight: e.Weight})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Save writes every position to s.
func (b *Book) Save(s Store) error {
	keys := maps.Keys(b.entries)
	slices.Sort(keys)

	for _, k := range keys {
		entries := b.entries[k]
		recs := make([]storage.BookRecord, len(entries))
		for i, e := range entries {
			recs[i] = storage.BookRecord{Move: e.Move.String(), Weight: e.Weight}
		}
		if err := s.SaveBookEntries(k, recs); err != nil {
			return fmt.Errorf("save %q: %w", k, err)
		}
	}
	return nil
}

// Load merges every stored position from s into the book.
func (b *Book) Load(s Store) error {
	return s.ForEachBook(func(key string, recs []storage.BookRecord) error {
		for _, r := range recs {
			m, err := board.ParseMove(r.Move)
			if err != nil {
				return fmt.Errorf("load %q: %w", key, err)
			}
			b.add(key, m, r.Weight)
		}
		return nil
	})
}
