package book

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/storage"
)

func testBook(t *testing.T, lines ...string) *Book {
	t.Helper()
	b := New(WithRand(rand.New(rand.NewSource(1))))
	for _, l := range lines {
		if err := b.AddLine(l); err != nil {
			t.Fatalf("AddLine(%q): %v", l, err)
		}
	}
	return b
}

func entryStrings(entries []BookEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Move.String() + ":" + string(rune('0'+e.Weight))
	}
	return out
}

func TestAddLineAndProbeAll(t *testing.T) {
	b := testBook(t, "e4 e5 Nf3", "e4 c5", "d4 d5")

	start := board.NewPosition()
	if diff := cmp.Diff([]string{"e2e4:2", "d2d4:1"}, entryStrings(b.ProbeAll(&start))); diff != "" {
		t.Errorf("ProbeAll(start) mismatch (-want +got):\n%s", diff)
	}

	afterE4, _ := start.Apply(board.NewMove(board.E2, board.E4))
	if diff := cmp.Diff([]string{"e7e5:1", "c7c5:1"}, entryStrings(b.ProbeAll(&afterE4))); diff != "" {
		t.Errorf("ProbeAll(1.e4) mismatch (-want +got):\n%s", diff)
	}

	if got := b.Size(); got != 4 {
		t.Errorf("Size() = %d, want 4", got)
	}
}

func TestMirroredPositionSharesEntries(t *testing.T) {
	b := testBook(t, "e4")

	// The start position with Black to move is the color-swapped mirror of the start
	pos := board.MustParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	m, ok := b.Probe(&pos)
	if !ok {
		t.Fatal("mirrored position not found in book")
	}
	if want := board.NewMove(board.E7, board.E5); m != want {
		t.Errorf("Probe = %v, want %v", m, want)
	}
}

func TestAddLineRejectsBadLines(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"illegal move", "e4 e4", board.ErrInvalidMove},
		{"ambiguous knight", "e4 e5 Nf3 Nc6 d3 Nf6 Nd2", board.ErrAmbiguousNotation},
		{"garbage", "e4 hello", board.ErrBadNotation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := testBook(t)
			err := b.AddLine(tc.line)
			if !errors.Is(err, tc.want) {
				t.Fatalf("AddLine error = %v, want %v", err, tc.want)
			}
			if b.Size() != 0 {
				t.Errorf("Size() = %d after bad line, want 0", b.Size())
			}
		})
	}
}

func TestParseLineMoveNumbers(t *testing.T) {
	plain, err := ParseLine("e4 e5 Nf3 Nc6")
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"1. e4 e5 2. Nf3 Nc6", "1.e4 e5 2.Nf3 Nc6", "1.e4 1...e5 2.Nf3 2...Nc6"} {
		got, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", line, err)
		}
		if diff := cmp.Diff(plain, got); diff != "" {
			t.Errorf("ParseLine(%q) mismatch (-want +got):\n%s", line, diff)
		}
	}
}

func TestLoadLines(t *testing.T) {
	input := strings.Join([]string{
		"# Ruy Lopez and friends",
		"e4 e5 Nf3 Nc6 Bb5",
		"",
		"e4 e5 Nf3 Nc6 Bc4",
		"e4 e4",
		"   ",
		"d4 d5 c4",
	}, "\n")

	b := testBook(t)
	added, errs := b.LoadLines(strings.NewReader(input))
	if added != 3 {
		t.Errorf("added = %d, want 3", added)
	}
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one", errs)
	}
	if !errors.Is(errs[0], board.ErrInvalidMove) || !strings.Contains(errs[0].Error(), "line 5") {
		t.Errorf("errs[0] = %v, want invalid move on line 5", errs[0])
	}
}

func TestProbeWeighted(t *testing.T) {
	b := testBook(t, "e4", "e4", "e4", "d4")
	start := board.NewPosition()

	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		m, ok := b.Probe(&start)
		if !ok {
			t.Fatal("Probe found nothing")
		}
		counts[m.String()]++
	}
	if counts["e2e4"] <= counts["d2d4"] || counts["d2d4"] == 0 {
		t.Errorf("unexpected distribution %v", counts)
	}
	if len(counts) != 2 {
		t.Errorf("Probe returned moves outside the book: %v", counts)
	}
}

func TestProbeMissing(t *testing.T) {
	b := testBook(t, "e4")
	pos := board.MustParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if m, ok := b.Probe(&pos); ok {
		t.Errorf("Probe = %v on unknown position", m)
	}

	var nilBook *Book
	if got := nilBook.ProbeAll(&pos); got != nil {
		t.Errorf("nil book ProbeAll = %v", got)
	}
}

func TestProbeAllDropsIllegalEntries(t *testing.T) {
	b := testBook(t, "e4")
	start := board.NewPosition()
	key, orient := board.EncodeNormalized(start, board.White)
	b.add(key, orient.Move(board.NewMove(board.E2, board.E5)), 9)

	got := entryStrings(b.ProbeAll(&start))
	if diff := cmp.Diff([]string{"e2e4:1"}, got); diff != "" {
		t.Errorf("ProbeAll mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	a := testBook(t, "e4 e5", "d4")
	a.Merge(testBook(t, "e4 c5", "c4"))
	a.Merge(nil)

	start := board.NewPosition()
	if diff := cmp.Diff([]string{"e2e4:2", "d2d4:1", "c2c4:1"}, entryStrings(a.ProbeAll(&start))); diff != "" {
		t.Errorf("ProbeAll after Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestWeightSaturates(t *testing.T) {
	b := testBook(t)
	start := board.NewPosition()
	key, orient := board.EncodeNormalized(start, board.White)
	m := orient.Move(board.NewMove(board.E2, board.E4))
	b.add(key, m, 65000)
	b.add(key, m, 1000)

	if got := b.entries[key][0].Weight; got != ^uint16(0) {
		t.Errorf("Weight = %d, want %d", got, ^uint16(0))
	}
}

func TestSaveLoadThroughStorage(t *testing.T) {
	s, err := storage.Open(storage.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	orig := testBook(t, "e4 e5 Nf3", "e4 c5", "d4 d5 c4 e6", "a4 h5 a5 b5 axb6")
	if err := orig.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := New()
	if err := loaded.Load(s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != orig.Size() {
		t.Errorf("Size() = %d after load, want %d", loaded.Size(), orig.Size())
	}
	if diff := cmp.Diff(orig.entries, loaded.entries); diff != "" {
		t.Errorf("entries mismatch after round trip (-want +got):\n%s", diff)
	}
}
