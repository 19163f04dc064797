package board

import (
	"sort"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/google/go-cmp/cmp"
)

var oracleFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
	"4k3/8/8/8/8/8/3r4/4K3 w - - 0 1",
}

// fromOracleSquare converts an a1=0 square index to this package's layout.
func fromOracleSquare(idx uint8) Square {
	return NewSquare(7-int(idx)/8, int(idx)%8)
}

// TestMoveGenMatchesOracle compares origin/destination pairs against an
// independent move generator. Promotions appear once per piece in both.
func TestMoveGenMatchesOracle(t *testing.T) {
	for _, fen := range oracleFENs {
		t.Run(fen, func(t *testing.T) {
			pos := MustParseFEN(fen)

			var got []string
			for _, m := range pos.AllLegalMoves(pos.SideToMove) {
				got = append(got, m.From().String()+m.To().String())
			}

			board := dragontoothmg.ParseFen(fen)
			var want []string
			for _, m := range board.GenerateLegalMoves() {
				want = append(want, fromOracleSquare(m.From()).String()+fromOracleSquare(m.To()).String())
			}

			sort.Strings(got)
			sort.Strings(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("legal moves mismatch (-oracle +ours):\n%s", diff)
			}
		})
	}
}

// TestMoveGenMatchesOracleAlongGame walks a short game and compares at every ply.
func TestMoveGenMatchesOracleAlongGame(t *testing.T) {
	line := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "e1g1", "f6e4", "d2d4", "e5d4", "f1e1", "d7d5"}

	pos := NewPosition()
	for _, s := range line {
		var got []string
		for _, m := range pos.AllLegalMoves(pos.SideToMove) {
			got = append(got, m.From().String()+m.To().String())
		}
		board := dragontoothmg.ParseFen(pos.FEN())
		var want []string
		for _, m := range board.GenerateLegalMoves() {
			want = append(want, fromOracleSquare(m.From()).String()+fromOracleSquare(m.To()).String())
		}
		sort.Strings(got)
		sort.Strings(want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("before %s at %s (-oracle +ours):\n%s", s, pos.FEN(), diff)
		}
		pos = mustApply(t, pos, s)
	}
}
