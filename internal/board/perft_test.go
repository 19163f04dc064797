package board

import "testing"

func runPerft(t *testing.T, fen string, want []int64) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	for i, expected := range want {
		depth := i + 1
		if got := pos.Perft(depth); got != expected {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected)
		}
	}
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	runPerft(t, StartFEN, []int64{20, 400, 8902})
}

// TestPerftKiwipete tests the famous Kiwipete position with many edge cases.
func TestPerftKiwipete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping deep perft in short mode")
	}
	runPerft(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []int64{48, 2039, 97862})
}

// TestPerftPosition3 tests en passant edge cases.
func TestPerftPosition3(t *testing.T) {
	runPerft(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []int64{14, 191, 2812})
}

// TestPerftPosition4 covers promotions and castling with pieces in the way.
func TestPerftPosition4(t *testing.T) {
	runPerft(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []int64{6, 264, 9467})
}

// TestPerftPosition5 covers a promotion-capture race.
func TestPerftPosition5(t *testing.T) {
	runPerft(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []int64{44, 1486})
}

// TestPerftEnPassantPin tests the en passant horizontal pin edge case.
// Black pawn on e4 could capture en passant on d3, but that would expose the
// black king on a4 to the white rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos := MustParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")

	for _, m := range pos.LegalMoves(E4) {
		if pos.IsEnPassant(m) {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m)
		}
	}

	// Ka3, Ka5, Kb3, Kb4, Kb5, e3; then 14 replies to e3 and 16 to each king move
	runPerft(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []int64{6, 94})
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := NewPosition()
	div := pos.Divide(3)
	if len(div) != 20 {
		t.Fatalf("Divide(3) has %d moves, want 20", len(div))
	}
	var total int64
	for _, n := range div {
		total += n
	}
	if total != 8902 {
		t.Errorf("Divide(3) sums to %d, want 8902", total)
	}
	if got := div[NewMove(E2, E4)]; got != 600 {
		t.Errorf("Divide(3)[e2e4] = %d, want 600", got)
	}
}
