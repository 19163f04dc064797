package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) int64 {
	if depth <= 0 {
		return 1
	}

	moves := p.AllLegalMoves(p.SideToMove)
	if depth == 1 {
		return int64(len(moves))
	}

	var nodes int64
	for _, m := range moves {
		next := *p
		next.play(m)
		nodes += next.Perft(depth - 1)
	}
	return nodes
}

// Divide returns the perft count below each legal move.
func (p *Position) Divide(depth int) map[Move]int64 {
	out := make(map[Move]int64)
	for _, m := range p.AllLegalMoves(p.SideToMove) {
		next := *p
		next.play(m)
		out[m] = next.Perft(depth - 1)
	}
	return out
}
