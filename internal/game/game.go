// Package game tracks a chess game in progress: the current position, the
// move history, and the check, mate and draw status that follows from them.
package game

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
)

// ErrNothingToUndo is returned by Undo on a game with no recorded moves.
var ErrNothingToUndo = errors.New("nothing to undo")

// State is the coarse state of the game from the side to move's view.
type State int

const (
	Ongoing State = iota
	Check
	Checkmate
	Stalemate
	Draw
)

func (s State) String() string {
	switch s {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// Status describes the position after the last move.
type Status struct {
	State State

	// DrawReason is set when State is Draw.
	DrawReason DrawReason

	// ToMove is the side whose turn it is.
	ToMove board.Color
}

// Over returns true if no further moves can be played.
func (s Status) Over() bool {
	return s.State == Checkmate || s.State == Stalemate || s.State == Draw
}

// Winner returns the winning color after checkmate, or NoColor.
func (s Status) Winner() board.Color {
	if s.State == Checkmate {
		return s.ToMove.Other()
	}
	return board.NoColor
}

// KingState classifies the king returned by CheckedKingSquare.
type KingState int

const (
	KingSafe KingState = iota
	KingInCheck
	KingMated
)

// Option configures a Game.
type Option func(*Game)

// WithLogger sets the logger. Games are silent by default.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Game) {
		g.log = log
	}
}

// WithDrawRules replaces DefaultDrawRules.
func WithDrawRules(rules DrawRules) Option {
	return func(g *Game) {
		g.rules = rules
	}
}

// Game is a position plus its history. All methods are safe for concurrent
// use; mutations are serialized.
type Game struct {
	mu      sync.RWMutex
	pos     board.Position
	history *History
	rules   DrawRules
	log     zerolog.Logger

	status    Status
	hasStatus bool
}

// New starts a game from the standard setup.
func New(opts ...Option) *Game {
	g := &Game{
		pos:     board.NewPosition(),
		history: NewHistory(),
		rules:   DefaultDrawRules(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewFromPosition starts a game from pos, which must pass Validate.
func NewFromPosition(pos board.Position, opts ...Option) (*Game, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	g := New(opts...)
	g.pos = pos
	return g, nil
}

// Position returns a snapshot of the current position.
func (g *Game) Position() board.Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pos
}

// Turn returns the side to move.
func (g *Game) Turn() board.Color {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pos.SideToMove
}

// History returns a copy of the recorded plies, oldest first.
func (g *Game) History() []Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.history.Entries()
}

// PieceAt returns the piece on sq.
func (g *Game) PieceAt(sq board.Square) board.Piece {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pos.PieceAt(sq)
}

// LegalMoves returns the legal moves of the piece on sq, whichever side owns it.
func (g *Game) LegalMoves(sq board.Square) []board.Move {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pos.LegalMoves(sq)
}

// LegalDestinations returns the squares the piece on sq can reach.
func (g *Game) LegalDestinations(sq board.Square) []board.Square {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pos.LegalDestinations(sq)
}

// InCheck returns true if color's king is attacked.
func (g *Game) InCheck(c board.Color) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pos.InCheck(c)
}

// CheckedKingSquare returns the square of a king that is mated or in check,
// preferring a mated king. It returns NoSquare and KingSafe when neither king
// is attacked.
func (g *Game) CheckedKingSquare() (board.Square, KingState) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	checked := board.NoSquare
	for _, c := range [2]board.Color{board.White, board.Black} {
		if !g.pos.InCheck(c) {
			continue
		}
		if !g.pos.HasLegalMove(c) {
			return g.pos.KingSquare[c], KingMated
		}
		if checked == board.NoSquare {
			checked = g.pos.KingSquare[c]
		}
	}
	if checked == board.NoSquare {
		return board.NoSquare, KingSafe
	}
	return checked, KingInCheck
}

// Status returns the state of the current position. The result is cached
// until the next move or undo.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusLocked()
}

// IsDraw reports whether the game is drawn, stalemate included.
func (g *Game) IsDraw() bool {
	s := g.Status()
	return s.State == Draw || s.State == Stalemate
}

func (g *Game) statusLocked() Status {
	if g.hasStatus {
		return g.status
	}

	us := g.pos.SideToMove
	s := Status{State: Ongoing, ToMove: us}
	inCheck := g.pos.InCheck(us)
	hasMove := g.pos.HasLegalMove(us)

	switch {
	case inCheck && !hasMove:
		s.State = Checkmate
	case !hasMove:
		s.State = Stalemate
	default:
		if reason := g.rules.Detect(g.history, g.pos); reason != DrawNone {
			s.State = Draw
			s.DrawReason = reason
		} else if inCheck {
			s.State = Check
		}
	}

	g.status, g.hasStatus = s, true
	return s
}

// ApplyMove plays the piece on from to to. A pawn reaching the last rank
// without a promotion piece becomes a queen. Pass board.NoPieceType for
// promo on ordinary moves.
func (g *Game) ApplyMove(from, to board.Square, promo board.PieceType) error {
	return g.Apply(board.NewPromotion(from, to, promo))
}

// Apply plays m for the side to move. On error the game is unchanged.
func (g *Game) Apply(m board.Move) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applyLocked(m)
}

// ApplyNotation parses text as short notation for the side to move and plays it.
func (g *Game) ApplyNotation(text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, err := board.ParseNotation(&g.pos, text, g.pos.SideToMove)
	if err != nil {
		return err
	}
	return g.applyLocked(m)
}

func (g *Game) applyLocked(m board.Move) error {
	if piece := g.pos.PieceAt(m.From()); piece != board.NoPiece && piece.Color() != g.pos.SideToMove {
		return &board.MoveError{Err: board.ErrInvalidMove, Move: m, Reason: "not " + piece.Color().String() + "'s turn"}
	}

	m = g.pos.DefaultPromotion(m)
	next, err := g.pos.Apply(m)
	if err != nil {
		if errors.Is(err, board.ErrInvariantViolation) {
			g.log.Error().Err(err).Str("fen", g.pos.FEN()).Msg("refusing move on corrupt position")
		}
		return err
	}

	g.history.Record(g.pos, m)
	g.pos = next
	g.hasStatus = false

	g.log.Debug().
		Str("move", m.String()).
		Int("ply", g.history.Len()).
		Msg("move applied")
	return nil
}

// Undo takes back the last move.
func (g *Game) Undo() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.history.Undo()
	if !ok {
		return ErrNothingToUndo
	}
	g.pos = entry.Before
	g.hasStatus = false

	g.log.Debug().Str("move", entry.Move.String()).Msg("move undone")
	return nil
}
