// Package protocol implements a line-oriented text protocol for driving a
// game. Each input line is one command; replies are written as lines that
// start with a keyword so a front end can parse them.
//
//	new
//	position startpos [moves m1 m2 ...]
//	position fen <fen> [moves m1 m2 ...]
//	move <m>            play one move: wire form (6444), coordinates (e2e4) or notation (Nf3)
//	undo
//	moves [square]      list legal moves
//	status
//	fen
//	encode
//	book                list book moves for the position
//	stats               list recorded results for the position
//	perft <depth>
//	d                   display the board
//	quit
package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/book"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/stats"
	"github.com/hailam/chesscore/internal/storage"
)

// StatsSource looks up recorded results by normalized position key.
// storage.Storage implements it.
type StatsSource interface {
	PositionStats(key string) (*storage.PositionStats, error)
}

// Option configures a Session.
type Option func(*Session)

// WithBook answers the "book" command from b.
func WithBook(b *book.Book) Option {
	return func(s *Session) {
		s.book = b
	}
}

// WithRecorder commits every finished game to rec.
func WithRecorder(rec *stats.Recorder) Option {
	return func(s *Session) {
		s.rec = rec
	}
}

// WithStats answers the "stats" command from src.
func WithStats(src StatsSource) Option {
	return func(s *Session) {
		s.stats = src
	}
}

// WithLogger sets the logger for the session and its games.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithDrawRules sets the draw rules for new games.
func WithDrawRules(rules game.DrawRules) Option {
	return func(s *Session) {
		s.rules = rules
	}
}

// Session is one protocol conversation. It is not safe for concurrent use.
type Session struct {
	out   io.Writer
	game  *game.Game
	rules game.DrawRules
	log   zerolog.Logger

	book  *book.Book
	rec   *stats.Recorder
	stats StatsSource

	// committed is set once the current game has been sent to rec.
	committed bool
	pending   []<-chan error
}

// New creates a session writing replies to out, starting from the standard setup.
func New(out io.Writer, opts ...Option) *Session {
	s := &Session{
		out:   out,
		rules: game.DefaultDrawRules(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.game = s.newGame()
	return s
}

func (s *Session) newGame() *game.Game {
	return game.New(game.WithLogger(s.log), game.WithDrawRules(s.rules))
}

// Game returns the game being played.
func (s *Session) Game() *game.Game {
	return s.game
}

// Run reads commands from r until "quit", end of input or ctx is done. It
// waits for pending game commits before returning and reports the first
// commit error.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			s.wait()
			return err
		}
		if !s.Handle(scanner.Text()) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		s.wait()
		return err
	}
	return s.wait()
}

func (s *Session) wait() error {
	var first error
	for _, ch := range s.pending {
		if err := <-ch; err != nil && first == nil {
			first = err
		}
	}
	s.pending = nil
	return first
}

// Handle executes one command line. It returns false after "quit".
func (s *Session) Handle(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "quit":
		return false
	case "new":
		s.handleNew()
	case "position":
		err = s.handlePosition(args)
	case "move":
		err = s.handleMove(args)
	case "undo":
		err = s.handleUndo()
	case "moves":
		err = s.handleMoves(args)
	case "status":
		s.reportStatus()
	case "fen":
		pos := s.game.Position()
		s.reply("fen %s", pos.FEN())
	case "encode":
		s.handleEncode()
	case "book":
		s.handleBook()
	case "stats":
		err = s.handleStats()
	case "perft":
		err = s.handlePerft(args)
	case "d":
		pos := s.game.Position()
		fmt.Fprint(s.out, pos.String())
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		s.log.Debug().Err(err).Str("command", line).Msg("command failed")
		s.reply("error %v", err)
	}
	return true
}

func (s *Session) reply(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Session) handleNew() {
	s.game = s.newGame()
	s.committed = false
	s.reply("ok")
}

// handlePosition sets up a position and plays the listed moves. A bad move
// leaves the position after the last good one.
func (s *Session) handlePosition(args []string) error {
	if len(args) == 0 {
		return errors.New("position: expected startpos or fen")
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var g *game.Game
	switch args[0] {
	case "startpos":
		g = s.newGame()
	case "fen":
		pos, err := board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			return err
		}
		if g, err = game.NewFromPosition(pos, game.WithLogger(s.log), game.WithDrawRules(s.rules)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("position: unknown setup %q", args[0])
	}
	s.game = g
	s.committed = false

	if movesAt < len(args) {
		for _, text := range args[movesAt+1:] {
			if _, _, err := s.play(text); err != nil {
				return err
			}
		}
	}
	s.reply("ok")
	s.afterMove()
	return nil
}

// play applies text read as wire form, then coordinates, then notation. It
// returns the move played and its notation.
func (s *Session) play(text string) (board.Move, string, error) {
	pos := s.game.Position()

	m, err := board.DecodeWire(text)
	if err != nil {
		m, err = board.ParseMove(text)
	}
	if err != nil {
		if m, err = board.ParseNotation(&pos, text, pos.SideToMove); err != nil {
			return board.NoMove, "", err
		}
	}
	m = pos.DefaultPromotion(m)
	if err := s.game.Apply(m); err != nil {
		return board.NoMove, "", err
	}
	return m, pos.Notation(m), nil
}

func colorName(c board.Color) string {
	return strings.ToLower(c.String())
}

func (s *Session) handleMove(args []string) error {
	if len(args) != 1 {
		return errors.New("move: expected one move")
	}
	mover := s.game.Turn()
	m, san, err := s.play(args[0])
	if err != nil {
		return err
	}
	s.reply("played %s %s %s %s", colorName(mover), m, board.EncodeWire(m), san)
	s.afterMove()
	return nil
}

func (s *Session) handleUndo() error {
	if err := s.game.Undo(); err != nil {
		return err
	}
	// A taken-back final move reopens the game; the earlier commit stands.
	s.reply("ok")
	return nil
}

func (s *Session) handleMoves(args []string) error {
	pos := s.game.Position()

	var moves []board.Move
	switch len(args) {
	case 0:
		moves = pos.AllLegalMoves(pos.SideToMove)
	case 1:
		sq, err := board.ParseSquare(args[0])
		if err != nil {
			return err
		}
		moves = pos.LegalMoves(sq)
	default:
		return errors.New("moves: expected at most one square")
	}

	strs := make([]string, len(moves))
	for i, m := range moves {
		strs[i] = m.String()
	}
	sort.Strings(strs)
	s.reply("moves %s", strings.Join(strs, " "))
	return nil
}

func (s *Session) reportStatus() {
	st := s.game.Status()
	switch st.State {
	case game.Checkmate:
		s.reply("status checkmate winner %s", colorName(st.Winner()))
	case game.Draw:
		s.reply("status draw %s", st.DrawReason)
	default:
		s.reply("status %s tomove %s", st.State, colorName(st.ToMove))
	}
}

// afterMove reports a finished game and commits it once.
func (s *Session) afterMove() {
	st := s.game.Status()
	if !st.Over() {
		if st.State == game.Check {
			sq, _ := s.game.CheckedKingSquare()
			s.reply("check %s", sq)
		}
		return
	}

	s.reportStatus()
	if s.rec == nil || s.committed {
		return
	}
	outcome, err := stats.OutcomeOf(st)
	if err != nil {
		return
	}
	s.committed = true
	s.reply("result %s", outcome)
	s.pending = append(s.pending, s.rec.CommitAsync(context.Background(), s.game.History(), outcome))
}

func (s *Session) handleEncode() {
	pos := s.game.Position()
	key, orient := board.EncodeNormalized(pos, pos.SideToMove)
	s.reply("encode %s", board.Encode(pos))
	s.reply("normalized %s fliprows %t flipcols %t", key, orient.FlipRows, orient.FlipCols)
}

func (s *Session) handleBook() {
	pos := s.game.Position()
	entries := s.book.ProbeAll(&pos)
	if len(entries) == 0 {
		s.reply("book none")
		return
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s %d", e.Move, e.Weight))
	}
	s.reply("book %s", strings.Join(parts, " "))
}

func (s *Session) handleStats() error {
	if s.stats == nil {
		return errors.New("stats: no store")
	}
	pos := s.game.Position()
	key, orient := board.EncodeNormalized(pos, pos.SideToMove)
	ps, err := s.stats.PositionStats(key)
	if err != nil {
		return err
	}
	if len(ps.Moves) == 0 {
		s.reply("stats none")
		return nil
	}
	for _, t := range ps.Moves {
		m, err := board.ParseMove(t.Move)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("bad stored move")
			continue
		}
		s.reply("stats %s games %d wins %d draws %d losses %d",
			orient.Denormalize(m), t.Games(), t.Wins, t.Draws, t.Losses)
	}
	return nil
}

func (s *Session) handlePerft(args []string) error {
	if len(args) != 1 {
		return errors.New("perft: expected depth")
	}
	depth, err := strconv.Atoi(args[0])
	if err != nil || depth < 1 {
		return fmt.Errorf("perft: bad depth %q", args[0])
	}

	pos := s.game.Position()
	div := pos.Divide(depth)
	moves := maps.Keys(div)
	sort.Slice(moves, func(i, j int) bool { return moves[i].String() < moves[j].String() })

	var total int64
	for _, m := range moves {
		s.reply("%s: %d", m, div[m])
		total += div[m]
	}
	s.reply("nodes %d", total)
	return nil
}
