// Package stats turns finished games into per-position move results and
// commits them to storage.
package stats

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/storage"
)

// ErrGameNotOver is returned by OutcomeOf for a game still in progress.
var ErrGameNotOver = errors.New("game not over")

// Sink receives one finished game. storage.Storage implements it.
type Sink interface {
	RecordGame(outcome storage.Outcome, results []storage.MoveResult) error
}

// Recorder writes finished games to a Sink.
type Recorder struct {
	sink Sink
	log  zerolog.Logger
}

// NewRecorder returns a recorder writing to sink. Pass zerolog.Nop() to silence it.
func NewRecorder(sink Sink, log zerolog.Logger) *Recorder {
	return &Recorder{sink: sink, log: log}
}

// OutcomeOf maps a final game status to a stored outcome.
func OutcomeOf(s game.Status) (storage.Outcome, error) {
	switch {
	case s.State == game.Checkmate && s.Winner() == board.White:
		return storage.WhiteWins, nil
	case s.State == game.Checkmate:
		return storage.BlackWins, nil
	case s.State == game.Stalemate, s.State == game.Draw:
		return storage.DrawnGame, nil
	default:
		return 0, ErrGameNotOver
	}
}

// Results converts a game record into one MoveResult per ply. Each position
// is keyed by its normalized encoding from the mover's side and the move is
// given in the same normalized frame.
func Results(hist []game.Entry, outcome storage.Outcome) []storage.MoveResult {
	out := make([]storage.MoveResult, 0, len(hist))
	for _, e := range hist {
		key, orient := board.EncodeNormalized(e.Before, e.Mover)
		out = append(out, storage.MoveResult{
			Key:    key,
			Move:   orient.Move(e.Move).String(),
			Result: resultFor(e.Mover, outcome),
		})
	}
	return out
}

func resultFor(mover board.Color, outcome storage.Outcome) storage.Result {
	switch {
	case outcome == storage.DrawnGame:
		return storage.Draw
	case (outcome == storage.WhiteWins) == (mover == board.White):
		return storage.Win
	default:
		return storage.Loss
	}
}

// Commit writes the game synchronously.
func (r *Recorder) Commit(ctx context.Context, hist []game.Entry, outcome storage.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	results := Results(hist, outcome)
	if err := r.sink.RecordGame(outcome, results); err != nil {
		r.log.Error().Err(err).Int("plies", len(results)).Msg("failed to record game")
		return err
	}
	r.log.Info().
		Str("outcome", outcome.String()).
		Int("plies", len(results)).
		Msg("game recorded")
	return nil
}

// CommitAsync writes the game in the background. The returned channel
// yields the result of Commit once and is then closed. hist is copied, so
// the caller may reuse it.
func (r *Recorder) CommitAsync(ctx context.Context, hist []game.Entry, outcome storage.Outcome) <-chan error {
	own := make([]game.Entry, len(hist))
	copy(own, hist)

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- r.Commit(ctx, own, outcome)
	}()
	return done
}
