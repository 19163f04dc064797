package board

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for rule failures.
// Use these with errors.Is() to check for specific error types.
var (
	// ErrInvalidMove indicates an empty source square or a destination that is not legal.
	ErrInvalidMove = errors.New("invalid move")

	// ErrAmbiguousNotation indicates notation that matches more than one origin square.
	ErrAmbiguousNotation = errors.New("ambiguous notation")

	// ErrInvariantViolation indicates a position that breaks the board invariants,
	// such as a missing king or castling rights without the pieces to back them.
	ErrInvariantViolation = errors.New("position invariant violated")

	// ErrBadNotation indicates move text that cannot be parsed at all.
	ErrBadNotation = errors.New("malformed notation")

	// ErrBadSetup indicates a malformed setup string.
	ErrBadSetup = errors.New("malformed setup")
)

// MoveError wraps a rule error with the move or text that caused it.
type MoveError struct {
	Err    error  // The underlying sentinel
	Move   Move   // The move, if one was decoded
	Text   string // The source text, if any
	Reason string // Short human readable detail
}

// Error returns a formatted error message including all available context.
func (e *MoveError) Error() string {
	var parts []string
	if e.Text != "" {
		parts = append(parts, fmt.Sprintf("%q", e.Text))
	} else if e.Move != NoMove {
		parts = append(parts, e.Move.String())
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(parts) == 0 {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + strings.Join(parts, ": ")
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *MoveError) Unwrap() error {
	return e.Err
}

func invalidMove(m Move, reason string) error {
	return &MoveError{Err: ErrInvalidMove, Move: m, Reason: reason}
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
