package rounds

import (
	"errors"
	"fmt"
	"log/slog"

	database "github.com/Shoshak/album-ranking-v2/internal/db"
)

// Error kinds. Every failure a service returns on purpose wraps exactly one.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrExpired      = errors.New("expired")
)

// Error carries a kind, a client-safe message and an optional cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func wrapError(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind sentinel err carries, or nil for unexpected errors.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrForbidden, ErrExpired} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message is the text safe to show a client.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

// conflictOr turns unique-index violations into Conflict errors.
func conflictOr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return wrapError(ErrConflict, msg, err)
	}
	return err
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
