package errs

import (
	"errors"
	"fmt"
	"log/slog"
)

// Wrap prefixes err with msg while keeping the chain intact for
// errors.Is/errors.As.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// Loggable renders an error as structured slog fields: the outermost message
// plus the full unwrap chain. Usage: slog.Any("err", errs.Loggable(err)).
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

type loggable struct{ err error }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	chain := make([]string, 0, 4)
	for e := l.err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e.Error())
	}

	return slog.GroupValue(
		slog.String("message", l.err.Error()),
		slog.Any("chain", chain),
	)
}
