// Package mixerr defines the fatal error kinds the mix engine surfaces to
// callers (spec §7). Every error the core returns wraps one of these kinds so
// the CLI can report "Error: <message>" and exit 1 without needing to
// inspect message text.
package mixerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the fixed error categories from spec §7.
type Kind int

const (
	_ Kind = iota
	FileNotFound
	DecodeError
	BpmOutOfRange
	UnknownKey
	PrerequisiteError
	IoError
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case DecodeError:
		return "DecodeError"
	case BpmOutOfRange:
		return "BpmOutOfRange"
	case UnknownKey:
		return "UnknownKey"
	case PrerequisiteError:
		return "PrerequisiteError"
	case IoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with the operation that raised it and its
// Kind, supporting fmt.Errorf("%w") unwrapping against a single typed kind
// rather than ad hoc sentinel errors.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, mixerr.Sentinel(mixerr.FileNotFound)) style
// matching against the values Sentinel returns.
func (e *Error) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && k.kind == e.Kind
}

type kindSentinel struct{ kind Kind }

func (kindSentinel) Error() string { return "" }

// Sentinel returns a comparable value usable with errors.Is to test an
// error's Kind, e.g. errors.Is(err, mixerr.Sentinel(mixerr.PrerequisiteError)).
func Sentinel(k Kind) error { return kindSentinel{k} }

// New builds an *Error for op with no wrapped cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap builds an *Error for op wrapping err. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *mixerr.Error, returning ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
