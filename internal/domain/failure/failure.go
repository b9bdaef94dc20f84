// Package failure provides a tagged error type shared by storage and delivery code.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on it.
type Kind int

const (
	KindUnknown Kind = iota
	KindDuplicateKey
	KindInvalid
	KindNotFound
	KindTransient
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindDuplicateKey:
		return "duplicate_key"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error of the given kind.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Permanent marks err as not worth retrying.
func Permanent(op string, err error) error {
	return New(KindPermanent, op, err)
}

// Transient marks err as recoverable by retrying.
func Transient(op string, err error) error {
	return New(KindTransient, op, err)
}

// KindOf returns the Kind of the outermost *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// IsPermanent reports whether err is classified as permanent.
// Unclassified errors are not permanent.
func IsPermanent(err error) bool {
	return KindOf(err) == KindPermanent
}
