package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidValue   = errors.New("invalid value")
	ErrAuthentication = errors.New("authentication failed")
	ErrSession        = errors.New("session error")
	ErrMailOperation  = errors.New("mail operation failed")
	ErrTransaction    = errors.New("transaction failed")
	ErrWrite          = errors.New("write failed")
	ErrUnsupported    = errors.New("unsupported")
)

// Error carries the failing operation, its kind and the original cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind. A nil err still produces an error of that kind.
func Wrap(kind error, op string, err error) error {
	var de *Error
	if errors.As(err, &de) && de.Kind == kind && de.Op == op {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the first known kind in err's chain, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrNotFound, ErrInvalidValue, ErrAuthentication, ErrSession, ErrMailOperation, ErrTransaction, ErrWrite, ErrUnsupported} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
