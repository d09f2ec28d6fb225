package model

import (
	"errors"
	"strings"
)

// Sentinel kinds raised by the match core. Callers match them with errors.Is.
var (
	ErrProfileNotFound          = errors.New("profile not found")
	ErrMatchNotFound            = errors.New("match not found")
	ErrInvalidRating            = errors.New("rating must be between 1 and 5")
	ErrInvalidProficiencyLevel  = errors.New("invalid proficiency level")
	ErrStatisticsNotInitialized = errors.New("statistics not initialized")
	ErrContactNotExposed        = errors.New("contact info not exposed")
)

// Error carries the failing operation, the error kind and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil && e.Err != e.Kind {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil && e.Err != e.Kind {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap annotates err with op. Nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the first known sentinel kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, k := range []error{
		ErrProfileNotFound,
		ErrMatchNotFound,
		ErrInvalidRating,
		ErrInvalidProficiencyLevel,
		ErrStatisticsNotInitialized,
		ErrContactNotExposed,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
