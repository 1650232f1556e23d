// Package errs defines the error kinds shared across the tokenizer core.
//
// Every public operation returns a plain error; callers that need to branch
// on failure category use errors.Is against the Kind sentinels below rather
// than string matching, and can recover the Kind of any wrapped error with
// As.
package errs

import "fmt"

// Kind classifies why an operation failed. See spec §7.
type Kind int

const (
	// InvalidArgument: malformed input or an out-of-range parameter.
	InvalidArgument Kind = iota
	// OutOfRange: an id outside the vocabulary.
	OutOfRange
	// Internal: an invariant was violated (missing UNK, duplicate piece,
	// unreachable lattice position).
	Internal
	// Unavailable: a required subsystem failed to build (e.g. the suffix
	// array construction).
	Unavailable
	// Unimplemented: an unsupported configuration combination was requested.
	Unimplemented
	// DataLoss: the serialized model container is corrupt.
	DataLoss
)

// Error lets a bare Kind satisfy the error interface, so it can be used
// directly as the target of errors.Is(err, errs.Internal).
func (k Kind) Error() string { return k.String() }

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case OutOfRange:
		return "out_of_range"
	case Internal:
		return "internal"
	case Unavailable:
		return "unavailable"
	case Unimplemented:
		return "unimplemented"
	case DataLoss:
		return "data_loss"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the same Kind as e, so callers can write
// errors.Is(err, errs.Internal) directly against a bare Kind value.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New builds an *Error. op names the failing operation (e.g.
// "normalizer.Normalize"); err may be nil.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap is shorthand for New(kind, op, err) that returns nil when err is nil,
// so it can be used directly in a return statement.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(kind, op, err)
}
