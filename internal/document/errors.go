package document

import "errors"

var (
	// ErrParse is matched by errors.Is for any failure to decode or parse
	// the input as a bookmark document.
	ErrParse = errors.New("cannot parse bookmark document")

	// ErrSerialize is matched by errors.Is for any failure to render or
	// write the document.
	ErrSerialize = errors.New("cannot serialize bookmark document")

	// ErrInconsistentTree is returned by Validate when a parent/child
	// back-reference does not match.
	ErrInconsistentTree = errors.New("inconsistent document tree")

	// errInvalidUTF8 is the cause used when the input is not UTF-8 text.
	errInvalidUTF8 = errors.New("input is not valid UTF-8 text")
)

// ParseError wraps the cause of a parse failure.
type ParseError struct {
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return ErrParse.Error() + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// SerializeError wraps the cause of a render or write failure.
type SerializeError struct {
	Err error
}

// Error implements error.
func (e *SerializeError) Error() string {
	return ErrSerialize.Error() + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *SerializeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrSerialize.
func (e *SerializeError) Is(target error) bool {
	return target == ErrSerialize
}
