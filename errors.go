package jsonpatch

import "errors"

// Error taxonomy for patch parsing and application failures. Every error
// returned by Apply, ApplyInPlace, ParsePatch, ParseMultidict and
// LoadMultidict wraps exactly one of these sentinels, so callers can branch
// with errors.Is instead of parsing messages.
var (
	// ErrInvalidPatch means the patch document itself is malformed: an
	// unknown op name, a missing required field, or a duplicated "op",
	// "path" or "from" key in an operation object.
	ErrInvalidPatch = errors.New("jsonpatch: invalid patch")

	// ErrConflict means the patch is well-formed but cannot be applied to
	// this document: a target path does not exist, an array index is out
	// of bounds, or a move/copy source is missing.
	ErrConflict = errors.New("jsonpatch: conflict")

	// ErrTestFailed means a "test" operation's value did not match the
	// document at its path.
	ErrTestFailed = errors.New("jsonpatch: test failed")

	// ErrPointerError means the underlying JSON Pointer collaborator
	// rejected the destination path of an add, move or copy operation
	// outright (malformed pointer syntax). A malformed path in a remove or
	// replace, or a malformed from, surfaces as ErrConflict; a malformed path
	// in a test surfaces as ErrTestFailed.
	ErrPointerError = errors.New("jsonpatch: pointer error")
)

// OpError reports the index of the failing operation within a patch
// alongside the underlying taxonomy error.
type OpError struct {
	Index int
	Op    Op
	Path  string
	Err   error
}

func (e *OpError) Error() string {
	return "jsonpatch: operation " + string(e.Op) + " at " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }
