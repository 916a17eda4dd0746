package jsonpatch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/agentflare-ai/go-jsonpointer"
)

// Apply applies a series of JSON Patch operations to document, returning a
// new document. The input document is never modified.
func Apply(document any, patch Patch) (any, error) {
	docCopy, err := deepCopyAny(document)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to copy document: %v", ErrInvalidPatch, err)
	}
	return ApplyInPlace(docCopy, patch)
}

// ApplyInPlace applies patch to document, reusing and mutating the
// document's underlying containers where possible. Callers that need the
// original document preserved should use Apply instead.
func ApplyInPlace(document any, patch Patch) (any, error) {
	for i, op := range patch {
		var err error
		switch op.Op {
		case Add:
			document, err = applyAdd(document, op.Path, op.Value)
		case Remove:
			document, err = applyRemove(document, op.Path)
		case Replace:
			document, err = applyReplace(document, op.Path, op.Value)
		case Move:
			document, err = applyMove(document, op.From, op.Path)
		case Copy:
			document, err = applyCopy(document, op.From, op.Path)
		case Test:
			err = applyTest(document, op.Path, op.Value)
		default:
			err = fmt.Errorf("%w: unsupported operation %q", ErrInvalidPatch, op.Op)
		}

		if err != nil {
			return nil, &OpError{Index: i, Op: op.Op, Path: op.Path, Err: classifyApplyErr(err)}
		}
	}

	return document, nil
}

// classifyApplyErr maps an error from the jsonpointer collaborator or an
// applyXxx helper onto the package's error taxonomy, so callers can branch
// on errors.Is(err, ErrConflict) etc. rather than parsing messages.
func classifyApplyErr(err error) error {
	switch {
	case isAlreadyTaxonomy(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
}

func isAlreadyTaxonomy(err error) bool {
	for _, sentinel := range []error{ErrInvalidPatch, ErrConflict, ErrTestFailed, ErrPointerError} {
		if isErr(err, sentinel) {
			return true
		}
	}
	return false
}

func isErr(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ApplyStream applies patch to the document decoded from reader, writing the
// resulting document to writer as JSON. The decoded document is copied by
// Apply before the patch is applied.
func ApplyStream(reader io.Reader, writer io.Writer, patch Patch) error {
	var doc any
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("%w: failed to decode document: %v", ErrInvalidPatch, err)
	}

	modified, err := Apply(doc, patch)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(writer)
	return encoder.Encode(modified)
}

func applyAdd(document any, path string, value any) (any, error) {
	p, err := jsonpointer.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPointerError, err)
	}

	if len(p) == 0 {
		return value, nil
	}

	parentPath := jsonpointer.Pointer(p[0 : len(p)-1]).String()
	token := p[len(p)-1]

	parent, err := jsonpointer.Get(document, parentPath)
	if err != nil {
		return nil, fmt.Errorf("parent %q not found for add: %v", parentPath, err)
	}

	if arr, ok := parent.([]any); ok {
		if token == "-" {
			newArr := append(arr, value)
			return jsonpointer.Set(document, parentPath, newArr)
		}

		idx, err := jsonpointer.ParseArrayIndex(token)
		if err == nil {
			if idx > uint64(len(arr)) {
				return nil, fmt.Errorf("add index %d out of bounds for array of length %d", idx, len(arr))
			}
			newArr := make([]any, 0, len(arr)+1)
			newArr = append(newArr, arr[:idx]...)
			newArr = append(newArr, value)
			newArr = append(newArr, arr[idx:]...)
			return jsonpointer.Set(document, parentPath, newArr)
		}
	}

	return jsonpointer.Set(document, path, value)
}

func applyRemove(document any, path string) (any, error) {
	out, err := jsonpointer.Remove(document, path)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyReplace(document any, path string, value any) (any, error) {
	// RFC 6902 requires replace's target to already exist; attempting the
	// Get first surfaces that as a conflict before any mutation happens.
	if _, err := jsonpointer.Get(document, path); err != nil {
		return nil, err
	}
	return jsonpointer.Set(document, path, value)
}

func applyMove(document any, from, to string) (any, error) {
	if from == to {
		return document, nil
	}
	if pointerContains(from, to) {
		return nil, fmt.Errorf("%w: cannot move %q into its own descendant %q", ErrConflict, from, to)
	}

	val, err := jsonpointer.Get(document, from)
	if err != nil {
		return nil, err
	}

	doc, err := jsonpointer.Remove(document, from)
	if err != nil {
		return nil, err
	}

	return applyAdd(doc, to, val)
}

// pointerContains reports whether ancestor is a strict ancestor of descendant,
// token by token. It is the local stand-in for the jsonpointer collaborator's
// documented contains(a, b) operation (spec §6), used to reject a move whose
// destination lies within the value being moved (spec boundary B7) before any
// mutation is attempted.
func pointerContains(ancestor, descendant string) bool {
	ap, err := jsonpointer.New(ancestor)
	if err != nil {
		return false
	}
	dp, err := jsonpointer.New(descendant)
	if err != nil {
		return false
	}
	if len(dp) <= len(ap) {
		return false
	}
	for i := range ap {
		if ap[i] != dp[i] {
			return false
		}
	}
	return true
}

func applyCopy(document any, from, to string) (any, error) {
	val, err := jsonpointer.Get(document, from)
	if err != nil {
		return nil, err
	}
	valCopy, err := deepCopyAny(val)
	if err != nil {
		return nil, err
	}
	return applyAdd(document, to, valCopy)
}

func applyTest(document any, path string, expected any) error {
	actual, err := jsonpointer.Get(document, path)
	if err != nil {
		// Spec §4.1/§7: a test whose pointer fails to resolve is TEST_FAILED,
		// not CONFLICT — wrap it here so classifyApplyErr sees an
		// already-taxonomied error and leaves it alone.
		return fmt.Errorf("%w: at %s: %v", ErrTestFailed, path, err)
	}

	if !jsonEqual(actual, expected) {
		return fmt.Errorf("%w: at %s expected %v, got %v", ErrTestFailed, path, expected, actual)
	}
	return nil
}

// deepCopyAny performs a JSON round-trip to safely copy arbitrary JSON-like
// values, grounded on the teacher's identically named helper.
func deepCopyAny(value any) (any, error) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(bytes, &out); err != nil {
		return nil, err
	}
	return out, nil
}
