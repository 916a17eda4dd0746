// Package jsonpatch implements RFC 6902 JSON Patch: applying a sequence of
// add/remove/replace/move/copy/test operations to a JSON-like document, and
// synthesizing a minimal patch between two documents.
//
// Document values are encoding/json's standard decoded representation:
// map[string]any, []any, float64, string, bool, and nil. Path resolution is
// delegated to github.com/agentflare-ai/go-jsonpointer; this package owns
// only patch semantics, diff synthesis, and the structured error taxonomy
// (ErrInvalidPatch, ErrConflict, ErrTestFailed, ErrPointerError).
package jsonpatch
