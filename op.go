package jsonpatch

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
)

// Op represents a JSON Patch operation name (RFC 6902 §4).
type Op string

const (
	Add     Op = "add"
	Remove  Op = "remove"
	Replace Op = "replace"
	Move    Op = "move"
	Copy    Op = "copy"
	Test    Op = "test"
)

func (o Op) valid() bool {
	switch o {
	case Add, Remove, Replace, Move, Copy, Test:
		return true
	}
	return false
}

// Operation represents a single JSON Patch operation.
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// UnmarshalJSON validates the operation strictly per RFC 6902: "op" must be
// one of the six known names, "path" is always required, "from" is required
// for move/copy, and "value" is required for add/replace/test (including
// test, per the stricter modern reading that a value-less test is malformed
// rather than vacuously true). Unknown extra fields are tolerated.
func (o *Operation) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: operation is not a JSON object: %v", ErrInvalidPatch, err)
	}

	opRaw, ok := raw["op"]
	if !ok {
		return fmt.Errorf("%w: operation missing \"op\" field", ErrInvalidPatch)
	}
	var opName string
	if err := json.Unmarshal(opRaw, &opName); err != nil {
		return fmt.Errorf("%w: \"op\" field must be a string", ErrInvalidPatch)
	}
	op := Op(opName)
	if !op.valid() {
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidPatch, opName)
	}

	pathRaw, ok := raw["path"]
	if !ok {
		return fmt.Errorf("%w: operation %q missing \"path\" field", ErrInvalidPatch, opName)
	}
	var path string
	if err := json.Unmarshal(pathRaw, &path); err != nil {
		return fmt.Errorf("%w: \"path\" field must be a string", ErrInvalidPatch)
	}

	out := Operation{Op: op, Path: path}

	switch op {
	case Move, Copy:
		fromRaw, ok := raw["from"]
		if !ok {
			return fmt.Errorf("%w: operation %q missing \"from\" field", ErrInvalidPatch, opName)
		}
		var from string
		if err := json.Unmarshal(fromRaw, &from); err != nil {
			return fmt.Errorf("%w: \"from\" field must be a string", ErrInvalidPatch)
		}
		out.From = from
	}

	switch op {
	case Add, Replace, Test:
		valRaw, ok := raw["value"]
		if !ok {
			return fmt.Errorf("%w: operation %q missing \"value\" field", ErrInvalidPatch, opName)
		}
		var val any
		if err := json.Unmarshal(valRaw, &val); err != nil {
			return fmt.Errorf("%w: \"value\" field is not valid JSON: %v", ErrInvalidPatch, err)
		}
		out.Value = val
	}

	*o = out
	return nil
}

// Patch is an ordered sequence of JSON Patch operations. Operation order is
// significant; field order within a single operation is not.
type Patch []Operation

// IsEmpty reports whether the patch contains no operations. Patch has no
// native Go boolean conversion, so callers test truthiness via IsEmpty
// rather than len(p) directly, matching the façade's documented semantics.
func (p Patch) IsEmpty() bool { return len(p) == 0 }

// Apply is a convenience method equivalent to the package-level Apply.
func (p Patch) Apply(document any) (any, error) {
	return Apply(document, p)
}

// Equal reports whether two patches describe the same ordered sequence of
// operations. Operation order is significant; fields within an operation
// are compared by value regardless of how they were originally encoded.
func (p Patch) Equal(other Patch) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		a, b := p[i], other[i]
		if a.Op != b.Op || a.Path != b.Path || a.From != b.From {
			return false
		}
		if !jsonEqual(a.Value, b.Value) {
			return false
		}
	}
	return true
}

// Hash derives a digest over the patch consistent with Equal: two patches
// that compare Equal always hash identically. Each value is normalized
// through an encoding/json round trip first, the same representation
// Equal compares.
func (p Patch) Hash() (uint64, error) {
	norm := make(Patch, len(p))
	for i, op := range p {
		v, err := deepCopyAny(op.Value)
		if err != nil {
			return 0, err
		}
		op.Value = v
		norm[i] = op
	}
	return hashstructure.Hash(norm, hashstructure.FormatV2, nil)
}

func jsonEqual(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}
