package jsonpatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// LoadMultidict parses JSON text using token-level decoding so that
// duplicate keys within a single object are preserved rather than silently
// overwritten by encoding/json's default last-write-wins Unmarshal
// behavior: a key seen once keeps its scalar value, a key seen more than
// once aggregates every occurrence into a []any in encounter order (a
// "multidict" merge). This is the loader collaborator referenced by the
// patch format's duplicate-key handling; it is not used by Apply or New,
// which accept already-decoded Go values or single-valued JSON.
func LoadMultidict(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeMultidictValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return v, nil
}

// ParseMultidict is a convenience wrapper over LoadMultidict for in-memory
// JSON text.
func ParseMultidict(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeMultidictValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return v, nil
}

func decodeMultidictValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeMultidictFromToken(dec, tok)
}

func decodeMultidictFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeMultidictObject(dec)
		case '[':
			return decodeMultidictArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeMultidictObject(dec *json.Decoder) (any, error) {
	result := make(map[string]any)
	order := make(map[string]bool)
	aggregated := make(map[string]bool)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		val, err := decodeMultidictFromToken(dec, valTok)
		if err != nil {
			return nil, err
		}

		if !order[key] {
			result[key] = val
			order[key] = true
			continue
		}

		// Second or later occurrence: aggregate into a list.
		if aggregated[key] {
			result[key] = append(result[key].([]any), val)
		} else {
			result[key] = []any{result[key], val}
			aggregated[key] = true
		}
	}

	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeMultidictArray(dec *json.Decoder) (any, error) {
	var out []any
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := decodeMultidictFromToken(dec, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	// Consume the closing ']'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// validateOperationAggregation rejects a decoded multidict operation object
// whose "op", "path", or "from" field aggregated into a list from duplicate
// keys where a scalar is required. Per the patch format's duplicate-key
// policy, such aggregations are structurally invalid rather than silently
// flattened. The "value" field is not checked.
func validateOperationAggregation(raw map[string]any) error {
	for _, field := range []string{"op", "path", "from"} {
		if v, ok := raw[field]; ok {
			if _, isList := v.([]any); isList {
				return fmt.Errorf("%w: duplicate %q key aggregated into a list, scalar required", ErrInvalidPatch, field)
			}
		}
	}
	return nil
}

// ParsePatch decodes patch JSON text into a Patch via the multidict loader,
// so a duplicate-keyed operation object is rejected (per spec §9) instead of
// silently resolved last-write-wins the way encoding/json's Unmarshal would
// resolve it directly against Operation. Each decoded operation object is
// checked with validateOperationAggregation, then re-encoded and run through
// Operation.UnmarshalJSON so the usual per-variant field validation still
// applies.
func ParsePatch(data []byte) (Patch, error) {
	decoded, err := ParseMultidict(data)
	if err != nil {
		return nil, err
	}

	items, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: patch document must be a JSON array", ErrInvalidPatch)
	}

	patch := make(Patch, 0, len(items))
	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: operation %d is not a JSON object", ErrInvalidPatch, i)
		}
		if err := validateOperationAggregation(raw); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}

		opBytes, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: operation %d could not be re-encoded: %v", ErrInvalidPatch, i, err)
		}
		var op Operation
		if err := json.Unmarshal(opBytes, &op); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		patch = append(patch, op)
	}
	return patch, nil
}
