package jsonpatch

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// coalesce walks the synthesizer's raw operations in order and merges
// adjacent remove/add pairs into a single replace (same path) or move (same
// value, different path), per spec §4.2.3. It mirrors
// meekmichael-jsondiff's findRemoved/add pattern, restructured into a
// single post-generation pass over a fixed operation list rather than
// meekmichael's interleaved emission.
func coalesce(raw []rawOp) Patch {
	out := make([]*rawOp, 0, len(raw))

	byPath := make(map[string][]int)   // path -> stack of indices into out, most recent last
	byValue := make(map[uint64][]int)  // value digest -> stack of indices into out

	pushPath := func(path string, idx int) { byPath[path] = append(byPath[path], idx) }
	popPath := func(path string) {
		s := byPath[path]
		if len(s) == 0 {
			return
		}
		byPath[path] = s[:len(s)-1]
	}
	pushValue := func(v any, idx int) {
		d, ok := valueDigest(v)
		if !ok {
			return
		}
		byValue[d] = append(byValue[d], idx)
	}
	popValueAt := func(v any, idx int) {
		d, ok := valueDigest(v)
		if !ok {
			return
		}
		s := byValue[d]
		for i := len(s) - 1; i >= 0; i-- {
			if s[i] == idx {
				byValue[d] = append(s[:i], s[i+1:]...)
				return
			}
		}
	}

	for _, op := range raw {
		op := op
		pathStack := byPath[op.Path]
		if len(pathStack) > 0 {
			pendingIdx := pathStack[len(pathStack)-1]
			pending := out[pendingIdx]
			if isRemoveAddPair(*pending, op) {
				popPath(op.Path)
				removeOp, addOp := orderRemoveAdd(*pending, op)
				popValueAt(removeOp.Before, indexOf(out, pending))
				if jsonBytesEqual(removeOp.Before, addOp.Value) {
					out[pendingIdx] = nil
				} else {
					out[pendingIdx] = &rawOp{Op: Replace, Path: addOp.Path, Value: addOp.Value, Before: removeOp.Before}
				}
				continue
			}
		}

		valueForMatch, hasValue := coalesceValue(op)
		if hasValue {
			if d, ok := valueDigest(valueForMatch); ok {
				if stack := byValue[d]; len(stack) > 0 {
					pendingIdx := stack[len(stack)-1]
					pending := out[pendingIdx]
					if pending != nil && isRemoveAddPair(*pending, op) {
						byValue[d] = stack[:len(stack)-1]
						popPath(pending.Path)
						move := buildMove(*pending, op)
						out[pendingIdx] = &move
						continue
					}
				}
			}
		}

		idx := len(out)
		out = append(out, &op)
		pushPath(op.Path, idx)
		if op.Op == Remove {
			pushValue(op.Before, idx)
		} else if op.Op == Add {
			pushValue(op.Value, idx)
		}
	}

	patch := make(Patch, 0, len(out))
	for _, o := range out {
		if o == nil {
			continue
		}
		patch = append(patch, o.public())
	}
	return patch
}

func indexOf(out []*rawOp, target *rawOp) int {
	for i, o := range out {
		if o == target {
			return i
		}
	}
	return -1
}

func isRemoveAddPair(a, b rawOp) bool {
	return (a.Op == Remove && b.Op == Add) || (a.Op == Add && b.Op == Remove)
}

// orderRemoveAdd returns (remove, add) regardless of which argument holds
// which role.
func orderRemoveAdd(a, b rawOp) (remove, add rawOp) {
	if a.Op == Remove {
		return a, b
	}
	return b, a
}

// coalesceValue returns the value a raw op should be matched on for
// by-value coalescing: the removed value for a remove, the added value for
// an add. Containers are never matched by value.
func coalesceValue(op rawOp) (any, bool) {
	switch op.Op {
	case Remove:
		return op.Before, !isContainer(op.Before)
	case Add:
		return op.Value, !isContainer(op.Value)
	}
	return nil, false
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// buildMove assigns from/path per spec §4.2.3: when the earlier operation
// was a remove, from is its path and path is the later add's path
// unchanged. When the earlier operation was an add (the value appeared
// before it was removed from elsewhere), from is the later remove's path
// with its trailing numeric token decremented by one, since the earlier add
// has already shifted everything after it in that array by one position.
func buildMove(earlier, later rawOp) rawOp {
	if earlier.Op == Remove {
		return rawOp{Op: Move, From: earlier.Path, Path: later.Path}
	}
	// earlier.Op == Add, later.Op == Remove
	return rawOp{Op: Move, From: decrementTrailingToken(later.Path), Path: earlier.Path}
}

func decrementTrailingToken(path string) string {
	slash := strings.LastIndex(path, "/")
	if slash < 0 {
		return path
	}
	token := path[slash+1:]
	n, err := strconv.Atoi(token)
	if err != nil || n <= 0 {
		return path
	}
	return path[:slash+1] + strconv.Itoa(n-1)
}

func jsonBytesEqual(a, b any) bool {
	ab, aerr := json.Marshal(a)
	bb, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}

func valueDigest(v any) (uint64, bool) {
	if isContainer(v) {
		return 0, false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(b), true
}
