package jsonpatch

import "testing"

func TestCoalesce_RemoveAddSamePathBecomesReplace(t *testing.T) {
	raw := []rawOp{
		{Op: Remove, Path: "/a", Before: "old"},
		{Op: Add, Path: "/a", Value: "new"},
	}
	p := coalesce(raw)
	if len(p) != 1 || p[0].Op != Replace || p[0].Path != "/a" || p[0].Value != "new" {
		t.Fatalf("expected a single replace at /a, got %+v", p)
	}
}

func TestCoalesce_RemoveAddSamePathSameValueElides(t *testing.T) {
	raw := []rawOp{
		{Op: Remove, Path: "/a", Before: "same"},
		{Op: Add, Path: "/a", Value: "same"},
	}
	p := coalesce(raw)
	if len(p) != 0 {
		t.Fatalf("expected coalescing to elide a no-op replace, got %+v", p)
	}
}

func TestCoalesce_RemoveThenAddDifferentPathSameValueBecomesMove(t *testing.T) {
	raw := []rawOp{
		{Op: Remove, Path: "/foo/0", Before: "x"},
		{Op: Add, Path: "/foo/1", Value: "x"},
	}
	p := coalesce(raw)
	if len(p) != 1 || p[0].Op != Move || p[0].From != "/foo/0" || p[0].Path != "/foo/1" {
		t.Fatalf("expected a single move from /foo/0 to /foo/1, got %+v", p)
	}
}

func TestCoalesce_UnrelatedOpsPassThroughUnchanged(t *testing.T) {
	raw := []rawOp{
		{Op: Add, Path: "/a", Value: 1},
		{Op: Remove, Path: "/b", Before: 2},
	}
	p := coalesce(raw)
	if len(p) != 2 {
		t.Fatalf("expected both operations to pass through, got %+v", p)
	}
}

func TestCoalesce_ContainerValuesNeverMoveMatched(t *testing.T) {
	raw := []rawOp{
		{Op: Remove, Path: "/a", Before: map[string]any{"x": 1.0}},
		{Op: Add, Path: "/b", Value: map[string]any{"x": 1.0}},
	}
	p := coalesce(raw)
	if len(p) != 2 {
		t.Fatalf("expected container remove/add at different paths to stay uncoalesced, got %+v", p)
	}
	for _, op := range p {
		if op.Op == Move {
			t.Fatalf("containers must never be coalesced into a move: %+v", p)
		}
	}
}
