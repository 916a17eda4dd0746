package jsonpatch

import "testing"

func TestShiftLedger_TracksIndependentPaths(t *testing.T) {
	l := newShiftLedger()
	if got := l.effectiveIndex("/a", 2); got != 2 {
		t.Errorf("expected unshifted index 2, got %d", got)
	}

	l.recordRemove("/a")
	if got := l.effectiveIndex("/a", 2); got != 1 {
		t.Errorf("expected one remove to shift index 2 down to 1, got %d", got)
	}
	if got := l.effectiveIndex("/b", 2); got != 2 {
		t.Errorf("expected path /b to be unaffected by shifts on /a, got %d", got)
	}

	l.recordAdd("/a")
	l.recordAdd("/a")
	if got := l.effectiveIndex("/a", 2); got != 3 {
		t.Errorf("expected net +1 delta (two adds, one remove) to give 3, got %d", got)
	}
}
