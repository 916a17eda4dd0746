package jsonpatch

// shiftLedger tracks, for a single array path, how many positions earlier
// emitted operations have shifted the pointer index that a not-yet-emitted
// original index must use. This is the Index-Shift Ledger from the diff
// synthesizer design: effective(i) = i + delta, where delta accumulates +1
// per add and -1 per remove already recorded for this path.
//
// The diff synthesizer only ever walks a given array's original indices in
// ascending order and only records shifts for indices not yet visited, so a
// single running integer per path is sufficient — no index-keyed map is
// needed despite the concept being "per original index" in the general
// case.
type shiftLedger struct {
	delta map[string]int
}

func newShiftLedger() *shiftLedger {
	return &shiftLedger{delta: make(map[string]int)}
}

// effectiveIndex returns the current pointer index that original index i
// within path maps to, given every shift recorded so far.
func (l *shiftLedger) effectiveIndex(path string, i int) int {
	return i + l.delta[path]
}

// recordAdd registers that an add was just emitted for this path, shifting
// every not-yet-visited original index at this path by +1.
func (l *shiftLedger) recordAdd(path string) {
	l.delta[path]++
}

// recordRemove registers that a remove was just emitted for this path,
// shifting every not-yet-visited original index at this path by -1.
func (l *shiftLedger) recordRemove(path string) {
	l.delta[path]--
}
