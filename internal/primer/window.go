package primer

// Window picks the levels an Apply around selected touches: numLevels levels
// roughly centered on selected, clamped to lo..hi. The returned step is
// spacing, raised to 1 when not positive.
func Window(selected, numLevels, spacing, lo, hi int) (from, to, step int) {
	if numLevels < 1 {
		numLevels = 1
	}
	from = max(lo, selected-numLevels/2)
	to = min(hi, from+numLevels-1)
	return from, to, max(spacing, 1)
}
