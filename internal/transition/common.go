package transition

// Transition advances a value toward a target.
type Transition interface {
	// Step returns the change to apply this cycle, given the target and
	// the currently measured value.
	Step(target float64, measured float64) float64
}
