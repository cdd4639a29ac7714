package transition

// InstantTransition applies the full difference in a single step.
type InstantTransition struct{}

func NewInstantTransition() InstantTransition {
	return InstantTransition{}
}

func (t InstantTransition) Step(target float64, measured float64) float64 {
	return target - measured
}
