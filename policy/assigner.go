package policy

// Assigner implements §4.2: per function, two counters start at zero and
// advance once per call site encountered in program order.
type Assigner struct {
	modulus       int
	uniqueCounter int
	dummyCounter  int
}

// NewAssigner creates an Assigner for one function. modulus must be > 0.
func NewAssigner(modulus int) *Assigner {
	if modulus <= 0 {
		modulus = 1
	}
	return &Assigner{modulus: modulus}
}

// NextUnique returns the next strictly-positive unique id.
func (a *Assigner) NextUnique() int {
	a.uniqueCounter++
	return a.uniqueCounter
}

// NextDummy returns (dummyID, resetCount) for the next call site and
// advances the dummy counter, per §4.2: dummyID = counter mod M,
// resetCount = counter div M.
func (a *Assigner) NextDummy() (dummyID, resetCount int) {
	dummyID = a.dummyCounter % a.modulus
	resetCount = a.dummyCounter / a.modulus
	a.dummyCounter++
	return dummyID, resetCount
}
