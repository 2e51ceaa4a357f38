package dfe

// Configuration defaults.
const (
	defaultDataWidth  = 16
	defaultCoeffWidth = 16
	defaultCICOrder   = 3
	defaultCICRate    = 4

	// notchHeadroomBits leaves room for |a1| < 2 in the notch table.
	notchHeadroomBits = 2
)

// Configuration limits.
const (
	minWidth    = 2
	minCICOrder = 1
	maxCICOrder = 8
	minCICRate  = 2
)

// Block driver constants.
const (
	// defaultBacklog is the initial capacity of the input hold buffer.
	defaultBacklog = 1024

	// drainTicksPerStage bounds the idle ticks Process spends draining per
	// stage and input interval.
	drainTicksPerStage = 4
)
