package pipeline

// Buffer constants.
const (
	// bufferGrowthFactor is the capacity multiplier when a RingBuffer grows.
	bufferGrowthFactor = 2
)
