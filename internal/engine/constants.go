package engine

// Stage names reported through pipeline.Stage.Name.
const (
	NameResampler   = "resampler"
	NameNotch       = "notch"
	NameCIC         = "cic"
	NameCompensator = "compensator"
)

// loadTicks is the Idle tick that loads the phase branches.
const loadTicks = 1
