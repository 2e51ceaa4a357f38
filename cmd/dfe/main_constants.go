package main

// Default command-line flag values
const (
	defaultInterpolation = 2
	defaultDecimation    = 3
	defaultTaps          = 16
	defaultNotchFreq     = 0.05 // cycles per resampler output sample
	defaultSamples       = 4096
)

// Test signal parameters
const (
	toneAmplitude  = 0.5  // fraction of full scale
	passbandTone   = 0.01 // cycles per input sample
	impulsePreview = 16   // impulse response samples printed
)
