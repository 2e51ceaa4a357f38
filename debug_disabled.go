//go:build !dfedebug

package dfe

// Release builds report protocol violations as errors.
const debugAssertions = false
