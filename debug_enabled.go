//go:build dfedebug

package dfe

// debugAssertions makes protocol violations panic.
const debugAssertions = true
