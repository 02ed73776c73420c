// Package version contains information on the current version of voxgraph.
// It is split from the main program so both cmd/voxc and server/ can report
// the same value without importing each other.
package version

// Current is the string representing the current version of voxgraph.
const Current = "0.1.0"
