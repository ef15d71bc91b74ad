// Package cli implements the command-line interface for gigs.
//
// The cli package provides the Cobra-based CLI that loads the YAML run
// configuration, wires the sources, venue resolver, and output sink
// together, runs the pipeline once, and reports the run summary as
// text or JSON.
package cli
