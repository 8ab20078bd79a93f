// Package analysis defines the plain data shapes the mix engine consumes
// from track analysis: tempo, harmonic key and section boundaries (spec
// §3, §6). It carries no analyzer logic of its own; internal/analyzer
// produces these values from audio files.
package analysis

import "github.com/cartomix/mixcore/internal/camelot"

// Section is a half-open [Start, End) time range in seconds.
type Section struct {
	Start float64
	End   float64
}

// Duration returns End - Start.
func (s Section) Duration() float64 {
	return s.End - s.Start
}

// Track holds everything the Orchestrator needs about one input file: its
// tempo, harmonic key and the chorus/verse boundaries the Transition and
// Loop builders anchor against.
type Track struct {
	BPM      float64
	Key      camelot.Key
	Choruses []Section
	Verses   []Section
}
