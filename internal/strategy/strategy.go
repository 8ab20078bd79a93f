// Package strategy selects which of the three mix strategies — loop,
// tight or loose — applies to a pair of tracks, from their BPM and Camelot
// key alone (spec §4.4, "Strategy selection"). The choice is a pure,
// total function: every (bpm_diff, key_ok) pair maps to exactly one mode.
package strategy

import "github.com/cartomix/mixcore/internal/camelot"

// Mode is one of the three mix strategies, matching the output filename's
// mode token (spec §6 "Output naming").
type Mode int

const (
	Loop Mode = iota
	Tight
	Loose
)

func (m Mode) String() string {
	switch m {
	case Loop:
		return "loop"
	case Tight:
		return "tight"
	case Loose:
		return "loose"
	default:
		return "unknown"
	}
}

// Thresholds on |bpm_a - bpm_b|, per spec §4.4.
const (
	BpmLoopThreshold  = 10.0
	BpmTightThreshold = 5.0
	BpmLooseThreshold = 15.0
)

// Select decides the mix strategy for a pair of tracks, per spec §4.4:
//  1. Loop    if bpm_loop  ∧ key_ok
//  2. Tight   if bpm_tight ∨ (key_ok ∧ bpm_loose)
//  3. Loose   otherwise
func Select(bpmA, bpmB float64, keyA, keyB camelot.Key) Mode {
	diff := bpmA - bpmB
	if diff < 0 {
		diff = -diff
	}
	keyOK := camelot.Compatible(keyA, keyB)

	bpmLoop := diff <= BpmLoopThreshold
	bpmTight := diff <= BpmTightThreshold
	bpmLoose := diff <= BpmLooseThreshold

	if bpmLoop && keyOK {
		return Loop
	}
	if bpmTight || (keyOK && bpmLoose) {
		return Tight
	}
	return Loose
}
