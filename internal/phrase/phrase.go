// Package phrase implements the pure sample/bar/phrase arithmetic that every
// downstream stage of the mix pipeline shares: a bar is 4 beats, a phrase is
// 8 bars (32 beats), and every transition anchor is expressed as a multiple
// of one or the other on the unified sample grid (spec §3 invariants, §4.2).
package phrase

import "math"

// Geometry holds the derived timing constants for a mix at a single target
// BPM/sample-rate pair (spec §3 "Mix configuration").
type Geometry struct {
	TargetBPM    float64
	TargetSR     int
	BarDur       float64 // seconds
	PhraseDur    float64 // seconds (8 bars == 32 beats)
	BarSamples   int
	PhraseSamples int
}

// NewGeometry derives bar/phrase duration and sample counts for targetBPM
// and targetSR, per spec §3.
func NewGeometry(targetBPM float64, targetSR int) Geometry {
	barDur := 4 * 60 / targetBPM
	phraseDur := 8 * barDur
	return Geometry{
		TargetBPM:     targetBPM,
		TargetSR:      targetSR,
		BarDur:        barDur,
		PhraseDur:     phraseDur,
		BarSamples:    SecToSamp(barDur, targetSR),
		PhraseSamples: SecToSamp(phraseDur, targetSR),
	}
}

// SecToSamp converts a time in seconds to the nearest sample index at sr,
// per spec §4.2: sec_to_samp(t) = round(t * sr).
func SecToSamp(sec float64, sr int) int {
	return int(math.Round(sec * float64(sr)))
}

// SnapToPhrase rounds t up to the next phrase boundary (or t itself if it is
// already one), per spec §4.2: snap_to_phrase(t) = ceil(t/phrase_dur)*phrase_dur.
func SnapToPhrase(t, phraseDur float64) float64 {
	return math.Ceil(t/phraseDur) * phraseDur
}

// FromStretchedDomain converts a timestamp measured on the slower (stretched)
// track's original clock into the unified grid, per spec §3 invariant 2 and
// §4.2: t_out = t_in / stretch_rate.
func FromStretchedDomain(t, stretchRate float64) float64 {
	return t / stretchRate
}

// StretchRate computes the time-stretch ratio applied to the slower track,
// per spec §3: stretch_rate = target_bpm / min(bpm_a, bpm_b), always >= 1.0
// (the faster track is never slowed down).
func StretchRate(targetBPM, slowerBPM float64) float64 {
	return targetBPM / slowerBPM
}

// NChorusPhrases returns how many whole phrases fit within a chorus of the
// given duration, per spec §4.4(a): n_chorus_phrases = floor(chorus_dur / phrase_dur).
func NChorusPhrases(chorusDurSamples, phraseSamples int) int {
	if phraseSamples == 0 {
		return 0
	}
	return chorusDurSamples / phraseSamples
}
