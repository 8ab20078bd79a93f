// Package loopbuilder implements the loop strategy (spec §4.5): track A's
// chorus instrumental is bar-snapped and tiled with anti-click crossfades,
// track B's stretched chorus vocals are overlaid, and the loop crossfades
// into track B's verse over a 5-second tail.
package loopbuilder

import (
	"fmt"
	"log/slog"

	"github.com/cartomix/mixcore/internal/anchor"
	"github.com/cartomix/mixcore/internal/audio"
	"github.com/cartomix/mixcore/internal/mixerr"
	"github.com/cartomix/mixcore/internal/phrase"
	"github.com/cartomix/mixcore/internal/stems"
)

// crossfadeSamples is the anti-click overlap at every internal tile
// boundary (spec §4.5 step 1, "X = 512").
const crossfadeSamples = 512

// Build assembles the loop strategy's output: track A raw prefix, the
// looped chorus-instrumental composite with track B's vocals overlaid, the
// 5-second crossfade into track B's verse, and track B's tail. logger may be
// nil, in which case slog.Default() is used.
func Build(geo phrase.Geometry, rawA audio.Buffer, a, b stems.Set, pts anchor.Points, logger *slog.Logger) (audio.Buffer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := checkBounds(rawA.Len(), pts.V1Start, pts.C1End); err != nil {
		return audio.Buffer{}, fmt.Errorf("loop: track A prefix: %w", err)
	}
	prefix := rawA.Slice(pts.V1Start, pts.C1End)

	d2Chorus := pts.S2C1End - pts.S2C1Start
	if d2Chorus <= 0 {
		return audio.Buffer{}, mixerr.New(mixerr.PrerequisiteError, "loop: track B chorus 1 has non-positive length")
	}
	transFade := 5 * geo.TargetSR
	totalLoop := d2Chorus + transFade

	chorusLen := pts.C1End - pts.C1Start
	if geo.BarSamples <= 0 {
		return audio.Buffer{}, mixerr.New(mixerr.PrerequisiteError, "loop: bar_samp must be positive")
	}
	snappedLen := (chorusLen / geo.BarSamples) * geo.BarSamples
	if snappedLen <= crossfadeSamples {
		return audio.Buffer{}, mixerr.New(mixerr.PrerequisiteError, "loop: track A chorus too short to tile cleanly")
	}
	segEnd := pts.C1Start + snappedLen
	if err := checkBounds(a.Low().Len(), pts.C1Start, segEnd); err != nil {
		return audio.Buffer{}, fmt.Errorf("loop: track A chorus segment: %w", err)
	}

	lowSeg := a.Low().Slice(pts.C1Start, segEnd)
	highSeg := a.High().Slice(pts.C1Start, segEnd)
	otherSeg := a.Other.Slice(pts.C1Start, segEnd)
	instrumentalSeg := audio.Add(lowSeg, highSeg, otherSeg)

	loopInstrumental := tileWithCrossfade(instrumentalSeg, totalLoop, crossfadeSamples)
	loopLow := tileWithCrossfade(lowSeg, totalLoop, crossfadeSamples)
	loopHigh := tileWithCrossfade(highSeg, totalLoop, crossfadeSamples)
	loopMid := tileWithCrossfade(otherSeg, totalLoop, crossfadeSamples)

	if err := checkBounds(b.Vocals.Len(), pts.S2C1Start, pts.S2C1End); err != nil {
		return audio.Buffer{}, fmt.Errorf("loop: track B chorus vocals: %w", err)
	}
	vocalOverlay := audio.Zeros(totalLoop, geo.TargetSR)
	vocalChorus := b.Vocals.Slice(pts.S2C1Start, pts.S2C1End)
	overlayLen := vocalChorus.Len()
	if overlayLen > totalLoop-transFade {
		overlayLen = totalLoop - transFade
	}
	copy(vocalOverlay.Channels[0][:overlayLen], vocalChorus.Channels[0][:overlayLen])
	copy(vocalOverlay.Channels[1][:overlayLen], vocalChorus.Channels[1][:overlayLen])

	composite := audio.Add(loopInstrumental, vocalOverlay)

	transition, err := buildTransition(geo, b, pts, loopLow, loopMid, loopHigh, d2Chorus, transFade, logger)
	if err != nil {
		return audio.Buffer{}, err
	}

	s2v := pts.S2VerseAfterChorusStart
	var tail audio.Buffer
	tailStart := s2v + transFade
	if tailStart < pts.S2V2End {
		if err := checkBounds(b.Low().Len(), tailStart, pts.S2V2End); err != nil {
			return audio.Buffer{}, fmt.Errorf("loop: track B tail: %w", err)
		}
		tail = audio.Add(
			b.Bass.Slice(tailStart, pts.S2V2End),
			b.Drums.Slice(tailStart, pts.S2V2End),
			b.Vocals.Slice(tailStart, pts.S2V2End),
			b.Other.Slice(tailStart, pts.S2V2End),
		)
	} else {
		tail = audio.Zeros(0, geo.TargetSR)
	}

	return audio.Concat(prefix, composite.Slice(0, d2Chorus), transition, tail), nil
}

// buildTransition implements spec §4.5 step 4: over trans_fade samples
// starting at offset d2Chorus in the looped buffers, track A's loop fades
// to silence while track B enters at full unity from its post-chorus
// verse. Track B's verse is zero-padded if shorter than trans_fade.
func buildTransition(geo phrase.Geometry, b stems.Set, pts anchor.Points, loopLow, loopMid, loopHigh audio.Buffer, d2Chorus, transFade int, logger *slog.Logger) (audio.Buffer, error) {
	fadeOut := audio.LinearFadeOut(transFade)

	loopTail := audio.Add(
		audio.Scale(loopLow.Slice(d2Chorus, d2Chorus+transFade), fadeOut),
		audio.Scale(loopMid.Slice(d2Chorus, d2Chorus+transFade), fadeOut),
		audio.Scale(loopHigh.Slice(d2Chorus, d2Chorus+transFade), fadeOut),
	)

	s2v := pts.S2VerseAfterChorusStart
	verseB := audio.Zeros(transFade, geo.TargetSR)
	available := b.Bass.Len() - s2v
	if available < 0 {
		available = 0
	}
	n := transFade
	if available < n {
		n = available
	}
	if n > 0 {
		verseB = audio.Add(
			b.Bass.Slice(s2v, s2v+n),
			b.Drums.Slice(s2v, s2v+n),
			b.Vocals.Slice(s2v, s2v+n),
			b.Other.Slice(s2v, s2v+n),
		)
		if n < transFade {
			logger.Warn("track B's post-loop verse is shorter than the transition fade, zero-padding the tail",
				"have_samples", n, "want_samples", transFade)
			verseB = audio.Concat(verseB, audio.Zeros(transFade-n, geo.TargetSR))
		}
	} else {
		logger.Warn("track B's post-loop verse is shorter than the transition fade, zero-padding the tail",
			"have_samples", n, "want_samples", transFade)
	}

	return audio.Add(loopTail, verseB), nil
}

// tileWithCrossfade repeats seg until it reaches totalLen, overlapping
// consecutive repetitions by overlap samples with a linear fade-out/fade-in
// ramp pair that always sums to 1 (spec §4.5 step 1).
func tileWithCrossfade(seg audio.Buffer, totalLen, overlap int) audio.Buffer {
	out := audio.NewBuffer(totalLen, seg.SampleRate)
	segLen := seg.Len()
	if segLen == 0 {
		return out
	}
	hop := segLen - overlap
	if hop <= 0 {
		hop = segLen
	}

	fadeOut := audio.LinearFadeOut(overlap)
	fadeIn := audio.LinearFadeIn(overlap)

	for start, rep := 0, 0; start < totalLen; start, rep = start+hop, rep+1 {
		end := start + segLen
		hasNext := start+hop < totalLen
		if end > totalLen {
			end = totalLen
		}
		for ch := 0; ch < 2; ch++ {
			for i := 0; start+i < end; i++ {
				gain := float32(1.0)
				if rep > 0 && i < overlap {
					gain = fadeIn[i]
				}
				if hasNext && i >= segLen-overlap {
					gain = fadeOut[i-(segLen-overlap)]
				}
				out.Channels[ch][start+i] += seg.Channels[ch][i] * gain
			}
		}
	}
	return out
}

func checkBounds(length, start, end int) error {
	if start < 0 || end > length || start > end {
		return mixerr.New(mixerr.PrerequisiteError,
			fmt.Sprintf("stems too short for loop window [%d:%d) against length %d", start, end, length))
	}
	return nil
}
