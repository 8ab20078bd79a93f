// Package transition implements the tight, tight-fallback and loose
// transition builders (spec §4.4): band-swap crossfades between track A's
// raw chorus and track B's stretched chorus stems, anchored to phrase
// boundaries.
package transition

import (
	"fmt"

	"github.com/cartomix/mixcore/internal/anchor"
	"github.com/cartomix/mixcore/internal/audio"
	"github.com/cartomix/mixcore/internal/mixerr"
	"github.com/cartomix/mixcore/internal/phrase"
	"github.com/cartomix/mixcore/internal/stems"
)

// Tight builds the chorus-to-chorus, one-phrase, low-swap transition (spec
// §4.4a). Falls back to the short-chorus variant (§4.4b) when track A's
// chorus 1 does not span at least two phrases.
func Tight(geo phrase.Geometry, rawA audio.Buffer, a, b stems.Set, pts anchor.Points) (audio.Buffer, error) {
	phraseSamp := geo.PhraseSamples
	chorusLen := pts.C1End - pts.C1Start
	nChorusPhrases := chorusLen / phraseSamp
	if nChorusPhrases < 2 {
		return tightFallback(geo, rawA, a, b, pts)
	}

	transStart := pts.C1Start + (nChorusPhrases-2)*phraseSamp
	if err := checkBounds(rawA.Len(), pts.V1Start, transStart); err != nil {
		return audio.Buffer{}, err
	}
	prefix := rawA.Slice(pts.V1Start, transStart)

	phaseA, err := swapLow(a, b, transStart, pts.S2C1Start, phraseSamp)
	if err != nil {
		return audio.Buffer{}, err
	}

	after, err := sumBands(b, pts.S2C1Start+phraseSamp, pts.S2V2End)
	if err != nil {
		return audio.Buffer{}, err
	}

	return audio.Concat(prefix, phaseA, after), nil
}

// tightFallback builds spec §4.4b, used when track A's chorus 1 is shorter
// than two phrases: the cut happens at chorus end, and track B's mid/high
// enter during Phase A instead of swapping only the low band.
func tightFallback(geo phrase.Geometry, rawA audio.Buffer, a, b stems.Set, pts anchor.Points) (audio.Buffer, error) {
	phraseSamp := geo.PhraseSamples
	transStart := pts.C1End

	if err := checkBounds(rawA.Len(), pts.V1Start, transStart); err != nil {
		return audio.Buffer{}, err
	}
	prefix := rawA.Slice(pts.V1Start, transStart)

	if err := checkBounds(a.Low().Len(), transStart, transStart+phraseSamp); err != nil {
		return audio.Buffer{}, fmt.Errorf("tight fallback: track A low band too short: %w", err)
	}
	if err := checkBounds(b.Mid().Len(), pts.S2C1Start, pts.S2C1Start+phraseSamp); err != nil {
		return audio.Buffer{}, fmt.Errorf("tight fallback: track B too short: %w", err)
	}

	fadeOut := audio.LinearFadeOut(phraseSamp)
	fadeIn := audio.LinearFadeIn(phraseSamp)

	low1 := a.Low().Slice(transStart, transStart+phraseSamp)
	mid2 := b.Mid().Slice(pts.S2C1Start, pts.S2C1Start+phraseSamp)
	high2 := b.High().Slice(pts.S2C1Start, pts.S2C1Start+phraseSamp)

	phaseA := audio.Add(
		audio.Scale(low1, fadeOut),
		audio.Scale(mid2, fadeIn),
		audio.Scale(high2, fadeIn),
	)

	after, err := sumBands(b, pts.S2C1Start+phraseSamp, pts.S2V2End)
	if err != nil {
		return audio.Buffer{}, err
	}

	return audio.Concat(prefix, phaseA, after), nil
}

// Loose builds the chorus-verse-chorus, two-phrase, full band-swap
// transition (spec §4.4c). pts.LooseTransStart must already be
// snap_to_phrase(verse_a[1].start) in samples.
func Loose(geo phrase.Geometry, rawA audio.Buffer, a, b stems.Set, pts anchor.Points) (audio.Buffer, error) {
	phraseSamp := geo.PhraseSamples
	transStart := pts.LooseTransStart

	if err := checkBounds(rawA.Len(), pts.V1Start, transStart); err != nil {
		return audio.Buffer{}, err
	}
	prefix := rawA.Slice(pts.V1Start, transStart)

	if err := checkBounds(a.Low().Len(), transStart, transStart+2*phraseSamp); err != nil {
		return audio.Buffer{}, fmt.Errorf("loose: track A too short: %w", err)
	}
	if err := checkBounds(b.Low().Len(), pts.S2C1Start, pts.S2C1Start+2*phraseSamp); err != nil {
		return audio.Buffer{}, fmt.Errorf("loose: track B too short: %w", err)
	}

	fadeOut := audio.LinearFadeOut(phraseSamp)
	fadeIn := audio.LinearFadeIn(phraseSamp)

	low1A := a.Low().Slice(transStart, transStart+phraseSamp)
	mid1A := a.Mid().Slice(transStart, transStart+phraseSamp)
	high1A := a.High().Slice(transStart, transStart+phraseSamp)
	low2B := b.Low().Slice(pts.S2C1Start, pts.S2C1Start+phraseSamp)

	phaseA := audio.Add(
		audio.Scale(low1A, fadeOut),
		mid1A,
		high1A,
		audio.Scale(low2B, fadeIn),
	)

	mid1B := a.Mid().Slice(transStart+phraseSamp, transStart+2*phraseSamp)
	high1B := a.High().Slice(transStart+phraseSamp, transStart+2*phraseSamp)
	low2B2 := b.Low().Slice(pts.S2C1Start+phraseSamp, pts.S2C1Start+2*phraseSamp)
	mid2B := b.Mid().Slice(pts.S2C1Start+phraseSamp, pts.S2C1Start+2*phraseSamp)
	high2B := b.High().Slice(pts.S2C1Start+phraseSamp, pts.S2C1Start+2*phraseSamp)

	phaseB := audio.Add(
		audio.Scale(mid1B, fadeOut),
		audio.Scale(high1B, fadeOut),
		low2B2,
		audio.Scale(mid2B, fadeIn),
		audio.Scale(high2B, fadeIn),
	)

	tail, err := sumBands(b, pts.S2C1Start+2*phraseSamp, pts.S2V2End)
	if err != nil {
		return audio.Buffer{}, err
	}

	return audio.Concat(prefix, phaseA, phaseB, tail), nil
}

// swapLow builds spec §4.4a's Phase A: only the low band crosses over
// between tracks; mid and high are held at unity on track A.
func swapLow(a, b stems.Set, startA, startB, n int) (audio.Buffer, error) {
	if err := checkBounds(a.Low().Len(), startA, startA+n); err != nil {
		return audio.Buffer{}, fmt.Errorf("tight: track A too short: %w", err)
	}
	if err := checkBounds(b.Low().Len(), startB, startB+n); err != nil {
		return audio.Buffer{}, fmt.Errorf("tight: track B too short: %w", err)
	}
	fadeOut := audio.LinearFadeOut(n)
	fadeIn := audio.LinearFadeIn(n)

	low1 := a.Low().Slice(startA, startA+n)
	low2 := b.Low().Slice(startB, startB+n)
	mid1 := a.Mid().Slice(startA, startA+n)
	high1 := a.High().Slice(startA, startA+n)

	return audio.Add(
		audio.Scale(low1, fadeOut),
		audio.Scale(low2, fadeIn),
		mid1,
		high1,
	), nil
}

// sumBands returns low+mid+high of b over [start, end), the "track B at
// full unity" tail shared by every builder after its swap phase.
func sumBands(b stems.Set, start, end int) (audio.Buffer, error) {
	if err := checkBounds(b.Low().Len(), start, end); err != nil {
		return audio.Buffer{}, fmt.Errorf("track B tail too short: %w", err)
	}
	return audio.Add(
		b.Low().Slice(start, end),
		b.Mid().Slice(start, end),
		b.High().Slice(start, end),
	), nil
}

func checkBounds(length, start, end int) error {
	if start < 0 || end > length || start > end {
		return mixerr.New(mixerr.PrerequisiteError,
			fmt.Sprintf("stems too short for transition window [%d:%d) against length %d", start, end, length))
	}
	return nil
}
