// Package vocalfit implements the informational vocal-fit scorer (spec
// §4.6): four [0,1] metrics over mono projections of track A's chorus
// instrumental and vocals and track B's stretched chorus vocals, combined
// into a single printed score that never gates mix construction.
package vocalfit

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// hopSize is the STFT hop used by every onset-strength and F0 curve in this
// package (spec §4.6: "STFT hop = 512").
const hopSize = 512

const fftSize = 2048

// Score holds the four component metrics and their weighted combination.
type Score struct {
	Accent  float64
	Timing  float64
	Contour float64
	VocRef  float64
	Final   float64
}

// weights per spec §4.6: Final = 0.40*accent + 0.25*timing + 0.15*contour + 0.20*voc_ref.
const (
	wAccent  = 0.40
	wTiming  = 0.25
	wContour = 0.15
	wVocRef  = 0.20
)

// Options configures optional scorer behavior beyond spec.md §4.6's plain
// description.
type Options struct {
	// UseDTW aligns track A's and track B's vocal onset curves with a
	// dynamic-time-warping path before correlating them for VocRef, instead
	// of truncating both to their common length. Off by default, matching
	// spec.md §4.6's plain-correlation description.
	UseDTW bool
}

// Compute scores how well track B's stretched chorus vocals fit over track
// A's chorus instrumental, given mono projections of A's instrumental, A's
// chorus vocals and B's stretched chorus vocals, all at sample rate sr and
// tempo bpm.
func Compute(aInstrumental, aVocals, bVocals []float64, bpm float64, sr int, opts Options) Score {
	aOnset := onsetStrength(aInstrumental, sr)
	v1Onset := onsetStrength(aVocals, sr)
	v2Onset := onsetStrength(bVocals, sr)

	emphasis := emphasisTemplate(aOnset, bpm, sr, len(v2Onset))

	accent := math.Max(0, pearson(v2Onset, emphasis))
	timing := microtiming(bVocals, bpm, sr)
	contour := pitchMovementVsAccent(bVocals, emphasis, sr)

	var vocRef float64
	if opts.UseDTW {
		vocRef = math.Max(0, dtwAlignedPearson(v1Onset, v2Onset))
	} else {
		vocRef = math.Max(0, pearson(v1Onset, v2Onset))
	}

	final := wAccent*accent + wTiming*timing + wContour*contour + wVocRef*vocRef
	return Score{Accent: accent, Timing: timing, Contour: contour, VocRef: vocRef, Final: final}
}

// Verdict renders Final as the "good fit"/"weak fit" banner line spec
// supplement 2 describes, with 0.5 as the good/weak boundary.
func (s Score) Verdict() string {
	if s.Final >= 0.5 {
		return "good fit"
	}
	return "weak fit"
}

// onsetStrength computes a spectral-flux onset-strength envelope: at each
// STFT frame, the sum of positive magnitude increases over the previous
// frame, normalized to [0, 1] by its own maximum.
func onsetStrength(mono []float64, sr int) []float64 {
	frames := stftMagnitudes(mono)
	if len(frames) == 0 {
		return nil
	}
	out := make([]float64, len(frames))
	prev := make([]float64, len(frames[0]))
	for i, mags := range frames {
		var flux float64
		for k, m := range mags {
			d := m - prev[k]
			if d > 0 {
				flux += d
			}
		}
		out[i] = flux
		prev = mags
	}
	return normalizeMax(out)
}

// stftMagnitudes returns the magnitude spectrum of every hopSize-spaced,
// fftSize-wide Hann-windowed frame of mono.
func stftMagnitudes(mono []float64) [][]float64 {
	if len(mono) == 0 {
		return nil
	}
	win := hann(fftSize)
	fft := fourier.NewFFT(fftSize)
	nBins := fftSize/2 + 1

	var frames [][]float64
	frame := make([]float64, fftSize)
	for pos := 0; pos < len(mono); pos += hopSize {
		for i := 0; i < fftSize; i++ {
			idx := pos + i
			if idx < len(mono) {
				frame[i] = mono[idx] * win[i]
			} else {
				frame[i] = 0
			}
		}
		coeffs := fft.Coefficients(nil, frame)
		mags := make([]float64, nBins)
		for k := 0; k < nBins && k < len(coeffs); k++ {
			mags[k] = math.Hypot(real(coeffs[k]), imag(coeffs[k]))
		}
		frames = append(frames, mags)
	}
	return frames
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// emphasisTemplate builds the per-bar emphasis template from A's
// instrumental onset strength (spec §4.6 "accent alignment"): average onset
// energy across all same-position frames within each bar, normalize, tile
// to outLen frames.
func emphasisTemplate(aOnset []float64, bpm float64, sr, outLen int) []float64 {
	framesPerBar := 4 * int(math.Round(60/bpm*float64(sr)/hopSize))
	if framesPerBar <= 0 || len(aOnset) == 0 {
		return make([]float64, outLen)
	}

	sums := make([]float64, framesPerBar)
	counts := make([]int, framesPerBar)
	for i, v := range aOnset {
		pos := i % framesPerBar
		sums[pos] += v
		counts[pos]++
	}
	bar := make([]float64, framesPerBar)
	for i := range bar {
		if counts[i] > 0 {
			bar[i] = sums[i] / float64(counts[i])
		}
	}
	bar = normalizeMax(bar)

	out := make([]float64, outLen)
	for i := range out {
		out[i] = bar[i%framesPerBar]
	}
	return out
}

// microtiming scores how close B's vocal onsets land to the nearest
// eighth-note subdivision (spec §4.6 "microtiming").
func microtiming(bVocals []float64, bpm float64, sr int) float64 {
	onsetFrames := onsetPositions(bVocals, sr)
	if len(onsetFrames) < 2 {
		return 0
	}
	subdiv := (60 / bpm) / 2
	offsets := make([]float64, len(onsetFrames))
	for i, frame := range onsetFrames {
		t := float64(frame*hopSize) / float64(sr)
		nearest := math.Round(t/subdiv) * subdiv
		off := t - nearest
		for off > subdiv/2 {
			off -= subdiv
		}
		for off < -subdiv/2 {
			off += subdiv
		}
		offsets[i] = off
	}
	mu, sigma := stat.MeanStdDev(offsets, nil)
	const sigma0 = 0.050
	const mu0 = 0.030
	return math.Exp(-(sigma*sigma)/(sigma0*sigma0)) * math.Exp(-(mu*mu)/(mu0*mu0))
}

// onsetPositions returns the STFT-frame indices of local onset-strength
// peaks that exceed half the curve's own maximum.
func onsetPositions(mono []float64, sr int) []int {
	onset := onsetStrength(mono, sr)
	if len(onset) < 3 {
		return nil
	}
	var peaks []int
	for i := 1; i < len(onset)-1; i++ {
		if onset[i] > 0.5 && onset[i] >= onset[i-1] && onset[i] >= onset[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// pitchMovementVsAccent computes F0 on B's vocals, converts to semitones
// relative to A4, takes |deltaF0| per frame, normalizes, and correlates
// against the emphasis template (spec §4.6 "pitch-movement vs accent").
func pitchMovementVsAccent(bVocals []float64, emphasis []float64, sr int) float64 {
	f0 := trackPitch(bVocals, sr)
	semis := make([]float64, len(f0))
	for i, hz := range f0 {
		if hz > 0 {
			semis[i] = 12 * math.Log2(hz/440.0)
		}
	}
	interpolateGaps(semis, f0, 4)

	dF0 := make([]float64, len(semis))
	for i := 1; i < len(semis); i++ {
		dF0[i] = math.Abs(semis[i] - semis[i-1])
	}
	dF0 = normalizeMax(dF0)

	n := len(dF0)
	if len(emphasis) < n {
		n = len(emphasis)
	}
	return math.Max(0, pearson(dF0[:n], emphasis[:n]))
}

// interpolateGaps linearly fills runs of up to maxGap consecutive unvoiced
// (f0 == 0) frames in semis using the nearest voiced neighbors on each side.
func interpolateGaps(semis, f0 []float64, maxGap int) {
	n := len(f0)
	i := 0
	for i < n {
		if f0[i] != 0 {
			i++
			continue
		}
		start := i
		for i < n && f0[i] == 0 {
			i++
		}
		gapLen := i - start
		if gapLen > maxGap || start == 0 || i == n {
			continue
		}
		left, right := semis[start-1], semis[i]
		for j := start; j < i; j++ {
			frac := float64(j-start+1) / float64(gapLen+1)
			semis[j] = left + frac*(right-left)
		}
	}
}

// trackPitch estimates F0 per hopSize-spaced frame using normalized
// autocorrelation over a pitch range of roughly 70-1000 Hz, the harmonic
// pitch-tracking approach probabilistic YIN refines; frames whose peak
// correlation falls below a voicing threshold return 0 (unvoiced).
func trackPitch(mono []float64, sr int) []float64 {
	if len(mono) == 0 {
		return nil
	}
	const voicingThreshold = 0.3
	minLag := sr / 1000
	maxLag := sr / 70
	if minLag < 1 {
		minLag = 1
	}

	frameLen := fftSize
	var out []float64
	for pos := 0; pos+frameLen <= len(mono) || pos == 0; pos += hopSize {
		end := pos + frameLen
		if end > len(mono) {
			end = len(mono)
		}
		frame := mono[pos:end]
		if len(frame) <= maxLag {
			out = append(out, 0)
			if end == len(mono) {
				break
			}
			continue
		}

		bestLag := 0
		bestCorr := 0.0
		energy0 := autocorr(frame, 0)
		if energy0 > 1e-12 {
			for lag := minLag; lag <= maxLag; lag++ {
				c := autocorr(frame, lag) / energy0
				if c > bestCorr {
					bestCorr = c
					bestLag = lag
				}
			}
		}

		if bestCorr >= voicingThreshold && bestLag > 0 {
			out = append(out, float64(sr)/float64(bestLag))
		} else {
			out = append(out, 0)
		}
		if end == len(mono) {
			break
		}
	}
	return out
}

func autocorr(frame []float64, lag int) float64 {
	var sum float64
	for i := 0; i+lag < len(frame); i++ {
		sum += frame[i] * frame[i+lag]
	}
	return sum
}

func normalizeMax(v []float64) []float64 {
	out := make([]float64, len(v))
	max := 0.0
	for _, x := range v {
		if x > max {
			max = x
		}
	}
	if max == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / max
	}
	return out
}

// dtwAlignedPearson warps a and b onto a common dynamic-time-warping path
// (Euclidean step cost, the standard three-neighbor recurrence) and
// correlates the two resulting aligned sequences, rather than truncating a
// and b to their common length. No DTW library is attested anywhere in the
// retrieved example corpus, so the alignment is hand-rolled.
func dtwAlignedPearson(a, b []float64) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0
	}

	const inf = math.MaxFloat64
	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, m+1)
		for j := range cost[i] {
			cost[i][j] = inf
		}
	}
	cost[0][0] = 0
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			d := math.Abs(a[i-1] - b[j-1])
			best := cost[i-1][j]
			if cost[i][j-1] < best {
				best = cost[i][j-1]
			}
			if cost[i-1][j-1] < best {
				best = cost[i-1][j-1]
			}
			cost[i][j] = d + best
		}
	}

	// cost[i][0] and cost[0][j] are inf for i,j > 0, so any finite path
	// through the grid reaches (0,0) with both indices hitting zero together.
	var alignedA, alignedB []float64
	i, j := n, m
	for i > 0 && j > 0 {
		alignedA = append(alignedA, a[i-1])
		alignedB = append(alignedB, b[j-1])
		best, bi, bj := cost[i-1][j-1], i-1, j-1
		if cost[i-1][j] < best {
			best, bi, bj = cost[i-1][j], i-1, j
		}
		if cost[i][j-1] < best {
			best, bi, bj = cost[i][j-1], i, j-1
		}
		i, j = bi, bj
	}

	return pearson(alignedA, alignedB)
}

// pearson computes the Pearson correlation coefficient of a and b,
// truncated to their common length. Returns 0 for degenerate (too-short or
// zero-variance) input instead of NaN.
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	r := stat.Correlation(a[:n], b[:n], nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}
