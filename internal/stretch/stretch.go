// Package stretch implements the tempo-matching time-stretch and
// sample-rate-matching resample pipeline applied to the slower track's
// stems before any transition is built (spec §3, §4.3). The stretch never
// slows the faster track down: stretch_rate = target_bpm / slower_bpm is
// always >= 1.0, so only the slower track's stems are ever touched.
package stretch

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cartomix/mixcore/internal/audio"
)

const (
	// fftSize and hopSize follow the classic phase-vocoder ratio of 4:1
	// overlap, giving enough frequency resolution for bass-heavy stems
	// without smearing percussive transients across more than a couple
	// of hops.
	fftSize = 2048
	hopSize = fftSize / 4
)

// Rate computes the time-stretch ratio for the slower of two tracks, per
// spec §3: the faster track is never slowed down.
func Rate(targetBPM, slowerBPM float64) float64 {
	return targetBPM / slowerBPM
}

// Stem applies a phase-vocoder time-stretch to every channel of b
// independently at the given rate. rate == 1.0 is a pass-through (no copy
// needed beyond what the caller already holds). rate must be >= 1.0;
// Strategy selection and Rate above guarantee the caller never asks this
// package to slow a track down.
func Stem(b audio.Buffer, rate float64) audio.Buffer {
	if rate == 1.0 {
		return b
	}
	out := audio.Buffer{SampleRate: b.SampleRate}
	for ch := range b.Channels {
		out.Channels[ch] = toFloat32(phaseVocoder(toFloat64(b.Channels[ch]), rate))
	}
	return out
}

// Resample performs band-limited resampling of every channel of b from its
// current sample rate to targetSR, via windowed-sinc interpolation. A no-op
// when the rates already match.
func Resample(b audio.Buffer, targetSR int) audio.Buffer {
	if b.SampleRate == targetSR {
		return b
	}
	out := audio.Buffer{SampleRate: targetSR}
	for ch := range b.Channels {
		out.Channels[ch] = toFloat32(resampleChannel(toFloat64(b.Channels[ch]), b.SampleRate, targetSR))
	}
	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

// hann returns an n-point Hann analysis/synthesis window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// phaseVocoder stretches a single channel's samples by rate using
// STFT-domain phase accumulation: the output hop is fixed at hopSize while
// the input is advanced by hopSize*rate, so the signal is resynthesized in
// 1/rate of its original duration (len(in)/rate samples) with phase
// continuity preserved across hops (the technique underlying librosa.effects.time_stretch, which the
// original pipeline this engine replaces called directly).
func phaseVocoder(in []float64, rate float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	win := hann(fftSize)
	fft := fourier.NewFFT(fftSize)

	nBins := fftSize/2 + 1
	outLen := int(float64(len(in))/rate) + fftSize
	out := make([]float64, outLen)
	norm := make([]float64, outLen)

	lastPhase := make([]float64, nBins)
	sumPhase := make([]float64, nBins)
	binFreq := make([]float64, nBins)
	for k := range binFreq {
		binFreq[k] = 2 * math.Pi * float64(k) / float64(fftSize)
	}

	frame := make([]float64, fftSize)
	outHop := hopSize
	inHop := int(float64(hopSize) * rate)
	if inHop < 1 {
		inHop = 1
	}

	nFrames := 0
	for pos := 0; pos+fftSize <= len(in); pos += inHop {
		nFrames++
	}
	if nFrames == 0 {
		nFrames = 1
	}

	pos := 0
	outPos := 0
	for f := 0; f < nFrames; f++ {
		for i := 0; i < fftSize; i++ {
			idx := pos + i
			if idx < len(in) {
				frame[i] = in[idx] * win[i]
			} else {
				frame[i] = 0
			}
		}

		coeffs := fft.Coefficients(nil, frame)

		mags := make([]float64, nBins)
		phases := make([]float64, nBins)
		for k := 0; k < nBins && k < len(coeffs); k++ {
			mags[k] = cAbs(coeffs[k])
			phases[k] = cPhase(coeffs[k])
		}

		if f == 0 {
			copy(sumPhase, phases)
		} else {
			for k := range sumPhase {
				delta := phases[k] - lastPhase[k] - binFreq[k]*float64(inHop)
				delta = wrapPhase(delta)
				trueFreq := binFreq[k]*float64(inHop) + delta
				sumPhase[k] += trueFreq * float64(outHop) / float64(inHop)
			}
		}
		copy(lastPhase, phases)

		synCoeffs := make([]complex128, len(coeffs))
		for k := 0; k < nBins && k < len(coeffs); k++ {
			synCoeffs[k] = complex(mags[k]*math.Cos(sumPhase[k]), mags[k]*math.Sin(sumPhase[k]))
		}
		synFrame := fft.Sequence(nil, synCoeffs)

		for i := 0; i < fftSize; i++ {
			if outPos+i < len(out) {
				out[outPos+i] += synFrame[i] * win[i]
				norm[outPos+i] += win[i] * win[i]
			}
		}

		pos += inHop
		outPos += outHop
	}

	for i := range out {
		if norm[i] > 1e-8 {
			out[i] /= norm[i]
		}
	}
	target := int(float64(len(in)) / rate)
	if target > len(out) {
		target = len(out)
	}
	return out[:target]
}

func cAbs(c complex128) float64   { return math.Hypot(real(c), imag(c)) }
func cPhase(c complex128) float64 { return math.Atan2(imag(c), real(c)) }

func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p < -math.Pi {
		p += 2 * math.Pi
	}
	return p
}

// sincFilterHalfWidth bounds the windowed-sinc kernel used by
// resampleChannel; wider kernels reject aliasing more aggressively at the
// cost of more compute per output sample.
const sincFilterHalfWidth = 16

// resampleChannel performs windowed-sinc resampling from srFrom to srTo.
// Downsampling low-passes at the target Nyquist to avoid aliasing;
// upsampling interpolates directly.
func resampleChannel(in []float64, srFrom, srTo int) []float64 {
	if len(in) == 0 || srFrom == srTo {
		out := make([]float64, len(in))
		copy(out, in)
		return out
	}
	ratio := float64(srTo) / float64(srFrom)
	outLen := int(float64(len(in)) * ratio)
	out := make([]float64, outLen)

	cutoff := 1.0
	if ratio < 1.0 {
		cutoff = ratio
	}

	for i := range out {
		srcPos := float64(i) / ratio
		center := int(math.Floor(srcPos))
		var acc, wsum float64
		for k := -sincFilterHalfWidth; k <= sincFilterHalfWidth; k++ {
			j := center + k
			if j < 0 || j >= len(in) {
				continue
			}
			x := srcPos - float64(j)
			s := sinc(cutoff*x) * cutoff
			w := blackman(x, sincFilterHalfWidth)
			acc += in[j] * s * w
			wsum += s * w
		}
		if wsum != 0 {
			out[i] = acc
		} else {
			out[i] = 0
		}
	}
	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// blackman evaluates a Blackman window centered at 0 over [-halfWidth, halfWidth].
func blackman(x float64, halfWidth int) float64 {
	n := float64(halfWidth)
	if x < -n || x > n {
		return 0
	}
	a0, a1, a2 := 0.42, 0.5, 0.08
	t := (x + n) / (2 * n)
	return a0 - a1*math.Cos(2*math.Pi*t) + a2*math.Cos(4*math.Pi*t)
}
