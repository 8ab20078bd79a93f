// Package audio defines the stereo sample-buffer contract shared by every
// stage of the mix pipeline: stems, stretched/resampled tracks, transition
// outputs and the final mix all move through the pipeline as Buffer values.
package audio

import "fmt"

// Buffer is an owned, 2-channel (stereo) float32 signal: Channels[0] is left,
// Channels[1] is right. Every buffer that reaches a transition builder has
// already been through EnsureStereo, so channel count is always 2.
type Buffer struct {
	Channels [2][]float32
	SampleRate int
}

// NewBuffer allocates a zeroed stereo buffer of the given length.
func NewBuffer(n, sampleRate int) Buffer {
	return Buffer{
		Channels:   [2][]float32{make([]float32, n), make([]float32, n)},
		SampleRate: sampleRate,
	}
}

// Len returns the number of samples per channel.
func (b Buffer) Len() int {
	return len(b.Channels[0])
}

// EnsureStereo promotes a mono signal to stereo by channel duplication: the
// left channel is mono itself and the right channel is a copy of it.
func EnsureStereo(mono []float32, sampleRate int) Buffer {
	dup := make([]float32, len(mono))
	copy(dup, mono)
	return Buffer{Channels: [2][]float32{mono, dup}, SampleRate: sampleRate}
}

// Slice returns a zero-copy view [start:end) over both channels. Panics if
// the range is out of bounds, matching slice semantics.
func (b Buffer) Slice(start, end int) Buffer {
	if start < 0 || end > b.Len() || start > end {
		panic(fmt.Sprintf("audio: slice [%d:%d) out of bounds for length %d", start, end, b.Len()))
	}
	return Buffer{
		Channels:   [2][]float32{b.Channels[0][start:end], b.Channels[1][start:end]},
		SampleRate: b.SampleRate,
	}
}

// Clone returns an independent copy of b.
func (b Buffer) Clone() Buffer {
	out := NewBuffer(b.Len(), b.SampleRate)
	copy(out.Channels[0], b.Channels[0])
	copy(out.Channels[1], b.Channels[1])
	return out
}

// Add returns a new buffer equal to the elementwise sum of a and b, which
// must have equal length. Used to sum stems/bands without normalizing each
// operand (invariant 4 in spec §3: low+mid+high must equal the unweighted
// sum of all four stems).
func Add(buffers ...Buffer) Buffer {
	if len(buffers) == 0 {
		return Buffer{}
	}
	n := buffers[0].Len()
	sr := buffers[0].SampleRate
	out := NewBuffer(n, sr)
	for _, b := range buffers {
		if b.Len() != n {
			panic(fmt.Sprintf("audio: Add length mismatch: %d vs %d", b.Len(), n))
		}
		for ch := 0; ch < 2; ch++ {
			for i := 0; i < n; i++ {
				out.Channels[ch][i] += b.Channels[ch][i]
			}
		}
	}
	return out
}

// Concat concatenates buffers end-to-end along the sample axis.
func Concat(buffers ...Buffer) Buffer {
	total := 0
	sr := 0
	for _, b := range buffers {
		total += b.Len()
		sr = b.SampleRate
	}
	out := NewBuffer(total, sr)
	offset := 0
	for _, b := range buffers {
		copy(out.Channels[0][offset:], b.Channels[0])
		copy(out.Channels[1][offset:], b.Channels[1])
		offset += b.Len()
	}
	return out
}

// Scale multiplies every sample in b by gain, sample-by-sample, given a
// per-sample gain curve (len(gain) must equal b.Len()).
func Scale(b Buffer, gain []float32) Buffer {
	if len(gain) != b.Len() {
		panic(fmt.Sprintf("audio: Scale gain length %d != buffer length %d", len(gain), b.Len()))
	}
	out := NewBuffer(b.Len(), b.SampleRate)
	for ch := 0; ch < 2; ch++ {
		for i, g := range gain {
			out.Channels[ch][i] = b.Channels[ch][i] * g
		}
	}
	return out
}

// MonoDown averages the two channels into a single mono slice, used by the
// vocal-fit scorer which operates on mono projections.
func (b Buffer) MonoDown() []float32 {
	out := make([]float32, b.Len())
	for i := range out {
		out[i] = (b.Channels[0][i] + b.Channels[1][i]) / 2
	}
	return out
}

// Peak returns the maximum absolute sample value across both channels.
func (b Buffer) Peak() float32 {
	var peak float32
	for ch := 0; ch < 2; ch++ {
		for _, v := range b.Channels[ch] {
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}

// PeakNormalize scales b so its peak equals target. A zero-peak (silent)
// buffer is returned unchanged rather than dividing by zero.
func (b Buffer) PeakNormalize(target float32) Buffer {
	peak := b.Peak()
	if peak == 0 {
		return b.Clone()
	}
	gain := target / peak
	out := NewBuffer(b.Len(), b.SampleRate)
	for ch := 0; ch < 2; ch++ {
		for i, v := range b.Channels[ch] {
			out.Channels[ch][i] = v * gain
		}
	}
	return out
}

// LinearFadeOut returns a ramp of n samples from 1.0 down to 0.0 inclusive
// of the endpoints, used to build the matching fade_out/fade_in pair for
// every Phase A/B band swap (spec §4.4: fade_in + fade_out == 1 everywhere).
func LinearFadeOut(n int) []float32 {
	out := make([]float32, n)
	if n == 1 {
		out[0] = 1
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = 1 - float32(i)/float32(n-1)
	}
	return out
}

// LinearFadeIn returns a ramp of n samples from 0.0 up to 1.0, the exact
// complement of LinearFadeOut.
func LinearFadeIn(n int) []float32 {
	out := make([]float32, n)
	fo := LinearFadeOut(n)
	for i, v := range fo {
		out[i] = 1 - v
	}
	return out
}

// Zeros returns a silent stereo buffer of length n.
func Zeros(n, sampleRate int) Buffer {
	return NewBuffer(n, sampleRate)
}
