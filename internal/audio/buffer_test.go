package audio

import "testing"

func TestEnsureStereoDuplicatesChannel(t *testing.T) {
	mono := []float32{1, 2, 3}
	b := EnsureStereo(mono, 48000)
	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	for i := range mono {
		if b.Channels[0][i] != b.Channels[1][i] {
			t.Errorf("channel mismatch at %d", i)
		}
	}
}

func TestAddSumsWithoutNormalizing(t *testing.T) {
	a := NewBuffer(4, 48000)
	b := NewBuffer(4, 48000)
	for i := 0; i < 4; i++ {
		a.Channels[0][i] = 1
		b.Channels[0][i] = 2
	}
	sum := Add(a, b)
	for i := 0; i < 4; i++ {
		if sum.Channels[0][i] != 3 {
			t.Errorf("sum[%d] = %v, want 3", i, sum.Channels[0][i])
		}
	}
}

func TestFadeLawSumsToOne(t *testing.T) {
	n := 100
	out := LinearFadeOut(n)
	in := LinearFadeIn(n)
	for i := 0; i < n; i++ {
		sum := out[i] + in[i]
		if sum < 0.999999 || sum > 1.000001 {
			t.Errorf("fade sum at %d = %v, want 1.0", i, sum)
		}
	}
	if out[0] != 1 || out[n-1] != 0 {
		t.Errorf("fade_out endpoints wrong: %v .. %v", out[0], out[n-1])
	}
	if in[0] != 0 || in[n-1] != 1 {
		t.Errorf("fade_in endpoints wrong: %v .. %v", in[0], in[n-1])
	}
}

func TestPeakNormalizeReachesTarget(t *testing.T) {
	b := NewBuffer(4, 48000)
	b.Channels[0][2] = 0.4
	b.Channels[1][1] = -0.2
	norm := b.PeakNormalize(0.9)
	if got := norm.Peak(); got < 0.8999 || got > 0.9001 {
		t.Errorf("peak after normalize = %v, want 0.9", got)
	}
}

func TestPeakNormalizeZeroIsNoop(t *testing.T) {
	b := NewBuffer(4, 48000)
	norm := b.PeakNormalize(0.9)
	if norm.Peak() != 0 {
		t.Errorf("silent buffer should stay silent, got peak %v", norm.Peak())
	}
}

func TestSliceIsZeroCopyView(t *testing.T) {
	b := NewBuffer(10, 48000)
	b.Channels[0][5] = 42
	s := b.Slice(3, 8)
	if s.Channels[0][2] != 42 {
		t.Fatalf("slice view mismatch")
	}
	s.Channels[0][2] = 7
	if b.Channels[0][5] != 7 {
		t.Errorf("slice should alias the original backing array")
	}
}

func TestConcatLength(t *testing.T) {
	a := NewBuffer(3, 48000)
	b := NewBuffer(5, 48000)
	c := Concat(a, b)
	if c.Len() != 8 {
		t.Errorf("Concat length = %d, want 8", c.Len())
	}
}
