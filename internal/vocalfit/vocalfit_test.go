package vocalfit

import (
	"math"
	"testing"
)

func sineTone(freq float64, sr, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sr))
	}
	return out
}

func silence(n int) []float64 {
	return make([]float64, n)
}

func TestComputeIsWithinUnitRangeOnSilence(t *testing.T) {
	sr := 22050
	n := sr * 2
	s := Compute(silence(n), silence(n), silence(n), 128, sr, Options{})

	for name, v := range map[string]float64{"accent": s.Accent, "timing": s.Timing, "contour": s.Contour, "voc_ref": s.VocRef, "final": s.Final} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, want in [0, 1]", name, v)
		}
	}
}

func TestComputeVocalReferenceIsHighForIdenticalSignal(t *testing.T) {
	sr := 22050
	n := sr * 2
	tone := sineTone(220, sr, n)
	s := Compute(tone, tone, tone, 128, sr, Options{})
	if s.VocRef < 0.5 {
		t.Errorf("VocRef = %v, want a strong match for an identical onset curve", s.VocRef)
	}
}

func TestVerdictThresholdsOnFinal(t *testing.T) {
	if v := (Score{Final: 0.6}).Verdict(); v != "good fit" {
		t.Errorf("Verdict() = %q, want %q", v, "good fit")
	}
	if v := (Score{Final: 0.4}).Verdict(); v != "weak fit" {
		t.Errorf("Verdict() = %q, want %q", v, "weak fit")
	}
}

func TestComputeWithDTWAlignsShiftedOnsetCurves(t *testing.T) {
	sr := 22050
	n := sr * 2
	tone := sineTone(220, sr, n)
	shifted := append(make([]float64, 256), tone[:n-256]...)

	plain := Compute(tone, tone, shifted, 128, sr, Options{})
	dtw := Compute(tone, tone, shifted, 128, sr, Options{UseDTW: true})

	if dtw.VocRef < plain.VocRef {
		t.Errorf("DTW-aligned VocRef = %v, want >= plain-correlation VocRef %v for a shifted signal", dtw.VocRef, plain.VocRef)
	}
}

func TestComputeFinalIsWeightedCombination(t *testing.T) {
	sr := 22050
	n := sr * 2
	aInstr := sineTone(110, sr, n)
	aVoc := sineTone(440, sr, n)
	bVoc := sineTone(220, sr, n)

	s := Compute(aInstr, aVoc, bVoc, 128, sr, Options{})
	want := 0.40*s.Accent + 0.25*s.Timing + 0.15*s.Contour + 0.20*s.VocRef
	if math.Abs(s.Final-want) > 1e-9 {
		t.Errorf("Final = %v, want %v", s.Final, want)
	}
}

func TestMicrotimingIsZeroWithFewerThanTwoOnsets(t *testing.T) {
	sr := 22050
	got := microtiming(silence(sr), 128, sr)
	if got != 0 {
		t.Errorf("microtiming on silence = %v, want 0", got)
	}
}

func TestPearsonHandlesDegenerateInput(t *testing.T) {
	if got := pearson([]float64{1}, []float64{2}); got != 0 {
		t.Errorf("pearson with n<2 = %v, want 0", got)
	}
	flat := []float64{1, 1, 1, 1}
	if got := pearson(flat, flat); got != 0 {
		t.Errorf("pearson on zero-variance input = %v, want 0 (not NaN)", got)
	}
}

func TestNormalizeMaxScalesToUnitPeak(t *testing.T) {
	out := normalizeMax([]float64{0, 2, 4})
	if out[2] != 1 {
		t.Errorf("normalizeMax peak = %v, want 1", out[2])
	}
}

func TestInterpolateGapsFillsShortGapsOnly(t *testing.T) {
	f0 := []float64{100, 0, 0, 200, 0, 0, 0, 0, 0, 0, 300}
	semis := make([]float64, len(f0))
	copy(semis, f0)
	interpolateGaps(semis, f0, 4)

	if semis[1] == 0 || semis[2] == 0 {
		t.Error("a 2-frame gap should be interpolated")
	}
	if semis[4] != 0 {
		t.Error("a 6-frame gap exceeds maxGap and should be left unfilled")
	}
}
