package phrase

import (
	"math"
	"testing"
)

func TestNewGeometryS1Loop(t *testing.T) {
	g := NewGeometry(128.0, 48000)
	if math.Abs(g.PhraseDur-15.0) > 1e-9 {
		t.Errorf("PhraseDur = %v, want 15.0 (scenario S1)", g.PhraseDur)
	}
	if math.Abs(g.BarDur-1.875) > 1e-9 {
		t.Errorf("BarDur = %v, want 1.875", g.BarDur)
	}
}

func TestSecToSampRounds(t *testing.T) {
	if got := SecToSamp(1.0005, 1000); got != 1001 {
		t.Errorf("SecToSamp = %d, want 1001", got)
	}
}

func TestSnapToPhraseAlreadyOnBoundary(t *testing.T) {
	got := SnapToPhrase(30.0, 15.0)
	if got != 30.0 {
		t.Errorf("SnapToPhrase(30, 15) = %v, want 30", got)
	}
}

func TestSnapToPhraseRoundsUp(t *testing.T) {
	got := SnapToPhrase(30.1, 15.0)
	if got != 45.0 {
		t.Errorf("SnapToPhrase(30.1, 15) = %v, want 45", got)
	}
}

func TestStretchRateNeverBelowOne(t *testing.T) {
	r := StretchRate(128.0, 126.0)
	if r < 1.0 {
		t.Errorf("StretchRate = %v, must be >= 1.0", r)
	}
	if math.Abs(r-128.0/126.0) > 1e-9 {
		t.Errorf("StretchRate = %v, want %v", r, 128.0/126.0)
	}
}

func TestFromStretchedDomain(t *testing.T) {
	got := FromStretchedDomain(100.0, 2.0)
	if got != 50.0 {
		t.Errorf("FromStretchedDomain = %v, want 50", got)
	}
}

func TestNChorusPhrases(t *testing.T) {
	if got := NChorusPhrases(100, 30); got != 3 {
		t.Errorf("NChorusPhrases = %d, want 3", got)
	}
}
