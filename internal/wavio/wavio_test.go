package wavio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartomix/mixcore/internal/audio"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	sr := 44100
	n := sr / 10
	b := audio.NewBuffer(n, sr)
	for i := 0; i < n; i++ {
		b.Channels[0][i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / float64(sr)))
		b.Channels[1][i] = float32(math.Sin(2 * math.Pi * 220 * float64(i) / float64(sr)))
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	if err := Encode(path, b); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Len() != n {
		t.Fatalf("Len = %d, want %d", got.Len(), n)
	}
	if got.SampleRate != sr {
		t.Fatalf("SampleRate = %d, want %d", got.SampleRate, sr)
	}
	for i := 0; i < n; i++ {
		if math.Abs(float64(got.Channels[0][i]-b.Channels[0][i])) > 1e-5 {
			t.Fatalf("left[%d] = %v, want %v", i, got.Channels[0][i], b.Channels[0][i])
		}
		if math.Abs(float64(got.Channels[1][i]-b.Channels[1][i])) > 1e-5 {
			t.Fatalf("right[%d] = %v, want %v", i, got.Channels[1][i], b.Channels[1][i])
		}
	}
}

func TestDecodeRejectsNonRIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all, just text padding"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Decode(path); err == nil {
		t.Fatal("expected error decoding non-RIFF file")
	}
}
