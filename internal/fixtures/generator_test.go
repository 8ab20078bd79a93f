package fixtures

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderProducesAudioAndTrack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track_a.wav")

	track, err := Render(TrackSpec{Path: path, SampleRate: 48000, BPM: 128, Key: "8A", Seed: 7})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if track.BPM != 128 {
		t.Errorf("BPM = %v, want 128", track.BPM)
	}
	if len(track.Choruses) != 2 {
		t.Fatalf("expected 2 choruses, got %d", len(track.Choruses))
	}
	if len(track.Verses) != 2 {
		t.Fatalf("expected 2 verses, got %d", len(track.Verses))
	}
	if track.Choruses[0].Start <= track.Verses[0].Start {
		t.Errorf("first chorus should follow the first verse")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("not a wav header")
	}
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate != 48000 {
		t.Fatalf("unexpected sample rate %d", sampleRate)
	}
}

func TestRenderRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wav")
	if _, err := Render(TrackSpec{Path: path, SampleRate: 44100, BPM: 120, Key: "13X"}); err == nil {
		t.Fatal("expected an error for an invalid Camelot key")
	}
}
