package analyzer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartomix/mixcore/internal/analysis"
	"github.com/cartomix/mixcore/internal/camelot"
)

var _ Analyzer = (*Client)(nil)
var _ Analyzer = (*Placeholder)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlaceholderBPMInRange(t *testing.T) {
	f := writeTempFile(t, "track-a")
	p := NewPlaceholder(discardLogger())
	bpm, err := p.BPM(context.Background(), f)
	if err != nil {
		t.Fatalf("BPM: %v", err)
	}
	if bpm < 60.0 || bpm > 200.0 {
		t.Errorf("BPM = %v, want in [60, 200]", bpm)
	}
}

func TestPlaceholderKeyIsValid(t *testing.T) {
	f := writeTempFile(t, "track-b")
	p := NewPlaceholder(discardLogger())
	key, err := p.Key(context.Background(), f)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if !key.Valid() {
		t.Errorf("Key = %v, not a valid Camelot coordinate", key)
	}
}

func TestPlaceholderIsDeterministic(t *testing.T) {
	f := writeTempFile(t, "same-content")
	p := NewPlaceholder(discardLogger())
	ctx := context.Background()
	a, err := p.BPM(ctx, f)
	if err != nil {
		t.Fatalf("BPM: %v", err)
	}
	b, err := p.BPM(ctx, f)
	if err != nil {
		t.Fatalf("BPM: %v", err)
	}
	if a != b {
		t.Errorf("placeholder BPM should be deterministic for the same file, got %v and %v", a, b)
	}
}

func TestAggregateRejectsOutOfRangeBPM(t *testing.T) {
	_, err := Aggregate(context.Background(), fakeAnalyzer{bpm: 300}, "x.wav")
	if err == nil {
		t.Fatal("expected BpmOutOfRange error")
	}
}

func TestAggregateRoundsBPM(t *testing.T) {
	got, err := Aggregate(context.Background(), fakeAnalyzer{bpm: 127.999}, "x.wav")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got.BPM != 128.0 {
		t.Errorf("BPM = %v, want rounded 128.0", got.BPM)
	}
}

type fakeAnalyzer struct {
	bpm float64
}

func (f fakeAnalyzer) BPM(ctx context.Context, path string) (float64, error) { return f.bpm, nil }
func (f fakeAnalyzer) Key(ctx context.Context, path string) (camelot.Key, error) {
	return camelot.Key{Number: 8, Letter: camelot.Major}, nil
}
func (f fakeAnalyzer) Choruses(ctx context.Context, path string) ([]analysis.Section, error) {
	return []analysis.Section{{Start: 10, End: 20}}, nil
}
func (f fakeAnalyzer) Verses(ctx context.Context, path string) ([]analysis.Section, error) {
	return []analysis.Section{{Start: 0, End: 10}, {Start: 30, End: 40}}, nil
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "track.wav")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}
