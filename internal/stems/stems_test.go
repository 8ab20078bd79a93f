package stems

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartomix/mixcore/internal/audio"
	"github.com/cartomix/mixcore/internal/wavio"
)

func writeStemSet(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	b := audio.NewBuffer(100, 44100)
	for _, name := range []string{"bass", "drums", "vocals", "other"} {
		if err := wavio.Encode(filepath.Join(dir, name+".wav"), b); err != nil {
			t.Fatalf("Encode %s: %v", name, err)
		}
	}
}

func TestStemsFindsCachedSiblingDir(t *testing.T) {
	root := t.TempDir()
	priorRun := filepath.Join(root, "run1")
	writeStemSet(t, filepath.Join(priorRun, "htdemucs", "song"))

	wavPath := filepath.Join(root, "song.wav")
	if err := os.WriteFile(wavPath, []byte("not audio, just identity bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	outDir := filepath.Join(root, "run2")
	store := Store{Separator: failSeparator{t}}

	set, err := store.Stems(context.Background(), wavPath, outDir)
	if err != nil {
		t.Fatalf("Stems: %v", err)
	}
	if set.Bass.Len() != 100 {
		t.Errorf("Bass.Len() = %d, want 100", set.Bass.Len())
	}
}

func TestStemsInvokesSeparatorWhenUncached(t *testing.T) {
	root := t.TempDir()
	wavPath := filepath.Join(root, "song.wav")
	if err := os.WriteFile(wavPath, []byte("identity bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	outDir := filepath.Join(root, "out")

	sep := &fakeSeparator{t: t}
	store := Store{Separator: sep}

	set, err := store.Stems(context.Background(), wavPath, outDir)
	if err != nil {
		t.Fatalf("Stems: %v", err)
	}
	if !sep.called {
		t.Error("expected separator to be invoked")
	}
	if set.Vocals.Len() != 50 {
		t.Errorf("Vocals.Len() = %d, want 50", set.Vocals.Len())
	}
}

type failSeparator struct{ t *testing.T }

func (f failSeparator) Separate(ctx context.Context, wavPath, outDir string) error {
	f.t.Fatal("separator should not be invoked when a cached sibling dir exists")
	return nil
}

type fakeSeparator struct {
	t      *testing.T
	called bool
}

func (f *fakeSeparator) Separate(ctx context.Context, wavPath, outDir string) error {
	f.called = true
	writeStemSet(f.t, filepath.Join(outDir, "htdemucs", "song"))
	// overwrite with a distinguishable length so the test can tell these
	// came from the separator rather than a stray cache hit.
	b := audio.NewBuffer(50, 44100)
	for _, name := range []string{"bass", "drums", "vocals", "other"} {
		if err := wavio.Encode(filepath.Join(outDir, "htdemucs", "song", name+".wav"), b); err != nil {
			return err
		}
	}
	return nil
}
