package storage

import (
	"log/slog"
	"os"
	"testing"
)

func TestStemDirRoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()

	db, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.PutStemDir("song_a", "hash1", "/cache/htdemucs/song_a"); err != nil {
		t.Fatalf("put stem dir: %v", err)
	}

	got, ok, err := db.GetStemDir("song_a", "hash1")
	if err != nil {
		t.Fatalf("get stem dir: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "/cache/htdemucs/song_a" {
		t.Errorf("dir = %q, want /cache/htdemucs/song_a", got)
	}
}

func TestStemDirMissIsNotError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()

	db, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	_, ok, err := db.GetStemDir("missing", "nope")
	if err != nil {
		t.Fatalf("get stem dir: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestDeleteStemDirsForTrack(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()

	db, err := Open(dir, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.PutStemDir("song_b", "hash2", "/cache/htdemucs/song_b"); err != nil {
		t.Fatalf("put stem dir: %v", err)
	}
	if err := db.DeleteStemDirsForTrack("song_b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, err := db.GetStemDir("song_b", "hash2")
	if err != nil {
		t.Fatalf("get stem dir: %v", err)
	}
	if ok {
		t.Error("expected cache miss after delete")
	}
}
