// Command fixturegen writes a pair of deterministic synthetic WAV tracks
// used by tests and demos, standing in for real commercial audio.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cartomix/mixcore/internal/fixtures"
)

func main() {
	outDir := flag.String("out", "./testdata/audio", "output directory for generated audio")
	seed := flag.Int64("seed", 1337, "random seed for deterministic fixtures")
	bpmA := flag.Float64("bpm-a", 128, "BPM of track A")
	bpmB := flag.Float64("bpm-b", 126, "BPM of track B")
	keyA := flag.String("key-a", "8A", "Camelot key of track A")
	keyB := flag.String("key-b", "9A", "Camelot key of track B")
	sampleRate := flag.Int("sample-rate", 44100, "sample rate of generated fixtures")

	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("mkdir %s: %v", *outDir, err)
	}

	specs := []fixtures.TrackSpec{
		{Path: filepath.Join(*outDir, "track_a.wav"), SampleRate: *sampleRate, BPM: *bpmA, Key: *keyA, Seed: *seed},
		{Path: filepath.Join(*outDir, "track_b.wav"), SampleRate: *sampleRate, BPM: *bpmB, Key: *keyB, Seed: *seed + 1},
	}

	for _, spec := range specs {
		track, err := fixtures.Render(spec)
		if err != nil {
			log.Fatalf("render %s: %v", spec.Path, err)
		}
		fmt.Printf("wrote %s: bpm=%.1f key=%s choruses=%d verses=%d\n",
			spec.Path, track.BPM, spec.Key, len(track.Choruses), len(track.Verses))
	}
}
