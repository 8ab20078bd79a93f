// Package fixtures generates deterministic synthetic WAV tracks with known
// BPM, key and verse/chorus sections, used by integration tests and the
// fixturegen demo command instead of real commercial audio.
package fixtures

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/cartomix/mixcore/internal/analysis"
	"github.com/cartomix/mixcore/internal/camelot"
)

// TrackSpec describes one synthetic track to render.
type TrackSpec struct {
	Path       string
	SampleRate int
	BPM        float64
	Key        string // Camelot notation, e.g. "8A"
	Seed       int64
}

// sectionDef is one bar-aligned section of the rendered phrase structure.
type sectionDef struct {
	kind   string
	bars   int
	energy float64
}

// phraseStructure is a generic intro/verse/chorus/verse/chorus/outro form,
// long enough to exercise both the tight and loose transition windows and
// the loop builder's chorus-tiling path.
var phraseStructure = []sectionDef{
	{"intro", 8, 0.3},
	{"verse", 16, 0.5},
	{"chorus", 16, 0.9},
	{"verse", 16, 0.5},
	{"chorus", 16, 0.9},
	{"outro", 8, 0.2},
}

// Render writes spec's WAV file and returns the analysis.Track a perfect
// analyzer would have produced for it.
func Render(spec TrackSpec) (*analysis.Track, error) {
	sr := spec.SampleRate
	if sr == 0 {
		sr = 44100
	}
	secondsPerBeat := 60.0 / spec.BPM
	beatsPerBar := 4

	totalBeats := 0
	type built struct {
		kind             string
		startSec, endSec float64
	}
	var sections []built
	for _, def := range phraseStructure {
		beats := def.bars * beatsPerBar
		startSec := float64(totalBeats) * secondsPerBeat
		totalBeats += beats
		endSec := float64(totalBeats) * secondsPerBeat
		sections = append(sections, built{def.kind, startSec, endSec})
	}
	totalDur := float64(totalBeats) * secondsPerBeat
	totalSamples := int(totalDur * float64(sr))
	data := make([]float64, totalSamples)

	freqs := camelotFrequencies(spec.Key)
	bassFreq := freqs[0] / 2
	rng := uint64(spec.Seed + 1)
	nextRand := func() float64 {
		rng = rng*6364136223846793005 + 1442695040888963407
		return float64(rng>>33)/float64(1<<31)*2 - 1
	}

	for idx, def := range phraseStructure {
		sec := sections[idx]
		startSample := int(sec.startSec * float64(sr))
		endSample := int(sec.endSec * float64(sr))
		if endSample > totalSamples {
			endSample = totalSamples
		}
		energy := def.energy

		startBeat := int(sec.startSec / secondsPerBeat)
		endBeat := int(sec.endSec / secondsPerBeat)
		for beat := startBeat; beat < endBeat; beat++ {
			beatSample := int(float64(beat) * secondsPerBeat * float64(sr))
			if beat%beatsPerBar != 0 {
				continue
			}
			kickLen := int(0.12 * float64(sr))
			for i := 0; i < kickLen && beatSample+i < totalSamples; i++ {
				t := float64(i) / float64(sr)
				kickFreq := 55.0 * math.Exp(-12*t)
				data[beatSample+i] += energy * 0.6 * math.Exp(-8*t) * math.Sin(2*math.Pi*kickFreq*t)
			}
		}

		vocalPresent := def.kind == "verse" || def.kind == "chorus"
		for i := startSample; i < endSample; i++ {
			t := float64(i) / float64(sr)
			data[i] += energy * 0.25 * math.Sin(2*math.Pi*bassFreq*t)
			for j, f := range freqs {
				data[i] += energy * 0.08 * (1 - float64(j)*0.2) * math.Sin(2*math.Pi*f*t)
			}
			if vocalPresent {
				vocalFreq := freqs[len(freqs)-1] * 2
				data[i] += energy * 0.12 * math.Sin(2*math.Pi*vocalFreq*t) * (0.6 + 0.4*nextRand())
			}
		}
	}

	fadeSamples := int(0.2 * float64(sr))
	for i := 0; i < fadeSamples && i < totalSamples; i++ {
		gain := float64(i) / float64(fadeSamples)
		data[i] *= gain
		data[totalSamples-1-i] *= gain
	}

	if err := writeWAV(spec.Path, data, sr); err != nil {
		return nil, fmt.Errorf("fixtures: render %s: %w", spec.Path, err)
	}

	key, err := camelot.Parse(spec.Key)
	if err != nil {
		return nil, fmt.Errorf("fixtures: parse key %q: %w", spec.Key, err)
	}

	track := &analysis.Track{BPM: spec.BPM, Key: key}
	for i, def := range phraseStructure {
		s := analysis.Section{Start: sections[i].startSec, End: sections[i].endSec}
		switch def.kind {
		case "chorus":
			track.Choruses = append(track.Choruses, s)
		case "verse":
			track.Verses = append(track.Verses, s)
		}
	}
	return track, nil
}

// writeWAV writes a mono 16-bit PCM WAV (the input format the decoder's
// mono-promotion path is expected to handle).
func writeWAV(path string, samples []float64, sampleRate int) error {
	buf := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf[i] = int16(s * 32767)
	}

	byteRate := sampleRate * 2
	dataSize := len(buf) * 2
	riffSize := 36 + dataSize

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	f.Write([]byte("RIFF"))
	binary.Write(f, binary.LittleEndian, uint32(riffSize))
	f.Write([]byte("WAVE"))
	f.Write([]byte("fmt "))
	binary.Write(f, binary.LittleEndian, uint32(16))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint16(1))
	binary.Write(f, binary.LittleEndian, uint32(sampleRate))
	binary.Write(f, binary.LittleEndian, uint32(byteRate))
	binary.Write(f, binary.LittleEndian, int16(2))
	binary.Write(f, binary.LittleEndian, int16(16))
	f.Write([]byte("data"))
	binary.Write(f, binary.LittleEndian, uint32(dataSize))
	for _, v := range buf {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// camelotFrequencies returns an approximate triad for a Camelot key, used
// only to give each fixture a distinguishable harmonic color.
func camelotFrequencies(key string) []float64 {
	switch key {
	case "8A":
		return []float64{220.0, 261.63, 329.63}
	case "9A":
		return []float64{164.81, 246.94, 329.63}
	case "7A":
		return []float64{146.83, 220.0, 293.66}
	case "8B":
		return []float64{261.63, 329.63, 392.0}
	case "9B":
		return []float64{196.0, 246.94, 293.66}
	case "7B":
		return []float64{174.61, 220.0, 261.63}
	default:
		return []float64{220.0, 261.63, 329.63}
	}
}
