// Package mixer implements the Orchestrator (spec §4.7): the end-to-end
// sequence from two input WAV paths to a finished, canonically-named mix
// file — analysis, strategy selection, stem fetch, stretch/resample,
// anchor computation, builder dispatch, normalization and atomic write.
package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cartomix/mixcore/internal/anchor"
	"github.com/cartomix/mixcore/internal/analysis"
	"github.com/cartomix/mixcore/internal/analyzer"
	"github.com/cartomix/mixcore/internal/audio"
	"github.com/cartomix/mixcore/internal/loopbuilder"
	"github.com/cartomix/mixcore/internal/mixerr"
	"github.com/cartomix/mixcore/internal/phrase"
	"github.com/cartomix/mixcore/internal/stems"
	"github.com/cartomix/mixcore/internal/strategy"
	"github.com/cartomix/mixcore/internal/stretch"
	"github.com/cartomix/mixcore/internal/transition"
	"github.com/cartomix/mixcore/internal/vocalfit"
	"github.com/cartomix/mixcore/internal/wavio"
)

// Orchestrator wires the Camelot model, stem cache, stretch/resample and
// builder packages into the single-mix pipeline spec §4.7 describes.
type Orchestrator struct {
	Analyzer  analyzer.Analyzer
	Stems     stems.Store
	OutputDir string // spec §6: final file written to {OutputDir}/mixes/
	Logger    *slog.Logger

	// DumpSections writes track A's verse/chorus and track B's stretched
	// chorus/verse-1 sections to {OutputDir}/song_1 and {OutputDir}/song_2
	// as standalone WAV files for manual QA. Off by default.
	DumpSections bool

	// UseDTWVocalRef switches the loop strategy's vocal-fit VocRef metric to
	// a DTW-aligned correlation instead of a plain truncated one. Off by
	// default, matching spec.md §4.6's plain-correlation description.
	UseDTWVocalRef bool
}

// Result is what a completed mix reports back to the CLI.
type Result struct {
	Path  string
	Mode  strategy.Mode
	Score *vocalfit.Score // non-nil only for the loop strategy (spec §4.6)
}

// Run executes one mix of song1Path against song2Path, per spec §4.7.
func (o *Orchestrator) Run(ctx context.Context, song1Path, song2Path string) (Result, error) {
	if err := checkExists(song1Path); err != nil {
		return Result{}, err
	}
	if err := checkExists(song2Path); err != nil {
		return Result{}, err
	}

	raw1, err := decodeRaw(song1Path)
	if err != nil {
		return Result{}, err
	}
	raw2, err := decodeRaw(song2Path)
	if err != nil {
		return Result{}, err
	}

	track1, err := analyzer.Aggregate(ctx, o.Analyzer, song1Path)
	if err != nil {
		return Result{}, err
	}
	track2, err := analyzer.Aggregate(ctx, o.Analyzer, song2Path)
	if err != nil {
		return Result{}, err
	}

	mode := strategy.Select(track1.BPM, track2.BPM, track1.Key, track2.Key)
	o.logger().Info("selected mix strategy", "mode", mode, "bpm_a", track1.BPM, "bpm_b", track2.BPM, "key_a", track1.Key, "key_b", track2.Key)

	// Track A is always the anchor (faster, never stretched); track B is
	// always the stretched track, independent of song1/song2 input order
	// (spec §3's bpm_a/bpm_b naming assumes track A is the faster one, but
	// nothing requires the user to pass tracks in that order).
	anchorPath, stretchedPath := song1Path, song2Path
	anchorTrack, stretchedTrack := track1, track2
	rawA := raw1
	if track2.BPM > track1.BPM {
		anchorPath, stretchedPath = song2Path, song1Path
		anchorTrack, stretchedTrack = track2, track1
		rawA = raw2
	}

	targetBPM := math.Max(track1.BPM, track2.BPM)
	targetSR := rawA.SampleRate
	rate := stretch.Rate(targetBPM, math.Min(track1.BPM, track2.BPM))

	stemWorkDir := filepath.Join(o.OutputDir, "stems")
	anchorSet, err := o.Stems.Stems(ctx, anchorPath, stemWorkDir)
	if err != nil {
		return Result{}, err
	}
	stretchedSet, err := o.Stems.Stems(ctx, stretchedPath, stemWorkDir)
	if err != nil {
		return Result{}, err
	}
	stretchedSet = stretchAndResample(stretchedSet, rate, targetSR)

	geo := phrase.NewGeometry(targetBPM, targetSR)
	pts, err := buildPoints(mode, anchorTrack, stretchedTrack, rate, geo)
	if err != nil {
		return Result{}, err
	}

	if o.DumpSections {
		o.dumpSections(rawA, stretchedSet, pts)
	}

	var mixed audio.Buffer
	var score *vocalfit.Score
	switch mode {
	case strategy.Loop:
		mixed, err = loopbuilder.Build(geo, rawA, anchorSet, stretchedSet, pts, o.logger())
		if err == nil {
			mono := func(b audio.Buffer, start, end int) []float64 {
				m := b.Slice(start, min(end, b.Len())).MonoDown()
				out := make([]float64, len(m))
				for i, v := range m {
					out[i] = float64(v)
				}
				return out
			}
			s := vocalfit.Compute(
				mono(audio.Add(anchorSet.Bass, anchorSet.Drums, anchorSet.Other), pts.C1Start, pts.C1End),
				mono(anchorSet.Vocals, pts.C1Start, pts.C1End),
				mono(stretchedSet.Vocals, pts.S2C1Start, pts.S2C1End),
				targetBPM, targetSR,
				vocalfit.Options{UseDTW: o.UseDTWVocalRef},
			)
			score = &s
			o.logger().Info("vocal-fit score",
				"accent", s.Accent, "timing", s.Timing, "contour", s.Contour, "voc_ref", s.VocRef,
				"final", s.Final, "verdict", s.Verdict())
		}
	case strategy.Tight:
		mixed, err = transition.Tight(geo, rawA, anchorSet, stretchedSet, pts)
	default:
		mixed, err = transition.Loose(geo, rawA, anchorSet, stretchedSet, pts)
	}
	if err != nil {
		return Result{}, err
	}

	mixed = mixed.PeakNormalize(0.9)

	timestampSample := anchorTimestamp(mode, pts)
	name := canonicalName(song1Path, song2Path, mode, timestampSample, targetSR)

	finalPath, err := o.writeAtomically(mixed, name)
	if err != nil {
		return Result{}, err
	}

	o.logger().Info("wrote mix", "path", finalPath, "mode", mode)
	return Result{Path: finalPath, Mode: mode, Score: score}, nil
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func checkExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return mixerr.Wrap(mixerr.FileNotFound, path, err)
	}
	return nil
}

func decodeRaw(path string) (audio.Buffer, error) {
	b, err := wavio.Decode(path)
	if err != nil {
		return audio.Buffer{}, mixerr.Wrap(mixerr.DecodeError, path, err)
	}
	return b, nil
}

func stretchAndResample(s stems.Set, rate float64, targetSR int) stems.Set {
	return stems.Set{
		Bass:   stretch.Resample(stretch.Stem(s.Bass, rate), targetSR),
		Drums:  stretch.Resample(stretch.Stem(s.Drums, rate), targetSR),
		Vocals: stretch.Resample(stretch.Stem(s.Vocals, rate), targetSR),
		Other:  stretch.Resample(stretch.Stem(s.Other, rate), targetSR),
	}
}

// buildPoints converts analysis.Track timestamps (seconds, on each track's
// own original clock) into anchor.Points on the unified sample grid, per
// spec §4.4's anchor definitions, failing with PrerequisiteError when a
// section the chosen strategy needs is missing.
func buildPoints(mode strategy.Mode, anchorTrack, stretchedTrack *analysis.Track, rate float64, geo phrase.Geometry) (anchor.Points, error) {
	if len(anchorTrack.Verses) < 1 {
		return anchor.Points{}, mixerr.New(mixerr.PrerequisiteError, "track A has no verse 1")
	}
	if len(anchorTrack.Choruses) < 1 {
		return anchor.Points{}, mixerr.New(mixerr.PrerequisiteError, "track A has no chorus 1")
	}
	if len(stretchedTrack.Choruses) < 1 {
		return anchor.Points{}, mixerr.New(mixerr.PrerequisiteError, "track B has no chorus 1")
	}

	sr := geo.TargetSR
	pts := anchor.Points{
		V1Start: phrase.SecToSamp(anchorTrack.Verses[0].Start, sr),
		C1Start: phrase.SecToSamp(anchorTrack.Choruses[0].Start, sr),
		C1End:   phrase.SecToSamp(anchorTrack.Choruses[0].End, sr),

		S2C1Start: phrase.SecToSamp(phrase.FromStretchedDomain(stretchedTrack.Choruses[0].Start, rate), sr),
		S2C1End:   phrase.SecToSamp(phrase.FromStretchedDomain(stretchedTrack.Choruses[0].End, rate), sr),
	}

	pts.S2V2End = secondVerseEnd(stretchedTrack, rate, sr)

	switch mode {
	case strategy.Loop:
		afterStart, ok := verseAfterChorus(stretchedTrack, stretchedTrack.Choruses[0].End)
		if !ok {
			return anchor.Points{}, mixerr.New(mixerr.PrerequisiteError, "track B has no verse after chorus 1")
		}
		pts.S2VerseAfterChorusStart = phrase.SecToSamp(phrase.FromStretchedDomain(afterStart, rate), sr)
	case strategy.Loose:
		if len(anchorTrack.Verses) < 2 {
			return anchor.Points{}, mixerr.New(mixerr.PrerequisiteError, "loose transition requires track A to have at least 2 verses")
		}
		snapped := phrase.SnapToPhrase(anchorTrack.Verses[1].Start, geo.PhraseDur)
		pts.LooseTransStart = phrase.SecToSamp(snapped, sr)
	}

	return pts, nil
}

// secondVerseEnd returns the end of the stretched track's second verse on
// the unified grid, falling back to the end of its first verse (or zero)
// when it has fewer than two verses — tight and loose transitions only
// need *some* tail boundary on track B, unlike the loop builder's stricter
// "verse after chorus" requirement.
func secondVerseEnd(t *analysis.Track, rate float64, sr int) int {
	switch {
	case len(t.Verses) >= 2:
		return phrase.SecToSamp(phrase.FromStretchedDomain(t.Verses[1].End, rate), sr)
	case len(t.Verses) == 1:
		return phrase.SecToSamp(phrase.FromStretchedDomain(t.Verses[0].End, rate), sr)
	default:
		return 0
	}
}

func verseAfterChorus(t *analysis.Track, chorusEnd float64) (float64, bool) {
	for _, v := range t.Verses {
		if v.Start > chorusEnd {
			return v.Start, true
		}
	}
	return 0, false
}

// anchorTimestamp returns the sample index (on track A's own clock, which
// never diverges from the unified grid) the output filename's timestamp is
// derived from, per spec §6: loop uses the end of chorus 1, tight the start
// of chorus 1, loose the phrase-snapped start of verse 2 (falling back to end of chorus 1
// when the loose transition start was not computed, e.g. unreachable here
// since buildPoints already required it).
func anchorTimestamp(mode strategy.Mode, pts anchor.Points) int {
	switch mode {
	case strategy.Loop:
		return pts.C1End
	case strategy.Tight:
		return pts.C1Start
	default:
		if pts.LooseTransStart > 0 {
			return pts.LooseTransStart
		}
		return pts.C1End
	}
}

func canonicalName(song1Path, song2Path string, mode strategy.Mode, sampleIdx, sr int) string {
	stemA := stemOf(song1Path)
	stemB := stemOf(song2Path)
	seconds := float64(sampleIdx) / float64(sr)
	minutes := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%s_%s_%s_t%dm%02ds.wav", stemA, stemB, mode, minutes, secs)
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// dumpSections writes track A's verse/chorus and track B's stretched
// chorus/verse-1 sections as standalone WAV files alongside the final mix,
// for manual QA. Failures are logged, not fatal — this is a debugging aid,
// not part of the mix contract.
func (o *Orchestrator) dumpSections(rawA audio.Buffer, stretchedSet stems.Set, pts anchor.Points) {
	song1Dir := filepath.Join(o.OutputDir, "song_1")
	song2Dir := filepath.Join(o.OutputDir, "song_2")

	if err := checkBoundsDump(rawA.Len(), pts.V1Start, pts.C1End); err != nil {
		o.logger().Warn("skipping song_1 section dump", "error", err)
	} else if err := dumpWAV(song1Dir, "verse_chorus.wav", rawA.Slice(pts.V1Start, pts.C1End)); err != nil {
		o.logger().Warn("failed to write song_1 section dump", "error", err)
	}

	stretchedMix := audio.Add(stretchedSet.Bass, stretchedSet.Drums, stretchedSet.Vocals, stretchedSet.Other)
	if err := checkBoundsDump(stretchedMix.Len(), pts.S2C1Start, pts.S2V2End); err != nil {
		o.logger().Warn("skipping song_2 section dump", "error", err)
	} else if err := dumpWAV(song2Dir, "chorus_verse.wav", stretchedMix.Slice(pts.S2C1Start, pts.S2V2End)); err != nil {
		o.logger().Warn("failed to write song_2 section dump", "error", err)
	}
}

func checkBoundsDump(length, start, end int) error {
	if start < 0 || end > length || start > end {
		return fmt.Errorf("section [%d:%d) out of bounds for length %d", start, end, length)
	}
	return nil
}

func dumpWAV(dir, name string, b audio.Buffer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return wavio.Encode(filepath.Join(dir, name), b)
}

// writeAtomically renders mixed to a private, uuid-named temp directory and
// renames it into place only on success, per spec §5: "producers write to
// a private temp directory and rename on success."
func (o *Orchestrator) writeAtomically(mixed audio.Buffer, name string) (string, error) {
	mixesDir := filepath.Join(o.OutputDir, "mixes")
	if err := os.MkdirAll(mixesDir, 0o755); err != nil {
		return "", mixerr.Wrap(mixerr.IoError, "create output directory", err)
	}

	tmpDir := filepath.Join(mixesDir, ".tmp-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", mixerr.Wrap(mixerr.IoError, "create temp directory", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, name)
	if err := wavio.Encode(tmpPath, mixed); err != nil {
		return "", mixerr.Wrap(mixerr.IoError, "write output wav", err)
	}

	finalPath := filepath.Join(mixesDir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", mixerr.Wrap(mixerr.IoError, "rename output into place", err)
	}
	return finalPath, nil
}
