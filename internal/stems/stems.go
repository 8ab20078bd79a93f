// Package stems implements the stem-set model and the separator cache
// lookup contract of spec §6: four named stereo stems per track (bass,
// drums, vocals, other), obtained from a cache directory when present or by
// invoking an external source-separation process otherwise.
package stems

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cartomix/mixcore/internal/audio"
	"github.com/cartomix/mixcore/internal/mixerr"
	"github.com/cartomix/mixcore/internal/storage"
	"github.com/cartomix/mixcore/internal/wavio"
)

// Name identifies one of the four stems a separator produces.
type Name string

const (
	Bass   Name = "bass"
	Drums  Name = "drums"
	Vocals Name = "vocals"
	Other  Name = "other"
)

// All is the complete stem set a track must have before it can enter any
// transition or loop builder.
var All = mapset.NewSet(Bass, Drums, Vocals, Other)

// Set holds the four separated stems for one track, all sharing the
// track's native sample rate until the Tempo/Resample stage runs.
type Set struct {
	Bass, Drums, Vocals, Other audio.Buffer
}

// Mid returns vocals+other, the "mid" band used by every multi-band
// crossfade (spec §3 invariant 4: low+mid+high == sum of all four stems).
func (s Set) Mid() audio.Buffer {
	return audio.Add(s.Vocals, s.Other)
}

// Low is an alias for Bass, named for the band role it plays in crossfades.
func (s Set) Low() audio.Buffer { return s.Bass }

// High is an alias for Drums, named for the band role it plays in crossfades.
func (s Set) High() audio.Buffer { return s.Drums }

// Separator invokes an external source-separation process that writes
// {outDir}/htdemucs/{trackStem}/{bass,drums,vocals,other}.wav (spec §6).
type Separator interface {
	Separate(ctx context.Context, wavPath, outDir string) error
}

// ExternalSeparator shells out to a configured command, e.g. htdemucs's CLI,
// the way analyzer.Client shells out to the bpm/key/chorus/verse estimators.
type ExternalSeparator struct {
	Command []string
}

// Separate runs Command with wavPath and "-o" outDir appended.
func (s ExternalSeparator) Separate(ctx context.Context, wavPath, outDir string) error {
	if len(s.Command) == 0 {
		return fmt.Errorf("stems: no separator command configured")
	}
	args := append(append([]string{}, s.Command[1:]...), "-o", outDir, wavPath)
	cmd := exec.CommandContext(ctx, s.Command[0], args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("stems: separator failed: %w: %s", err, out)
	}
	return nil
}

// Store resolves the complete Set for a WAV file, consulting the cache
// before invoking the separator.
type Store struct {
	Separator Separator
	Index     *storage.DB // optional; nil disables the sqlite-backed index
}

// Stems returns the complete stem Set for wavPath, reusing outDir's sibling
// directories (and, when an Index is configured, the sqlite stem-dir index)
// before falling back to Separator.Separate.
func (s Store) Stems(ctx context.Context, wavPath, outDir string) (Set, error) {
	trackStem := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))

	if dir, ok, err := s.lookupIndexed(wavPath, trackStem); err != nil {
		return Set{}, mixerr.Wrap(mixerr.IoError, fmt.Sprintf("stem-cache index lookup for %s", wavPath), err)
	} else if ok {
		return load(dir)
	}

	if dir, ok := scanSiblings(outDir, trackStem); ok {
		s.index(wavPath, trackStem, dir)
		return load(dir)
	}

	if s.Separator == nil {
		return Set{}, mixerr.New(mixerr.PrerequisiteError, fmt.Sprintf("no cached stems and no separator configured for %s", wavPath))
	}
	if err := s.Separator.Separate(ctx, wavPath, outDir); err != nil {
		return Set{}, mixerr.Wrap(mixerr.IoError, fmt.Sprintf("separate %s", wavPath), err)
	}
	dir := filepath.Join(outDir, "htdemucs", trackStem)
	if !hasAll(dir) {
		return Set{}, mixerr.New(mixerr.PrerequisiteError, fmt.Sprintf("separator did not produce all four stems for %s", wavPath))
	}
	s.index(wavPath, trackStem, dir)
	return load(dir)
}

func (s Store) lookupIndexed(wavPath, trackStem string) (string, bool, error) {
	if s.Index == nil {
		return "", false, nil
	}
	hash, err := storage.HashFile(wavPath)
	if err != nil {
		return "", false, err
	}
	dir, ok, err := s.Index.GetStemDir(trackStem, hash)
	if err != nil || !ok {
		return "", false, err
	}
	if !hasAll(dir) {
		return "", false, nil
	}
	return dir, true, nil
}

func (s Store) index(wavPath, trackStem, dir string) {
	if s.Index == nil {
		return
	}
	if hash, err := storage.HashFile(wavPath); err == nil {
		_ = s.Index.PutStemDir(trackStem, hash, dir)
	}
}

// scanSiblings implements spec §6's cache lookup: scan every sibling
// directory of outDir and return the first one containing all four stem
// files for trackStem.
func scanSiblings(outDir, trackStem string) (string, bool) {
	parent := filepath.Dir(outDir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(parent, e.Name(), "htdemucs", trackStem)
		if hasAll(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func hasAll(dir string) bool {
	for name := range All.Iter() {
		if _, err := os.Stat(filepath.Join(dir, string(name)+".wav")); err != nil {
			return false
		}
	}
	return true
}

func load(dir string) (Set, error) {
	found := mapset.NewSet[Name]()
	buffers := make(map[Name]audio.Buffer, 4)
	for name := range All.Iter() {
		b, err := wavio.Decode(filepath.Join(dir, string(name)+".wav"))
		if err != nil {
			return Set{}, mixerr.Wrap(mixerr.DecodeError, fmt.Sprintf("decode %s stem in %s", name, dir), err)
		}
		buffers[name] = b
		found.Add(name)
	}
	if !All.IsSubset(found) {
		missing := All.Difference(found)
		return Set{}, mixerr.New(mixerr.PrerequisiteError, fmt.Sprintf("stem set at %s missing %v", dir, missing))
	}
	return Set{
		Bass:   buffers[Bass],
		Drums:  buffers[Drums],
		Vocals: buffers[Vocals],
		Other:  buffers[Other],
	}, nil
}
