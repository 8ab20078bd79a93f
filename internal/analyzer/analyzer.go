package analyzer

import (
	"context"
	"fmt"

	"github.com/cartomix/mixcore/internal/analysis"
	"github.com/cartomix/mixcore/internal/camelot"
	"github.com/cartomix/mixcore/internal/mixerr"
)

// Analyzer produces the four pure per-track signals spec §6 requires of an
// external collaborator: bpm, key, choruses and verses. Each is a separate,
// separately failable call; Aggregate stops at the first one that fails.
type Analyzer interface {
	BPM(ctx context.Context, path string) (float64, error)
	Key(ctx context.Context, path string) (camelot.Key, error)
	Choruses(ctx context.Context, path string) ([]analysis.Section, error)
	Verses(ctx context.Context, path string) ([]analysis.Section, error)
}

// Aggregate calls all four Analyzer methods for path and assembles an
// analysis.Track, validating bpm range (spec §3: bpm in [60, 200], rounded
// to 2 decimals) before returning.
func Aggregate(ctx context.Context, a Analyzer, path string) (*analysis.Track, error) {
	bpm, err := a.BPM(ctx, path)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.BpmOutOfRange, fmt.Sprintf("bpm %s", path), err)
	}
	if bpm < 60.0 || bpm > 200.0 {
		return nil, mixerr.New(mixerr.BpmOutOfRange, fmt.Sprintf("bpm %s = %.2f out of [60, 200]", path, bpm))
	}

	key, err := a.Key(ctx, path)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.UnknownKey, fmt.Sprintf("key %s", path), err)
	}

	choruses, err := a.Choruses(ctx, path)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.DecodeError, fmt.Sprintf("choruses %s", path), err)
	}

	verses, err := a.Verses(ctx, path)
	if err != nil {
		return nil, mixerr.Wrap(mixerr.DecodeError, fmt.Sprintf("verses %s", path), err)
	}

	return &analysis.Track{
		BPM:      roundTo2(bpm),
		Key:      key,
		Choruses: choruses,
		Verses:   verses,
	}, nil
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
