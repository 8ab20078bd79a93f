package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// StemDir is a row in the stem cache index: the separated-stem output
// directory already known to hold bass/drums/vocals/other.wav for a given
// track_stem + content hash.
type StemDir struct {
	TrackStem   string
	ContentHash string
	Dir         string
}

// PutStemDir records that dir holds the complete stem set for trackStem,
// content-addressed by the source file's hash so a later invocation on the
// same bytes under a different path still hits the cache.
func (d *DB) PutStemDir(trackStem, contentHash, dir string) error {
	_, err := d.db.Exec(`
		INSERT OR IGNORE INTO stem_dirs (track_stem, content_hash, dir)
		VALUES (?, ?, ?)
	`, trackStem, contentHash, dir)
	return err
}

// GetStemDir returns the cached stem directory for trackStem/contentHash,
// or ("", false, nil) if none is indexed yet.
func (d *DB) GetStemDir(trackStem, contentHash string) (string, bool, error) {
	row := d.db.QueryRow(`
		SELECT dir FROM stem_dirs WHERE track_stem = ? AND content_hash = ?
	`, trackStem, contentHash)

	var dir string
	if err := row.Scan(&dir); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return dir, true, nil
}

// DeleteStemDirsForTrack removes every indexed stem directory for trackStem.
func (d *DB) DeleteStemDirsForTrack(trackStem string) error {
	_, err := d.db.Exec("DELETE FROM stem_dirs WHERE track_stem = ?", trackStem)
	return err
}

// HashFile returns the sha256 hex digest of the first 64KB of path, used to
// content-address a track's stem directory. Only the head of the file is
// hashed; identity, not integrity, is all the cache needs.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, 64*1024); err != nil && err != io.EOF {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
