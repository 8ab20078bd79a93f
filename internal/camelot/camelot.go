// Package camelot implements the Camelot wheel harmonic key model: the
// bijective mapping between musical key/mode and a (number, letter) wheel
// position, and the compatibility rules DJs use to decide whether two keys
// mix cleanly.
package camelot

import (
	"fmt"
	"strings"
)

// Letter is the Camelot ring: B for major keys, A for minor keys.
type Letter byte

const (
	Minor Letter = 'A'
	Major Letter = 'B'
)

func (l Letter) String() string { return string(l) }

// Key is a position on the 24-key Camelot wheel.
type Key struct {
	Number int // 1..12
	Letter Letter
}

func (k Key) String() string {
	return fmt.Sprintf("%d%c", k.Number, k.Letter)
}

// Valid reports whether k is a well-formed wheel position.
func (k Key) Valid() bool {
	return k.Number >= 1 && k.Number <= 12 && (k.Letter == Minor || k.Letter == Major)
}

// enharmonics normalizes flat spellings to their sharp equivalent before
// table lookup, per spec §4.1.
var enharmonics = map[string]string{
	"Db": "C#", "Eb": "D#", "Gb": "F#", "Ab": "G#", "Bb": "A#",
	"Fb": "E", "Cb": "B",
}

type pitchMode struct {
	pitch string
	mode  string // "major" | "minor"
}

// table is the fixed, bijective mapping from (pitch, mode) to wheel position.
var table = map[pitchMode]Key{
	{"B", "major"}:  {1, Major},
	{"F#", "major"}: {2, Major},
	{"C#", "major"}: {3, Major},
	{"G#", "major"}: {4, Major},
	{"D#", "major"}: {5, Major},
	{"A#", "major"}: {6, Major},
	{"F", "major"}:  {7, Major},
	{"C", "major"}:  {8, Major},
	{"G", "major"}:  {9, Major},
	{"D", "major"}:  {10, Major},
	{"A", "major"}:  {11, Major},
	{"E", "major"}:  {12, Major},

	{"G#", "minor"}: {1, Minor},
	{"D#", "minor"}: {2, Minor},
	{"A#", "minor"}: {3, Minor},
	{"F", "minor"}:  {4, Minor},
	{"C", "minor"}:  {5, Minor},
	{"G", "minor"}:  {6, Minor},
	{"D", "minor"}:  {7, Minor},
	{"A", "minor"}:  {8, Minor},
	{"E", "minor"}:  {9, Minor},
	{"B", "minor"}:  {10, Minor},
	{"F#", "minor"}: {11, Minor},
	{"C#", "minor"}: {12, Minor},
}

// UnknownKeyError is returned by FromPitch when the (pitch, mode) pair is not
// in the fixed Camelot table.
type UnknownKeyError struct {
	Pitch string
	Mode  string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("camelot: unknown key %q %q", e.Pitch, e.Mode)
}

// FromPitch converts a pitch class name (e.g. "Db", "F#") and mode
// ("major"/"minor") into a Camelot Key, normalizing enharmonic flats to
// sharps first. Returns UnknownKeyError for unrecognized input.
func FromPitch(pitch, mode string) (Key, error) {
	pitch = strings.TrimSpace(pitch)
	mode = strings.ToLower(strings.TrimSpace(mode))
	if sharp, ok := enharmonics[pitch]; ok {
		pitch = sharp
	}
	k, ok := table[pitchMode{pitch, mode}]
	if !ok {
		return Key{}, &UnknownKeyError{Pitch: pitch, Mode: mode}
	}
	return k, nil
}

// Parse reads a literal Camelot coordinate such as "8A" or "12B".
func Parse(s string) (Key, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Key{}, fmt.Errorf("camelot: invalid coordinate %q", s)
	}
	letter := Letter(s[len(s)-1])
	if letter != Minor && letter != Major {
		return Key{}, fmt.Errorf("camelot: invalid ring letter in %q", s)
	}
	var n int
	if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &n); err != nil {
		return Key{}, fmt.Errorf("camelot: invalid number in %q: %w", s, err)
	}
	k := Key{Number: n, Letter: letter}
	if !k.Valid() {
		return Key{}, fmt.Errorf("camelot: out-of-range coordinate %q", s)
	}
	return k, nil
}

// Compatible reports whether two wheel positions mix harmonically, per
// spec §4.1: identical key, adjacent on the same ring (wrapping 12<->1), or
// relative major/minor (same number, opposite letter).
func Compatible(a, b Key) bool {
	if a == b {
		return true
	}
	if a.Letter == b.Letter {
		diff := a.Number - b.Number
		if diff < 0 {
			diff = -diff
		}
		if diff == 1 || diff == 11 {
			return true
		}
		return false
	}
	return a.Number == b.Number
}
