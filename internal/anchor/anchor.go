// Package anchor holds the sample-domain transition anchors shared by the
// Transition Builders and the Loop Builder (spec §4.4, §4.5): every field
// is already expressed in samples on the unified grid, meaning any anchor
// taken from the stretched track has already been divided by stretch_rate
// and converted with phrase.SecToSamp at target_sr.
package anchor

// Points are the anchors one mix assembly needs. Track A is always the
// anchor track (never stretched); track B is always the stretched track.
// Which user-supplied input plays which role is an Orchestrator decision,
// independent of output filename ordering.
type Points struct {
	V1Start int // track A, verse 1 start
	C1Start int // track A, chorus 1 start
	C1End   int // track A, chorus 1 end

	S2C1Start int // track B, chorus 1 start
	S2C1End   int // track B, chorus 1 end
	S2V2End   int // track B, verse 2 end

	// S2VerseAfterChorusStart is the start of the first verse in track B
	// beginning after S2C1End (spec §4.5 step 4, "s2v"). Only the Loop
	// builder uses it.
	S2VerseAfterChorusStart int

	// LooseTransStart is snap_to_phrase(verse_a[1].start) (spec §4.4c).
	// Only the Loose builder uses it.
	LooseTransStart int
}
