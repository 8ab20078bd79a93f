package camelot

import "testing"

func TestFromPitchNormalizesFlats(t *testing.T) {
	got, err := FromPitch("Db", "major")
	if err != nil {
		t.Fatalf("FromPitch: %v", err)
	}
	want := Key{3, Major}
	if got != want {
		t.Errorf("Db major = %v, want %v", got, want)
	}
}

func TestFromPitchUnknown(t *testing.T) {
	_, err := FromPitch("H", "major")
	if err == nil {
		t.Fatal("expected UnknownKeyError")
	}
	var uk *UnknownKeyError
	if !errorsAs(err, &uk) {
		t.Fatalf("expected *UnknownKeyError, got %T", err)
	}
}

func errorsAs(err error, target **UnknownKeyError) bool {
	uk, ok := err.(*UnknownKeyError)
	if ok {
		*target = uk
	}
	return ok
}

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{"1A", "12B", "8a"} {
		k, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if !k.Valid() {
			t.Errorf("Parse(%q) = %v, not valid", s, k)
		}
	}
}

func TestCompatibleAllPairs(t *testing.T) {
	var keys []Key
	for n := 1; n <= 12; n++ {
		keys = append(keys, Key{n, Minor}, Key{n, Major})
	}

	for _, a := range keys {
		for _, b := range keys {
			got := Compatible(a, b)
			want := wantCompatible(a, b)
			if got != want {
				t.Errorf("Compatible(%v, %v) = %v, want %v", a, b, got, want)
			}
		}
	}
}

// wantCompatible is a second, differently-structured implementation of the
// same rule used as an oracle for the exhaustive 24x24 check.
func wantCompatible(a, b Key) bool {
	if a.Number == b.Number && a.Letter == b.Letter {
		return true
	}
	if a.Number == b.Number && a.Letter != b.Letter {
		return true
	}
	if a.Letter == b.Letter {
		d := (a.Number - b.Number + 12) % 12
		return d == 1 || d == 11
	}
	return false
}

func TestCompatibleWrap(t *testing.T) {
	if !Compatible(Key{1, Major}, Key{12, Major}) {
		t.Error("1B and 12B should wrap-compatible")
	}
	if !Compatible(Key{12, Minor}, Key{1, Minor}) {
		t.Error("12A and 1A should wrap-compatible")
	}
}

func TestCompatibleRelativeMajorMinor(t *testing.T) {
	if !Compatible(Key{8, Major}, Key{8, Minor}) {
		t.Error("8B and 8A are relative major/minor, should be compatible")
	}
}
