package mixerr

import (
	"errors"
	"testing"
)

func TestWrapNilIsNil(t *testing.T) {
	if Wrap(IoError, "op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestKindOfUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(PrerequisiteError, "find chorus", base)

	kind, ok := KindOf(err)
	if !ok || kind != PrerequisiteError {
		t.Fatalf("KindOf = %v, %v; want PrerequisiteError, true", kind, ok)
	}
	if !errors.Is(err, base) {
		t.Error("errors.Is should see through to the wrapped cause")
	}
}

func TestIsBySentinel(t *testing.T) {
	err := New(UnknownKey, "parse key")
	if !errors.Is(err, Sentinel(UnknownKey)) {
		t.Error("errors.Is(err, Sentinel(UnknownKey)) should be true")
	}
	if errors.Is(err, Sentinel(DecodeError)) {
		t.Error("errors.Is(err, Sentinel(DecodeError)) should be false")
	}
}
