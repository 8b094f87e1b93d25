package quire

import "testing"

func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()
	if len(id1) != 36 {
		t.Errorf("expected 36 chars (UUIDv7), got %d: %s", len(id1), id1)
	}
	if id1 == id2 {
		t.Error("two IDs should be unique")
	}
	if id1 >= id2 {
		t.Error("sequential UUIDv7s should be time-ordered")
	}
}

func TestNewIDFragment(t *testing.T) {
	frag := NewIDFragment(6)
	if len(frag) != 6 {
		t.Errorf("expected 6 chars, got %d: %s", len(frag), frag)
	}
	if NewIDFragment(6) == frag {
		t.Error("two fragments should differ")
	}
	if got := NewIDFragment(0); len(got) != 8 {
		t.Errorf("zero length should default to 8, got %d", len(got))
	}
	if got := NewIDFragment(100); len(got) != 32 {
		t.Errorf("oversized request should clamp to 32, got %d", len(got))
	}
}
