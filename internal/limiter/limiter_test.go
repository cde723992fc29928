package limiter

import "testing"

func TestSingleSlot(t *testing.T) {
	s := New(1)
	release, ok := s.Allow()
	if !ok {
		t.Fatal("Expected first Allow to succeed")
	}
	if !s.Busy() {
		t.Error("Expected busy while held")
	}
	if _, ok := s.Allow(); ok {
		t.Fatal("Expected second Allow to be refused")
	}

	release()
	release()
	if s.Busy() {
		t.Error("Expected free after release")
	}
	if r, ok := s.Allow(); !ok {
		t.Fatal("Expected Allow after release")
	} else {
		r()
	}
}

func TestZeroMeansOne(t *testing.T) {
	s := New(0)
	r, ok := s.Allow()
	if !ok {
		t.Fatal("Expected a slot")
	}
	defer r()
	if _, ok := s.Allow(); ok {
		t.Error("Expected only one slot")
	}
}
