package session

import (
	"errors"
	"reflect"
	"testing"
)

func TestZeroSessionNavigation(t *testing.T) {
	var s Session
	if _, err := s.Advance(); !errors.Is(err, ErrNoImages) {
		t.Errorf("Advance on empty session: expected ErrNoImages, got %v", err)
	}
	if _, err := s.Retreat(); !errors.Is(err, ErrNoImages) {
		t.Errorf("Retreat on empty session: expected ErrNoImages, got %v", err)
	}
	if s.Index() != -1 {
		t.Errorf("Expected index -1, got %d", s.Index())
	}
}

func TestEmptyFolderIsTerminal(t *testing.T) {
	s := New("/photos", nil)
	if !s.Empty() {
		t.Error("Expected empty session")
	}
	if _, ok := s.Current(); ok {
		t.Error("Empty session should have no current image")
	}
	if _, err := s.Advance(); !errors.Is(err, ErrNoImages) {
		t.Errorf("Expected ErrNoImages, got %v", err)
	}
}

func TestAdvanceClampsAtLast(t *testing.T) {
	s := New("/photos", []string{"a.jpg", "b.jpg"})

	m, err := s.Advance()
	if err != nil {
		t.Fatal(err)
	}
	if m.Index != 1 || m.Image != "b.jpg" || m.AtBoundary {
		t.Errorf("Unexpected move: %+v", m)
	}

	m, err = s.Advance()
	if err != nil {
		t.Fatalf("Advance at last index should not fail: %v", err)
	}
	if !m.AtBoundary || m.Index != 1 || s.Index() != 1 {
		t.Errorf("Expected clamped boundary move at 1, got %+v (index %d)", m, s.Index())
	}
}

func TestRetreatClampsAtFirst(t *testing.T) {
	s := New("/photos", []string{"a.jpg", "b.jpg"})

	m, err := s.Retreat()
	if err != nil {
		t.Fatalf("Retreat at index 0 should not fail: %v", err)
	}
	if !m.AtBoundary || m.Index != 0 || m.Image != "a.jpg" {
		t.Errorf("Expected boundary at 0, got %+v", m)
	}
}

func TestRemoveActiveDetaches(t *testing.T) {
	s := New("/photos", []string{"a.jpg", "b.jpg", "c.jpg"})
	if _, err := s.Advance(); err != nil {
		t.Fatal(err)
	}

	if !s.Remove("b.jpg") {
		t.Fatal("Remove should report success")
	}
	if got := s.Images(); !reflect.DeepEqual(got, []string{"a.jpg", "c.jpg"}) {
		t.Errorf("Removed image still pending: %v", got)
	}
	if cur, _ := s.Current(); cur != "b.jpg" || !s.Detached() {
		t.Errorf("Removed image should stay active and detached, got %q detached=%v", cur, s.Detached())
	}
	if s.Index() != 1 {
		t.Errorf("Index should stay within bounds, got %d", s.Index())
	}

	m, err := s.Advance()
	if err != nil {
		t.Fatal(err)
	}
	if m.Image != "c.jpg" || m.AtBoundary {
		t.Errorf("Advance after removal should land on successor, got %+v", m)
	}
}

func TestRemoveActiveThenRetreat(t *testing.T) {
	s := New("/photos", []string{"a.jpg", "b.jpg", "c.jpg"})
	_, _ = s.Advance()
	s.Remove("b.jpg")

	m, err := s.Retreat()
	if err != nil {
		t.Fatal(err)
	}
	if m.Image != "a.jpg" || m.AtBoundary {
		t.Errorf("Retreat after removal should land on predecessor, got %+v", m)
	}
}

func TestRemoveLastActive(t *testing.T) {
	s := New("/photos", []string{"a.jpg", "b.jpg"})
	_, _ = s.Advance()
	s.Remove("b.jpg")

	if s.Index() != 0 {
		t.Errorf("Index should clamp to 0, got %d", s.Index())
	}
	m, err := s.Advance()
	if err != nil {
		t.Fatal(err)
	}
	if !m.AtBoundary || m.Image != "a.jpg" {
		t.Errorf("Expected boundary onto a.jpg, got %+v", m)
	}
}

func TestRemoveOnlyImage(t *testing.T) {
	s := New("/photos", []string{"a.jpg"})
	s.Remove("a.jpg")

	if !s.Empty() || s.Index() != -1 {
		t.Errorf("Expected empty session, index %d", s.Index())
	}
	if cur, ok := s.Current(); !ok || cur != "a.jpg" {
		t.Errorf("Committed image should remain active, got %q", cur)
	}
	if _, err := s.Advance(); !errors.Is(err, ErrNoImages) {
		t.Errorf("Expected ErrNoImages, got %v", err)
	}
}

func TestRemoveBeforeCursor(t *testing.T) {
	s := New("/photos", []string{"a.jpg", "b.jpg", "c.jpg"})
	_, _ = s.Advance()
	_, _ = s.Advance()

	s.Remove("a.jpg")
	if cur, _ := s.Current(); cur != "c.jpg" || s.Index() != 1 || s.Detached() {
		t.Errorf("Cursor should follow c.jpg, got %q at %d", cur, s.Index())
	}
	if s.Remove("zzz.jpg") {
		t.Error("Removing an unknown image should report false")
	}
	if want := []string{"b.jpg", "c.jpg"}; !reflect.DeepEqual(s.Images(), want) {
		t.Errorf("Images() = %v, want %v", s.Images(), want)
	}
}

func TestDimensionsResetOnMove(t *testing.T) {
	s := New("/photos", []string{"a.jpg", "b.jpg"})
	s.SetDimensions(640, 480)

	_, _ = s.Retreat()
	if w, h := s.Dimensions(); w != 640 || h != 480 {
		t.Errorf("Dimensions should survive staying on the same image, got %dx%d", w, h)
	}

	_, _ = s.Advance()
	if w, h := s.Dimensions(); w != 0 || h != 0 {
		t.Errorf("Dimensions should reset on image change, got %dx%d", w, h)
	}
}
