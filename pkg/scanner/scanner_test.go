package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanSetDifference(t *testing.T) {
	root := t.TempDir()
	src, dst := filepath.Join(root, "src"), filepath.Join(root, "Images")
	touch(t, src, "a.jpg", "b.jpg", "c.jpg")
	touch(t, dst, "a.jpg", "b.jpg")

	got, err := New().Scan(src, dst)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if want := []string{"c.jpg"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScanFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	touch(t, src, "zeta.PNG", "alpha.jpeg", "mid.JPG", "notes.txt", "anim.gif", "pic.webp")

	got, err := New().Scan(src, filepath.Join(root, "missing"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"alpha.jpeg", "mid.JPG", "zeta.PNG"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScanIdempotent(t *testing.T) {
	root := t.TempDir()
	src, dst := filepath.Join(root, "src"), filepath.Join(root, "dst")
	touch(t, src, "3.png", "1.png", "2.jpg")
	touch(t, dst, "2.jpg")

	s := New()
	first, err := s.Scan(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scan(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Scan not idempotent: %v vs %v", first, second)
	}
}

func TestScanAllStored(t *testing.T) {
	root := t.TempDir()
	src, dst := filepath.Join(root, "src"), filepath.Join(root, "dst")
	touch(t, src, "a.png")
	touch(t, dst, "a.png")

	got, err := New().Scan(src, dst)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no pending images, got %v", got)
	}
}

func TestScanMissingSource(t *testing.T) {
	if _, err := New().Scan(filepath.Join(t.TempDir(), "nope"), t.TempDir()); err == nil {
		t.Error("Expected error for missing source folder")
	}
}

func TestNewWithFormats(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	touch(t, src, "a.webp", "b.jpg")

	got, err := NewWithFormats([]string{"webp"}).Scan(src, filepath.Join(root, "dst"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.webp"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}

	if f := NewWithFormats(nil).Formats(); len(f) != 3 {
		t.Errorf("Expected default formats, got %v", f)
	}
}
