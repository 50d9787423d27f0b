package csvdata

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractPixelsFlattensInOrder(t *testing.T) {
	got, err := ExtractPixels([]string{"1,2,3", "4,5"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := []int{1, 2, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractPixelsSkipsEmptyTokens(t *testing.T) {
	got, err := ExtractPixels([]string{"10, 20,", " 30 ,40"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := []int{10, 20, 30, 40}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractPixelsFailsWholeExtractionOnBadToken(t *testing.T) {
	got, err := ExtractPixels([]string{"1,2", "3,x,5"})
	if err == nil {
		t.Fatalf("expected error for malformed token, got %v", got)
	}
	if got != nil {
		t.Fatalf("expected no partial result, got %v", got)
	}
}

func TestExtractPixelsEmptyInput(t *testing.T) {
	got, err := ExtractPixels(nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestReadFileIgnoresCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.csv")
	data := "# capture 2026-01-01\n120,130\n\n140,150\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	want := []int{120, 130, 140, 150}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	lines := []string{"1,2,3", "4,5,6"}
	if err := WriteFile(path, lines); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := []int{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
