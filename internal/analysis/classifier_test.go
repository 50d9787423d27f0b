package analysis

import (
	"testing"

	"github.com/Fernanda3920/smokesense/internal/domain"
)

func uniform(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassifyEmptyIsNormal(t *testing.T) {
	if got := Classify(nil); got != domain.VerdictNormal {
		t.Fatalf("empty capture: expected normal, got %s", got)
	}
	if got := Classify([]int{}); got != domain.VerdictNormal {
		t.Fatalf("empty slice: expected normal, got %s", got)
	}
}

func TestClassifyDarkFlatFrameIsSmoke(t *testing.T) {
	// mean=50, range=0
	if got := Classify(uniform(100, 50)); got != domain.VerdictSmoke {
		t.Fatalf("dark flat frame: expected smoke, got %s", got)
	}

	// mean=70 (< 80), range=10 (< 20): second rule
	px := append(uniform(50, 65), uniform(50, 75)...)
	if got := Classify(px); got != domain.VerdictSmoke {
		t.Fatalf("dim low-contrast frame: expected smoke, got %s", got)
	}
}

func TestClassifyBrightOrContrastyFrameIsNormal(t *testing.T) {
	// mean=200
	if got := Classify(uniform(100, 200)); got != domain.VerdictNormal {
		t.Fatalf("bright frame: expected normal, got %s", got)
	}

	// mean=50 but range=100
	px := append(uniform(50, 0), uniform(50, 100)...)
	if got := Classify(px); got != domain.VerdictNormal {
		t.Fatalf("dark contrasty frame: expected normal, got %s", got)
	}
}

func TestClassifyBoundariesAreStrict(t *testing.T) {
	cases := []struct {
		name   string
		pixels []int
	}{
		// mean exactly 60, range 0: first rule needs mean<60; second matches
		// only if mean<80 and range<20, so this IS smoke. Build boundaries
		// that defeat both rules instead.
		{"mean 80 range 0", uniform(10, 80)},
		{"mean 60 range 20", append(uniform(5, 50), uniform(5, 70)...)},
		{"mean 59 range 25", append(append(uniform(8, 59), 47), 72)},
	}

	for _, tc := range cases {
		if got := Classify(tc.pixels); got != domain.VerdictNormal {
			s := Stats(tc.pixels)
			t.Fatalf("%s (mean=%.2f range=%d): expected normal, got %s",
				tc.name, s.Mean, s.Range, got)
		}
	}
}

func TestStats(t *testing.T) {
	s := Stats([]int{10, 20, 30, 40})
	if s.Mean != 25 || s.Min != 10 || s.Max != 40 || s.Range != 30 {
		t.Fatalf("unexpected stats: %+v", s)
	}

	zero := Stats(nil)
	if zero != (domain.BrightnessStats{}) {
		t.Fatalf("expected zero stats for empty input, got %+v", zero)
	}
}
