package analysis

import "github.com/Fernanda3920/smokesense/internal/domain"

// Stats computes the brightness distribution of a flattened capture.
// An empty input yields the zero stats.
func Stats(pixels []int) domain.BrightnessStats {
	if len(pixels) == 0 {
		return domain.BrightnessStats{}
	}

	sum := 0
	min, max := pixels[0], pixels[0]
	for _, p := range pixels {
		sum += p
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}

	return domain.BrightnessStats{
		Mean:  float64(sum) / float64(len(pixels)),
		Min:   min,
		Max:   max,
		Range: max - min,
	}
}

// Classify applies the static smoke heuristic: a dark frame with a flattened
// dynamic range reads as smoke. Comparisons are strict; the boundary values
// themselves are normal. An empty capture is normal.
func Classify(pixels []int) domain.Verdict {
	if len(pixels) == 0 {
		return domain.VerdictNormal
	}

	s := Stats(pixels)
	if s.Mean < 60 && s.Range < 25 {
		return domain.VerdictSmoke
	}
	if s.Mean < 80 && s.Range < 20 {
		return domain.VerdictSmoke
	}
	return domain.VerdictNormal
}
