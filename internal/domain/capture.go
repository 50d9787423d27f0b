package domain

import "time"

// Verdict is the outcome of classifying one camera capture.
type Verdict string

const (
	VerdictNormal Verdict = "normal"
	VerdictSmoke  Verdict = "humo"
)

// Capture is one flattened grayscale frame read from the device,
// pixels in [0,255] in row-major arrival order.
type Capture struct {
	Pixels []int
	Taken  time.Time
}

// BrightnessStats summarizes the intensity distribution of a capture.
type BrightnessStats struct {
	Mean  float64
	Min   int
	Max   int
	Range int
}

// CaptureReport is the wire payload published after classifying a capture.
// Field names follow the device's established Flespi schema.
type CaptureReport struct {
	TS        int64   `json:"ts"`
	Anomaly   Verdict `json:"anomalia"`
	Pixels    []int   `json:"imagen_datos"`
	Total     int     `json:"total_pixeles"`
	Readable  string  `json:"timestamp_legible"`
	MeanBri   float64 `json:"brillo_promedio"`
	MinBri    int     `json:"brillo_minimo"`
	MaxBri    int     `json:"brillo_maximo"`
}
