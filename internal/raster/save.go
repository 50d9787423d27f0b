package raster

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"
)

// SaveFile writes the image under dir as <base>_<timestamp>.<ext>, creating
// the directory if needed, and returns the written path.
func SaveFile(dir, base string, img *image.Gray, f Format, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), f.Ext())
	path := filepath.Join(dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return "", fmt.Errorf("encode %s: %w", f, err)
	}
	return path, out.Close()
}
