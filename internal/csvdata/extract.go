// Package csvdata parses and persists the comma-separated pixel dumps
// emitted by the camera firmware.
package csvdata

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ExtractPixels flattens CSV rows into one ordered pixel sequence.
// Empty tokens (trailing commas, stray whitespace) are skipped; a token that
// does not parse as a decimal integer fails the whole extraction. Partial
// recovery would publish a frame the device never produced.
func ExtractPixels(lines []string) ([]int, error) {
	var out []int
	for i, line := range lines {
		for _, tok := range strings.Split(line, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad pixel token %q: %w", i+1, tok, err)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// ReadFile loads a persisted pixel dump. Blank lines and lines starting
// with '#' are ignored.
func ReadFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return ExtractPixels(lines)
}

// WriteFile persists captured CSV rows verbatim, one row per line.
func WriteFile(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
