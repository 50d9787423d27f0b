// Package capture implements the sentinel-delimited CSV block protocol the
// camera firmware speaks over its serial console.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Fernanda3920/smokesense/internal/ports"
)

// ErrNoData is returned when the end marker never arrives within the capture
// window, or when the block closes without any data lines.
var ErrNoData = errors.New("capture: no data captured")

// Block markers printed by the firmware around a CSV dump. The firmware also
// prints bare "===" separator rules, which double as a start marker.
const (
	startMarker    = "INICIO DATOS CSV"
	startSeparator = "==="
	endMarker      = "FIN DATOS CSV"
	endPrompt      = "Copia estos datos"
)

func isStart(line string) bool {
	return strings.Contains(line, startMarker) || strings.Contains(line, startSeparator)
}

func isEnd(line string) bool {
	return strings.Contains(line, endMarker) || strings.Contains(line, endPrompt)
}

func isData(line string) bool {
	return strings.Contains(line, ",") && !strings.HasPrefix(line, "#")
}

// Collect reads lines until the block's end marker and returns the data lines
// observed strictly between the start and end markers. The wait is bounded by
// timeout; reads block on the channel instead of polling. A closed channel or
// cancelled context aborts the capture.
func Collect(ctx context.Context, lines <-chan string, timeout time.Duration) ([]string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var data []string
	capturing := false

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: end marker not seen within %s", ErrNoData, timeout)
		case line, ok := <-lines:
			if !ok {
				return nil, fmt.Errorf("%w: line source closed", ErrNoData)
			}
			if isStart(line) {
				capturing = true
				continue
			}
			if isEnd(line) {
				if len(data) == 0 {
					return nil, ErrNoData
				}
				return data, nil
			}
			if capturing && isData(line) {
				data = append(data, line)
			}
		}
	}
}

// Session drives one capture against a live device: drain whatever is still
// buffered, request a CSV dump, then collect the block.
type Session struct {
	Source  ports.LineSource
	Lines   <-chan string
	Command string
	Timeout time.Duration
}

// Run executes the session and returns the captured data lines.
func (s *Session) Run(ctx context.Context) ([]string, error) {
	drain(s.Lines)

	cmd := s.Command
	if cmd == "" {
		cmd = "3"
	}
	if err := s.Source.SendCommand(cmd); err != nil {
		return nil, fmt.Errorf("request capture: %w", err)
	}

	return Collect(ctx, s.Lines, s.Timeout)
}

// drain discards lines left over from a previous exchange so stale markers
// cannot open this capture.
func drain(lines <-chan string) {
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
