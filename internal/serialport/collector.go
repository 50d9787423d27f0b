// Package serialport streams newline-terminated text from the camera device.
package serialport

import (
	"bufio"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/Fernanda3920/smokesense/internal/ports"
)

// Config captures the details required to open the device port.
type Config struct {
	Port       string
	BaudRate   int
	SettleWait time.Duration
}

func (c *Config) ApplyDefaults() {
	if c.BaudRate <= 0 {
		c.BaudRate = 115200
	}
	if c.SettleWait <= 0 {
		// boards reset on open; give the bootloader time to get out of the way
		c.SettleWait = 2 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	return nil
}

// Collector owns the serial port and feeds its lines to the pipeline.
type Collector struct {
	cfg Config

	mu      sync.Mutex
	port    serial.Port
	started bool
	wg      sync.WaitGroup
	closing chan struct{}
}

func NewCollector(cfg Config) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Collector{cfg: cfg}, nil
}

// Start opens the port and launches the reader goroutine. Lines arrive on out
// trimmed of their terminator; out is closed when the reader exits.
func (c *Collector) Start(out chan<- string) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("serial collector already started")
	}
	c.mu.Unlock()

	mode := &serial.Mode{
		BaudRate: c.cfg.BaudRate,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		DataBits: 8,
	}

	port, err := serial.Open(c.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", c.cfg.Port, err)
	}

	// keep the board from re-resetting mid-session
	_ = port.SetDTR(false)
	_ = port.SetRTS(false)
	time.Sleep(c.cfg.SettleWait)

	c.mu.Lock()
	c.port = port
	c.started = true
	c.closing = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consume(port, out)
	return nil
}

// SendCommand writes one newline-terminated command to the device.
func (c *Collector) SendCommand(cmd string) error {
	c.mu.Lock()
	port := c.port
	started := c.started
	c.mu.Unlock()

	if !started {
		return fmt.Errorf("serial collector not started")
	}
	if _, err := port.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("send command %q: %w", cmd, err)
	}
	return nil
}

// Stop closes the port and waits for the reader goroutine.
func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	port := c.port
	closing := c.closing
	c.started = false
	c.port = nil
	c.mu.Unlock()

	close(closing)
	err := port.Close()
	c.wg.Wait()
	return err
}

func (c *Collector) consume(port serial.Port, out chan<- string) {
	defer c.wg.Done()
	defer close(out)

	sc := bufio.NewScanner(port)
	sc.Buffer(make([]byte, 0, 4096), 256*1024)
	for sc.Scan() {
		select {
		case <-c.closing:
			return
		case out <- sc.Text():
		}
	}
	// scanner errors on port close; nothing to report once we are stopping
	select {
	case <-c.closing:
	default:
		if err := sc.Err(); err != nil {
			out <- fmt.Sprintf("# serial read error: %v", err)
		}
	}
}

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	Name         string
	Description  string
	IsUSB        bool
	VID, PID     string
	SerialNumber string
}

// ListPorts enumerates the serial ports visible to the host.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:         d.Name,
			Description:  d.Product,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
		})
	}
	return out, nil
}

var _ ports.LineSource = (*Collector)(nil)
