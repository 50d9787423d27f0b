package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Fernanda3920/smokesense/internal/analysis"
	"github.com/Fernanda3920/smokesense/internal/app/config"
	"github.com/Fernanda3920/smokesense/internal/app/monitor"
	"github.com/Fernanda3920/smokesense/internal/capture"
	"github.com/Fernanda3920/smokesense/internal/csvdata"
	"github.com/Fernanda3920/smokesense/internal/dronesim"
	"github.com/Fernanda3920/smokesense/internal/mqttpub"
	"github.com/Fernanda3920/smokesense/internal/observability"
	"github.com/Fernanda3920/smokesense/internal/raster"
	"github.com/Fernanda3920/smokesense/internal/serialport"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "monitor":
		err = monitorCommand(os.Args[2:])
	case "read":
		err = readCommand(os.Args[2:])
	case "convert":
		err = convertCommand(os.Args[2:])
	case "dronesim":
		err = dronesimCommand(os.Args[2:])
	case "ports":
		err = portsCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("smokesense %s: %v", cmd, err)
	}
}

func monitorCommand(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m, err := monitor.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return m.Run(ctx)
}

func dronesimCommand(args []string) error {
	fs := flag.NewFlagSet("dronesim", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	obs := observability.NewPromObs()
	pub := mqttpub.New(mqttpub.Config{
		BrokerURL:      cfg.MQTT.BrokerURL,
		Token:          cfg.MQTT.Token,
		ClientID:       cfg.Drone.ClientID,
		ConnectTimeout: cfg.MQTT.ConnectTimeout(),
		PublishTimeout: cfg.MQTT.PublishTimeout(),
		KeepAlive:      cfg.MQTT.KeepAlive(),
	}, obs)

	sim := dronesim.New(dronesim.Config{
		Topic:        cfg.Drone.Topic,
		BaseLat:      cfg.Drone.BaseLat,
		BaseLon:      cfg.Drone.BaseLon,
		BaseAlt:      cfg.Drone.BaseAlt,
		Interval:     cfg.Drone.Interval(),
		AnomalyEvery: cfg.Drone.AnomalyEvery,
		StatsEvery:   cfg.Drone.StatsEvery,
		BatteryDrain: cfg.Drone.BatteryDrainPc,
	}, pub, obs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return sim.Run(ctx)
}

func convertCommand(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	in := fs.String("in", "", "Path to a captured pixel CSV file")
	width := fs.Int("width", 22, "Expected image width")
	height := fs.Int("height", 18, "Expected image height")
	scale := fs.Int("scale", 10, "Integer upscale factor")
	format := fs.String("format", "png", "Output format: png or jpeg")
	outDir := fs.String("out-dir", "./imagenes_arduino", "Output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	f, err := raster.ParseFormat(*format)
	if err != nil {
		return err
	}

	pixels, err := csvdata.ReadFile(*in)
	if err != nil {
		return err
	}

	img, err := raster.Reshape(pixels, *width, *height)
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	fmt.Printf("Read %d pixels -> %dx%d\n", len(pixels), bounds.Dx(), bounds.Dy())

	stats := analysis.Stats(pixels)
	fmt.Printf("Brightness mean=%.2f min=%d max=%d verdict=%s\n",
		stats.Mean, stats.Min, stats.Max, analysis.Classify(pixels))

	scaled := raster.Scale(img, *scale)
	path, err := raster.SaveFile(*outDir, "captura", scaled, f, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", path)
	return nil
}

func portsCommand(args []string) error {
	fs := flag.NewFlagSet("ports", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ports, err := serialport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}

	for i, p := range ports {
		line := fmt.Sprintf("%d. %s", i+1, p.Name)
		if p.Description != "" {
			line += " - " + p.Description
		}
		if p.IsUSB {
			line += fmt.Sprintf(" [USB %s:%s]", p.VID, p.PID)
		}
		fmt.Println(line)
	}
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		observability.MetricPublishedTotal:      0,
		observability.MetricPublishedSmokeTotal: 0,
		observability.MetricPublishErrorsTotal:  0,
		observability.MetricMQTTConnected:       0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] published=%.0f smoke=%.0f errors=%.0f connected=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets[observability.MetricPublishedTotal],
		targets[observability.MetricPublishedSmokeTotal],
		targets[observability.MetricPublishErrorsTotal],
		targets[observability.MetricMQTTConnected],
	)
	return nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := config.Load(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

// readCommand drives the device interactively: pick a port, then send
// protocol commands from a menu and echo whatever the firmware prints back.
func readCommand(args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	port := fs.String("port", "", "Serial port (prompts when empty)")
	baud := fs.Int("baud", 115200, "Serial baud rate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stdin := bufio.NewScanner(os.Stdin)

	name := *port
	if name == "" {
		selected, err := promptPort(stdin)
		if err != nil {
			return err
		}
		name = selected
	}

	col, err := serialport.NewCollector(serialport.Config{Port: name, BaudRate: *baud})
	if err != nil {
		return err
	}

	lines := make(chan string, 1024)
	fmt.Printf("Connecting to %s...\n", name)
	if err := col.Start(lines); err != nil {
		return err
	}
	defer col.Stop()
	fmt.Println("Connected")

	con := &console{source: col, lines: lines, stdin: stdin}
	return con.menu()
}

func promptPort(stdin *bufio.Scanner) (string, error) {
	ports, err := serialport.ListPorts()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports found")
	}

	for i, p := range ports {
		fmt.Printf("%d. %s - %s\n", i+1, p.Name, p.Description)
	}
	fmt.Print("Select port number: ")
	if !stdin.Scan() {
		return "", fmt.Errorf("no selection")
	}
	idx, err := strconv.Atoi(strings.TrimSpace(stdin.Text()))
	if err != nil || idx < 1 || idx > len(ports) {
		return "", fmt.Errorf("invalid selection %q", stdin.Text())
	}
	return ports[idx-1].Name, nil
}

type console struct {
	source *serialport.Collector
	lines  chan string
	stdin  *bufio.Scanner
}

func (c *console) menu() error {
	for {
		fmt.Println()
		fmt.Println("1. Capture image (command 1)")
		fmt.Println("2. ASCII preview (command 2)")
		fmt.Println("3. Capture CSV for ML and save to file (command 3)")
		fmt.Println("4. Image sequence (command 4)")
		fmt.Println("5. Camera test (command T)")
		fmt.Println("6. Show device menu (command M)")
		fmt.Println("7. Stream raw serial output")
		fmt.Println("8. Send custom command")
		fmt.Println("0. Quit")
		fmt.Print("Option: ")

		if !c.stdin.Scan() {
			return nil
		}

		switch strings.TrimSpace(c.stdin.Text()) {
		case "1":
			c.sendAndEcho("1")
		case "2":
			c.sendAndEcho("2")
		case "3":
			if err := c.captureCSV(); err != nil {
				fmt.Printf("capture failed: %v\n", err)
			}
		case "4":
			c.sendAndEcho("4")
		case "5":
			c.sendAndEcho("T")
		case "6":
			c.sendAndEcho("M")
		case "7":
			c.stream()
		case "8":
			fmt.Print("Command to send: ")
			if c.stdin.Scan() {
				c.sendAndEcho(strings.TrimSpace(c.stdin.Text()))
			}
		case "0":
			fmt.Println("Closing connection")
			return nil
		default:
			fmt.Println("Invalid option")
		}
	}
}

// sendAndEcho sends one command and echoes device output for a bounded
// window.
func (c *console) sendAndEcho(cmd string) {
	if err := c.source.SendCommand(cmd); err != nil {
		fmt.Printf("send failed: %v\n", err)
		return
	}
	fmt.Printf("Sent: %s\n", cmd)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return
			}
			fmt.Println(line)
		case <-deadline:
			return
		}
	}
}

// stream echoes raw serial lines until interrupted.
func (c *console) stream() {
	fmt.Println("Streaming serial output, Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()

	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return
			}
			fmt.Println(line)
		case <-ctx.Done():
			fmt.Println("\nStream stopped")
			return
		}
	}
}

// captureCSV runs one framed capture and writes the raw rows to a
// timestamped file.
func (c *console) captureCSV() error {
	name := fmt.Sprintf("captura_%s.csv", time.Now().Format("20060102_150405"))
	fmt.Printf("Capturing CSV image to %s\n", name)

	sess := &capture.Session{
		Source:  c.source,
		Lines:   c.lines,
		Command: "3",
		Timeout: 10 * time.Second,
	}
	rows, err := sess.Run(context.Background())
	if err != nil {
		return err
	}

	if err := csvdata.WriteFile(name, rows); err != nil {
		return err
	}
	fmt.Printf("Saved %d rows to %s\n", len(rows), name)
	return nil
}

func printUsage() {
	fmt.Printf(`smokesense CLI

Usage:
  smokesense <command> [flags]

Commands:
  monitor    Capture camera frames over serial, classify them, publish to MQTT
  read       Interactive serial console for the camera device
  convert    Convert a captured pixel CSV into a PNG or JPEG image
  dronesim   Publish simulated drone telemetry with periodic anomalies
  ports      List serial ports visible to the host
  stats      Poll the Prometheus metrics endpoint and print live counters
  validate   Load and validate a config file without starting anything

Examples:
  smokesense monitor -config ./config.yaml
  smokesense read -port /dev/ttyACM0
  smokesense convert -in captura_20260314_092653.csv -width 22 -height 18
  smokesense dronesim -config ./config.yaml
`)
}
