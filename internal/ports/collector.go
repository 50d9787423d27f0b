package ports

// LineSource streams newline-terminated text from a device into the pipeline
// and accepts single-character commands sent upstream.
type LineSource interface {
	Start(out chan<- string) error
	SendCommand(cmd string) error
	Stop() error
}
