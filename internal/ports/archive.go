package ports

import "github.com/Fernanda3920/smokesense/internal/domain"

// Archive persists published capture reports for later analysis.
type Archive interface {
	WriteReports(topic string, reports []*domain.CaptureReport) error
	Name() string
}
