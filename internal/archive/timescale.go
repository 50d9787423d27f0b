// Package archive persists published capture reports to TimescaleDB so
// detections can be analyzed after the fact.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Fernanda3920/smokesense/internal/domain"
	"github.com/Fernanda3920/smokesense/internal/ports"
)

type TimescaleArchive struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleArchive(db *sql.DB, table string) *TimescaleArchive {
	return &TimescaleArchive{db: db, tableName: table}
}

func (a *TimescaleArchive) Name() string { return "timescaledb" }

func (a *TimescaleArchive) WriteReports(topic string, reports []*domain.CaptureReport) error {
	if len(reports) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(a.tableName)
	b.WriteString(" (topic, ts, verdict, pixels, total_pixels, brightness_mean, brightness_min, brightness_max) VALUES ")

	args := make([]any, 0, len(reports)*8)
	for i, r := range reports {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4,
			len(args)+5, len(args)+6, len(args)+7, len(args)+8))

		pixels, err := json.Marshal(r.Pixels)
		if err != nil {
			return fmt.Errorf("marshal pixels: %w", err)
		}

		args = append(args,
			topic,
			r.TS,
			string(r.Anomaly),
			pixels,
			r.Total,
			r.MeanBri,
			r.MinBri,
			r.MaxBri,
		)
	}

	b.WriteString(" ON CONFLICT (topic, ts) DO NOTHING")

	_, err := a.db.Exec(b.String(), args...)
	return err
}

var _ ports.Archive = (*TimescaleArchive)(nil)
