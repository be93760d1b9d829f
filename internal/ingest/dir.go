package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jengzang/flight-schedule-go/internal/models"
	"github.com/jengzang/flight-schedule-go/internal/period"
)

// DirSource loads raw period files named YEAR_MONTH.csv from a directory
type DirSource struct {
	Dir string
}

// NewDirSource creates a source rooted at dir
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// Path returns the file backing period p
func (s *DirSource) Path(p period.Period) string {
	return filepath.Join(s.Dir, p.FileName())
}

// Load reads all records of period p
func (s *DirSource) Load(ctx context.Context, p period.Period) ([]models.FlightRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open period %s: %w", p, err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("period %s: %w", p, err)
	}
	return records, nil
}

// LoadDistances reads only the route and distance columns of period p
func (s *DirSource) LoadDistances(ctx context.Context, p period.Period) ([]models.FlightRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(p))
	if err != nil {
		return nil, fmt.Errorf("failed to open period %s: %w", p, err)
	}
	defer f.Close()

	records, err := ReadRouteDistances(f)
	if err != nil {
		return nil, fmt.Errorf("period %s: %w", p, err)
	}
	return records, nil
}

// DirSink writes cleaned period files into a directory, replacing any
// previous file for the same period.
type DirSink struct {
	Dir string
}

// NewDirSink creates a sink rooted at dir
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Store writes flights for period p. The file is written next to its final
// name and renamed into place so readers never see a partial file.
func (s *DirSink) Store(ctx context.Context, p period.Period, flights []models.CleanFlight) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	final := filepath.Join(s.Dir, p.FileName())
	tmp, err := os.CreateTemp(s.Dir, p.FileName()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteFlights(tmp, flights); err != nil {
		tmp.Close()
		return fmt.Errorf("period %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", final, err)
	}
	return nil
}
