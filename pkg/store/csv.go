package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"pmpshapes/internal/models"
)

// CSVSink writes descriptor rows to a CSV file with a single header row
type CSVSink struct {
	file *os.File
	w    *csv.Writer
}

// NewCSVSink truncates or creates path and writes the header
func NewCSVSink(path string) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create csv directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create csv file: %w", err)
	}

	s := &CSVSink{file: f, w: csv.NewWriter(f)}
	if err := s.w.Write(Columns); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	return s, nil
}

// WriteRow appends one row
func (s *CSVSink) WriteRow(row models.DescriptorRow) error {
	return s.w.Write(FormatRow(row))
}

// Close flushes buffered rows and closes the file
func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return s.file.Close()
}

// FormatRow renders a row as CSV fields in column order
func FormatRow(row models.DescriptorRow) []string {
	return []string{
		strconv.Itoa(row.ParticleNumber),
		strconv.Itoa(row.ContourNumber),
		formatFloat(row.AreaFromMoment),
		formatFloat(row.PolygonArea),
		formatFloat(row.ArcLength),
		strconv.Itoa(row.FeretX),
		strconv.Itoa(row.FeretY),
		formatFloat(row.Convexity),
		formatFloat(row.AspectRatio),
		formatFloat(row.Elongation),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
