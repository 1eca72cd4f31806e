// Package store persists descriptor rows.
package store

import (
	"errors"

	"pmpshapes/internal/models"
)

// Columns is the fixed order of descriptor columns
var Columns = []string{
	"particle_number",
	"contour_number",
	"area_from_moment",
	"fancy_area",
	"arch_length",
	"feret_x",
	"feret_y",
	"convexity",
	"aspect_ratio",
	"elongation",
}

// Sink receives descriptor rows in emission order
type Sink interface {
	WriteRow(row models.DescriptorRow) error
	Close() error
}

// MultiSink fans rows out to several sinks
type MultiSink []Sink

// WriteRow writes the row to every sink, stopping at the first failure
func (m MultiSink) WriteRow(row models.DescriptorRow) error {
	for _, s := range m {
		if err := s.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// MemorySink keeps rows in memory
type MemorySink struct {
	Rows   []models.DescriptorRow
	Closed bool
}

// WriteRow appends the row to Rows
func (s *MemorySink) WriteRow(row models.DescriptorRow) error {
	s.Rows = append(s.Rows, row)
	return nil
}

// Close marks the sink closed
func (s *MemorySink) Close() error {
	s.Closed = true
	return nil
}
