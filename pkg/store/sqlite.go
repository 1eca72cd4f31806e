package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pmpshapes/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	input_path  TEXT NOT NULL,
	started_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS contour_descriptors (
	run_id           TEXT NOT NULL REFERENCES runs(run_id),
	global_contour   INTEGER NOT NULL,
	particle_number  INTEGER NOT NULL,
	contour_number   INTEGER NOT NULL,
	area_from_moment REAL,
	fancy_area       REAL,
	arch_length      REAL,
	feret_x          INTEGER,
	feret_y          INTEGER,
	convexity        REAL,
	aspect_ratio     REAL,
	elongation       REAL,
	PRIMARY KEY (run_id, global_contour)
);`

// SQLiteSink stores descriptor rows of one run in a SQLite database.
// Rows are written inside a single transaction committed on Close.
type SQLiteSink struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	RunID string
}

// NewSQLiteSink opens (or creates) the database at path and registers a new run
func NewSQLiteSink(path, inputPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteSink{db: db, RunID: uuid.New().String()}
	if _, err := db.Exec(`INSERT INTO runs (run_id, input_path, started_at) VALUES (?, ?, ?)`,
		s.RunID, inputPath, time.Now().UnixNano()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	s.tx, err = db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.stmt, err = s.tx.Prepare(`INSERT INTO contour_descriptors (
		run_id, global_contour, particle_number, contour_number,
		area_from_moment, fancy_area, arch_length, feret_x, feret_y,
		convexity, aspect_ratio, elongation
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		s.tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	return s, nil
}

// WriteRow inserts one row
func (s *SQLiteSink) WriteRow(row models.DescriptorRow) error {
	_, err := s.stmt.Exec(
		s.RunID, row.GlobalContour, row.ParticleNumber, row.ContourNumber,
		nullable(row.AreaFromMoment), nullable(row.PolygonArea), nullable(row.ArcLength),
		row.FeretX, row.FeretY,
		nullable(row.Convexity), nullable(row.AspectRatio), nullable(row.Elongation),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contour %d: %w", row.GlobalContour, err)
	}
	return nil
}

// Close commits the run and closes the database
func (s *SQLiteSink) Close() error {
	s.stmt.Close()
	if err := s.tx.Commit(); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to commit descriptors: %w", err)
	}
	return s.db.Close()
}

// nullable maps NaN and infinities to NULL
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
