package store

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmpshapes/internal/models"
)

func sampleRows() []models.DescriptorRow {
	return []models.DescriptorRow{
		{
			ParticleNumber: 0, ContourNumber: 0, GlobalContour: 0,
			AreaFromMoment: 12, PolygonArea: 12, ArcLength: 14.5,
			FeretX: 5, FeretY: 6, Convexity: 1, AspectRatio: 1.25, Elongation: 999,
		},
		{
			ParticleNumber: 1, ContourNumber: 2, GlobalContour: 1,
			AreaFromMoment: 0, PolygonArea: 0, ArcLength: 2,
			FeretX: 5, FeretY: 5, Convexity: math.NaN(), AspectRatio: 0.5, Elongation: 1.75,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "particle_shapes.csv")

	sink, err := NewCSVSink(path)
	require.NoError(t, err)
	for _, r := range sampleRows() {
		require.NoError(t, sink.WriteRow(r))
	}
	require.NoError(t, sink.Close())

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, []string{"0", "0", "12", "12", "14.5", "5", "6", "1", "1.25", "999"}, records[1])
	assert.Equal(t, []string{"1", "2", "0", "0", "2", "5", "5", "NaN", "0.5", "1.75"}, records[2])
}

func TestCSVSinkTruncatesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "particle_shapes.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,data\n1,2\n3,4\n"), 0644))

	sink, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	records := readCSV(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, Columns, records[0])
}

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.db")

	sink, err := NewSQLiteSink(path, "T1_1.pmp")
	require.NoError(t, err)
	require.NotEmpty(t, sink.RunID)
	for _, r := range sampleRows() {
		require.NoError(t, sink.WriteRow(r))
	}
	require.NoError(t, sink.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var input string
	require.NoError(t, db.QueryRow(`SELECT input_path FROM runs WHERE run_id = ?`, sink.RunID).Scan(&input))
	assert.Equal(t, "T1_1.pmp", input)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM contour_descriptors WHERE run_id = ?`, sink.RunID).Scan(&count))
	assert.Equal(t, 2, count)

	var convexity sql.NullFloat64
	var elongation float64
	require.NoError(t, db.QueryRow(
		`SELECT convexity, elongation FROM contour_descriptors WHERE run_id = ? AND global_contour = 1`,
		sink.RunID).Scan(&convexity, &elongation))
	assert.False(t, convexity.Valid)
	assert.Equal(t, 1.75, elongation)

	// A second run appends under its own identifier
	again, err := NewSQLiteSink(path, "T1_2.pmp")
	require.NoError(t, err)
	assert.NotEqual(t, sink.RunID, again.RunID)
	require.NoError(t, again.Close())
}

type failingSink struct{ MemorySink }

func (f *failingSink) WriteRow(models.DescriptorRow) error { return errors.New("disk full") }

func TestMultiSink(t *testing.T) {
	a, b := &MemorySink{}, &MemorySink{}
	m := MultiSink{a, b}
	for _, r := range sampleRows() {
		require.NoError(t, m.WriteRow(r))
	}
	require.NoError(t, m.Close())

	assert.Equal(t, sampleRows()[0], a.Rows[0])
	assert.Len(t, b.Rows, 2)
	assert.True(t, a.Closed)
	assert.True(t, b.Closed)

	bad := MultiSink{&MemorySink{}, &failingSink{}}
	assert.Error(t, bad.WriteRow(sampleRows()[0]))
}
