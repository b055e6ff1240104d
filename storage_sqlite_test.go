package egms2risk

import (
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteExporter(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "egms2risk.db")
	exporter, err := NewSQLiteExporter(fileName)
	require.NoError(t, err)
	defer exporter.Close()

	joined := []JoinedPoint{
		{
			Point:   MeasurementPoint{ID: "p1", Geom: orb.Point{600100, 750200}, Velocity: -1.5},
			Classes: []InfraClass{INFRA_RAILWAY, INFRA_ROAD},
			Primary: INFRA_RAILWAY,
		},
		{
			Point:   MeasurementPoint{ID: "p2", Geom: orb.Point{600300, 750400}, Velocity: 0.25},
			Classes: []InfraClass{INFRA_ROAD},
			Primary: INFRA_ROAD,
		},
	}
	require.NoError(t, exporter.StoreJoinedPoints(joined))

	// One row per point-class pair
	var count int
	require.NoError(t, exporter.db.QueryRow("SELECT COUNT(*) FROM joined_points").Scan(&count))
	assert.Equal(t, 3, count)

	var velocity float64
	var classes string
	require.NoError(t, exporter.db.QueryRow("SELECT velocity, classes FROM joined_points WHERE pid = 'p1' AND class = 'railway'").Scan(&velocity, &classes))
	assert.InDelta(t, -1.5, velocity, 1e-9)
	assert.Equal(t, "railway,road", classes)
}

func TestSQLiteExporterSummaries(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "egms2risk.db")
	exporter, err := NewSQLiteExporter(fileName)
	require.NoError(t, err)
	defer exporter.Close()

	records := []SummaryRecord{
		Summarize("road", []float64{-1.0, -3.0, -6.0}),
		Summarize("port", nil),
	}
	require.NoError(t, exporter.StoreSummaries(records))

	var count int
	var risk string
	require.NoError(t, exporter.db.QueryRow("SELECT count, risk_level FROM summary WHERE class = 'road'").Scan(&count, &risk))
	assert.Equal(t, 3, count)
	assert.Equal(t, "low", risk)

	// NaN statistics of the empty group are stored as NULLs
	var nulls int
	require.NoError(t, exporter.db.QueryRow("SELECT COUNT(*) FROM summary WHERE class = 'port' AND mean_velocity IS NULL").Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestSQLiteExporterReplacesOldRows(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "egms2risk.db")
	exporter, err := NewSQLiteExporter(fileName)
	require.NoError(t, err)
	joined := []JoinedPoint{
		{Point: MeasurementPoint{ID: "p1", Geom: orb.Point{0, 0}}, Classes: []InfraClass{INFRA_ROAD}, Primary: INFRA_ROAD},
	}
	require.NoError(t, exporter.StoreJoinedPoints(joined))
	require.NoError(t, exporter.Close())

	// Reopening the database drops rows of the previous run
	exporter, err = NewSQLiteExporter(fileName)
	require.NoError(t, err)
	defer exporter.Close()

	var count int
	require.NoError(t, exporter.db.QueryRow("SELECT COUNT(*) FROM joined_points").Scan(&count))
	assert.Equal(t, 0, count)
}
