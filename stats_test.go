package egms2risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	record := Summarize("road", []float64{-1.0, -3.0, -6.0})
	assert.Equal(t, "road", record.Group)
	assert.Equal(t, 3, record.Count)
	assert.InDelta(t, -3.3333, record.MeanVelocity, 1e-3)
	assert.InDelta(t, -3.0, record.MedianVelocity, 1e-9)
	assert.InDelta(t, 2.5166, record.StdVelocity, 1e-3)
	assert.InDelta(t, -6.0, record.MinVelocity, 1e-9)
	assert.InDelta(t, -1.0, record.MaxVelocity, 1e-9)
	assert.InDelta(t, 5.0, record.Range, 1e-9)
	assert.InDelta(t, 100.0, record.PctSubsiding, 1e-9)
	assert.InDelta(t, 0.0, record.PctUplifting, 1e-9)
	assert.InDelta(t, 33.3333, record.PctStable, 1e-3)
	assert.Equal(t, RISK_LOW, record.Risk)
}

func TestSummarizeMedianEvenCount(t *testing.T) {
	// Even-sized sample: the median is the midpoint of the two middle values
	record := Summarize("road", []float64{-1.0, -2.0, -3.0, -4.0})
	assert.InDelta(t, -2.5, record.MedianVelocity, 1e-9)

	record = Summarize("road", []float64{1.0, 2.0})
	assert.InDelta(t, 1.5, record.MedianVelocity, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	record := Summarize("railway", nil)
	assert.Equal(t, 0, record.Count)
	assert.True(t, math.IsNaN(record.MeanVelocity))
	assert.True(t, math.IsNaN(record.MedianVelocity))
	assert.True(t, math.IsNaN(record.StdVelocity))
	assert.True(t, math.IsNaN(record.PctStable))
	assert.Equal(t, RISK_UNDEFINED, record.Risk)
}

func TestSummarizeClasses(t *testing.T) {
	joined := []JoinedPoint{
		{Point: MeasurementPoint{ID: "p1", Velocity: -1.0}, Classes: []InfraClass{INFRA_ROAD}, Primary: INFRA_ROAD},
		{Point: MeasurementPoint{ID: "p2", Velocity: -3.0}, Classes: []InfraClass{INFRA_RAILWAY, INFRA_ROAD}, Primary: INFRA_RAILWAY},
		{Point: MeasurementPoint{ID: "p3", Velocity: -6.0}, Classes: []InfraClass{INFRA_ROAD}, Primary: INFRA_ROAD},
	}
	records := SummarizeClasses(joined)
	require.Len(t, records, 3)

	assert.Equal(t, "railway", records[0].Group)
	assert.Equal(t, 1, records[0].Count)
	assert.InDelta(t, -3.0, records[0].MeanVelocity, 1e-9)

	// Multi-label grouping: point p2 counts for the road group too
	assert.Equal(t, "road", records[1].Group)
	assert.Equal(t, 3, records[1].Count)
	assert.InDelta(t, -3.3333, records[1].MeanVelocity, 1e-3)

	// Class with no matched points still gets a record
	assert.Equal(t, "port", records[2].Group)
	assert.Equal(t, 0, records[2].Count)
	assert.True(t, math.IsNaN(records[2].MeanVelocity))
	assert.Equal(t, RISK_UNDEFINED, records[2].Risk)
}

func TestSummarizeDeterministic(t *testing.T) {
	joined := []JoinedPoint{
		{Point: MeasurementPoint{ID: "p1", Velocity: -1.0}, Classes: []InfraClass{INFRA_RAILWAY}},
		{Point: MeasurementPoint{ID: "p2", Velocity: -2.0}, Classes: []InfraClass{INFRA_RAILWAY}},
		{Point: MeasurementPoint{ID: "p3", Velocity: 2.5}, Classes: []InfraClass{INFRA_ROAD}},
		{Point: MeasurementPoint{ID: "p4", Velocity: 3.5}, Classes: []InfraClass{INFRA_ROAD}},
		{Point: MeasurementPoint{ID: "p5", Velocity: -0.5}, Classes: []InfraClass{INFRA_PORT}},
		{Point: MeasurementPoint{ID: "p6", Velocity: 0.5}, Classes: []InfraClass{INFRA_PORT}},
	}
	first := SummarizeClasses(joined)
	second := SummarizeClasses(joined)
	require.Equal(t, first, second)
}

func TestRiskLevels(t *testing.T) {
	cases := []struct {
		mean     float64
		expected RiskLevel
	}{
		{0.0, RISK_STABLE},
		{1.99, RISK_STABLE},
		{2.0, RISK_LOW},
		{-3.0, RISK_LOW},
		{5.0, RISK_MEDIUM},
		{-9.99, RISK_MEDIUM},
		{10.0, RISK_HIGH},
		{-25.0, RISK_HIGH},
		{math.NaN(), RISK_UNDEFINED},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, getRiskLevel(c.mean), "mean %f", c.mean)
	}
}

func TestCompareToBaseline(t *testing.T) {
	baseline := Summarize("baseline", []float64{-1.0, -1.0})
	records := []SummaryRecord{
		Summarize("road", []float64{-3.0, -3.0}),
		Summarize("railway", []float64{-0.5, -0.5}),
		Summarize("port", nil),
	}
	comparisons := CompareToBaseline(records, baseline)
	require.Len(t, comparisons, 3)

	assert.InDelta(t, -2.0, comparisons[0].Difference, 1e-9)
	assert.InDelta(t, -200.0, comparisons[0].PctDifference, 1e-9)
	assert.Equal(t, "less stable than baseline", comparisons[0].Assessment)

	assert.Equal(t, "more stable than baseline", comparisons[1].Assessment)

	assert.True(t, math.IsNaN(comparisons[2].Difference))
	assert.Equal(t, "no data", comparisons[2].Assessment)
}

func TestAssessRisk(t *testing.T) {
	records := []SummaryRecord{
		Summarize("road", []float64{-12.0, -14.0}),
		Summarize("railway", []float64{-1.0, 1.0}),
		Summarize("port", nil),
	}
	assessments := AssessRisk(records)
	require.Len(t, assessments, 3)

	assert.Equal(t, RISK_HIGH, assessments[0].Risk)
	assert.Equal(t, "detailed investigation required", assessments[0].Action)

	assert.Equal(t, RISK_STABLE, assessments[1].Risk)
	assert.Equal(t, "continue routine monitoring", assessments[1].Action)

	assert.Equal(t, RISK_UNDEFINED, assessments[2].Risk)
	assert.Equal(t, "no data, nothing to assess", assessments[2].Action)
}

func TestBaselineSummary(t *testing.T) {
	points := []MeasurementPoint{
		{ID: "p1", Velocity: -2.0},
		{ID: "p2", Velocity: 0.0},
		{ID: "p3", Velocity: 2.0},
	}
	baseline := BaselineSummary(points)
	assert.Equal(t, "baseline", baseline.Group)
	assert.Equal(t, 3, baseline.Count)
	assert.InDelta(t, 0.0, baseline.MeanVelocity, 1e-9)
	assert.InDelta(t, 100.0, baseline.PctStable, 1e-9)
	assert.Equal(t, RISK_STABLE, baseline.Risk)
}
