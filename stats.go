package egms2risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Velocity magnitude (mm/yr) below which a point is considered stable
const stableVelocity = 2.0

// SummaryRecord Descriptive statistics of one velocity group. All float
// statistics are NaN when the group is empty; Risk is RISK_UNDEFINED then.
type SummaryRecord struct {
	Group          string
	Count          int
	MeanVelocity   float64
	MedianVelocity float64
	StdVelocity    float64
	MinVelocity    float64
	MaxVelocity    float64
	Range          float64
	PctSubsiding   float64
	PctUplifting   float64
	PctStable      float64
	Risk           RiskLevel
}

// Summarize computes descriptive statistics over a velocity sample.
// Velocities are signed (negative = subsidence); stability and risk are
// evaluated on the absolute magnitude. An empty sample yields NaN statistics
// and RISK_UNDEFINED rather than a division by zero.
func Summarize(group string, velocities []float64) SummaryRecord {
	record := SummaryRecord{Group: group, Count: len(velocities)}
	if len(velocities) == 0 {
		record.MeanVelocity = math.NaN()
		record.MedianVelocity = math.NaN()
		record.StdVelocity = math.NaN()
		record.MinVelocity = math.NaN()
		record.MaxVelocity = math.NaN()
		record.Range = math.NaN()
		record.PctSubsiding = math.NaN()
		record.PctUplifting = math.NaN()
		record.PctStable = math.NaN()
		record.Risk = RISK_UNDEFINED
		return record
	}

	sorted := make([]float64, len(velocities))
	copy(sorted, velocities)
	sort.Float64s(sorted)

	record.MeanVelocity = stat.Mean(sorted, nil)
	// LinInterp matches the usual midpoint median for even-sized samples
	record.MedianVelocity = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	record.StdVelocity = stat.StdDev(sorted, nil)
	record.MinVelocity = sorted[0]
	record.MaxVelocity = sorted[len(sorted)-1]
	record.Range = record.MaxVelocity - record.MinVelocity

	subsiding, uplifting, stable := 0, 0, 0
	for _, v := range velocities {
		if v < 0 {
			subsiding++
		}
		if v > 0 {
			uplifting++
		}
		if math.Abs(v) <= stableVelocity {
			stable++
		}
	}
	total := float64(len(velocities))
	record.PctSubsiding = 100.0 * float64(subsiding) / total
	record.PctUplifting = 100.0 * float64(uplifting) / total
	record.PctStable = 100.0 * float64(stable) / total

	record.Risk = getRiskLevel(record.MeanVelocity)
	return record
}

// SummarizeClasses groups joined points by infrastructure class and computes
// one SummaryRecord per class in fixed priority order. Multi-label policy: a
// point inside buffers of several classes contributes to each of them. A
// class with no matched points still gets a record (with NaN statistics).
func SummarizeClasses(joined []JoinedPoint) []SummaryRecord {
	groups := make(map[InfraClass][]float64)
	for i := range joined {
		for _, class := range joined[i].Classes {
			groups[class] = append(groups[class], joined[i].Point.Velocity)
		}
	}
	records := make([]SummaryRecord, 0, len(classPriority))
	for _, class := range classPriority {
		records = append(records, Summarize(class.String(), groups[class]))
	}
	return records
}

// BaselineSummary computes the summary over the full unfiltered point set
// for comparison against the per-class records
func BaselineSummary(points []MeasurementPoint) SummaryRecord {
	velocities := make([]float64, len(points))
	for i := range points {
		velocities[i] = points[i].Velocity
	}
	return Summarize("baseline", velocities)
}

// ComparisonRecord Per-class mean velocity against the full-dataset baseline
type ComparisonRecord struct {
	Group         string
	MeanVelocity  float64
	BaselineMean  float64
	Difference    float64
	PctDifference float64
	Assessment    string
}

// CompareToBaseline produces one comparison row per summary record
func CompareToBaseline(records []SummaryRecord, baseline SummaryRecord) []ComparisonRecord {
	out := make([]ComparisonRecord, 0, len(records))
	for _, record := range records {
		comparison := ComparisonRecord{
			Group:        record.Group,
			MeanVelocity: record.MeanVelocity,
			BaselineMean: baseline.MeanVelocity,
			Difference:   record.MeanVelocity - baseline.MeanVelocity,
		}
		if baseline.MeanVelocity != 0 && !math.IsNaN(baseline.MeanVelocity) {
			comparison.PctDifference = 100.0 * comparison.Difference / math.Abs(baseline.MeanVelocity)
		} else {
			comparison.PctDifference = math.NaN()
		}
		switch {
		case math.IsNaN(comparison.Difference):
			comparison.Assessment = "no data"
		case math.Abs(comparison.MeanVelocity) < math.Abs(comparison.BaselineMean):
			comparison.Assessment = "more stable than baseline"
		case math.Abs(comparison.MeanVelocity) > math.Abs(comparison.BaselineMean):
			comparison.Assessment = "less stable than baseline"
		default:
			comparison.Assessment = "matches baseline"
		}
		out = append(out, comparison)
	}
	return out
}

// RiskAssessment Per-class risk classification with a recommended action
type RiskAssessment struct {
	Group        string
	MeanVelocity float64
	MaxVelocity  float64
	PctStable    float64
	Risk         RiskLevel
	Action       string
}

// riskActions Recommended action per risk level
var riskActions = map[RiskLevel]string{
	RISK_UNDEFINED: "no data, nothing to assess",
	RISK_STABLE:    "continue routine monitoring",
	RISK_LOW:       "continue routine monitoring",
	RISK_MEDIUM:    "increased monitoring recommended",
	RISK_HIGH:      "detailed investigation required",
}

// AssessRisk produces one risk assessment row per summary record
func AssessRisk(records []SummaryRecord) []RiskAssessment {
	out := make([]RiskAssessment, 0, len(records))
	for _, record := range records {
		out = append(out, RiskAssessment{
			Group:        record.Group,
			MeanVelocity: record.MeanVelocity,
			MaxVelocity:  record.MaxVelocity,
			PctStable:    record.PctStable,
			Risk:         record.Risk,
			Action:       riskActions[record.Risk],
		})
	}
	return out
}
