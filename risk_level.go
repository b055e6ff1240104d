package egms2risk

import "math"

// RiskLevel Categorical classification of mean ground velocity magnitude
type RiskLevel uint16

const (
	RISK_UNDEFINED = RiskLevel(iota)
	RISK_STABLE
	RISK_LOW
	RISK_MEDIUM
	RISK_HIGH
)

func (iotaIdx RiskLevel) String() string {
	return [...]string{"undefined", "stable", "low", "medium", "high"}[iotaIdx]
}

// Velocity magnitude thresholds (mm/yr) separating risk levels
const (
	riskStableMax = 2.0
	riskLowMax    = 5.0
	riskMediumMax = 10.0
)

// getRiskLevel classifies absolute value of mean velocity (mm/yr) into RiskLevel.
// NaN (empty group) maps to RISK_UNDEFINED.
func getRiskLevel(meanVelocity float64) RiskLevel {
	if math.IsNaN(meanVelocity) {
		return RISK_UNDEFINED
	}
	v := math.Abs(meanVelocity)
	switch {
	case v < riskStableMax:
		return RISK_STABLE
	case v < riskLowMax:
		return RISK_LOW
	case v < riskMediumMax:
		return RISK_MEDIUM
	default:
		return RISK_HIGH
	}
}
