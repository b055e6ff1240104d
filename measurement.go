package egms2risk

import "github.com/paulmach/orb"

// MeasurementPoint Single EGMS InSAR measurement: a 2D coordinate with the
// mean line-of-sight velocity (mm/yr, negative = subsidence) and identifying
// attributes. Immutable once loaded.
type MeasurementPoint struct {
	ID        string
	Geom      orb.Point
	Velocity  float64
	FirstDate string
	LastDate  string
}

// InfraFeature Infrastructure geometry (railway/road centerline or port
// boundary) tagged with its class
type InfraFeature struct {
	ID    string
	Class InfraClass
	Geom  orb.Geometry
}
