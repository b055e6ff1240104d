package egms2risk

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// PrepareWKTGeometry returns WKT representation of given geometry
func PrepareWKTGeometry(geom orb.Geometry) string {
	return wkt.MarshalString(geom)
}

// PrepareWKTPoint returns WKT representation of Point
func PrepareWKTPoint(pt orb.Point) string {
	return wkt.MarshalString(pt)
}
