package egms2risk

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BufferZone Buffer polygon derived from a single infrastructure feature.
// Source keeps the reprojected feature geometry: containment queries run
// against it with a metric distance test, the rendered Ring is written to
// the output file for visualization.
type BufferZone struct {
	FeatureID string
	Class     InfraClass
	Distance  float64
	Source    orb.Geometry
	Ring      orb.MultiPolygon
}

// ClassZone Buffer zones of one class merged for query purposes. The class
// tag is retained, geometries are not unioned: a point is inside the zone if
// it is inside any of the member buffers.
type ClassZone struct {
	Class    InfraClass
	Distance float64
	Sources  []orb.Geometry
	Coverage orb.MultiPolygon
}

// Contains reports whether the point lies inside the merged zone. Buffers
// are closed sets: a point exactly on the boundary is inside. The test is a
// metric distance test against the source geometry, not a test against the
// discretized output ring, so the convention does not depend on ring
// resolution.
func (zone ClassZone) Contains(pt orb.Point) bool {
	for _, geom := range zone.Sources {
		if sourceContains(geom, pt, zone.Distance) {
			return true
		}
	}
	return false
}

// sourceContains runs the exact containment test against a single source
// geometry. Split out of Contains so the spatial join can test only the
// candidate sources its index returned.
func sourceContains(geom orb.Geometry, pt orb.Point, distance float64) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt) || planar.DistanceFrom(g, pt) <= distance
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt) || planar.DistanceFrom(g, pt) <= distance
	default:
		return distance > 0 && planar.DistanceFrom(geom, pt) <= distance
	}
}

// BufferBuilder Builds buffer zones around infrastructure features:
// reprojects each feature into the metric CRS and expands its geometry by
// the class buffer distance
type BufferBuilder struct {
	distances   map[InfraClass]float64
	sourceCRS   CRS
	targetCRS   CRS
	capSegments int
	log         *zap.SugaredLogger
}

// NewBufferBuilder creates a BufferBuilder with default distances
// (railway 50 m, road 30 m, port 0 m) in EPSG:3035 -> EPSG:2157 mode
func NewBufferBuilder(options ...func(*BufferBuilder)) *BufferBuilder {
	builder := &BufferBuilder{
		distances:   DefaultBufferDistances,
		sourceCRS:   EPSG_3035,
		targetCRS:   EPSG_2157,
		capSegments: 8,
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithBufferDistances(distances map[InfraClass]float64) func(*BufferBuilder) {
	return func(builder *BufferBuilder) {
		builder.distances = distances
	}
}

func WithSourceCRS(crs CRS) func(*BufferBuilder) {
	return func(builder *BufferBuilder) {
		builder.sourceCRS = crs
	}
}

func WithCapSegments(capSegments int) func(*BufferBuilder) {
	return func(builder *BufferBuilder) {
		builder.capSegments = capSegments
	}
}

func WithBufferLogger(log *zap.SugaredLogger) func(*BufferBuilder) {
	return func(builder *BufferBuilder) {
		builder.log = log
	}
}

// Build reprojects the given features into the metric CRS and emits one
// BufferZone per feature plus one merged ClassZone per class. Features with
// invalid or empty geometry are skipped with a warning; an undefined CRS
// transform is fatal.
func (builder *BufferBuilder) Build(features []InfraFeature) ([]BufferZone, []ClassZone, error) {
	zones := make([]BufferZone, 0, len(features))
	merged := make(map[InfraClass]*ClassZone)
	skipped := 0

	for i := range features {
		feature := features[i]
		distance, ok := builder.distances[feature.Class]
		if !ok {
			builder.warnf("No buffer distance for class '%s', feature '%s' skipped", feature.Class, feature.ID)
			skipped++
			continue
		}
		if feature.Geom == nil {
			builder.warnf("Empty geometry, feature '%s' skipped", feature.ID)
			skipped++
			continue
		}
		projected, err := TransformGeometry(feature.Geom, builder.sourceCRS, builder.targetCRS)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Can't reproject feature '%s'", feature.ID)
		}
		ring, err := bufferGeometry(projected, distance, builder.capSegments)
		if err != nil {
			builder.warnf("Invalid geometry, feature '%s' skipped: %s", feature.ID, err.Error())
			skipped++
			continue
		}
		zone := BufferZone{
			FeatureID: feature.ID,
			Class:     feature.Class,
			Distance:  distance,
			Source:    projected,
			Ring:      ring,
		}
		zones = append(zones, zone)

		classZone, ok := merged[feature.Class]
		if !ok {
			classZone = &ClassZone{Class: feature.Class, Distance: distance}
			merged[feature.Class] = classZone
		}
		classZone.Sources = append(classZone.Sources, projected)
		classZone.Coverage = append(classZone.Coverage, ring...)
	}

	if skipped > 0 {
		builder.warnf("Skipped %d of %d features", skipped, len(features))
	}

	classZones := make([]ClassZone, 0, len(merged))
	for _, class := range classPriority {
		if classZone, ok := merged[class]; ok {
			classZones = append(classZones, *classZone)
		}
	}
	return zones, classZones, nil
}

func (builder *BufferBuilder) warnf(format string, args ...interface{}) {
	if builder.log != nil {
		builder.log.Warnf(format, args...)
	}
}

// bufferGeometry expands a single geometry by the given distance, one output
// polygon per member geometry. Zero distance is allowed for polygons only
// (the boundary is used as-is).
func bufferGeometry(geom orb.Geometry, distance float64, capSegments int) (orb.MultiPolygon, error) {
	switch g := geom.(type) {
	case orb.LineString:
		poly, err := bufferLine(g, distance, capSegments)
		if err != nil {
			return nil, err
		}
		return orb.MultiPolygon{poly}, nil
	case orb.MultiLineString:
		if len(g) == 0 {
			return nil, errors.New("Empty multiline")
		}
		out := make(orb.MultiPolygon, 0, len(g))
		for _, line := range g {
			poly, err := bufferLine(line, distance, capSegments)
			if err != nil {
				return nil, err
			}
			out = append(out, poly)
		}
		return out, nil
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) < 4 {
			return nil, errors.New("Empty or degenerate polygon")
		}
		if distance == 0 {
			return orb.MultiPolygon{{g[0]}}, nil
		}
		ring, err := bufferRing(g[0], distance)
		if err != nil {
			return nil, err
		}
		return orb.MultiPolygon{{ring}}, nil
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, errors.New("Empty multipolygon")
		}
		out := make(orb.MultiPolygon, 0, len(g))
		for _, poly := range g {
			buffered, err := bufferGeometry(poly, distance, capSegments)
			if err != nil {
				return nil, err
			}
			out = append(out, buffered...)
		}
		return out, nil
	}
	return nil, errors.Errorf("Unsupported geometry type %s", geom.GeoJSONType())
}
