package egms2risk

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
)

// GeometryFormat Output format of the geometry column in CSV files
type GeometryFormat uint16

const (
	GEOMETRY_WKT = GeometryFormat(iota + 1)
	GEOMETRY_GEOJSON
)

func (iotaIdx GeometryFormat) String() string {
	return [...]string{"wkt", "geojson"}[iotaIdx-1]
}

// GetGeometryFormat parses a format name ('wkt' / 'geojson'), zero for unknown
func GetGeometryFormat(str string) GeometryFormat {
	switch str {
	case "wkt":
		return GEOMETRY_WKT
	case "geojson":
		return GEOMETRY_GEOJSON
	}
	return 0
}

// PrepareGeometryString renders the geometry in the requested format
func PrepareGeometryString(geom orb.Geometry, format GeometryFormat) string {
	if format == GEOMETRY_GEOJSON {
		return PrepareGeoJSONGeometry(geom)
	}
	return PrepareWKTGeometry(geom)
}

// PrepareGeoJSONGeometry returns GeoJSON representation of given geometry
func PrepareGeoJSONGeometry(geom orb.Geometry) string {
	var g *geojson.Geometry
	switch typed := geom.(type) {
	case orb.Point:
		g = geojson.NewPointGeometry(pointToFloats(typed))
	case orb.LineString:
		g = geojson.NewLineStringGeometry(lineToFloats(typed))
	case orb.MultiLineString:
		lines := make([][][]float64, len(typed))
		for i := range typed {
			lines[i] = lineToFloats(typed[i])
		}
		g = geojson.NewMultiLineStringGeometry(lines...)
	case orb.Polygon:
		g = geojson.NewPolygonGeometry(polygonToFloats(typed))
	case orb.MultiPolygon:
		polygons := make([][][][]float64, len(typed))
		for i := range typed {
			polygons[i] = polygonToFloats(typed[i])
		}
		g = geojson.NewMultiPolygonGeometry(polygons...)
	default:
		fmt.Printf("Warning. Unsupported geometry type for geojson conversion: %s\n", geom.GeoJSONType())
		return ""
	}
	b, err := g.MarshalJSON()
	if err != nil {
		fmt.Printf("Warning. Can not convert geometry to geojson format: %s\n", err.Error())
		return ""
	}
	return string(b)
}

func pointToFloats(pt orb.Point) []float64 {
	return []float64{pt[0], pt[1]}
}

func lineToFloats(line orb.LineString) [][]float64 {
	out := make([][]float64, len(line))
	for i := range line {
		out[i] = pointToFloats(line[i])
	}
	return out
}

func polygonToFloats(polygon orb.Polygon) [][][]float64 {
	out := make([][][]float64, len(polygon))
	for i := range polygon {
		out[i] = lineToFloats(orb.LineString(polygon[i]))
	}
	return out
}
