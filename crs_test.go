package egms2risk

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestProjectionOrigins(t *testing.T) {
	// At the projection origin both series collapse, so the false
	// easting/northing must come back exactly.
	x, y := laeaEurope.forward(10.0, 52.0)
	if math.Abs(x-4321000.0) > 1e-6 {
		t.Errorf("EPSG:3035 origin easting should be %f, but got %f", 4321000.0, x)
	}
	if math.Abs(y-3210000.0) > 1e-6 {
		t.Errorf("EPSG:3035 origin northing should be %f, but got %f", 3210000.0, y)
	}

	x, y = irishTM.forward(-8.0, 53.5)
	if math.Abs(x-600000.0) > 1e-6 {
		t.Errorf("EPSG:2157 origin easting should be %f, but got %f", 600000.0, x)
	}
	if math.Abs(y-750000.0) > 1e-6 {
		t.Errorf("EPSG:2157 origin northing should be %f, but got %f", 750000.0, y)
	}
}

func TestLAEARoundTrip(t *testing.T) {
	pts := [][2]float64{
		{-6.2603, 53.3498}, // Dublin
		{-8.4706, 51.8985}, // Cork
		{10.0, 52.0},       // projection origin
		{2.3522, 48.8566},  // Paris
	}
	for _, pt := range pts {
		x, y := laeaEurope.forward(pt[0], pt[1])
		lon, lat := laeaEurope.inverse(x, y)
		if math.Abs(lon-pt[0]) > 1e-9 {
			t.Errorf("Longitude should be %f, but got %f", pt[0], lon)
		}
		if math.Abs(lat-pt[1]) > 1e-9 {
			t.Errorf("Latitude should be %f, but got %f", pt[1], lat)
		}
	}
}

func TestITMRoundTrip(t *testing.T) {
	pts := [][2]float64{
		{-6.2603, 53.3498},
		{-8.0, 53.5},
		{-6.1, 53.2},
	}
	for _, pt := range pts {
		x, y := irishTM.forward(pt[0], pt[1])
		lon, lat := irishTM.inverse(x, y)
		if math.Abs(lon-pt[0]) > 1e-8 {
			t.Errorf("Longitude should be %f, but got %f", pt[0], lon)
		}
		if math.Abs(lat-pt[1]) > 1e-8 {
			t.Errorf("Latitude should be %f, but got %f", pt[1], lat)
		}
	}
}

func TestTransformChain(t *testing.T) {
	// EPSG:3035 -> EPSG:2157 -> EPSG:3035 for a point near Dublin. The
	// chain goes through geographic coordinates twice and should come
	// back within a millimeter.
	dublin := orb.Point{-6.2603, 53.3498}
	src, err := Transform(dublin, EPSG_4326, EPSG_3035)
	if err != nil {
		t.Error(err)
		return
	}
	itm, err := Transform(src, EPSG_3035, EPSG_2157)
	if err != nil {
		t.Error(err)
		return
	}
	back, err := Transform(itm, EPSG_2157, EPSG_3035)
	if err != nil {
		t.Error(err)
		return
	}
	if math.Abs(back[0]-src[0]) > 1e-3 {
		t.Errorf("Easting should be %f, but got %f", src[0], back[0])
	}
	if math.Abs(back[1]-src[1]) > 1e-3 {
		t.Errorf("Northing should be %f, but got %f", src[1], back[1])
	}
}

func TestWebMercator(t *testing.T) {
	x, y := epsg4326To3857(0.0, 0.0)
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("Origin should map to (0, 0), but got (%f, %f)", x, y)
	}
	x, _ = epsg4326To3857(180.0, 0.0)
	if math.Abs(x-mercatorR) > 1e-2 {
		t.Errorf("Easting of the antimeridian should be %f, but got %f", mercatorR, x)
	}
	lon, lat := epsg3857To4326(epsg4326To3857(-6.2603, 53.3498))
	if math.Abs(lon-(-6.2603)) > 1e-9 {
		t.Errorf("Longitude should be %f, but got %f", -6.2603, lon)
	}
	if math.Abs(lat-53.3498) > 1e-9 {
		t.Errorf("Latitude should be %f, but got %f", 53.3498, lat)
	}
}

func TestTransformUndefinedCRS(t *testing.T) {
	_, err := Transform(orb.Point{0, 0}, CRS(9999), EPSG_4326)
	if err == nil {
		t.Errorf("Transform from EPSG:9999 should fail")
	}
	_, err = Transform(orb.Point{0, 0}, EPSG_4326, CRS(9999))
	if err == nil {
		t.Errorf("Transform to EPSG:9999 should fail")
	}
}

func TestTransformGeometry(t *testing.T) {
	line := orb.LineString{{-6.3, 53.3}, {-6.2, 53.4}}
	geom, err := TransformGeometry(line, EPSG_4326, EPSG_2157)
	if err != nil {
		t.Error(err)
		return
	}
	projected, ok := geom.(orb.LineString)
	if !ok {
		t.Errorf("Geometry type should be LineString, but got %s", geom.GeoJSONType())
		return
	}
	if len(projected) != len(line) {
		t.Errorf("Number of points should be %d, but got %d", len(line), len(projected))
	}
	// Input must not be mutated
	if line[0][0] != -6.3 {
		t.Errorf("Source geometry should be untouched, but got %f", line[0][0])
	}
	back, err := TransformGeometry(projected, EPSG_2157, EPSG_4326)
	if err != nil {
		t.Error(err)
		return
	}
	for i, pt := range back.(orb.LineString) {
		if math.Abs(pt[0]-line[i][0]) > 1e-8 {
			t.Errorf("Longitude should be %f, but got %f", line[i][0], pt[0])
		}
		if math.Abs(pt[1]-line[i][1]) > 1e-8 {
			t.Errorf("Latitude should be %f, but got %f", line[i][1], pt[1])
		}
	}
}
