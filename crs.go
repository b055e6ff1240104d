package egms2risk

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// CRS EPSG code of a coordinate reference system
type CRS int

const (
	EPSG_4326 = CRS(4326) // ETRS89 / WGS84 geographic (lon/lat degrees)
	EPSG_3035 = CRS(3035) // ETRS89-extended / LAEA Europe (meters)
	EPSG_2157 = CRS(2157) // IRENET95 / Irish Transverse Mercator (meters)
	EPSG_3857 = CRS(3857) // WGS84 / Pseudo-Mercator (meters)
)

func (crs CRS) String() string {
	return fmt.Sprintf("EPSG:%d", int(crs))
}

// GRS80 ellipsoid (ETRS89 datum)
const (
	ellipsoidA = 6378137.0
	ellipsoidF = 1.0 / 298.257222101

	pi180    = math.Pi / 180.0
	pi180Rev = 180.0 / math.Pi

	// Spherical pseudo-mercator extent, meters
	mercatorR = 20037508.34
)

var (
	ellipsoidE2 = ellipsoidF * (2.0 - ellipsoidF)
	ellipsoidE  = math.Sqrt(ellipsoidE2)
	// Second eccentricity squared
	ellipsoidEp2 = ellipsoidE2 / (1.0 - ellipsoidE2)
)

func degreesToRadians(d float64) float64 {
	return d * pi180
}

func radiansToDegrees(r float64) float64 {
	return r * pi180Rev
}

/* Lambert Azimuthal Equal Area (ellipsoidal case) */

// laeaProjection LAEA projection with precomputed constants for its origin
type laeaProjection struct {
	lon0  float64 // radians
	fe    float64
	fn    float64
	qp    float64
	rq    float64
	beta0 float64
	d     float64
}

func newLAEA(lat0Deg, lon0Deg, fe, fn float64) *laeaProjection {
	lat0 := degreesToRadians(lat0Deg)
	qp := authalicLatQ(math.Pi / 2.0)
	q0 := authalicLatQ(lat0)
	beta0 := math.Asin(q0 / qp)
	rq := ellipsoidA * math.Sqrt(qp/2.0)
	sinLat0 := math.Sin(lat0)
	d := ellipsoidA * math.Cos(lat0) / math.Sqrt(1.0-ellipsoidE2*sinLat0*sinLat0) / (rq * math.Cos(beta0))
	return &laeaProjection{
		lon0:  degreesToRadians(lon0Deg),
		fe:    fe,
		fn:    fn,
		qp:    qp,
		rq:    rq,
		beta0: beta0,
		d:     d,
	}
}

// authalicLatQ returns q(phi) used to evaluate the authalic latitude
func authalicLatQ(phi float64) float64 {
	sinPhi := math.Sin(phi)
	eSin := ellipsoidE * sinPhi
	return (1.0 - ellipsoidE2) * (sinPhi/(1.0-eSin*eSin) - (1.0/(2.0*ellipsoidE))*math.Log((1.0-eSin)/(1.0+eSin)))
}

// forward converts geographic lon/lat (degrees) to projected easting/northing (meters)
func (prj *laeaProjection) forward(lon, lat float64) (float64, float64) {
	phi := degreesToRadians(lat)
	lam := degreesToRadians(lon) - prj.lon0
	beta := math.Asin(authalicLatQ(phi) / prj.qp)
	b := prj.rq * math.Sqrt(2.0/(1.0+math.Sin(prj.beta0)*math.Sin(beta)+math.Cos(prj.beta0)*math.Cos(beta)*math.Cos(lam)))
	x := prj.fe + b*prj.d*math.Cos(beta)*math.Sin(lam)
	y := prj.fn + (b/prj.d)*(math.Cos(prj.beta0)*math.Sin(beta)-math.Sin(prj.beta0)*math.Cos(beta)*math.Cos(lam))
	return x, y
}

// inverse converts projected easting/northing (meters) to geographic lon/lat (degrees)
func (prj *laeaProjection) inverse(x, y float64) (float64, float64) {
	xd := (x - prj.fe) / prj.d
	yd := (y - prj.fn) * prj.d
	rho := math.Sqrt(xd*xd + yd*yd)
	q := prj.qp * math.Sin(prj.beta0)
	lam := prj.lon0
	if rho > 0.0 {
		ce := 2.0 * math.Asin(rho/(2.0*prj.rq))
		q = prj.qp * (math.Cos(ce)*math.Sin(prj.beta0) + yd*math.Sin(ce)*math.Cos(prj.beta0)/rho)
		lam = prj.lon0 + math.Atan2(xd*math.Sin(ce), rho*math.Cos(prj.beta0)*math.Cos(ce)-yd*math.Sin(prj.beta0)*math.Sin(ce))
	}
	// Latitude from q by fixed point iteration, converges in a few steps
	phi := math.Asin(q / 2.0)
	for i := 0; i < 16; i++ {
		sinPhi := math.Sin(phi)
		eSin := ellipsoidE * sinPhi
		corr := (math.Pow(1.0-eSin*eSin, 2.0) / (2.0 * math.Cos(phi))) *
			(q/(1.0-ellipsoidE2) - sinPhi/(1.0-eSin*eSin) + (1.0/(2.0*ellipsoidE))*math.Log((1.0-eSin)/(1.0+eSin)))
		phi += corr
		if math.Abs(corr) < 1e-14 {
			break
		}
	}
	return radiansToDegrees(lam), radiansToDegrees(phi)
}

/* Transverse Mercator (USGS series) */

// tmercProjection Transverse Mercator projection with precomputed constants
type tmercProjection struct {
	lat0 float64 // radians
	lon0 float64 // radians
	k0   float64
	fe   float64
	fn   float64
	m0   float64
}

func newTMerc(lat0Deg, lon0Deg, k0, fe, fn float64) *tmercProjection {
	lat0 := degreesToRadians(lat0Deg)
	return &tmercProjection{
		lat0: lat0,
		lon0: degreesToRadians(lon0Deg),
		k0:   k0,
		fe:   fe,
		fn:   fn,
		m0:   meridionalArc(lat0),
	}
}

// meridionalArc returns the distance along the meridian from the equator (meters)
func meridionalArc(phi float64) float64 {
	e2 := ellipsoidE2
	e4 := e2 * e2
	e6 := e4 * e2
	return ellipsoidA * ((1.0-e2/4.0-3.0*e4/64.0-5.0*e6/256.0)*phi -
		(3.0*e2/8.0+3.0*e4/32.0+45.0*e6/1024.0)*math.Sin(2.0*phi) +
		(15.0*e4/256.0+45.0*e6/1024.0)*math.Sin(4.0*phi) -
		(35.0*e6/3072.0)*math.Sin(6.0*phi))
}

func (prj *tmercProjection) forward(lon, lat float64) (float64, float64) {
	phi := degreesToRadians(lat)
	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := ellipsoidA / math.Sqrt(1.0-ellipsoidE2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ellipsoidEp2 * cosPhi * cosPhi
	a := (degreesToRadians(lon) - prj.lon0) * cosPhi
	m := meridionalArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x := prj.fe + prj.k0*n*(a+(1.0-t+c)*a3/6.0+
		(5.0-18.0*t+t*t+72.0*c-58.0*ellipsoidEp2)*a5/120.0)
	y := prj.fn + prj.k0*(m-prj.m0+n*tanPhi*(a2/2.0+
		(5.0-t+9.0*c+4.0*c*c)*a4/24.0+
		(61.0-58.0*t+t*t+600.0*c-330.0*ellipsoidEp2)*a6/720.0))
	return x, y
}

func (prj *tmercProjection) inverse(x, y float64) (float64, float64) {
	e2 := ellipsoidE2
	e1 := (1.0 - math.Sqrt(1.0-e2)) / (1.0 + math.Sqrt(1.0-e2))

	m := prj.m0 + (y-prj.fn)/prj.k0
	mu := m / (ellipsoidA * (1.0 - e2/4.0 - 3.0*e2*e2/64.0 - 5.0*e2*e2*e2/256.0))

	// Footpoint latitude
	phi1 := mu + (3.0*e1/2.0-27.0*math.Pow(e1, 3.0)/32.0)*math.Sin(2.0*mu) +
		(21.0*e1*e1/16.0-55.0*math.Pow(e1, 4.0)/32.0)*math.Sin(4.0*mu) +
		(151.0*math.Pow(e1, 3.0)/96.0)*math.Sin(6.0*mu) +
		(1097.0*math.Pow(e1, 4.0)/512.0)*math.Sin(8.0*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ellipsoidEp2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := ellipsoidA / math.Sqrt(1.0-e2*sinPhi1*sinPhi1)
	r1 := ellipsoidA * (1.0 - e2) / math.Pow(1.0-e2*sinPhi1*sinPhi1, 1.5)
	d := (x - prj.fe) / (n1 * prj.k0)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tanPhi1/r1)*(d2/2.0-
		(5.0+3.0*t1+10.0*c1-4.0*c1*c1-9.0*ellipsoidEp2)*d4/24.0 +
		(61.0+90.0*t1+298.0*c1+45.0*t1*t1-252.0*ellipsoidEp2-3.0*c1*c1)*d6/720.0)
	lam := prj.lon0 + (d-(1.0+2.0*t1+c1)*d3/6.0+
		(5.0-2.0*c1+28.0*t1-3.0*c1*c1+8.0*ellipsoidEp2+24.0*t1*t1)*d5/120.0)/cosPhi1

	return radiansToDegrees(lam), radiansToDegrees(phi)
}

var (
	// EPSG:3035 — ETRS89-extended / LAEA Europe
	laeaEurope = newLAEA(52.0, 10.0, 4321000.0, 3210000.0)
	// EPSG:2157 — IRENET95 / Irish Transverse Mercator
	irishTM = newTMerc(53.5, -8.0, 0.99982, 600000.0, 750000.0)
)

/* Spherical pseudo-mercator (EPSG:3857) */

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * mercatorR / 180.0
	y := math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * mercatorR / 180.0
	return x, y
}

func epsg3857To4326(x, y float64) (float64, float64) {
	lon := x * 180.0 / mercatorR
	lat := math.Atan(math.Exp(y*math.Pi/mercatorR))*360.0/math.Pi - 90.0
	return lon, lat
}

// Transform reprojects a single point between supported coordinate reference
// systems. Returns an error if either CRS has no defined transform.
func Transform(pt orb.Point, from, to CRS) (orb.Point, error) {
	if from == to {
		return pt, nil
	}
	lon, lat, err := toGeographic(pt, from)
	if err != nil {
		return orb.Point{}, err
	}
	return fromGeographic(lon, lat, to)
}

func toGeographic(pt orb.Point, from CRS) (float64, float64, error) {
	switch from {
	case EPSG_4326:
		return pt[0], pt[1], nil
	case EPSG_3035:
		lon, lat := laeaEurope.inverse(pt[0], pt[1])
		return lon, lat, nil
	case EPSG_2157:
		lon, lat := irishTM.inverse(pt[0], pt[1])
		return lon, lat, nil
	case EPSG_3857:
		lon, lat := epsg3857To4326(pt[0], pt[1])
		return lon, lat, nil
	}
	return 0, 0, errors.Errorf("Undefined transform from %s", from)
}

func fromGeographic(lon, lat float64, to CRS) (orb.Point, error) {
	switch to {
	case EPSG_4326:
		return orb.Point{lon, lat}, nil
	case EPSG_3035:
		x, y := laeaEurope.forward(lon, lat)
		return orb.Point{x, y}, nil
	case EPSG_2157:
		x, y := irishTM.forward(lon, lat)
		return orb.Point{x, y}, nil
	case EPSG_3857:
		x, y := epsg4326To3857(lon, lat)
		return orb.Point{x, y}, nil
	}
	return orb.Point{}, errors.Errorf("Undefined transform to %s", to)
}

// TransformGeometry reprojects every coordinate of the given geometry.
// Returns a new geometry, input is left untouched.
func TransformGeometry(geom orb.Geometry, from, to CRS) (orb.Geometry, error) {
	if from == to {
		return orb.Clone(geom), nil
	}
	switch g := geom.(type) {
	case orb.Point:
		return Transform(g, from, to)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(g))
		for i := range g {
			pt, err := Transform(g[i], from, to)
			if err != nil {
				return nil, err
			}
			out[i] = pt
		}
		return out, nil
	case orb.LineString:
		out := make(orb.LineString, len(g))
		for i := range g {
			pt, err := Transform(g[i], from, to)
			if err != nil {
				return nil, err
			}
			out[i] = pt
		}
		return out, nil
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(g))
		for i := range g {
			line, err := TransformGeometry(g[i], from, to)
			if err != nil {
				return nil, err
			}
			out[i] = line.(orb.LineString)
		}
		return out, nil
	case orb.Ring:
		out := make(orb.Ring, len(g))
		for i := range g {
			pt, err := Transform(g[i], from, to)
			if err != nil {
				return nil, err
			}
			out[i] = pt
		}
		return out, nil
	case orb.Polygon:
		out := make(orb.Polygon, len(g))
		for i := range g {
			ring, err := TransformGeometry(g[i], from, to)
			if err != nil {
				return nil, err
			}
			out[i] = ring.(orb.Ring)
		}
		return out, nil
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i := range g {
			poly, err := TransformGeometry(g[i], from, to)
			if err != nil {
				return nil, err
			}
			out[i] = poly.(orb.Polygon)
		}
		return out, nil
	}
	return nil, errors.Errorf("Undefined transform for geometry type %s", geom.GeoJSONType())
}
