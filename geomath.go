package egms2risk

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// intersect returns intersection point of two segments (Euclidean space).
// p1, p2 - first segment
// p3, p4 - second segment
func intersect(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	det := a1*b2 - a2*b1
	if det == 0 {
		return orb.Point{}, errors.New("The lines are parallel")
	}

	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	return orb.Point{x, y}, nil
}

// dedupeLine drops consecutive duplicate points. Zero-length segments break
// the offset normal computation.
func dedupeLine(line orb.LineString) orb.LineString {
	if len(line) == 0 {
		return line
	}
	out := orb.LineString{line[0]}
	for i := 1; i < len(line); i++ {
		if line[i] != line[i-1] {
			out = append(out, line[i])
		}
	}
	return out
}

// offsetCurve returns a parallel curve at the given signed distance.
// Positive distance is the left side of the direction of travel. Consecutive
// offset segments are joined at their intersection (miter join).
func offsetCurve(line orb.LineString, distance float64) orb.LineString {
	var result orb.LineString
	var segments [][2]orb.Point

	for i := 1; i < len(line); i++ {
		p1 := line[i-1]
		p2 := line[i]

		vec := [2]float64{p2[0] - p1[0], p2[1] - p1[1]}
		vecLen := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1])
		vec = [2]float64{vec[0] / vecLen, vec[1] / vecLen}

		// Left normal scaled by distance
		offset := [2]float64{-vec[1] * distance, vec[0] * distance}

		op1 := orb.Point{p1[0] + offset[0], p1[1] + offset[1]}
		op2 := orb.Point{p2[0] + offset[0], p2[1] + offset[1]}
		segments = append(segments, [2]orb.Point{op1, op2})
	}

	result = append(result, segments[0][0])
	for i := 1; i < len(segments); i++ {
		seg1 := segments[i-1]
		seg2 := segments[i]
		intersection, err := intersect(seg1[0], seg1[1], seg2[0], seg2[1])
		if err != nil {
			// Collinear segments, the shared endpoint is the join
			result = append(result, seg1[1])
			continue
		}
		result = append(result, intersection)
	}
	result = append(result, segments[len(segments)-1][1])
	return result
}

// arcPoints returns points on the circle of given radius around the center,
// sweeping clockwise from startAngle by sweep radians. The sweep endpoints
// are excluded, only the n-1 intermediate points are returned.
func arcPoints(center orb.Point, radius, startAngle, sweep float64, n int) []orb.Point {
	pts := make([]orb.Point, 0, n-1)
	for k := 1; k < n; k++ {
		a := startAngle - sweep*float64(k)/float64(n)
		pts = append(pts, orb.Point{
			center[0] + radius*math.Cos(a),
			center[1] + radius*math.Sin(a),
		})
	}
	return pts
}

// bufferLine returns a single-ring polygon covering the points within the
// given distance of the line: parallel curves on both sides joined by
// semicircular end caps. capSegments controls cap discretization.
func bufferLine(line orb.LineString, distance float64, capSegments int) (orb.Polygon, error) {
	line = dedupeLine(line)
	if len(line) < 2 {
		return nil, errors.New("Empty or degenerate line")
	}
	if distance <= 0 {
		return nil, errors.New("Distance must be positive for line geometry")
	}
	if capSegments < 2 {
		capSegments = 2
	}

	left := offsetCurve(line, distance)
	right := offsetCurve(line, -distance)

	first := line[0]
	last := line[len(line)-1]
	headAngle := math.Atan2(last[1]-line[len(line)-2][1], last[0]-line[len(line)-2][0])
	tailAngle := math.Atan2(line[1][1]-first[1], line[1][0]-first[0])

	ring := orb.Ring{}
	ring = append(ring, left...)
	// Cap around the far end, from the left offset through the heading direction
	ring = append(ring, arcPoints(last, distance, headAngle+math.Pi/2.0, math.Pi, capSegments)...)
	for i := len(right) - 1; i >= 0; i-- {
		ring = append(ring, right[i])
	}
	// Cap around the start, from the right offset back to the left offset
	ring = append(ring, arcPoints(first, distance, tailAngle-math.Pi/2.0, math.Pi, capSegments)...)
	ring = append(ring, ring[0])

	return orb.Polygon{ring}, nil
}

// bufferRing expands a closed ring outward by the given distance with miter
// joins.
func bufferRing(ring orb.Ring, distance float64) (orb.Ring, error) {
	line := dedupeLine(orb.LineString(ring))
	if len(line) < 4 {
		return nil, errors.New("Empty or degenerate ring")
	}
	if line[0] != line[len(line)-1] {
		line = append(line, line[0])
	}
	// Wrap one segment around the closure so the first and the last joins
	// are computed like any interior join
	wrapped := append(orb.LineString{line[len(line)-2]}, line...)
	off := offsetCurve(wrapped, signedRingOffset(orb.Ring(line), distance))
	out := orb.Ring(off[1 : len(off)-1])
	if out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out, nil
}

// signedRingOffset picks the offset side so the buffer always grows outward.
// A counter-clockwise ring keeps its interior on the left of travel, so the
// outward side is the right one (negative offset).
func signedRingOffset(ring orb.Ring, distance float64) float64 {
	if ringArea(ring) > 0 {
		return -distance
	}
	return distance
}

// ringArea returns the signed shoelace area, positive for counter-clockwise
func ringArea(ring orb.Ring) float64 {
	area := 0.0
	for i := 1; i < len(ring); i++ {
		area += ring[i-1][0]*ring[i][1] - ring[i][0]*ring[i-1][1]
	}
	return area / 2.0
}
