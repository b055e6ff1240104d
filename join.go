package egms2risk

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// JoinedPoint MeasurementPoint annotated with the infrastructure classes
// whose buffers contain it. Classes are sorted by the fixed priority
// (railway > road > port); a point inside overlapping buffers is a member of
// every matching class. Primary is the highest-priority class, zero when the
// point matched nothing. The point coordinate is in the metric CRS.
type JoinedPoint struct {
	Point   MeasurementPoint
	Classes []InfraClass
	Primary InfraClass
}

// zoneEntry One indexed source geometry of a class zone
type zoneEntry struct {
	zoneIdx   int
	sourceIdx int
}

// Joiner Point-in-buffer spatial join. An R-tree over the zone source
// bounding boxes (padded by the buffer distance) prunes candidates before
// the exact containment test, avoiding the points-times-zones brute force.
type Joiner struct {
	zones     []ClassZone
	index     rtree.RTreeG[zoneEntry]
	sourceCRS CRS
	targetCRS CRS
	log       *zap.SugaredLogger
}

// NewJoiner builds a Joiner over the given merged class zones. Zones are
// expected in the metric CRS; incoming points are reprojected from
// EPSG:3035 unless overridden.
func NewJoiner(zones []ClassZone, options ...func(*Joiner)) *Joiner {
	joiner := &Joiner{
		zones:     zones,
		sourceCRS: EPSG_3035,
		targetCRS: EPSG_2157,
	}
	for _, option := range options {
		option(joiner)
	}
	for i := range zones {
		for j, geom := range zones[i].Sources {
			bound := geom.Bound()
			pad := zones[i].Distance
			min := [2]float64{bound.Min[0] - pad, bound.Min[1] - pad}
			max := [2]float64{bound.Max[0] + pad, bound.Max[1] + pad}
			joiner.index.Insert(min, max, zoneEntry{zoneIdx: i, sourceIdx: j})
		}
	}
	return joiner
}

func WithPointsCRS(crs CRS) func(*Joiner) {
	return func(joiner *Joiner) {
		joiner.sourceCRS = crs
	}
}

func WithJoinLogger(log *zap.SugaredLogger) func(*Joiner) {
	return func(joiner *Joiner) {
		joiner.log = log
	}
}

// Join reprojects every measurement point into the metric CRS and collects
// the set of classes whose buffers contain it. The exact containment test
// runs only against the candidate sources the index returned, never against
// a whole class. Every input point appears in the result, in input order;
// unmatched points carry an empty class set.
func (joiner *Joiner) Join(points []MeasurementPoint) ([]JoinedPoint, error) {
	joined := make([]JoinedPoint, 0, len(points))
	matched := 0

	for i := range points {
		pt, err := Transform(points[i].Geom, joiner.sourceCRS, joiner.targetCRS)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't reproject point '%s'", points[i].ID)
		}

		hits := map[int]struct{}{}
		joiner.index.Search([2]float64{pt[0], pt[1]}, [2]float64{pt[0], pt[1]}, func(min, max [2]float64, entry zoneEntry) bool {
			if _, ok := hits[entry.zoneIdx]; ok {
				return true
			}
			zone := &joiner.zones[entry.zoneIdx]
			if sourceContains(zone.Sources[entry.sourceIdx], pt, zone.Distance) {
				hits[entry.zoneIdx] = struct{}{}
			}
			return true
		})

		classes := make([]InfraClass, 0, len(hits))
		for zoneIdx := range hits {
			classes = append(classes, joiner.zones[zoneIdx].Class)
		}
		sort.Slice(classes, func(a, b int) bool { return classes[a] < classes[b] })

		point := points[i]
		point.Geom = pt
		jp := JoinedPoint{Point: point, Classes: classes}
		if len(classes) > 0 {
			jp.Primary = classes[0]
			matched++
		}
		joined = append(joined, jp)
	}

	if joiner.log != nil {
		joiner.log.Infof("Joined %d of %d points to infrastructure buffers", matched, len(points))
	}
	return joined, nil
}

// Matched filters joined points down to those inside at least one buffer
func Matched(joined []JoinedPoint) []JoinedPoint {
	out := make([]JoinedPoint, 0, len(joined))
	for i := range joined {
		if len(joined[i].Classes) > 0 {
			out = append(out, joined[i])
		}
	}
	return out
}
