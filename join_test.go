package egms2risk

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassZones(t *testing.T) []ClassZone {
	builder := NewBufferBuilder(WithSourceCRS(EPSG_2157))
	_, classZones, err := builder.Build([]InfraFeature{
		{ID: "rail-1", Class: INFRA_RAILWAY, Geom: orb.LineString{{0, -50}, {0, 50}}},
		{ID: "road-1", Class: INFRA_ROAD, Geom: orb.LineString{{0, 0}, {100, 0}}},
	})
	require.NoError(t, err)
	require.Len(t, classZones, 2)
	return classZones
}

func TestJoin(t *testing.T) {
	joiner := NewJoiner(testClassZones(t), WithPointsCRS(EPSG_2157))
	points := []MeasurementPoint{
		{ID: "p1", Geom: orb.Point{60, 10}, Velocity: -1.0},  // road only
		{ID: "p2", Geom: orb.Point{10, 0}, Velocity: -3.0},   // railway and road overlap
		{ID: "p3", Geom: orb.Point{60, 31}, Velocity: -6.0},  // outside everything
		{ID: "p4", Geom: orb.Point{60, 30}, Velocity: 2.0},   // exactly on the road boundary
		{ID: "p5", Geom: orb.Point{0, -100}, Velocity: 1.0},  // railway end cap boundary
	}
	joined, err := joiner.Join(points)
	require.NoError(t, err)
	require.Len(t, joined, len(points))

	// Input order is preserved
	for i := range points {
		assert.Equal(t, points[i].ID, joined[i].Point.ID)
	}

	assert.Equal(t, []InfraClass{INFRA_ROAD}, joined[0].Classes)
	assert.Equal(t, INFRA_ROAD, joined[0].Primary)

	// Overlapping buffers make the point a member of both classes, with the
	// railway taking priority
	assert.Equal(t, []InfraClass{INFRA_RAILWAY, INFRA_ROAD}, joined[1].Classes)
	assert.Equal(t, INFRA_RAILWAY, joined[1].Primary)

	assert.Empty(t, joined[2].Classes)
	assert.Equal(t, InfraClass(0), joined[2].Primary)

	// Buffers are closed sets
	assert.Equal(t, []InfraClass{INFRA_ROAD}, joined[3].Classes)
	assert.Equal(t, []InfraClass{INFRA_RAILWAY}, joined[4].Classes)
}

func TestJoinDeterministic(t *testing.T) {
	joiner := NewJoiner(testClassZones(t), WithPointsCRS(EPSG_2157))
	points := []MeasurementPoint{
		{ID: "p1", Geom: orb.Point{60, 10}},
		{ID: "p2", Geom: orb.Point{10, 0}},
		{ID: "p3", Geom: orb.Point{60, 31}},
	}
	forward, err := joiner.Join(points)
	require.NoError(t, err)

	reversed := []MeasurementPoint{points[2], points[1], points[0]}
	backward, err := joiner.Join(reversed)
	require.NoError(t, err)

	byID := map[string]JoinedPoint{}
	for _, jp := range backward {
		byID[jp.Point.ID] = jp
	}
	for _, jp := range forward {
		assert.Equal(t, jp.Classes, byID[jp.Point.ID].Classes, jp.Point.ID)
		assert.Equal(t, jp.Primary, byID[jp.Point.ID].Primary, jp.Point.ID)
	}
}

func TestMatched(t *testing.T) {
	joined := []JoinedPoint{
		{Point: MeasurementPoint{ID: "a"}, Classes: []InfraClass{INFRA_ROAD}, Primary: INFRA_ROAD},
		{Point: MeasurementPoint{ID: "b"}, Classes: []InfraClass{}},
		{Point: MeasurementPoint{ID: "c"}, Classes: []InfraClass{INFRA_RAILWAY, INFRA_ROAD}, Primary: INFRA_RAILWAY},
	}
	matched := Matched(joined)
	require.Len(t, matched, 2)
	assert.Equal(t, "a", matched[0].Point.ID)
	assert.Equal(t, "c", matched[1].Point.ID)
}

func TestJoinManySources(t *testing.T) {
	// One class spread over many disjoint sources: the match must come out
	// of the candidate sources regardless of their position in the zone
	features := []InfraFeature{}
	for i := 0; i < 50; i++ {
		x := float64(i) * 1000.0
		features = append(features, InfraFeature{
			ID:    fmt.Sprintf("road-%d", i),
			Class: INFRA_ROAD,
			Geom:  orb.LineString{{x, 0}, {x + 100, 0}},
		})
	}
	builder := NewBufferBuilder(WithSourceCRS(EPSG_2157))
	_, classZones, err := builder.Build(features)
	require.NoError(t, err)
	require.Len(t, classZones, 1)
	require.Len(t, classZones[0].Sources, 50)

	joiner := NewJoiner(classZones, WithPointsCRS(EPSG_2157))
	points := []MeasurementPoint{
		{ID: "near-first", Geom: orb.Point{50, 20}},
		{ID: "near-last", Geom: orb.Point{49050, 20}},
		{ID: "near-middle", Geom: orb.Point{37050, 20}},
		{ID: "between-sources", Geom: orb.Point{37500, 0}},
		{ID: "off-corridor", Geom: orb.Point{37050, 31}},
	}
	joined, err := joiner.Join(points)
	require.NoError(t, err)

	for i, jp := range joined {
		expected := classZones[0].Contains(jp.Point.Geom)
		got := len(jp.Classes) > 0
		assert.Equal(t, expected, got, points[i].ID)
	}
	assert.Equal(t, []InfraClass{INFRA_ROAD}, joined[0].Classes)
	assert.Equal(t, []InfraClass{INFRA_ROAD}, joined[1].Classes)
	assert.Equal(t, []InfraClass{INFRA_ROAD}, joined[2].Classes)
	assert.Empty(t, joined[3].Classes)
	assert.Empty(t, joined[4].Classes)
}

func TestJoinEmptyZones(t *testing.T) {
	joiner := NewJoiner(nil, WithPointsCRS(EPSG_2157))
	joined, err := joiner.Join([]MeasurementPoint{{ID: "p1", Geom: orb.Point{0, 0}}})
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Empty(t, joined[0].Classes)
}
