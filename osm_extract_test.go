package egms2risk

import (
	"testing"

	"github.com/paulmach/osm"
)

func TestClassify(t *testing.T) {
	cfg := NewDefaultExtractConfig()
	cases := []struct {
		tags     osm.Tags
		expected InfraClass
	}{
		{osm.Tags{{Key: "railway", Value: "rail"}}, INFRA_RAILWAY},
		{osm.Tags{{Key: "railway", Value: "light_rail"}}, INFRA_RAILWAY},
		{osm.Tags{{Key: "railway", Value: "abandoned"}}, 0},
		{osm.Tags{{Key: "highway", Value: "primary"}}, INFRA_ROAD},
		{osm.Tags{{Key: "highway", Value: "footway"}}, 0},
		{osm.Tags{{Key: "landuse", Value: "harbour"}}, INFRA_PORT},
		{osm.Tags{{Key: "landuse", Value: "farmland"}}, 0},
		{osm.Tags{{Key: "building", Value: "yes"}}, 0},
		// Railway wins over an additional highway tag
		{osm.Tags{{Key: "railway", Value: "tram"}, {Key: "highway", Value: "residential"}}, INFRA_RAILWAY},
	}
	for _, c := range cases {
		way := &osm.Way{Tags: c.tags}
		if got := cfg.classify(way); got != c.expected {
			t.Errorf("Class should be %d, but got %d for tags %v", c.expected, got, c.tags)
		}
	}
}

func TestTagMatch(t *testing.T) {
	tags := []string{"rail", "tram"}
	if !tagMatch(tags, "rail") {
		t.Errorf("'rail' should match")
	}
	if tagMatch(tags, "") {
		t.Errorf("Empty value should not match")
	}
	if tagMatch(tags, "railway") {
		t.Errorf("'railway' should not match")
	}
}
