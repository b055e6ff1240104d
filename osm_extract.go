package egms2risk

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ExtractConfig Tag values selecting infrastructure ways from an OSM extract
type ExtractConfig struct {
	// Values of the 'railway' tag treated as railway centerlines
	RailwayTags []string
	// Values of the 'highway' tag treated as road centerlines
	HighwayTags []string
	// Values of the 'landuse' tag treated as port boundaries
	PortTags []string
}

// NewDefaultExtractConfig returns the tag sets used for the Dublin study
// area: heavy rail, the public road network and harbour landuse
func NewDefaultExtractConfig() *ExtractConfig {
	return &ExtractConfig{
		RailwayTags: []string{"rail", "light_rail", "tram"},
		HighwayTags: []string{"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "unclassified"},
		PortTags:    []string{"port", "harbour", "industrial"},
	}
}

func tagMatch(tags []string, value string) bool {
	for _, tag := range tags {
		if tag == value {
			return true
		}
	}
	return false
}

func (cfg *ExtractConfig) classify(way *osm.Way) InfraClass {
	if tagMatch(cfg.RailwayTags, way.Tags.Find("railway")) {
		return INFRA_RAILWAY
	}
	if tagMatch(cfg.HighwayTags, way.Tags.Find("highway")) {
		return INFRA_ROAD
	}
	if tagMatch(cfg.PortTags, way.Tags.Find("landuse")) {
		return INFRA_PORT
	}
	return 0
}

// ExtractFromOSMFile pulls class-tagged infrastructure features out of a
// PBF-formatted OSM extract: railway and road centerlines as lines, port
// landuse as polygons. Output geometries are geographic (EPSG:4326).
func ExtractFromOSMFile(fileName string, cfg *ExtractConfig, log *zap.SugaredLogger) ([]InfraFeature, error) {
	if cfg == nil {
		cfg = NewDefaultExtractConfig()
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer f.Close()

	// First pass: collect matching ways and the IDs of their nodes
	scannerWays := osmpbf.New(context.Background(), f, 4)
	defer scannerWays.Close()

	type taggedWay struct {
		id    osm.WayID
		class InfraClass
		nodes []osm.NodeID
	}
	ways := []taggedWay{}
	nodesNeeded := make(map[osm.NodeID]struct{})

	if log != nil {
		log.Info("Scanning ways...")
	}
	st := time.Now()
	for scannerWays.Scan() {
		obj := scannerWays.Object()
		if obj.ObjectID().Type() != "way" {
			continue
		}
		way := obj.(*osm.Way)
		class := cfg.classify(way)
		if class == 0 {
			continue
		}
		tagged := taggedWay{id: way.ID, class: class, nodes: make([]osm.NodeID, 0, len(way.Nodes))}
		for _, node := range way.Nodes {
			tagged.nodes = append(tagged.nodes, node.ID)
			nodesNeeded[node.ID] = struct{}{}
		}
		ways = append(ways, tagged)
	}
	if err := scannerWays.Err(); err != nil {
		return nil, errors.Wrap(err, "Ways scanner")
	}
	if log != nil {
		log.Infof("Done in %v. Matched %d ways", time.Since(st), len(ways))
	}

	// Second pass: collect coordinates of the needed nodes
	if _, err := f.Seek(0, 0); err != nil {
		return nil, errors.Wrap(err, "File rewind")
	}
	scannerNodes := osmpbf.New(context.Background(), f, 4)
	defer scannerNodes.Close()

	nodes := make(map[osm.NodeID]orb.Point)
	if log != nil {
		log.Info("Scanning nodes...")
	}
	st = time.Now()
	for scannerNodes.Scan() {
		obj := scannerNodes.Object()
		if obj.ObjectID().Type() != "node" {
			continue
		}
		node := obj.(*osm.Node)
		if _, ok := nodesNeeded[node.ID]; !ok {
			continue
		}
		nodes[node.ID] = orb.Point{node.Lon, node.Lat}
	}
	if err := scannerNodes.Err(); err != nil {
		return nil, errors.Wrap(err, "Nodes scanner")
	}
	if log != nil {
		log.Infof("Done in %v. Collected %d nodes", time.Since(st), len(nodes))
	}

	// Assemble features. Port ways must be closed rings, anything with a
	// missing node is dropped with a warning.
	features := make([]InfraFeature, 0, len(ways))
	skipped := 0
	for _, way := range ways {
		line := make(orb.LineString, 0, len(way.nodes))
		complete := true
		for _, nodeID := range way.nodes {
			pt, ok := nodes[nodeID]
			if !ok {
				complete = false
				break
			}
			line = append(line, pt)
		}
		if !complete || len(line) < 2 {
			skipped++
			continue
		}
		feature := InfraFeature{
			ID:    strconv.FormatInt(int64(way.id), 10),
			Class: way.class,
		}
		if way.class == INFRA_PORT {
			if line[0] != line[len(line)-1] || len(line) < 4 {
				skipped++
				continue
			}
			feature.Geom = orb.Polygon{orb.Ring(line)}
		} else {
			feature.Geom = line
		}
		features = append(features, feature)
	}
	if skipped > 0 && log != nil {
		log.Warnf("Skipped %d incomplete ways", skipped)
	}
	return features, nil
}
