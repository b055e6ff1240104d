package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/LdDl/egms2risk"
	"go.uber.org/zap"
)

var (
	osmFileName = flag.String("file", "data/osm/dublin.osm.pbf", "Filename of *.osm.pbf file (it has to be compressed)")
	out         = flag.String("out", "data/infrastructure/dublin_infrastructure.geojson", "Output infrastructure GeoJSON")
	railwayTags = flag.String("railway-tags", "rail,light_rail,tram", "Values of the 'railway' tag (separated by commas)")
	highwayTags = flag.String("highway-tags", "motorway,motorway_link,trunk,trunk_link,primary,primary_link,secondary,secondary_link,tertiary,tertiary_link,residential,unclassified", "Values of the 'highway' tag (separated by commas)")
	portTags    = flag.String("port-tags", "port,harbour,industrial", "Values of the 'landuse' tag (separated by commas)")
	debug       = flag.Bool("debug", false, "Turn on debugging output")
)

func main() {
	flag.Parse()

	zapLogger, err := initLogger(*debug)
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	cfg := &egms2risk.ExtractConfig{
		RailwayTags: strings.Split(*railwayTags, ","),
		HighwayTags: strings.Split(*highwayTags, ","),
		PortTags:    strings.Split(*portTags, ","),
	}
	features, err := egms2risk.ExtractFromOSMFile(*osmFileName, cfg, log)
	if err != nil {
		log.Errorf("can't extract infrastructure: %v", err)
		os.Exit(1)
	}
	if err := egms2risk.WriteInfraGeoJSON(*out, features, egms2risk.EPSG_4326); err != nil {
		log.Errorf("can't write '%s': %v", *out, err)
		os.Exit(1)
	}
	log.Infof("Infrastructure: %s (%d features)", *out, len(features))
}

func initLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
