package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LdDl/egms2risk"
	"go.uber.org/zap"
)

var (
	joinedFile = flag.String("joined", "results/spatial_analysis/joined_points.csv", "Joined points CSV from the join stage")
	buffersDir = flag.String("buffers", "results/buffers", "Directory with '<class>_zone.geojson' files from the buffer stage")
	outFile    = flag.String("out", "results/maps/infrastructure_map.png", "Output image (png/svg/pdf by extension)")
	title      = flag.String("title", "EGMS ground motion near Dublin infrastructure", "Map title")
	debug      = flag.Bool("debug", false, "Turn on debugging output")
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

	joined, err := egms2risk.ReadJoinedCSV(*joinedFile)
	if err != nil {
		log.Errorf("can't read joined points: %v", err)
		os.Exit(1)
	}

	zones := []egms2risk.ClassZone{}
	for _, name := range []string{"railway", "road", "port"} {
		zoneFile := filepath.Join(*buffersDir, name+"_zone.geojson")
		if _, err := os.Stat(zoneFile); os.IsNotExist(err) {
			continue
		}
		zone, err := egms2risk.ReadClassZoneGeoJSON(zoneFile, egms2risk.EPSG_2157)
		if err != nil {
			log.Errorf("can't read '%s': %v", zoneFile, err)
			os.Exit(1)
		}
		zones = append(zones, zone)
	}

	if err := egms2risk.RenderMap(*outFile, *title, joined, zones); err != nil {
		log.Errorf("can't render map: %v", err)
		os.Exit(1)
	}
	log.Infof("Map: %s (%d points, %d zones)", *outFile, len(joined), len(zones))
}

func initLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
