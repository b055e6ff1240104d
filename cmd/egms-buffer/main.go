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
	infraFile   = flag.String("infra", "data/infrastructure/dublin_infrastructure.geojson", "Infrastructure GeoJSON (lines/polygons tagged with a 'class' property)")
	outDir      = flag.String("out", "results/buffers", "Output directory for buffer GeoJSON files")
	railwayDist = flag.Float64("railway", 50.0, "Railway buffer distance (meters)")
	roadDist    = flag.Float64("road", 30.0, "Road buffer distance (meters)")
	portDist    = flag.Float64("port", 0.0, "Port buffer distance (meters, 0 uses the boundary as-is)")
	capSegments = flag.Int("arc", 8, "Segments per half end cap of a line buffer")
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

	features, crs, err := egms2risk.ReadInfraGeoJSON(*infraFile)
	if err != nil {
		log.Errorf("can't read infrastructure file: %v", err)
		os.Exit(1)
	}
	log.Infof("Loaded %d infrastructure features (%s)", len(features), crs)

	builder := egms2risk.NewBufferBuilder(
		egms2risk.WithSourceCRS(crs),
		egms2risk.WithBufferDistances(map[egms2risk.InfraClass]float64{
			egms2risk.INFRA_RAILWAY: *railwayDist,
			egms2risk.INFRA_ROAD:    *roadDist,
			egms2risk.INFRA_PORT:    *portDist,
		}),
		egms2risk.WithCapSegments(*capSegments),
		egms2risk.WithBufferLogger(log),
	)
	zones, classZones, err := builder.Build(features)
	if err != nil {
		log.Errorf("can't build buffer zones: %v", err)
		os.Exit(1)
	}
	log.Infof("Built %d buffer zones in %d classes", len(zones), len(classZones))

	for _, classZone := range classZones {
		perFeature := []egms2risk.BufferZone{}
		for i := range zones {
			if zones[i].Class == classZone.Class {
				perFeature = append(perFeature, zones[i])
			}
		}

		bufferFile := filepath.Join(*outDir, fmt.Sprintf("%s_buffer_%dm.geojson", classZone.Class, int(classZone.Distance)))
		if classZone.Distance == 0 {
			bufferFile = filepath.Join(*outDir, fmt.Sprintf("%s_boundary.geojson", classZone.Class))
		}
		if err := egms2risk.WriteBufferZonesGeoJSON(bufferFile, perFeature, egms2risk.EPSG_2157); err != nil {
			log.Errorf("can't write '%s': %v", bufferFile, err)
			os.Exit(1)
		}
		log.Infof("Buffer polygons: %s (%d features)", bufferFile, len(perFeature))

		zoneFile := filepath.Join(*outDir, fmt.Sprintf("%s_zone.geojson", classZone.Class))
		if err := egms2risk.WriteClassZoneGeoJSON(zoneFile, classZone, egms2risk.EPSG_2157); err != nil {
			log.Errorf("can't write '%s': %v", zoneFile, err)
			os.Exit(1)
		}
		log.Infof("Merged query zone: %s", zoneFile)
	}
}

func initLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
