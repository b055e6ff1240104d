package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LdDl/egms2risk"
	"go.uber.org/zap"
)

var (
	egmsFile   = flag.String("egms", "data/processed/egms_dublin_clean.csv", "EGMS measurement points, CSV or GeoJSON")
	egmsCRS    = flag.Int("egms-crs", 3035, "CRS of CSV point coordinates (GeoJSON files carry their own)")
	buffersDir = flag.String("buffers", "results/buffers", "Directory with '<class>_zone.geojson' files from the buffer stage")
	outDir     = flag.String("out", "results/spatial_analysis", "Output directory")
	geomFormat = flag.String("geomf", "wkt", "Format of the geometry column in the joined CSV. Expected values: wkt / geojson")
	sqliteFile = flag.String("sqlite", "", "Optional SQLite database to store the joined points into")
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

	format := egms2risk.GetGeometryFormat(*geomFormat)
	if format == 0 {
		log.Errorf("unknown geometry format '%s'", *geomFormat)
		os.Exit(1)
	}

	points, pointsCRS, err := readPoints(*egmsFile, egms2risk.CRS(*egmsCRS))
	if err != nil {
		log.Errorf("can't read EGMS points: %v", err)
		os.Exit(1)
	}
	log.Infof("Loaded %d EGMS points (%s)", len(points), pointsCRS)

	zones := []egms2risk.ClassZone{}
	for _, name := range []string{"railway", "road", "port"} {
		zoneFile := filepath.Join(*buffersDir, name+"_zone.geojson")
		if _, err := os.Stat(zoneFile); os.IsNotExist(err) {
			log.Warnf("No zone file for class '%s', skipping", name)
			continue
		}
		zone, err := egms2risk.ReadClassZoneGeoJSON(zoneFile, egms2risk.EPSG_2157)
		if err != nil {
			log.Errorf("can't read '%s': %v", zoneFile, err)
			os.Exit(1)
		}
		zones = append(zones, zone)
	}
	if len(zones) == 0 {
		log.Error("no buffer zones found, run the buffer stage first")
		os.Exit(1)
	}

	joiner := egms2risk.NewJoiner(zones,
		egms2risk.WithPointsCRS(pointsCRS),
		egms2risk.WithJoinLogger(log),
	)
	joined, err := joiner.Join(points)
	if err != nil {
		log.Errorf("spatial join failed: %v", err)
		os.Exit(1)
	}
	matched := egms2risk.Matched(joined)

	csvFile := filepath.Join(*outDir, "joined_points.csv")
	if err := egms2risk.WriteJoinedCSV(csvFile, matched, format); err != nil {
		log.Errorf("can't write '%s': %v", csvFile, err)
		os.Exit(1)
	}
	log.Infof("Joined points CSV: %s", csvFile)

	geojsonFile := filepath.Join(*outDir, "joined_points.geojson")
	if err := egms2risk.WriteJoinedGeoJSON(geojsonFile, matched, egms2risk.EPSG_2157); err != nil {
		log.Errorf("can't write '%s': %v", geojsonFile, err)
		os.Exit(1)
	}
	log.Infof("Joined points GeoJSON: %s", geojsonFile)

	if *sqliteFile != "" {
		exporter, err := egms2risk.NewSQLiteExporter(*sqliteFile)
		if err != nil {
			log.Errorf("can't open sqlite database: %v", err)
			os.Exit(1)
		}
		defer exporter.Close()
		if err := exporter.StoreJoinedPoints(matched); err != nil {
			log.Errorf("can't store joined points: %v", err)
			os.Exit(1)
		}
		log.Infof("Joined points stored in %s", *sqliteFile)
	}
}

func readPoints(fileName string, csvCRS egms2risk.CRS) ([]egms2risk.MeasurementPoint, egms2risk.CRS, error) {
	if strings.HasSuffix(strings.ToLower(fileName), ".geojson") || strings.HasSuffix(strings.ToLower(fileName), ".json") {
		return egms2risk.ReadMeasurementGeoJSON(fileName)
	}
	points, err := egms2risk.ReadEGMSCSV(fileName)
	return points, csvCRS, err
}

func initLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
