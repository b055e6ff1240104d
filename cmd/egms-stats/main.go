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
	egmsFile   = flag.String("egms", "data/processed/egms_dublin_clean.csv", "Full EGMS point set for the baseline summary")
	outDir     = flag.String("out", "results/statistics", "Output directory")
	sqliteFile = flag.String("sqlite", "", "Optional SQLite database to store the summary into")
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
	log.Infof("Loaded %d joined points", len(joined))

	allPoints, err := egms2risk.ReadEGMSCSV(*egmsFile)
	if err != nil {
		log.Errorf("can't read full EGMS dataset: %v", err)
		os.Exit(1)
	}
	log.Infof("Loaded %d points for the baseline", len(allPoints))

	records := egms2risk.SummarizeClasses(joined)
	baseline := egms2risk.BaselineSummary(allPoints)
	comparisons := egms2risk.CompareToBaseline(records, baseline)
	assessments := egms2risk.AssessRisk(records)

	for _, record := range append(records, baseline) {
		if record.Count == 0 {
			log.Warnf("%s: no points matched", record.Group)
			continue
		}
		log.Infof("%s: %d points, mean %.2f mm/yr, stable %.1f%%, risk %s",
			record.Group, record.Count, record.MeanVelocity, record.PctStable, record.Risk)
	}

	summaryFile := filepath.Join(*outDir, "infrastructure_summary.csv")
	if err := egms2risk.WriteSummaryCSV(summaryFile, append(records, baseline)); err != nil {
		log.Errorf("can't write '%s': %v", summaryFile, err)
		os.Exit(1)
	}
	log.Infof("Summary: %s", summaryFile)

	comparisonFile := filepath.Join(*outDir, "infrastructure_comparison.csv")
	if err := egms2risk.WriteComparisonCSV(comparisonFile, comparisons); err != nil {
		log.Errorf("can't write '%s': %v", comparisonFile, err)
		os.Exit(1)
	}
	log.Infof("Comparison: %s", comparisonFile)

	riskFile := filepath.Join(*outDir, "infrastructure_risk_assessment.csv")
	if err := egms2risk.WriteRiskCSV(riskFile, assessments); err != nil {
		log.Errorf("can't write '%s': %v", riskFile, err)
		os.Exit(1)
	}
	log.Infof("Risk assessment: %s", riskFile)

	if *sqliteFile != "" {
		exporter, err := egms2risk.NewSQLiteExporter(*sqliteFile)
		if err != nil {
			log.Errorf("can't open sqlite database: %v", err)
			os.Exit(1)
		}
		defer exporter.Close()
		if err := exporter.StoreSummaries(append(records, baseline)); err != nil {
			log.Errorf("can't store summary: %v", err)
			os.Exit(1)
		}
		log.Infof("Summary stored in %s", *sqliteFile)
	}
}

func initLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
