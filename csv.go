package egms2risk

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ReadEGMSCSV loads EGMS measurement points from a comma-separated file with
// a header. Required columns: pid, easting, northing, velocity. Optional:
// first_date, last_date. Coordinates are taken as-is, in whatever CRS the
// dataset was exported in.
func ReadEGMSCSV(fileName string) ([]MeasurementPoint, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "Can't read header")
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"pid", "easting", "northing", "velocity"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("Missing required column '%s'", required)
		}
	}

	points := []MeasurementPoint{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Bad record at line %d", line+1)
		}
		line++
		x, err := strconv.ParseFloat(record[cols["easting"]], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad easting at line %d", line)
		}
		y, err := strconv.ParseFloat(record[cols["northing"]], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad northing at line %d", line)
		}
		velocity, err := strconv.ParseFloat(record[cols["velocity"]], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad velocity at line %d", line)
		}
		point := MeasurementPoint{
			ID:       record[cols["pid"]],
			Geom:     orb.Point{x, y},
			Velocity: velocity,
		}
		if idx, ok := cols["first_date"]; ok {
			point.FirstDate = record[idx]
		}
		if idx, ok := cols["last_date"]; ok {
			point.LastDate = record[idx]
		}
		points = append(points, point)
	}
	return points, nil
}

// WriteJoinedCSV writes joined points, one row per point-class pair so the
// statistics stage can group by the class column directly. The classes
// column carries the full multi-label set of the point. Semicolon-separated
// since the geometry column may contain commas.
func WriteJoinedCSV(fileName string, joined []JoinedPoint, format GeometryFormat) error {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.Comma = ';'

	err := writer.Write([]string{"pid", "easting", "northing", "velocity", "first_date", "last_date", "class", "classes", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for i := range joined {
		jp := joined[i]
		for _, class := range jp.Classes {
			err = writer.Write([]string{
				jp.Point.ID,
				strconv.FormatFloat(jp.Point.Geom[0], 'f', 3, 64),
				strconv.FormatFloat(jp.Point.Geom[1], 'f', 3, 64),
				strconv.FormatFloat(jp.Point.Velocity, 'f', 2, 64),
				jp.Point.FirstDate,
				jp.Point.LastDate,
				class.String(),
				classesString(jp.Classes),
				PrepareGeometryString(jp.Point.Geom, format),
			})
			if err != nil {
				return errors.Wrap(err, "Can't write row")
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "Can't flush output")
	}
	return writeFileAtomic(fileName, buf.Bytes())
}

// ReadJoinedCSV loads joined points written by WriteJoinedCSV. Rows of one
// point (one per class) are folded back into a single JoinedPoint.
func ReadJoinedCSV(fileName string) ([]JoinedPoint, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "Can't read header")
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"pid", "easting", "northing", "velocity", "classes"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Errorf("Missing required column '%s'", required)
		}
	}

	joined := []JoinedPoint{}
	seen := map[string]struct{}{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Bad record at line %d", line+1)
		}
		line++
		pid := record[cols["pid"]]
		// Rows of one point carry identical coordinate strings; distinct
		// points sharing a pid must not be folded together
		key := pid + ";" + record[cols["easting"]] + ";" + record[cols["northing"]]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		x, err := strconv.ParseFloat(record[cols["easting"]], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad easting at line %d", line)
		}
		y, err := strconv.ParseFloat(record[cols["northing"]], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad northing at line %d", line)
		}
		velocity, err := strconv.ParseFloat(record[cols["velocity"]], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad velocity at line %d", line)
		}

		jp := JoinedPoint{
			Point: MeasurementPoint{
				ID:       pid,
				Geom:     orb.Point{x, y},
				Velocity: velocity,
			},
			Classes: parseClasses(record[cols["classes"]]),
		}
		if idx, ok := cols["first_date"]; ok {
			jp.Point.FirstDate = record[idx]
		}
		if idx, ok := cols["last_date"]; ok {
			jp.Point.LastDate = record[idx]
		}
		if len(jp.Classes) > 0 {
			jp.Primary = jp.Classes[0]
		}
		joined = append(joined, jp)
	}
	return joined, nil
}

// WriteSummaryCSV writes one row per summary record. Statistics of an empty
// group are left blank, not zero.
func WriteSummaryCSV(fileName string, records []SummaryRecord) error {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.Comma = ';'

	err := writer.Write([]string{
		"class", "count", "mean_velocity", "median_velocity", "std_velocity",
		"min_velocity", "max_velocity", "range",
		"pct_subsiding", "pct_uplifting", "stability_pct", "risk_level",
	})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, record := range records {
		err = writer.Write([]string{
			record.Group,
			strconv.Itoa(record.Count),
			formatStat(record.MeanVelocity),
			formatStat(record.MedianVelocity),
			formatStat(record.StdVelocity),
			formatStat(record.MinVelocity),
			formatStat(record.MaxVelocity),
			formatStat(record.Range),
			formatStat(record.PctSubsiding),
			formatStat(record.PctUplifting),
			formatStat(record.PctStable),
			record.Risk.String(),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "Can't flush output")
	}
	return writeFileAtomic(fileName, buf.Bytes())
}

// WriteComparisonCSV writes the per-class baseline comparison table
func WriteComparisonCSV(fileName string, comparisons []ComparisonRecord) error {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.Comma = ';'

	err := writer.Write([]string{"class", "mean_velocity", "baseline_mean", "difference", "pct_difference", "assessment"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, comparison := range comparisons {
		err = writer.Write([]string{
			comparison.Group,
			formatStat(comparison.MeanVelocity),
			formatStat(comparison.BaselineMean),
			formatStat(comparison.Difference),
			formatStat(comparison.PctDifference),
			comparison.Assessment,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "Can't flush output")
	}
	return writeFileAtomic(fileName, buf.Bytes())
}

// WriteRiskCSV writes the per-class risk assessment table
func WriteRiskCSV(fileName string, assessments []RiskAssessment) error {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	writer.Comma = ';'

	err := writer.Write([]string{"class", "mean_velocity", "max_velocity", "stability_pct", "risk_level", "recommended_action"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, assessment := range assessments {
		err = writer.Write([]string{
			assessment.Group,
			formatStat(assessment.MeanVelocity),
			formatStat(assessment.MaxVelocity),
			formatStat(assessment.PctStable),
			assessment.Risk.String(),
			assessment.Action,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "Can't flush output")
	}
	return writeFileAtomic(fileName, buf.Bytes())
}

// formatStat renders a statistic with two decimals, empty string for NaN
func formatStat(value float64) string {
	if math.IsNaN(value) {
		return ""
	}
	return fmt.Sprintf("%.2f", value)
}
