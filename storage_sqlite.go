package egms2risk

import (
	"database/sql"
	"math"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteExporter Optional SQLite output of joined points and summary
// statistics, one database file per pipeline run
type SQLiteExporter struct {
	db *sql.DB
}

// NewSQLiteExporter opens (or creates) the database file and prepares the
// output tables. Existing rows of a previous run are dropped.
func NewSQLiteExporter(fileName string) (*SQLiteExporter, error) {
	db, err := sql.Open("sqlite", fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open database")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Can't set journal mode")
	}
	schema := `
	CREATE TABLE IF NOT EXISTS joined_points (
		pid TEXT NOT NULL,
		class TEXT NOT NULL,
		easting REAL NOT NULL,
		northing REAL NOT NULL,
		velocity REAL NOT NULL,
		classes TEXT NOT NULL,
		first_date TEXT,
		last_date TEXT,
		PRIMARY KEY (pid, class)
	);
	CREATE TABLE IF NOT EXISTS summary (
		class TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		mean_velocity REAL,
		median_velocity REAL,
		std_velocity REAL,
		min_velocity REAL,
		max_velocity REAL,
		stability_pct REAL,
		risk_level TEXT NOT NULL
	);
	DELETE FROM joined_points;
	DELETE FROM summary;
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "Can't prepare schema")
	}
	return &SQLiteExporter{db: db}, nil
}

// Close closes the underlying database
func (exporter *SQLiteExporter) Close() error {
	return exporter.db.Close()
}

// StoreJoinedPoints inserts the joined points, one row per point-class pair,
// in a single transaction
func (exporter *SQLiteExporter) StoreJoinedPoints(joined []JoinedPoint) error {
	tx, err := exporter.db.Begin()
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	stmt, err := tx.Prepare("INSERT INTO joined_points (pid, class, easting, northing, velocity, classes, first_date, last_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "Can't prepare insert")
	}
	defer stmt.Close()

	for i := range joined {
		jp := joined[i]
		for _, class := range jp.Classes {
			_, err = stmt.Exec(
				jp.Point.ID,
				class.String(),
				jp.Point.Geom[0],
				jp.Point.Geom[1],
				jp.Point.Velocity,
				classesString(jp.Classes),
				jp.Point.FirstDate,
				jp.Point.LastDate,
			)
			if err != nil {
				tx.Rollback()
				return errors.Wrapf(err, "Can't insert point '%s'", jp.Point.ID)
			}
		}
	}
	return errors.Wrap(tx.Commit(), "Can't commit")
}

// StoreSummaries inserts the summary records. NaN statistics of empty
// groups become SQL NULLs.
func (exporter *SQLiteExporter) StoreSummaries(records []SummaryRecord) error {
	tx, err := exporter.db.Begin()
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}
	stmt, err := tx.Prepare("INSERT INTO summary (class, count, mean_velocity, median_velocity, std_velocity, min_velocity, max_velocity, stability_pct, risk_level) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "Can't prepare insert")
	}
	defer stmt.Close()

	for _, record := range records {
		_, err = stmt.Exec(
			record.Group,
			record.Count,
			nullableStat(record.MeanVelocity),
			nullableStat(record.MedianVelocity),
			nullableStat(record.StdVelocity),
			nullableStat(record.MinVelocity),
			nullableStat(record.MaxVelocity),
			nullableStat(record.PctStable),
			record.Risk.String(),
		)
		if err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "Can't insert summary '%s'", record.Group)
		}
	}
	return errors.Wrap(tx.Commit(), "Can't commit")
}

func nullableStat(value float64) sql.NullFloat64 {
	if math.IsNaN(value) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: value, Valid: true}
}
