package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bazarlab/adextract/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS resolved_listings (
	listing_id         TEXT PRIMARY KEY,
	mileage            INTEGER,
	year               INTEGER,
	power              INTEGER,
	fuel               TEXT,
	confidence         TEXT NOT NULL,
	score              REAL NOT NULL,
	agreement_level    TEXT NOT NULL,
	flagged_for_review INTEGER NOT NULL DEFAULT 0,
	raw_ml             TEXT NOT NULL,
	raw_regex          TEXT NOT NULL,
	resolutions        TEXT,
	created_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolved_confidence ON resolved_listings(confidence);
CREATE INDEX IF NOT EXISTS idx_resolved_flagged ON resolved_listings(flagged_for_review);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertRecord(ctx context.Context, rec model.ResolvedRecord) error {
	rawML, rawRegex, resolutions, err := marshalRecordJSON(rec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolved_listings
		 (listing_id, mileage, year, power, fuel, confidence, score, agreement_level,
		  flagged_for_review, raw_ml, raw_regex, resolutions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (listing_id) DO UPDATE SET
		   mileage = excluded.mileage, year = excluded.year, power = excluded.power,
		   fuel = excluded.fuel, confidence = excluded.confidence, score = excluded.score,
		   agreement_level = excluded.agreement_level,
		   flagged_for_review = excluded.flagged_for_review,
		   raw_ml = excluded.raw_ml, raw_regex = excluded.raw_regex,
		   resolutions = excluded.resolutions, created_at = excluded.created_at`,
		rec.ListingID, rec.Mileage, rec.Year, rec.Power, rec.Fuel,
		string(rec.Confidence), rec.Score, string(rec.AgreementLevel),
		rec.FlaggedForReview, rawML, rawRegex, resolutions, rec.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert record %s", rec.ListingID)
}

func (s *SQLiteStore) GetRecord(ctx context.Context, listingID string) (*model.ResolvedRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT listing_id, mileage, year, power, fuel, confidence, score, agreement_level,
		        flagged_for_review, raw_ml, raw_regex, resolutions, created_at
		 FROM resolved_listings WHERE listing_id = ?`,
		listingID,
	)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", listingID)
	}
	return rec, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.ResolvedRecord, error) {
	query := `SELECT listing_id, mileage, year, power, fuel, confidence, score, agreement_level,
	                 flagged_for_review, raw_ml, raw_regex, resolutions, created_at
	          FROM resolved_listings WHERE 1=1`
	var args []any

	if filter.Confidence != "" {
		query += ` AND confidence = ?`
		args = append(args, string(filter.Confidence))
	}
	if filter.FlaggedOnly {
		query += ` AND flagged_for_review = 1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var records []model.ResolvedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

// helpers

func marshalRecordJSON(rec model.ResolvedRecord) (string, string, string, error) {
	rawML, err := json.Marshal(rec.RawML)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal raw ml")
	}
	rawRegex, err := json.Marshal(rec.RawRegex)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal raw regex")
	}
	resolutions, err := json.Marshal(rec.Resolutions)
	if err != nil {
		return "", "", "", eris.Wrap(err, "store: marshal resolutions")
	}
	return string(rawML), string(rawRegex), string(resolutions), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.ResolvedRecord, error) {
	var rec model.ResolvedRecord
	var mileage, year, power sql.NullInt64
	var fuel sql.NullString
	var rawML, rawRegex string
	var resolutions sql.NullString

	err := row.Scan(&rec.ListingID, &mileage, &year, &power, &fuel,
		&rec.Confidence, &rec.Score, &rec.AgreementLevel,
		&rec.FlaggedForReview, &rawML, &rawRegex, &resolutions, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if mileage.Valid {
		v := int(mileage.Int64)
		rec.Mileage = &v
	}
	if year.Valid {
		v := int(year.Int64)
		rec.Year = &v
	}
	if power.Valid {
		v := int(power.Int64)
		rec.Power = &v
	}
	if fuel.Valid {
		rec.Fuel = &fuel.String
	}

	if err := json.Unmarshal([]byte(rawML), &rec.RawML); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal raw ml")
	}
	if err := json.Unmarshal([]byte(rawRegex), &rec.RawRegex); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal raw regex")
	}
	if resolutions.Valid && resolutions.String != "" && resolutions.String != "null" {
		if err := json.Unmarshal([]byte(resolutions.String), &rec.Resolutions); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal resolutions")
		}
	}
	return &rec, nil
}
