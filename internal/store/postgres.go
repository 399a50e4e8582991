package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/bazarlab/adextract/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store uses. pgxmock
// implements it for unit tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    pgxPool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS resolved_listings (
	listing_id         TEXT PRIMARY KEY,
	mileage            INTEGER,
	year               INTEGER,
	power              INTEGER,
	fuel               TEXT,
	confidence         TEXT NOT NULL,
	score              DOUBLE PRECISION NOT NULL,
	agreement_level    TEXT NOT NULL,
	flagged_for_review BOOLEAN NOT NULL DEFAULT false,
	raw_ml             JSONB NOT NULL,
	raw_regex          JSONB NOT NULL,
	resolutions        JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_resolved_confidence ON resolved_listings(confidence);
CREATE INDEX IF NOT EXISTS idx_resolved_flagged ON resolved_listings(flagged_for_review);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertRecord(ctx context.Context, rec model.ResolvedRecord) error {
	rawML, rawRegex, resolutions, err := marshalRecordJSON(rec)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO resolved_listings
		 (listing_id, mileage, year, power, fuel, confidence, score, agreement_level,
		  flagged_for_review, raw_ml, raw_regex, resolutions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (listing_id) DO UPDATE SET
		   mileage = $2, year = $3, power = $4, fuel = $5, confidence = $6,
		   score = $7, agreement_level = $8, flagged_for_review = $9,
		   raw_ml = $10, raw_regex = $11, resolutions = $12, created_at = $13`,
		rec.ListingID, rec.Mileage, rec.Year, rec.Power, rec.Fuel,
		string(rec.Confidence), rec.Score, string(rec.AgreementLevel),
		rec.FlaggedForReview, []byte(rawML), []byte(rawRegex), []byte(resolutions), rec.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert record %s", rec.ListingID)
}

func (s *PostgresStore) GetRecord(ctx context.Context, listingID string) (*model.ResolvedRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT listing_id, mileage, year, power, fuel, confidence, score, agreement_level,
		        flagged_for_review, raw_ml, raw_regex, resolutions, created_at
		 FROM resolved_listings WHERE listing_id = $1`,
		listingID,
	)
	rec, err := scanPgRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", listingID)
	}
	return rec, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.ResolvedRecord, error) {
	query := `SELECT listing_id, mileage, year, power, fuel, confidence, score, agreement_level,
	                 flagged_for_review, raw_ml, raw_regex, resolutions, created_at
	          FROM resolved_listings WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Confidence != "" {
		query += fmt.Sprintf(` AND confidence = $%d`, argIdx)
		args = append(args, string(filter.Confidence))
		argIdx++
	}
	if filter.FlaggedOnly {
		query += ` AND flagged_for_review`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.ResolvedRecord
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func scanPgRecord(row pgx.Row) (*model.ResolvedRecord, error) {
	var rec model.ResolvedRecord
	var rawML, rawRegex []byte
	var resolutions *[]byte

	err := row.Scan(&rec.ListingID, &rec.Mileage, &rec.Year, &rec.Power, &rec.Fuel,
		&rec.Confidence, &rec.Score, &rec.AgreementLevel,
		&rec.FlaggedForReview, &rawML, &rawRegex, &resolutions, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rawML, &rec.RawML); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal raw ml")
	}
	if err := json.Unmarshal(rawRegex, &rec.RawRegex); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal raw regex")
	}
	if resolutions != nil {
		if err := json.Unmarshal(*resolutions, &rec.Resolutions); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal resolutions")
		}
	}
	return &rec, nil
}
