package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarlab/adextract/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_UpsertRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// pgxmock/v3 requires the argument count to match even without assertions;
	// AnyArg keeps the original "args unchecked" behavior.
	mock.ExpectExec(`INSERT INTO resolved_listings`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertRecord(context.Background(), testRecord("a-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT listing_id, mileage, year, power, fuel`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetRecord(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mileage := 150000
	fuel := "diesel"

	rows := pgxmock.NewRows([]string{
		"listing_id", "mileage", "year", "power", "fuel", "confidence", "score",
		"agreement_level", "flagged_for_review", "raw_ml", "raw_regex", "resolutions", "created_at",
	}).AddRow(
		"a-1", &mileage, (*int)(nil), (*int)(nil), &fuel, model.ConfidenceHigh, 0.95,
		model.AgreementFull, false,
		[]byte(`{"mileage": "150000 km", "year": null, "power": null, "fuel": "diesel"}`),
		[]byte(`{"mileage": "150 000 km", "year": null, "power": null, "fuel": "diesel"}`),
		(*[]byte)(nil), created,
	)

	mock.ExpectQuery(`SELECT listing_id, mileage, year, power, fuel`).
		WithArgs("a-1").
		WillReturnRows(rows)

	got, err := s.GetRecord(context.Background(), "a-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a-1", got.ListingID)
	require.NotNil(t, got.Mileage)
	assert.Equal(t, 150000, *got.Mileage)
	assert.Nil(t, got.Power)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
	require.NotNil(t, got.RawML.Mileage)
	assert.Equal(t, "150000 km", *got.RawML.Mileage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecords_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{
		"listing_id", "mileage", "year", "power", "fuel", "confidence", "score",
		"agreement_level", "flagged_for_review", "raw_ml", "raw_regex", "resolutions", "created_at",
	})

	mock.ExpectQuery(`AND confidence = \$1.*AND flagged_for_review.*LIMIT \$2`).
		WithArgs("low", 50).
		WillReturnRows(rows)

	got, err := s.ListRecords(context.Background(), RecordFilter{
		Confidence:  model.ConfidenceLow,
		FlaggedOnly: true,
		Limit:       50,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
