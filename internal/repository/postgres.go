package repository

import (
	"context"
	"errors"
	"time"

	"clustering-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by cache lookups when the address has never been stored.
var ErrNotFound = eris.New("repository: address not cached")

// DB is the subset of *pgxpool.Pool the repository needs. pgxmock pools satisfy it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements the address cache on PostgreSQL
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new PostgreSQL address cache
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Lookup returns the cached location for an exact match on all four address fields.
func (r *PostgresRepository) Lookup(ctx context.Context, addr models.StructuredAddress) (*models.Location, error) {
	sql := `
		SELECT
			id,
			number,
			cardinal,
			street,
			suffix,
			latitude,
			longitude,
			COALESCE(place_id, ''),
			updated_at
		FROM address_cache
		WHERE number = $1 AND cardinal = $2 AND street = $3 AND suffix = $4
	`

	var (
		loc      models.Location
		cardinal string
	)
	err := r.db.QueryRow(ctx, sql, addr.Number, string(addr.Cardinal), addr.Street, addr.Suffix).Scan(
		&loc.ID,
		&loc.Address.Number,
		&cardinal,
		&loc.Address.Street,
		&loc.Address.Suffix,
		&loc.Latitude,
		&loc.Longitude,
		&loc.PlaceID,
		&loc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "repository: failed to execute lookup query")
	}
	loc.Address.Cardinal = models.Cardinal(cardinal)

	return &loc, nil
}

// Upsert stores coordinates for an address. An existing row keeps its id; coordinates,
// place id and updated_at are overwritten.
func (r *PostgresRepository) Upsert(ctx context.Context, addr models.StructuredAddress, lat, lng float64, placeID string) (*models.Location, error) {
	sql := `
		INSERT INTO address_cache (number, cardinal, street, suffix, latitude, longitude, place_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (number, cardinal, street, suffix) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			place_id = EXCLUDED.place_id,
			updated_at = now()
		RETURNING id, updated_at
	`

	var (
		id        int64
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, sql,
		addr.Number, string(addr.Cardinal), addr.Street, addr.Suffix, lat, lng, nilIfEmpty(placeID),
	).Scan(&id, &updatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "repository: failed to upsert address")
	}

	return &models.Location{
		ID:        id,
		Address:   addr,
		Latitude:  lat,
		Longitude: lng,
		PlaceID:   placeID,
		UpdatedAt: updatedAt,
	}, nil
}

// nilIfEmpty returns nil for empty strings so they are stored as NULL.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
