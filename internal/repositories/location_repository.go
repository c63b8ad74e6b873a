package repositories

import (
	"context"
	"errors"
	"fmt"

	"shift-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LocationRepository struct {
	DB *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{DB: db}
}

// Upsert registers a location, keyed by (area_code, kind). Repeat calls for
// the same area are idempotent: the existing row's id is returned and only
// the display name is refreshed.
func (r *LocationRepository) Upsert(ctx context.Context, loc *models.Location) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO locations(area_code, name, kind)
         VALUES($1, $2, $3)
         ON CONFLICT (area_code, kind) DO UPDATE SET name = EXCLUDED.name
         RETURNING id, created_at`,
		loc.AreaCode, loc.Name, loc.Kind,
	).Scan(&loc.ID, &loc.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting location %q/%s: %w", loc.AreaCode, loc.Kind, err)
	}
	return nil
}

func (r *LocationRepository) Get(ctx context.Context, id int) (*models.Location, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, area_code, name, kind, created_at FROM locations WHERE id=$1`, id)

	var loc models.Location
	err := row.Scan(&loc.ID, &loc.AreaCode, &loc.Name, &loc.Kind, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting location %d: %w", id, err)
	}
	return &loc, nil
}
