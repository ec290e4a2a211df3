package venues

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitehive/backend/internal/models"
)

// Repository handles venue persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a venues repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new venue.
func (r *Repository) Create(ctx context.Context, v *models.Venue) error {
	const q = `INSERT INTO venues (id, owner_id, name, description, address, city, capacity)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, v.OwnerID, v.Name, v.Description, v.Address, v.City, v.Capacity).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// GetByID returns a venue by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	const q = `SELECT id, owner_id, name, COALESCE(description,''), COALESCE(address,''), COALESCE(city,''), capacity, created_at, updated_at
		FROM venues WHERE id = $1`
	var v models.Venue
	err := r.pool.QueryRow(ctx, q, id).Scan(&v.ID, &v.OwnerID, &v.Name, &v.Description, &v.Address, &v.City, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns all venues.
func (r *Repository) List(ctx context.Context) ([]models.Venue, error) {
	const q = `SELECT id, owner_id, name, COALESCE(description,''), COALESCE(address,''), COALESCE(city,''), capacity, created_at, updated_at
		FROM venues ORDER BY name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Venue
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Description, &v.Address, &v.City, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// IsOwner reports whether userID owns the venue.
func (r *Repository) IsOwner(ctx context.Context, venueID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM venues WHERE id = $1 AND owner_id = $2)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, venueID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
