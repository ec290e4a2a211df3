package ads

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitehive/backend/internal/models"
)

// StaticRepository handles static house-ad and rotation-cursor persistence.
type StaticRepository struct {
	pool *pgxpool.Pool
}

// NewStaticRepository creates a static ads repository.
func NewStaticRepository(pool *pgxpool.Pool) *StaticRepository {
	return &StaticRepository{pool: pool}
}

// Create inserts a static ad.
func (r *StaticRepository) Create(ctx context.Context, a *models.StaticAd) error {
	const q = `INSERT INTO static_ads (id, title, image_url, target_url, display_order, enabled)
		VALUES (gen_random_uuid(), $1, NULLIF($2,''), NULLIF($3,''), $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, a.Title, a.ImageURL, a.TargetURL, a.DisplayOrder, a.Enabled).
		Scan(&a.ID, &a.CreatedAt)
}

// ListEnabled returns the enabled static-ad pool in stable display order.
func (r *StaticRepository) ListEnabled(ctx context.Context) ([]models.StaticAd, error) {
	const q = `SELECT id, title, COALESCE(image_url,''), COALESCE(target_url,''), display_order, enabled, created_at
		FROM static_ads WHERE enabled = TRUE ORDER BY display_order, created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.StaticAd
	for rows.Next() {
		var a models.StaticAd
		if err := rows.Scan(&a.ID, &a.Title, &a.ImageURL, &a.TargetURL, &a.DisplayOrder, &a.Enabled, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// List returns all static ads.
func (r *StaticRepository) List(ctx context.Context) ([]models.StaticAd, error) {
	const q = `SELECT id, title, COALESCE(image_url,''), COALESCE(target_url,''), display_order, enabled, created_at
		FROM static_ads ORDER BY display_order, created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.StaticAd
	for rows.Next() {
		var a models.StaticAd
		if err := rows.Scan(&a.ID, &a.Title, &a.ImageURL, &a.TargetURL, &a.DisplayOrder, &a.Enabled, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// SetEnabled flips the enabled flag for a static ad.
func (r *StaticRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	const q = `UPDATE static_ads SET enabled = $1 WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, enabled, id)
	return err
}

// Delete removes a static ad.
func (r *StaticRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM static_ads WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// AdvanceCursor advances the venue's rotation cursor by one in a single atomic
// upsert and returns the index to serve from a pool of the given size, plus
// the new display count. The returned row holds the NEXT index to serve, so
// the served index is one step behind it, modulo the pool size.
func (r *StaticRepository) AdvanceCursor(ctx context.Context, venueID uuid.UUID, poolSize int) (int, int64, error) {
	const q = `INSERT INTO rotation_cursors (venue_id, current_index, display_count, updated_at)
		VALUES ($1, 1 % $2, 1, NOW())
		ON CONFLICT (venue_id) DO UPDATE
		SET current_index = (rotation_cursors.current_index + 1) % $2,
			display_count = rotation_cursors.display_count + 1,
			updated_at = NOW()
		RETURNING current_index, display_count`
	var next int
	var count int64
	if err := r.pool.QueryRow(ctx, q, venueID, poolSize).Scan(&next, &count); err != nil {
		return 0, 0, err
	}
	served := (next - 1 + poolSize) % poolSize
	return served, count, nil
}

// GetCursor returns the rotation cursor for a venue, or nil if none exists yet.
func (r *StaticRepository) GetCursor(ctx context.Context, venueID uuid.UUID) (*models.RotationCursor, error) {
	const q = `SELECT venue_id, current_index, display_count, updated_at FROM rotation_cursors WHERE venue_id = $1`
	var c models.RotationCursor
	err := r.pool.QueryRow(ctx, q, venueID).Scan(&c.VenueID, &c.CurrentIndex, &c.DisplayCount, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
