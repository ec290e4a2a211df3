package ads

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitehive/backend/internal/models"
)

const dynamicAdColumns = `id, venue_id, title, COALESCE(image_url,''), COALESCE(target_url,''), COALESCE(s3_key,''),
	status, pricing_model, bid_amount, purchased_impressions, used_impressions, remaining_impressions,
	total_clicks, total_spent, total_budget, created_at, updated_at`

// Repository handles dynamic ad persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a dynamic ads repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanDynamicAd(row pgx.Row) (*models.DynamicAd, error) {
	var a models.DynamicAd
	err := row.Scan(&a.ID, &a.VenueID, &a.Title, &a.ImageURL, &a.TargetURL, &a.S3Key,
		&a.Status, &a.PricingModel, &a.BidAmount, &a.PurchasedImpressions, &a.UsedImpressions, &a.RemainingImpressions,
		&a.TotalClicks, &a.TotalSpent, &a.TotalBudget, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new dynamic ad in pending status.
func (r *Repository) Create(ctx context.Context, a *models.DynamicAd) error {
	const q = `INSERT INTO dynamic_ads (id, venue_id, title, image_url, target_url, s3_key, status, pricing_model, bid_amount)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), 'pending', $6, $7)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, a.VenueID, a.Title, a.ImageURL, a.TargetURL, a.S3Key, string(a.PricingModel), a.BidAmount).
		Scan(&a.ID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID returns a dynamic ad by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.DynamicAd, error) {
	q := `SELECT ` + dynamicAdColumns + ` FROM dynamic_ads WHERE id = $1`
	return scanDynamicAd(r.pool.QueryRow(ctx, q, id))
}

// ListByVenue returns all dynamic ads for a venue.
func (r *Repository) ListByVenue(ctx context.Context, venueID uuid.UUID) ([]models.DynamicAd, error) {
	q := `SELECT ` + dynamicAdColumns + ` FROM dynamic_ads WHERE venue_id = $1 ORDER BY created_at`
	return r.list(ctx, q, venueID)
}

// ActiveAdsForVenue returns the auction candidate set for a venue.
func (r *Repository) ActiveAdsForVenue(ctx context.Context, venueID uuid.UUID) ([]models.DynamicAd, error) {
	q := `SELECT ` + dynamicAdColumns + ` FROM dynamic_ads WHERE venue_id = $1 AND status = 'active' ORDER BY created_at`
	return r.list(ctx, q, venueID)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.DynamicAd, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.DynamicAd
	for rows.Next() {
		a, err := scanDynamicAd(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// SetStatus updates an ad's status guarded by the current status, so illegal
// or concurrent transitions update zero rows.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, from, to models.AdStatus) (bool, error) {
	const q = `UPDATE dynamic_ads SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	tag, err := r.pool.Exec(ctx, q, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AttachBudget attaches a purchased impression budget to an approved ad and
// activates it. The counters start at used=0, remaining=purchased.
func (r *Repository) AttachBudget(ctx context.Context, id uuid.UUID, impressions, budget int64) (bool, error) {
	const q = `UPDATE dynamic_ads
		SET purchased_impressions = $1, used_impressions = 0, remaining_impressions = $1,
			total_budget = $2, status = 'active', updated_at = NOW()
		WHERE id = $3 AND status = 'approved'`
	tag, err := r.pool.Exec(ctx, q, impressions, budget, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ConsumeImpression atomically decrements remaining and increments used for an
// active ad with budget left, completing the ad when the last impression is
// consumed. A single conditional update, so two concurrent requests can never
// both spend the same impression. Returns pgx.ErrNoRows via ok=false when the
// guard did not match.
func (r *Repository) ConsumeImpression(ctx context.Context, id uuid.UUID) (*models.DynamicAd, bool, error) {
	q := `UPDATE dynamic_ads
		SET remaining_impressions = remaining_impressions - 1,
			used_impressions = used_impressions + 1,
			status = CASE WHEN remaining_impressions - 1 = 0 THEN 'completed' ELSE status END,
			updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND remaining_impressions > 0
		RETURNING ` + dynamicAdColumns
	a, err := scanDynamicAd(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// IncrementClicks unconditionally adds one click to an existing ad.
func (r *Repository) IncrementClicks(ctx context.Context, id uuid.UUID) (int64, error) {
	const q = `UPDATE dynamic_ads SET total_clicks = total_clicks + 1, updated_at = NOW()
		WHERE id = $1 RETURNING total_clicks`
	var clicks int64
	if err := r.pool.QueryRow(ctx, q, id).Scan(&clicks); err != nil {
		return 0, err
	}
	return clicks, nil
}

// ApplyReconcile overwrites local impression/click totals with the external
// authoritative values and reduces remaining by the impression delta, floored
// at zero. Runs as one statement so a concurrent impression cannot interleave.
func (r *Repository) ApplyReconcile(ctx context.Context, id uuid.UUID, extImpressions, extClicks int64) (*models.DynamicAd, error) {
	q := `UPDATE dynamic_ads
		SET remaining_impressions = GREATEST(remaining_impressions - GREATEST($1 - used_impressions, 0), 0),
			used_impressions = $1,
			total_clicks = $2,
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + dynamicAdColumns
	a, err := scanDynamicAd(r.pool.QueryRow(ctx, q, extImpressions, extClicks, id))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("ad not found: %s", id)
	}
	return a, err
}
