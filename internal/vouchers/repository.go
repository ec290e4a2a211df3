package vouchers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitehive/backend/internal/models"
)

// Claim failure modes.
var (
	ErrVoucherExhausted = errors.New("voucher exhausted or expired")
	ErrAlreadyClaimed   = errors.New("voucher already claimed by user")
)

// Repository handles voucher persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a vouchers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new voucher batch.
func (r *Repository) Create(ctx context.Context, v *models.Voucher) error {
	const q = `INSERT INTO vouchers (id, venue_id, code, value, max_claims, expires_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, v.VenueID, v.Code, v.Value, v.MaxClaims, v.ExpiresAt).
		Scan(&v.ID, &v.CreatedAt)
}

// GetByCode returns a voucher by its code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	const q = `SELECT id, venue_id, code, value, max_claims, claim_count, expires_at, created_at
		FROM vouchers WHERE code = $1`
	var v models.Voucher
	err := r.pool.QueryRow(ctx, q, code).
		Scan(&v.ID, &v.VenueID, &v.Code, &v.Value, &v.MaxClaims, &v.ClaimCount, &v.ExpiresAt, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns all vouchers, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Voucher, error) {
	const q = `SELECT id, venue_id, code, value, max_claims, claim_count, expires_at, created_at
		FROM vouchers ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Voucher
	for rows.Next() {
		var v models.Voucher
		if err := rows.Scan(&v.ID, &v.VenueID, &v.Code, &v.Value, &v.MaxClaims, &v.ClaimCount, &v.ExpiresAt, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// Claim records a claim for the user. The claim counter increment is a single
// conditional update guarded by claim_count < max_claims and expiry, so the
// batch can never be over-claimed under concurrency; a unique index on
// (voucher_id, user_id) rejects duplicate claims by the same user.
func (r *Repository) Claim(ctx context.Context, code string, userID uuid.UUID) (*models.Voucher, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const update = `UPDATE vouchers
		SET claim_count = claim_count + 1
		WHERE code = $1
		  AND claim_count < max_claims
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING id, venue_id, code, value, max_claims, claim_count, expires_at, created_at`
	var v models.Voucher
	err = tx.QueryRow(ctx, update, code).
		Scan(&v.ID, &v.VenueID, &v.Code, &v.Value, &v.MaxClaims, &v.ClaimCount, &v.ExpiresAt, &v.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrVoucherExhausted
	}
	if err != nil {
		return nil, err
	}

	const insert = `INSERT INTO voucher_claims (id, voucher_id, user_id)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (voucher_id, user_id) DO NOTHING`
	tag, err := tx.Exec(ctx, insert, v.ID, userID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyClaimed
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &v, nil
}
