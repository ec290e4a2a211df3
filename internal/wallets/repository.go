package wallets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nitehive/backend/internal/models"
)

// ErrInsufficientFunds is returned when a debit would take the balance negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Repository handles wallet balance and transaction persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a wallets repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns a user's wallet, creating an empty one if missing.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	const q = `INSERT INTO wallets (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO UPDATE SET user_id = wallets.user_id
		RETURNING user_id, balance, updated_at`
	var w models.Wallet
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&w.UserID, &w.Balance, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// Credit adds amount to the wallet and appends a transaction row, in one tx.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.Wallet, error) {
	return r.apply(ctx, userID, amount, models.WalletTxCredit, reference)
}

// Debit subtracts amount from the wallet if covered, guarded by a
// balance >= amount predicate with a rows-affected check, so two concurrent
// debits cannot overdraw. Returns ErrInsufficientFunds when the guard fails.
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*models.Wallet, error) {
	return r.apply(ctx, userID, -amount, models.WalletTxDebit, reference)
}

func (r *Repository) apply(ctx context.Context, userID uuid.UUID, delta int64, kind, reference string) (*models.Wallet, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `INSERT INTO wallets (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.Exec(ctx, upsert, userID); err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}

	const update = `UPDATE wallets SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2 AND balance + $1 >= 0
		RETURNING user_id, balance, updated_at`
	var w models.Wallet
	err = tx.QueryRow(ctx, update, delta, userID).Scan(&w.UserID, &w.Balance, &w.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	const insert = `INSERT INTO wallet_transactions (id, user_id, kind, amount, reference)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''))`
	if _, err := tx.Exec(ctx, insert, userID, kind, amount, reference); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &w, nil
}

// ListTransactions returns a user's wallet transactions, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	const q = `SELECT id, user_id, kind, amount, COALESCE(reference,''), created_at
		FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount, &t.Reference, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
