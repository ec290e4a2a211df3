package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet transaction kinds.
const (
	WalletTxCredit = "credit"
	WalletTxDebit  = "debit"
)

// Wallet holds a user's balance in minor currency units.
type Wallet struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletTransaction is one append-only ledger row against a wallet.
type WalletTransaction struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
