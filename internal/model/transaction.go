package model

import (
	"time"

	"github.com/google/uuid"
)

// Point source identifiers. The ledger only accepts sources registered in the
// source registry; these constants cover the built-in ones.
const (
	SourceOrder            = "order"
	SourceReview           = "review"
	SourceLoginStreak      = "login-streak"
	SourceReferral         = "referral"
	SourceManualAdjustment = "manual-adjustment"
	SourceExpiry           = "expiry"
)

// Transaction is an immutable ledger row. Amount is signed: positive rows are
// credits, negative rows are debits (expiry, corrections). Rows are never
// updated after insert except for the expiry bookkeeping columns
// (WarnedAt, ReversedAt, ReversalID), which only move from NULL to set once.
type Transaction struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;index:idx_txn_user_date,priority:1;not null" json:"user_id"`
	Source         string     `gorm:"size:50;not null;index" json:"source"`
	Amount         int        `gorm:"not null" json:"amount"`
	IdempotencyKey string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Note           string     `gorm:"size:255" json:"note,omitempty"`
	ExpiresAt      *time.Time `gorm:"index" json:"expires_at,omitempty"`
	WarnedAt       *time.Time `json:"-"`
	ReversedAt     *time.Time `gorm:"index" json:"-"`
	ReversalID     *uint      `json:"-"` // id of the compensating expiry debit
	CreatedAt      time.Time  `gorm:"index:idx_txn_user_date,priority:2" json:"created_at"`
}

// UserBalance is a ledger aggregation row (leaderboard / balance queries).
type UserBalance struct {
	UserID  uuid.UUID `json:"user_id"`
	TotalXP int       `json:"total_xp"`
}
