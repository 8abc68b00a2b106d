package model

import (
	"time"

	"github.com/google/uuid"
)

// Referral links a referred customer to the referrer who recruited them.
// A customer can be referred at most once (unique ReferredID).
type Referral struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ReferrerID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferredID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"referred_id"`
	CodeUsed     string     `gorm:"size:50" json:"code_used"`
	BonusAwarded bool       `gorm:"not null;default:false" json:"bonus_awarded"`
	AwardedAt    *time.Time `json:"awarded_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Commission is one payout line attributed to a referrer for a referred
// purchase. OrderRef is unique so a replayed order webhook cannot pay twice.
type Commission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ReferrerID      uuid.UUID `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferredID      uuid.UUID `gorm:"type:uuid;not null" json:"referred_id"`
	OrderRef        string    `gorm:"size:100;uniqueIndex;not null" json:"order_ref"`
	OrderTotalCents int64     `gorm:"not null" json:"order_total_cents"`
	RatePct         float64   `gorm:"not null" json:"rate_pct"`
	AmountCents     int64     `gorm:"not null" json:"amount_cents"`
	CreatedAt       time.Time `json:"created_at"`
}
