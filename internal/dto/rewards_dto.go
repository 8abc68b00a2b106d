package dto

import (
	"time"

	"anoa.com/lumirarewards/internal/model"
)

// CreditEventRequest is the trigger-source payload: a qualifying store event
// (order paid, review submitted, ...) with a stable external reference.
type CreditEventRequest struct {
	UserID            string `json:"user_id" binding:"required,uuid"`
	Source            string `json:"source" binding:"required"`
	Amount            int    `json:"amount" binding:"required,gt=0"`
	ExternalReference string `json:"external_reference" binding:"required"`
	Note              string `json:"note"`
}

type ActivityRequest struct {
	Timestamp *time.Time `json:"timestamp"`
	Timezone  string     `json:"timezone"`
}

// OrderPaidRequest is the order-system trigger: credits purchase XP and runs
// referral attribution in one call.
type OrderPaidRequest struct {
	UserID     string `json:"user_id" binding:"required,uuid"`
	OrderID    string `json:"order_id" binding:"required"`
	TotalCents int64  `json:"total_cents" binding:"gte=0"`
	XPAmount   int    `json:"xp_amount" binding:"required,gt=0"`
}

// AdjustmentRequest is an operator-issued correction. Positive amounts
// credit, negative amounts debit; debits may drive the balance negative.
type AdjustmentRequest struct {
	UserID            string `json:"user_id" binding:"required,uuid"`
	Amount            int    `json:"amount" binding:"required"`
	ExternalReference string `json:"external_reference" binding:"required"`
	Note              string `json:"note"`
}

type RegisterReferralRequest struct {
	ReferrerID string `json:"referrer_id" binding:"required,uuid"`
	ReferredID string `json:"referred_id" binding:"required,uuid"`
	Code       string `json:"code"`
}

type CampaignRequest struct {
	Label      string    `json:"label" binding:"required"`
	Multiplier float64   `json:"multiplier" binding:"required,min=1"`
	StartsAt   time.Time `json:"starts_at" binding:"required"`
	EndsAt     time.Time `json:"ends_at" binding:"required"`
}

type HistoryResponse struct {
	Items    []model.Transaction `json:"items"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	HasMore  bool                `json:"has_more"`
}
