package model

import "time"

// Campaign is a time-boxed XP multiplier. When campaigns overlap, the one
// with the latest start wins; equal starts fall back to the highest
// multiplier. That tie-break is deliberate policy, encoded in the resolver.
type Campaign struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Label      string    `gorm:"size:100;not null" json:"label"`
	Multiplier float64   `gorm:"not null" json:"multiplier"` // >= 1.0
	StartsAt   time.Time `gorm:"index;not null" json:"starts_at"`
	EndsAt     time.Time `gorm:"index;not null" json:"ends_at"`
	CreatedAt  time.Time `json:"created_at"`
}
