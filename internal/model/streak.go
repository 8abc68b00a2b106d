package model

import (
	"time"

	"github.com/google/uuid"
)

// DayLayout is the calendar-day encoding used for streak bookkeeping.
// Days are stored as plain dates in the user's own timezone so that a
// "consecutive day" means consecutive local days, not UTC days.
const DayLayout = "2006-01-02"

type StreakState struct {
	UserID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentStreak     int       `gorm:"not null;default:0" json:"current_streak"`
	MaxStreak         int       `gorm:"not null;default:0" json:"max_streak"`
	LastQualifyingDay string    `gorm:"size:10" json:"last_qualifying_day"` // DayLayout, user-local
	Timezone          string    `gorm:"size:64" json:"timezone"`
	StreakXPToday     int       `gorm:"not null;default:0" json:"streak_xp_today"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
