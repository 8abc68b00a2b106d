package model

import (
	"time"

	"github.com/google/uuid"
)

// LevelDefinition is one rung of the admin-managed threshold ladder.
// XPRequired is strictly increasing across rows; level 1 sits at 0 XP.
type LevelDefinition struct {
	LevelNumber int    `gorm:"primaryKey" json:"level_number"`
	Name        string `gorm:"size:50;not null" json:"name"`
	XPRequired  int    `gorm:"not null;uniqueIndex" json:"xp_required"`
	Color       string `gorm:"size:7" json:"color"`
	Benefits    string `gorm:"size:255" json:"benefits"`
}

// UserLevelState holds the per-user level row. A non-nil GraceDeadline means
// the user's XP has dropped below the threshold of CurrentLevel and the
// downgrade is pending until the deadline passes without recovery.
type UserLevelState struct {
	UserID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentLevel  int        `gorm:"not null;default:1" json:"current_level"`
	GraceDeadline *time.Time `gorm:"index" json:"grace_deadline,omitempty"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
