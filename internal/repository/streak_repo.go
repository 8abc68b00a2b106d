package repository

import (
	"anoa.com/lumirarewards/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository interface {
	Get(userID uuid.UUID) (*model.StreakState, error)
	Save(state *model.StreakState) error
	ResetDailyBonus() error
	// BreakStale zeroes streaks whose last qualifying day is strictly before
	// cutoffDay (DayLayout). Comparing date strings is safe because the
	// layout is lexicographically ordered.
	BreakStale(cutoffDay string) error
}

type streakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) Get(userID uuid.UUID) (*model.StreakState, error) {
	var state model.StreakState
	err := r.db.Where("user_id = ?", userID).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *streakRepository) Save(state *model.StreakState) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_streak", "max_streak", "last_qualifying_day",
			"timezone", "streak_xp_today", "updated_at",
		}),
	}).Create(state).Error
}

func (r *streakRepository) ResetDailyBonus() error {
	return r.db.Model(&model.StreakState{}).
		Where("streak_xp_today > 0").
		Update("streak_xp_today", 0).Error
}

func (r *streakRepository) BreakStale(cutoffDay string) error {
	return r.db.Model(&model.StreakState{}).
		Where("current_streak > 0 AND last_qualifying_day < ?", cutoffDay).
		Update("current_streak", 0).Error
}
