package repository

import (
	"time"

	"anoa.com/lumirarewards/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LevelRepository interface {
	ListDefinitions() ([]model.LevelDefinition, error)
	GetState(userID uuid.UUID) (*model.UserLevelState, error)
	SaveState(state *model.UserLevelState) error
	// ListElapsedGrace returns users whose grace deadline has passed,
	// oldest deadline first.
	ListElapsedGrace(now time.Time, batchSize int) ([]model.UserLevelState, error)
}

type levelRepository struct {
	db *gorm.DB
}

func NewLevelRepository(db *gorm.DB) LevelRepository {
	return &levelRepository{db: db}
}

func (r *levelRepository) ListDefinitions() ([]model.LevelDefinition, error) {
	var defs []model.LevelDefinition
	err := r.db.Order("xp_required ASC").Find(&defs).Error
	return defs, err
}

func (r *levelRepository) GetState(userID uuid.UUID) (*model.UserLevelState, error) {
	var state model.UserLevelState
	err := r.db.Where("user_id = ?", userID).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *levelRepository) SaveState(state *model.UserLevelState) error {
	// Upsert keyed on user_id; grace_deadline must be writable back to NULL
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_level", "grace_deadline", "updated_at"}),
	}).Create(state).Error
}

func (r *levelRepository) ListElapsedGrace(now time.Time, batchSize int) ([]model.UserLevelState, error) {
	var states []model.UserLevelState
	err := r.db.
		Where("grace_deadline IS NOT NULL AND grace_deadline <= ?", now).
		Order("grace_deadline ASC").
		Limit(batchSize).
		Find(&states).Error
	return states, err
}
