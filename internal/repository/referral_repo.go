package repository

import (
	"anoa.com/lumirarewards/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralRepository interface {
	Create(ref *model.Referral) (inserted bool, err error)
	FindByReferred(referredID uuid.UUID) (*model.Referral, error)
	Save(ref *model.Referral) error
	// CreateCommission is idempotent per order reference.
	CreateCommission(commission *model.Commission) (inserted bool, err error)
	SumCommission(referrerID uuid.UUID) (int64, error)
}

type referralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

func (r *referralRepository) Create(ref *model.Referral) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "referred_id"}},
		DoNothing: true,
	}).Create(ref)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *referralRepository) FindByReferred(referredID uuid.UUID) (*model.Referral, error) {
	var ref model.Referral
	err := r.db.Where("referred_id = ?", referredID).First(&ref).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *referralRepository) Save(ref *model.Referral) error {
	return r.db.Save(ref).Error
}

func (r *referralRepository) CreateCommission(commission *model.Commission) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_ref"}},
		DoNothing: true,
	}).Create(commission)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *referralRepository) SumCommission(referrerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.Model(&model.Commission{}).
		Where("referrer_id = ?", referrerID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}
