package repository

import (
	"time"

	"anoa.com/lumirarewards/internal/model"
	"gorm.io/gorm"
)

type CampaignRepository interface {
	ListActive(now time.Time) ([]model.Campaign, error)
	ListAll() ([]model.Campaign, error)
	Create(campaign *model.Campaign) error
}

type campaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) ListActive(now time.Time) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.db.
		Where("starts_at <= ? AND ends_at >= ?", now, now).
		Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) ListAll() ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.db.Order("starts_at DESC").Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) Create(campaign *model.Campaign) error {
	return r.db.Create(campaign).Error
}
