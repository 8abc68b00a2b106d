package service

import (
	"context"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
)

type CampaignService interface {
	// Active returns the campaign in effect at now, or nil when none is.
	Active(ctx context.Context, now time.Time) (*model.Campaign, error)
	List(ctx context.Context) ([]model.Campaign, error)
	Create(ctx context.Context, campaign *model.Campaign) error
}

type campaignService struct {
	repo repository.CampaignRepository
}

func NewCampaignService(repo repository.CampaignRepository) CampaignService {
	return &campaignService{repo: repo}
}

func (s *campaignService) Active(ctx context.Context, now time.Time) (*model.Campaign, error) {
	campaigns, err := s.repo.ListActive(now)
	if err != nil {
		return nil, err
	}
	return ResolveActive(campaigns, now), nil
}

func (s *campaignService) List(ctx context.Context) ([]model.Campaign, error) {
	return s.repo.ListAll()
}

func (s *campaignService) Create(ctx context.Context, campaign *model.Campaign) error {
	if campaign.Multiplier < 1.0 {
		campaign.Multiplier = 1.0
	}
	return s.repo.Create(campaign)
}

// ResolveActive picks the winner among overlapping campaigns: the latest
// start wins, equal starts fall back to the highest multiplier. Pure
// function of its inputs; campaigns outside [StartsAt, EndsAt] are ignored.
func ResolveActive(campaigns []model.Campaign, now time.Time) *model.Campaign {
	var winner *model.Campaign
	for i := range campaigns {
		c := &campaigns[i]
		if now.Before(c.StartsAt) || now.After(c.EndsAt) {
			continue
		}
		switch {
		case winner == nil:
			winner = c
		case c.StartsAt.After(winner.StartsAt):
			winner = c
		case c.StartsAt.Equal(winner.StartsAt) && c.Multiplier > winner.Multiplier:
			winner = c
		}
	}
	return winner
}
