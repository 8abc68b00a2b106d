package service

import (
	"context"
	"log"
	"math"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
	"anoa.com/lumirarewards/pkg/apperror"
	"github.com/google/uuid"
)

// ReferralBonusXP is the one-time XP paid to a referrer when their referred
// customer completes a first qualifying purchase.
const ReferralBonusXP = 200

type ReferralService interface {
	// Register attributes a new customer to a referrer. A customer can be
	// referred only once; a repeat registration returns the existing link.
	Register(ctx context.Context, referrerID, referredID uuid.UUID, code string) (*model.Referral, error)
	// RecordPurchase attributes a paid order by a referred customer:
	// records a commission line for the referrer (idempotent per order)
	// and pays the one-time referral XP bonus on the first purchase.
	RecordPurchase(ctx context.Context, buyerID uuid.UUID, orderRef string, orderTotalCents int64) (*model.Commission, error)
	Earnings(ctx context.Context, referrerID uuid.UUID) (int64, error)
}

type referralService struct {
	referralRepo repository.ReferralRepository
	levelRepo    repository.LevelRepository
	ledger       LedgerService
}

func NewReferralService(referralRepo repository.ReferralRepository, levelRepo repository.LevelRepository, ledger LedgerService) ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		levelRepo:    levelRepo,
		ledger:       ledger,
	}
}

func (s *referralService) Register(ctx context.Context, referrerID, referredID uuid.UUID, code string) (*model.Referral, error) {
	if referrerID == referredID {
		return nil, apperror.ErrBadRequest
	}
	ref := &model.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
		CodeUsed:   code,
	}
	inserted, err := s.referralRepo.Create(ref)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.referralRepo.FindByReferred(referredID)
	}
	return ref, nil
}

func (s *referralService) RecordPurchase(ctx context.Context, buyerID uuid.UUID, orderRef string, orderTotalCents int64) (*model.Commission, error) {
	ref, err := s.referralRepo.FindByReferred(buyerID)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, nil // organic customer, nothing to attribute
	}

	rate := s.commissionRate(ref.ReferrerID)
	commission := &model.Commission{
		ReferrerID:      ref.ReferrerID,
		ReferredID:      buyerID,
		OrderRef:        orderRef,
		OrderTotalCents: orderTotalCents,
		RatePct:         rate,
		AmountCents:     int64(math.Round(float64(orderTotalCents) * rate / 100)),
	}
	inserted, err := s.referralRepo.CreateCommission(commission)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil // replayed order webhook
	}

	if !ref.BonusAwarded {
		if _, err := s.ledger.Credit(ctx, ref.ReferrerID, model.SourceReferral, ReferralBonusXP, orderRef, "referral first-purchase bonus"); err != nil {
			log.Printf("referral bonus credit failed for referrer %s: %v", ref.ReferrerID, err)
		} else {
			now := time.Now()
			ref.BonusAwarded = true
			ref.AwardedAt = &now
			if err := s.referralRepo.Save(ref); err != nil {
				return nil, err
			}
		}
	}
	return commission, nil
}

func (s *referralService) Earnings(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	return s.referralRepo.SumCommission(referrerID)
}

// commissionRate ties the payout percentage to the referrer's level, so
// loyalty progression feeds directly into affiliate economics.
func (s *referralService) commissionRate(referrerID uuid.UUID) float64 {
	level := 1
	if state, err := s.levelRepo.GetState(referrerID); err == nil && state != nil {
		level = state.CurrentLevel
	}
	switch {
	case level >= 5:
		return 8
	case level >= 3:
		return 5
	default:
		return 3
	}
}
