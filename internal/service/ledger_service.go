package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
	"anoa.com/lumirarewards/pkg/apperror"
	"anoa.com/lumirarewards/pkg/lock"
	"github.com/google/uuid"
)

const lockTTL = 5 * time.Second

type CreditResult struct {
	NewTotal      int  `json:"new_total"`
	AppliedAmount int  `json:"applied_amount"`
	TransactionID uint `json:"transaction_id"`
	Duplicate     bool `json:"duplicate"`
}

type DebitResult struct {
	NewTotal      int  `json:"new_total"`
	Amount        int  `json:"amount"`
	TransactionID uint `json:"transaction_id"`
	Duplicate     bool `json:"duplicate"`
}

// LedgerService owns the append-only transaction log. Every XP movement in
// the system goes through Credit/Debit; no other component writes rows, so
// idempotency and cap enforcement live in exactly one place.
type LedgerService interface {
	Credit(ctx context.Context, userID uuid.UUID, source string, rawAmount int, externalRef, note string) (*CreditResult, error)
	// Debit stores amount as a negative row. Unless allowNegative is set
	// (manual corrections), the deduction is clamped so the balance never
	// goes below zero.
	Debit(ctx context.Context, userID uuid.UUID, source string, amount int, externalRef, note string, allowNegative bool) (*DebitResult, error)
	Total(ctx context.Context, userID uuid.UUID) (int, error)
}

type ledgerService struct {
	txnRepo     repository.TransactionRepository
	campaigns   CampaignService
	sources     *SourceRegistry
	locker      *lock.Locker
	levels      LevelService
	decayWindow time.Duration
}

func NewLedgerService(
	txnRepo repository.TransactionRepository,
	campaigns CampaignService,
	sources *SourceRegistry,
	locker *lock.Locker,
	levels LevelService,
	decayWindow time.Duration,
) LedgerService {
	return &ledgerService{
		txnRepo:     txnRepo,
		campaigns:   campaigns,
		sources:     sources,
		locker:      locker,
		levels:      levels,
		decayWindow: decayWindow,
	}
}

// IdempotencyKey derives the unique key preventing the same external event
// from being credited twice.
func IdempotencyKey(userID uuid.UUID, source, externalRef string) string {
	sum := sha256.Sum256([]byte(userID.String() + "|" + source + "|" + externalRef))
	return hex.EncodeToString(sum[:])
}

func (s *ledgerService) Credit(ctx context.Context, userID uuid.UUID, source string, rawAmount int, externalRef, note string) (*CreditResult, error) {
	cfg, ok := s.sources.Get(source)
	if !ok || !cfg.Enabled {
		return nil, apperror.ErrUnknownSource
	}
	if rawAmount <= 0 {
		return nil, apperror.ErrInvalidAmount
	}

	key := IdempotencyKey(userID, source, externalRef)

	// Fast path: a retry of an already-credited event short-circuits
	// without taking the lock.
	if result, err := s.existingCredit(key, userID); err != nil || result != nil {
		return result, err
	}

	release, err := s.locker.Acquire(ctx, key, lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	// A concurrent caller may have won the race while we waited.
	if result, err := s.existingCredit(key, userID); err != nil || result != nil {
		return result, err
	}

	now := time.Now()
	applied := rawAmount
	if campaign, err := s.campaigns.Active(ctx, now); err != nil {
		return nil, err
	} else if campaign != nil {
		applied = int(math.Round(float64(rawAmount) * campaign.Multiplier))
	}

	// The cap applies to the post-multiplier amount, and partially fitting
	// credits are rejected outright rather than clamped: either the full
	// applied amount fits under today's cap or nothing is written.
	if cfg.DailyCap > 0 {
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		used, err := s.txnRepo.SumBySourceBetween(userID, source, startOfDay, startOfDay.Add(24*time.Hour))
		if err != nil {
			return nil, err
		}
		if used+applied > cfg.DailyCap {
			return nil, apperror.ErrCapReached
		}
	}

	txn := &model.Transaction{
		UserID:         userID,
		Source:         source,
		Amount:         applied,
		IdempotencyKey: key,
		Note:           note,
		CreatedAt:      now,
	}
	if cfg.DecayEligible && s.decayWindow > 0 {
		expiresAt := now.Add(s.decayWindow)
		txn.ExpiresAt = &expiresAt
	}

	inserted, err := s.txnRepo.Create(txn)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Unique constraint backstop: someone slipped in between checks.
		return s.existingCredit(key, userID)
	}

	total, err := s.txnRepo.SumByUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.levels.Evaluate(ctx, userID); err != nil {
		// The credit is committed; a failed re-evaluation self-heals on the
		// next one.
		log.Printf("level evaluation after credit failed for user %s: %v", userID, err)
	}

	return &CreditResult{NewTotal: total, AppliedAmount: applied, TransactionID: txn.ID}, nil
}

func (s *ledgerService) Debit(ctx context.Context, userID uuid.UUID, source string, amount int, externalRef, note string, allowNegative bool) (*DebitResult, error) {
	cfg, ok := s.sources.Get(source)
	if !ok || !cfg.Enabled {
		return nil, apperror.ErrUnknownSource
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount
	}

	key := IdempotencyKey(userID, source, externalRef)
	if result, err := s.existingDebit(key, userID); err != nil || result != nil {
		return result, err
	}

	release, err := s.locker.Acquire(ctx, key, lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	if result, err := s.existingDebit(key, userID); err != nil || result != nil {
		return result, err
	}

	total, err := s.txnRepo.SumByUser(userID)
	if err != nil {
		return nil, err
	}
	if !allowNegative {
		if total <= 0 {
			return &DebitResult{NewTotal: total}, nil
		}
		if amount > total {
			amount = total
		}
	}

	txn := &model.Transaction{
		UserID:         userID,
		Source:         source,
		Amount:         -amount,
		IdempotencyKey: key,
		Note:           note,
		CreatedAt:      time.Now(),
	}
	inserted, err := s.txnRepo.Create(txn)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.existingDebit(key, userID)
	}

	newTotal, err := s.txnRepo.SumByUser(userID)
	if err != nil {
		return nil, err
	}
	return &DebitResult{NewTotal: newTotal, Amount: amount, TransactionID: txn.ID}, nil
}

func (s *ledgerService) Total(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.txnRepo.SumByUser(userID)
}

func (s *ledgerService) existingCredit(key string, userID uuid.UUID) (*CreditResult, error) {
	txn, err := s.txnRepo.FindByIdempotencyKey(key)
	if err != nil || txn == nil {
		return nil, err
	}
	total, err := s.txnRepo.SumByUser(userID)
	if err != nil {
		return nil, err
	}
	return &CreditResult{
		NewTotal:      total,
		AppliedAmount: txn.Amount,
		TransactionID: txn.ID,
		Duplicate:     true,
	}, nil
}

func (s *ledgerService) existingDebit(key string, userID uuid.UUID) (*DebitResult, error) {
	txn, err := s.txnRepo.FindByIdempotencyKey(key)
	if err != nil || txn == nil {
		return nil, err
	}
	total, err := s.txnRepo.SumByUser(userID)
	if err != nil {
		return nil, err
	}
	return &DebitResult{
		NewTotal:      total,
		Amount:        -txn.Amount,
		TransactionID: txn.ID,
		Duplicate:     true,
	}, nil
}

// BatchReference builds the deterministic external reference for a sweep
// batch so a rerun of a half-finished sweep converges on the same row.
func BatchReference(prefix string, firstID uint) string {
	return fmt.Sprintf("%s-batch-%d", prefix, firstID)
}
