package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WarningChannel carries per-user expiry warnings to the external notifier.
const WarningChannel = "rewards:expiry_warning"

// ExpiryWarning is the payload published on WarningChannel.
type ExpiryWarning struct {
	UserID      uuid.UUID `json:"user_id"`
	ExpiringXP  int       `json:"expiring_xp"`
	SoonestDate time.Time `json:"soonest_expiry"`
}

type ExpiryService interface {
	// Warn flags transactions expiring within the warning window and emits
	// one notification event per affected user.
	Warn(ctx context.Context) (int, error)
	// Check reverses expired transactions: per user it sums the expired
	// amount, clamps it to the current balance, writes one compensating
	// debit through the ledger and marks the source rows reversed. Safe to
	// rerun — already-reversed rows are skipped and the debit reference is
	// deterministic, so a half-finished sweep converges.
	Check(ctx context.Context) (int, error)
}

type expiryService struct {
	txnRepo     repository.TransactionRepository
	ledger      LedgerService
	levels      LevelService
	redisClient *redis.Client
	warnWindow  time.Duration
	batchSize   int
}

func NewExpiryService(
	txnRepo repository.TransactionRepository,
	ledger LedgerService,
	levels LevelService,
	redisClient *redis.Client,
	warnWindow time.Duration,
	batchSize int,
) ExpiryService {
	return &expiryService{
		txnRepo:     txnRepo,
		ledger:      ledger,
		levels:      levels,
		redisClient: redisClient,
		warnWindow:  warnWindow,
		batchSize:   batchSize,
	}
}

func (s *expiryService) Warn(ctx context.Context) (int, error) {
	now := time.Now()
	txns, err := s.txnRepo.FindExpiringBetween(now, now.Add(s.warnWindow), s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(txns) == 0 {
		return 0, nil
	}

	warnings := make(map[uuid.UUID]*ExpiryWarning)
	ids := make([]uint, 0, len(txns))
	for _, txn := range txns {
		ids = append(ids, txn.ID)
		w, ok := warnings[txn.UserID]
		if !ok {
			w = &ExpiryWarning{UserID: txn.UserID, SoonestDate: *txn.ExpiresAt}
			warnings[txn.UserID] = w
		}
		w.ExpiringXP += txn.Amount
		if txn.ExpiresAt.Before(w.SoonestDate) {
			w.SoonestDate = *txn.ExpiresAt
		}
	}

	if s.redisClient != nil {
		for _, w := range warnings {
			payload, err := json.Marshal(w)
			if err != nil {
				continue
			}
			s.redisClient.Publish(ctx, WarningChannel, payload)
		}
	}

	if err := s.txnRepo.MarkWarned(ids, now); err != nil {
		return 0, err
	}
	return len(txns), nil
}

func (s *expiryService) Check(ctx context.Context) (int, error) {
	now := time.Now()
	txns, err := s.txnRepo.FindExpired(now, s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(txns) == 0 {
		return 0, nil
	}

	type userBatch struct {
		ids     []uint
		sum     int
		firstID uint
	}
	batches := make(map[uuid.UUID]*userBatch)
	order := make([]uuid.UUID, 0)
	for _, txn := range txns {
		b, ok := batches[txn.UserID]
		if !ok {
			b = &userBatch{firstID: txn.ID}
			batches[txn.UserID] = b
			order = append(order, txn.UserID)
		}
		b.ids = append(b.ids, txn.ID)
		b.sum += txn.Amount
	}

	processed := 0
	for _, userID := range order {
		b := batches[userID]

		// Clamped inside Debit as well; decay never drives a balance
		// negative.
		result, err := s.ledger.Debit(ctx, userID, model.SourceExpiry, b.sum,
			BatchReference("expiry", b.firstID), "expired points", false)
		if err != nil {
			// Leave this user's rows unreversed; the next run retries them.
			log.Printf("expiry debit failed for user %s: %v", userID, err)
			continue
		}

		var reversalID *uint
		if result.TransactionID != 0 {
			id := result.TransactionID
			reversalID = &id
		}
		if err := s.txnRepo.MarkReversed(b.ids, now, reversalID); err != nil {
			log.Printf("marking reversed rows failed for user %s: %v", userID, err)
			continue
		}

		if err := s.levels.Evaluate(ctx, userID); err != nil {
			log.Printf("level evaluation after expiry failed for user %s: %v", userID, err)
		}
		processed += len(b.ids)
	}
	return processed, nil
}
