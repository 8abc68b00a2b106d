package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditIdempotent(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 100, "order-1", "")
	require.NoError(t, err)
	assert.Equal(t, 100, first.AppliedAmount)
	assert.Equal(t, 100, first.NewTotal)
	assert.False(t, first.Duplicate)

	second, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 100, "order-1", "")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.NewTotal, second.NewTotal)
	assert.Equal(t, first.TransactionID, second.TransactionID)

	var count int64
	require.NoError(t, env.db.Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreditConcurrentSameEvent(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	var wg sync.WaitGroup
	results := make([]*CreditResult, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.ledger.Credit(ctx, userID, model.SourceOrder, 50, "order-dup", "")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, env.db.Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "concurrent retries of one event must write one row")
	for _, result := range results {
		assert.Equal(t, 50, result.NewTotal)
	}
}

func TestCreditCampaignMultiplier(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	require.NoError(t, env.campaignRepo.Create(&model.Campaign{
		Label:      "double xp weekend",
		Multiplier: 2.0,
		StartsAt:   now.Add(-time.Hour),
		EndsAt:     now.Add(time.Hour),
	}))

	result, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 100, "order-2", "")
	require.NoError(t, err)
	assert.Equal(t, 200, result.AppliedAmount)
}

func TestCreditWithoutCampaign(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()

	require.NoError(t, env.campaignRepo.Create(&model.Campaign{
		Label:      "finished sale",
		Multiplier: 3.0,
		StartsAt:   time.Now().Add(-48 * time.Hour),
		EndsAt:     time.Now().Add(-24 * time.Hour),
	}))

	result, err := env.ledger.Credit(ctx, uuid.New(), model.SourceOrder, 100, "order-plain", "")
	require.NoError(t, err)
	assert.Equal(t, 100, result.AppliedAmount)
}

func TestCreditDailyCapRejectsPartialFit(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	// review cap is 50: first 40 fits, second 40 would only partially fit
	// and is rejected outright, not clamped to the remaining 10.
	first, err := env.ledger.Credit(ctx, userID, model.SourceReview, 40, "review-1", "")
	require.NoError(t, err)
	assert.Equal(t, 40, first.AppliedAmount)

	_, err = env.ledger.Credit(ctx, userID, model.SourceReview, 40, "review-2", "")
	require.ErrorIs(t, err, apperror.ErrCapReached)

	total, err := env.ledger.Total(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 40, total)

	var count int64
	require.NoError(t, env.db.Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "a rejected credit must not leave a zero-amount row")
}

func TestCreditValidation(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 0, "order-3", "")
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = env.ledger.Credit(ctx, userID, model.SourceOrder, -5, "order-4", "")
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	_, err = env.ledger.Credit(ctx, userID, "wheel-of-fortune", 10, "spin-1", "")
	assert.ErrorIs(t, err, apperror.ErrUnknownSource)
}

func TestDebitClampedAtZero(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 30, "order-5", "")
	require.NoError(t, err)

	result, err := env.ledger.Debit(ctx, userID, model.SourceExpiry, 100, "expiry-1", "", false)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Amount)
	assert.Equal(t, 0, result.NewTotal)
}

func TestDebitCorrectionMayGoNegative(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 10, "order-6", "")
	require.NoError(t, err)

	result, err := env.ledger.Debit(ctx, userID, model.SourceManualAdjustment, 25, "chargeback-1", "fraud reversal", true)
	require.NoError(t, err)
	assert.Equal(t, -15, result.NewTotal)
}

func TestDebitIdempotent(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 100, "order-7", "")
	require.NoError(t, err)

	first, err := env.ledger.Debit(ctx, userID, model.SourceExpiry, 40, "expiry-2", "", false)
	require.NoError(t, err)
	second, err := env.ledger.Debit(ctx, userID, model.SourceExpiry, 40, "expiry-2", "", false)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.NewTotal, second.NewTotal)

	total, err := env.ledger.Total(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 60, total)
}

func TestBalanceEqualsLedgerSum(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 70, "order-8", "")
	require.NoError(t, err)
	_, err = env.ledger.Credit(ctx, userID, model.SourceReview, 20, "review-3", "")
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, userID, model.SourceExpiry, 25, "expiry-3", "", false)
	require.NoError(t, err)

	var sum int64
	require.NoError(t, env.db.Model(&model.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error)

	total, err := env.ledger.Total(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, sum, total)
	assert.Equal(t, 65, total)
}

func TestCreditStampsExpiry(t *testing.T) {
	env := newTestEnv(t, 7*24*time.Hour, 30*24*time.Hour)
	ctx := context.Background()
	userID := uuid.New()

	result, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 10, "order-9", "")
	require.NoError(t, err)

	var txn model.Transaction
	require.NoError(t, env.db.First(&txn, result.TransactionID).Error)
	require.NotNil(t, txn.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *txn.ExpiresAt, time.Minute)

	// manual adjustments are not decay eligible
	adj, err := env.ledger.Credit(ctx, userID, model.SourceManualAdjustment, 10, "adj-2", "")
	require.NoError(t, err)
	require.NoError(t, env.db.First(&txn, adj.TransactionID).Error)
	assert.Nil(t, txn.ExpiresAt)
}
