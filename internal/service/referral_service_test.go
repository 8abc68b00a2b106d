package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReferral(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	referrer := uuid.New()
	referred := uuid.New()

	ref, err := env.referrals.Register(ctx, referrer, referred, "FRIEND-10")
	require.NoError(t, err)
	assert.Equal(t, referrer, ref.ReferrerID)
	assert.False(t, ref.BonusAwarded)

	// A second registration, even by another referrer, keeps the original.
	again, err := env.referrals.Register(ctx, uuid.New(), referred, "OTHER-CODE")
	require.NoError(t, err)
	assert.Equal(t, referrer, again.ReferrerID)
	assert.Equal(t, "FRIEND-10", again.CodeUsed)
}

func TestRegisterRejectsSelfReferral(t *testing.T) {
	env := defaultEnv(t)
	userID := uuid.New()

	_, err := env.referrals.Register(context.Background(), userID, userID, "ME")
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestRecordPurchaseOrganicBuyer(t *testing.T) {
	env := defaultEnv(t)

	commission, err := env.referrals.RecordPurchase(context.Background(), uuid.New(), "order-1", 10_000)
	require.NoError(t, err)
	assert.Nil(t, commission, "buyers without a referrer produce no commission")
}

func TestRecordPurchaseCommissionAndBonus(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	referrer := uuid.New()
	buyer := uuid.New()

	_, err := env.referrals.Register(ctx, referrer, buyer, "FRIEND-10")
	require.NoError(t, err)

	commission, err := env.referrals.RecordPurchase(ctx, buyer, "order-1", 20_000)
	require.NoError(t, err)
	require.NotNil(t, commission)
	assert.Equal(t, 3.0, commission.RatePct, "new referrers start at the base rate")
	assert.EqualValues(t, 600, commission.AmountCents)

	total, err := env.ledger.Total(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, ReferralBonusXP, total, "first purchase pays the one-time XP bonus")

	ref, err := env.referralRepo.FindByReferred(buyer)
	require.NoError(t, err)
	assert.True(t, ref.BonusAwarded)
}

func TestRecordPurchaseBonusIsOneTime(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	referrer := uuid.New()
	buyer := uuid.New()

	_, err := env.referrals.Register(ctx, referrer, buyer, "FRIEND-10")
	require.NoError(t, err)

	_, err = env.referrals.RecordPurchase(ctx, buyer, "order-1", 10_000)
	require.NoError(t, err)
	second, err := env.referrals.RecordPurchase(ctx, buyer, "order-2", 10_000)
	require.NoError(t, err)
	require.NotNil(t, second, "later orders still earn commission")

	total, err := env.ledger.Total(ctx, referrer)
	require.NoError(t, err)
	assert.Equal(t, ReferralBonusXP, total)

	earned, err := env.referrals.Earnings(ctx, referrer)
	require.NoError(t, err)
	assert.EqualValues(t, 600, earned, "two orders at 3% of 10000 cents each")
}

func TestRecordPurchaseIdempotentPerOrder(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	referrer := uuid.New()
	buyer := uuid.New()

	_, err := env.referrals.Register(ctx, referrer, buyer, "FRIEND-10")
	require.NoError(t, err)

	first, err := env.referrals.RecordPurchase(ctx, buyer, "order-1", 10_000)
	require.NoError(t, err)
	require.NotNil(t, first)

	replay, err := env.referrals.RecordPurchase(ctx, buyer, "order-1", 10_000)
	require.NoError(t, err)
	assert.Nil(t, replay, "a replayed order webhook records nothing new")

	earned, err := env.referrals.Earnings(ctx, referrer)
	require.NoError(t, err)
	assert.EqualValues(t, 300, earned)

	var count int64
	require.NoError(t, env.db.Model(&model.Commission{}).Where("referrer_id = ?", referrer).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCommissionRateFollowsReferrerLevel(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()

	cases := []struct {
		level int
		want  float64
	}{
		{1, 3},
		{3, 5},
		{5, 8},
	}
	for _, tc := range cases {
		referrer := uuid.New()
		buyer := uuid.New()
		require.NoError(t, env.levelRepo.SaveState(&model.UserLevelState{
			UserID:       referrer,
			CurrentLevel: tc.level,
			UpdatedAt:    time.Now(),
		}))
		_, err := env.referrals.Register(ctx, referrer, buyer, "CODE")
		require.NoError(t, err)

		commission, err := env.referrals.RecordPurchase(ctx, buyer, "order-"+referrer.String(), 10_000)
		require.NoError(t, err)
		require.NotNil(t, commission)
		assert.Equal(t, tc.want, commission.RatePct, "level %d", tc.level)
	}
}
