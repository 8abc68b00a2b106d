package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForThresholds(t *testing.T) {
	defs := []model.LevelDefinition{
		{LevelNumber: 1, XPRequired: 0},
		{LevelNumber: 2, XPRequired: 30},
		{LevelNumber: 3, XPRequired: 50},
	}

	cases := []struct {
		xp   int
		want int
	}{
		{-10, 1}, // corrections can push below zero; still level 1
		{0, 1},
		{29, 1},
		{30, 2}, // exactly at a threshold means AT that level
		{49, 2},
		{50, 3},
		{5000, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, levelFor(defs, tc.xp).LevelNumber, "xp=%d", tc.xp)
	}
}

func TestEvaluatePromotesImmediately(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 60, "order-1", "")
	require.NoError(t, err)

	state, err := env.levelRepo.GetState(userID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 3, state.CurrentLevel)
	assert.Nil(t, state.GraceDeadline)
}

func TestEvaluateDropEntersGraceNotDowngrade(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	// Gold at threshold 50 with 60 XP, then an expiry-style debit to 40.
	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 60, "order-1", "")
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, userID, model.SourceExpiry, 20, "expiry-1", "", false)
	require.NoError(t, err)
	require.NoError(t, env.levels.Evaluate(ctx, userID))

	state, err := env.levelRepo.GetState(userID)
	require.NoError(t, err)
	assert.Equal(t, 3, state.CurrentLevel, "level must not drop mid-grace")
	require.NotNil(t, state.GraceDeadline)
	assert.True(t, state.GraceDeadline.After(time.Now()))
}

func TestEvaluateRecoveryClearsGrace(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 60, "order-1", "")
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, userID, model.SourceExpiry, 20, "expiry-1", "", false)
	require.NoError(t, err)
	require.NoError(t, env.levels.Evaluate(ctx, userID))

	// Recover past the Gold threshold again; the pending downgrade clears.
	_, err = env.ledger.Credit(ctx, userID, model.SourceOrder, 15, "order-2", "")
	require.NoError(t, err)

	state, err := env.levelRepo.GetState(userID)
	require.NoError(t, err)
	assert.Equal(t, 3, state.CurrentLevel)
	assert.Nil(t, state.GraceDeadline)
}

func TestProcessGraceExpirationsDowngrades(t *testing.T) {
	// Negative grace window puts the deadline in the past immediately.
	env := newTestEnv(t, -time.Hour, 0)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 60, "order-1", "")
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, userID, model.SourceExpiry, 20, "expiry-1", "", false)
	require.NoError(t, err)
	require.NoError(t, env.levels.Evaluate(ctx, userID))

	processed, err := env.levels.ProcessGraceExpirations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	state, err := env.levelRepo.GetState(userID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentLevel, "40 XP lands on Silver after grace lapses")
	assert.Nil(t, state.GraceDeadline)
}

func TestProcessGraceExpirationsKeepsRecoveredLevel(t *testing.T) {
	env := newTestEnv(t, -time.Hour, 0)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 60, "order-1", "")
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, userID, model.SourceExpiry, 20, "expiry-1", "", false)
	require.NoError(t, err)
	require.NoError(t, env.levels.Evaluate(ctx, userID))

	// XP recovers before the sweep runs; the sweep must not downgrade.
	require.NoError(t, env.db.Create(&model.Transaction{
		UserID:         userID,
		Source:         model.SourceOrder,
		Amount:         20,
		IdempotencyKey: IdempotencyKey(userID, model.SourceOrder, "order-2"),
		CreatedAt:      time.Now(),
	}).Error)

	_, err = env.levels.ProcessGraceExpirations(ctx)
	require.NoError(t, err)

	state, err := env.levelRepo.GetState(userID)
	require.NoError(t, err)
	assert.Equal(t, 3, state.CurrentLevel)
	assert.Nil(t, state.GraceDeadline)
}

func TestProgress(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 40, "order-1", "")
	require.NoError(t, err)

	progress, err := env.levels.Progress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.CurrentLevel)
	assert.Equal(t, "Silver", progress.CurrentLevelName)
	assert.Equal(t, 40, progress.TotalXP)
	require.NotNil(t, progress.NextLevel)
	assert.Equal(t, 3, *progress.NextLevel)
	assert.Equal(t, 10, progress.XPIntoLevel)
	assert.Equal(t, 50, progress.XPRequiredForNext)
	assert.InDelta(t, 50.0, progress.ProgressPct, 0.01)
}

func TestProgressMaxLevelIsTerminal(t *testing.T) {
	env := defaultEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.ledger.Credit(ctx, userID, model.SourceOrder, 500, "order-1", "")
	require.NoError(t, err)

	progress, err := env.levels.Progress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, progress.CurrentLevel)
	assert.Nil(t, progress.NextLevel)
	assert.Zero(t, progress.ProgressPct)
}

func TestProgressNewUser(t *testing.T) {
	env := defaultEnv(t)

	progress, err := env.levels.Progress(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, progress.CurrentLevel)
	assert.Zero(t, progress.TotalXP)
	assert.Zero(t, progress.ProgressPct)
}
