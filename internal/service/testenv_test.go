package service

import (
	"fmt"
	"testing"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
	"anoa.com/lumirarewards/pkg/lock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db           *gorm.DB
	txnRepo      repository.TransactionRepository
	levelRepo    repository.LevelRepository
	streakRepo   repository.StreakRepository
	campaignRepo repository.CampaignRepository
	referralRepo repository.ReferralRepository

	campaigns CampaignService
	levels    LevelService
	ledger    LedgerService
	streaks   StreakService
	expiry    ExpiryService
	history   HistoryService
	referrals ReferralService
}

// newTestEnv wires the full service stack over a per-test in-memory
// database. graceWindow/decayWindow are injectable so tests can force
// deadlines into the past.
func newTestEnv(t *testing.T, graceWindow, decayWindow time.Duration) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Transaction{},
		&model.LevelDefinition{},
		&model.UserLevelState{},
		&model.StreakState{},
		&model.Campaign{},
		&model.Referral{},
		&model.Commission{},
	))

	ladder := []model.LevelDefinition{
		{LevelNumber: 1, Name: "Bronze", XPRequired: 0},
		{LevelNumber: 2, Name: "Silver", XPRequired: 30},
		{LevelNumber: 3, Name: "Gold", XPRequired: 50},
		{LevelNumber: 4, Name: "Platinum", XPRequired: 100},
	}
	for _, def := range ladder {
		require.NoError(t, db.Create(&def).Error)
	}

	env := &testEnv{
		db:           db,
		txnRepo:      repository.NewTransactionRepository(db),
		levelRepo:    repository.NewLevelRepository(db),
		streakRepo:   repository.NewStreakRepository(db),
		campaignRepo: repository.NewCampaignRepository(db),
		referralRepo: repository.NewReferralRepository(db),
	}
	env.campaigns = NewCampaignService(env.campaignRepo)
	env.levels = NewLevelService(env.levelRepo, env.txnRepo, graceWindow, 100)
	env.ledger = NewLedgerService(env.txnRepo, env.campaigns, DefaultSourceRegistry(), lock.New(nil), env.levels, decayWindow)
	env.streaks = NewStreakService(env.streakRepo, env.ledger, "UTC")
	env.expiry = NewExpiryService(env.txnRepo, env.ledger, env.levels, nil, 7*24*time.Hour, 100)
	env.history = NewHistoryService(env.txnRepo)
	env.referrals = NewReferralService(env.referralRepo, env.levelRepo, env.ledger)
	return env
}

func defaultEnv(t *testing.T) *testEnv {
	return newTestEnv(t, 7*24*time.Hour, 0)
}
