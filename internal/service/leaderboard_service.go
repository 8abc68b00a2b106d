package service

import (
	"context"

	"anoa.com/lumirarewards/internal/repository"
	"github.com/google/uuid"
)

type LeaderboardEntry struct {
	Position  int       `json:"position"`
	UserID    uuid.UUID `json:"user_id"`
	TotalXP   int       `json:"total_xp"`
	Level     int       `json:"level"`
	LevelName string    `json:"level_name"`
}

type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type leaderboardService struct {
	txnRepo   repository.TransactionRepository
	levelRepo repository.LevelRepository
}

func NewLeaderboardService(txnRepo repository.TransactionRepository, levelRepo repository.LevelRepository) LeaderboardService {
	return &leaderboardService{txnRepo: txnRepo, levelRepo: levelRepo}
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	balances, err := s.txnRepo.TopBalances(limit)
	if err != nil {
		return nil, err
	}
	defs, err := s.levelRepo.ListDefinitions()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(balances))
	for i, balance := range balances {
		entry := LeaderboardEntry{
			Position: i + 1, // 1-based position
			UserID:   balance.UserID,
			TotalXP:  balance.TotalXP,
		}
		if len(defs) > 0 {
			def := levelFor(defs, balance.TotalXP)
			entry.Level = def.LevelNumber
			entry.LevelName = def.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
