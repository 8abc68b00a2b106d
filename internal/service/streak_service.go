package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
	"anoa.com/lumirarewards/pkg/apperror"
	"github.com/google/uuid"
)

const (
	// Streak bonus: base for day one, growing per consecutive day up to a
	// ceiling. The ledger's login-streak daily cap bounds it again on top.
	StreakBaseBonus    = 5
	StreakStepBonus    = 2
	StreakBonusCeiling = 25
)

type StreakService interface {
	// RecordActivity counts one qualifying day of activity. Calendar days
	// are computed in the user's timezone; the second call on the same
	// local day is a no-op. Gaps longer than one day reset the streak to 1.
	RecordActivity(ctx context.Context, userID uuid.UUID, activityAt time.Time, timezone string) (*model.StreakState, error)
	Get(ctx context.Context, userID uuid.UUID) (*model.StreakState, error)
	// DailyMaintenance resets the per-day bonus counters and finalizes
	// breakage for streaks with no activity since before yesterday, so
	// stale streaks read as broken without waiting for the user to return.
	DailyMaintenance(ctx context.Context) error
}

type streakService struct {
	streakRepo      repository.StreakRepository
	ledger          LedgerService
	defaultTimezone string
}

func NewStreakService(streakRepo repository.StreakRepository, ledger LedgerService, defaultTimezone string) StreakService {
	return &streakService{
		streakRepo:      streakRepo,
		ledger:          ledger,
		defaultTimezone: defaultTimezone,
	}
}

func (s *streakService) RecordActivity(ctx context.Context, userID uuid.UUID, activityAt time.Time, timezone string) (*model.StreakState, error) {
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, apperror.ErrBadRequest)
	}
	day := activityAt.In(loc).Format(model.DayLayout)

	state, err := s.streakRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &model.StreakState{UserID: userID}
	}
	state.Timezone = timezone

	if state.LastQualifyingDay == day {
		return state, nil // already counted today
	}

	if state.LastQualifyingDay != "" && nextDay(state.LastQualifyingDay) == day {
		state.CurrentStreak++
	} else {
		state.CurrentStreak = 1
	}
	if state.CurrentStreak > state.MaxStreak {
		state.MaxStreak = state.CurrentStreak
	}
	state.LastQualifyingDay = day
	state.StreakXPToday = 0

	bonus := streakBonus(state.CurrentStreak)
	result, err := s.ledger.Credit(ctx, userID, model.SourceLoginStreak, bonus, day, "daily activity streak bonus")
	switch {
	case errors.Is(err, apperror.ErrCapReached):
		// The streak itself still advances; only the bonus is withheld.
		log.Printf("streak bonus cap reached for user %s on %s", userID, day)
	case err != nil:
		return nil, err
	default:
		state.StreakXPToday += result.AppliedAmount
	}

	if err := s.streakRepo.Save(state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *streakService) Get(ctx context.Context, userID uuid.UUID) (*model.StreakState, error) {
	state, err := s.streakRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &model.StreakState{UserID: userID}
	}
	return state, nil
}

func (s *streakService) DailyMaintenance(ctx context.Context) error {
	if err := s.streakRepo.ResetDailyBonus(); err != nil {
		return err
	}
	// A streak survives until the end of the day after its last qualifying
	// day; anything older than yesterday is broken.
	yesterday := time.Now().AddDate(0, 0, -1).Format(model.DayLayout)
	return s.streakRepo.BreakStale(yesterday)
}

func streakBonus(streak int) int {
	bonus := StreakBaseBonus + StreakStepBonus*(streak-1)
	if bonus > StreakBonusCeiling {
		bonus = StreakBonusCeiling
	}
	return bonus
}

func nextDay(day string) string {
	t, err := time.Parse(model.DayLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(model.DayLayout)
}
