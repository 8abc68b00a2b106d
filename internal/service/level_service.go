package service

import (
	"context"
	"math"
	"sort"
	"time"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
	"anoa.com/lumirarewards/pkg/apperror"
	"github.com/google/uuid"
)

// LevelProgress is the read view rendered on user dashboards.
type LevelProgress struct {
	CurrentLevel      int        `json:"current_level"`
	CurrentLevelName  string     `json:"current_level_name"`
	Color             string     `json:"color"`
	TotalXP           int        `json:"total_xp"`
	NextLevel         *int       `json:"next_level"`
	NextLevelName     string     `json:"next_level_name,omitempty"`
	XPIntoLevel       int        `json:"xp_into_level"`
	XPRequiredForNext int        `json:"xp_required_for_next"`
	ProgressPct       float64    `json:"progress_pct"`
	GraceDeadline     *time.Time `json:"grace_deadline,omitempty"`
}

type LevelService interface {
	// Evaluate recomputes the user's level from the ledger sum. Promotions
	// apply immediately; a drop below the current threshold only opens (or
	// finalizes an elapsed) grace period, never downgrades mid-flight.
	Evaluate(ctx context.Context, userID uuid.UUID) error
	// ProcessGraceExpirations finalizes downgrades for users whose grace
	// deadline has passed. This sweep is the only path a level decreases on.
	ProcessGraceExpirations(ctx context.Context) (int, error)
	Progress(ctx context.Context, userID uuid.UUID) (*LevelProgress, error)
}

type levelService struct {
	levelRepo   repository.LevelRepository
	txnRepo     repository.TransactionRepository
	graceWindow time.Duration
	batchSize   int
}

func NewLevelService(levelRepo repository.LevelRepository, txnRepo repository.TransactionRepository, graceWindow time.Duration, batchSize int) LevelService {
	return &levelService{
		levelRepo:   levelRepo,
		txnRepo:     txnRepo,
		graceWindow: graceWindow,
		batchSize:   batchSize,
	}
}

func (s *levelService) Evaluate(ctx context.Context, userID uuid.UUID) error {
	defs, err := s.levelRepo.ListDefinitions()
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		return apperror.ErrUnknownLevel
	}

	total, err := s.txnRepo.SumByUser(userID)
	if err != nil {
		return err
	}
	target := levelFor(defs, total)

	state, err := s.levelRepo.GetState(userID)
	if err != nil {
		return err
	}
	if state == nil {
		// First activity: no grace bookkeeping, just place the user.
		return s.levelRepo.SaveState(&model.UserLevelState{
			UserID:       userID,
			CurrentLevel: target.LevelNumber,
		})
	}

	now := time.Now()
	switch {
	case target.LevelNumber >= state.CurrentLevel:
		state.CurrentLevel = target.LevelNumber
		state.GraceDeadline = nil
	case state.GraceDeadline != nil && now.After(*state.GraceDeadline):
		state.CurrentLevel = target.LevelNumber
		state.GraceDeadline = nil
	default:
		deadline := now.Add(s.graceWindow)
		state.GraceDeadline = &deadline
	}
	return s.levelRepo.SaveState(state)
}

func (s *levelService) ProcessGraceExpirations(ctx context.Context) (int, error) {
	defs, err := s.levelRepo.ListDefinitions()
	if err != nil {
		return 0, err
	}
	if len(defs) == 0 {
		return 0, apperror.ErrUnknownLevel
	}

	states, err := s.levelRepo.ListElapsedGrace(time.Now(), s.batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range states {
		state := &states[i]
		total, err := s.txnRepo.SumByUser(state.UserID)
		if err != nil {
			return processed, err
		}
		target := levelFor(defs, total)
		if target.LevelNumber < state.CurrentLevel {
			state.CurrentLevel = target.LevelNumber
		}
		state.GraceDeadline = nil
		if err := s.levelRepo.SaveState(state); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

func (s *levelService) Progress(ctx context.Context, userID uuid.UUID) (*LevelProgress, error) {
	defs, err := s.levelRepo.ListDefinitions()
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, apperror.ErrUnknownLevel
	}

	total, err := s.txnRepo.SumByUser(userID)
	if err != nil {
		return nil, err
	}

	// The displayed level is the stored one so an active grace period keeps
	// showing the retained (higher) level.
	current := levelFor(defs, total)
	var graceDeadline *time.Time
	state, err := s.levelRepo.GetState(userID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		graceDeadline = state.GraceDeadline
		if def, ok := findLevel(defs, state.CurrentLevel); ok {
			current = def
		}
	}

	progress := &LevelProgress{
		CurrentLevel:     current.LevelNumber,
		CurrentLevelName: current.Name,
		Color:            current.Color,
		TotalXP:          total,
		GraceDeadline:    graceDeadline,
	}

	idx := indexOfLevel(defs, current.LevelNumber)
	if idx < 0 || idx == len(defs)-1 {
		// Max level is terminal: nothing to progress toward.
		return progress, nil
	}

	next := defs[idx+1]
	nextLevel := next.LevelNumber
	progress.NextLevel = &nextLevel
	progress.NextLevelName = next.Name
	progress.XPRequiredForNext = next.XPRequired

	span := next.XPRequired - current.XPRequired
	into := total - current.XPRequired
	if into < 0 {
		into = 0
	}
	progress.XPIntoLevel = into
	pct := float64(into) / float64(span) * 100
	if pct > 100 {
		pct = 100
	}
	progress.ProgressPct = math.Round(pct*100) / 100
	return progress, nil
}

// levelFor returns the greatest definition whose threshold is <= totalXP.
// XP exactly at a threshold means the user is AT that level. Negative
// balances (corrections) land on the first level.
func levelFor(defs []model.LevelDefinition, totalXP int) model.LevelDefinition {
	idx := sort.Search(len(defs), func(i int) bool {
		return defs[i].XPRequired > totalXP
	})
	if idx == 0 {
		return defs[0]
	}
	return defs[idx-1]
}

func findLevel(defs []model.LevelDefinition, levelNumber int) (model.LevelDefinition, bool) {
	for _, def := range defs {
		if def.LevelNumber == levelNumber {
			return def, true
		}
	}
	return model.LevelDefinition{}, false
}

func indexOfLevel(defs []model.LevelDefinition, levelNumber int) int {
	for i, def := range defs {
		if def.LevelNumber == levelNumber {
			return i
		}
	}
	return -1
}
