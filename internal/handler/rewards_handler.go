package handler

import (
	"net/http"
	"strconv"

	"anoa.com/lumirarewards/internal/dto"
	"anoa.com/lumirarewards/internal/service"
	"anoa.com/lumirarewards/pkg/response"
	"github.com/gin-gonic/gin"
)

// RewardsHandler serves the read-only dashboard endpoints.
type RewardsHandler struct {
	levels      service.LevelService
	streaks     service.StreakService
	history     service.HistoryService
	leaderboard service.LeaderboardService
	referrals   service.ReferralService
}

func NewRewardsHandler(
	levels service.LevelService,
	streaks service.StreakService,
	history service.HistoryService,
	leaderboard service.LeaderboardService,
	referrals service.ReferralService,
) *RewardsHandler {
	return &RewardsHandler{
		levels:      levels,
		streaks:     streaks,
		history:     history,
		leaderboard: leaderboard,
		referrals:   referrals,
	}
}

// GetProgress handles GET /api/users/:id/progress
func (h *RewardsHandler) GetProgress(c *gin.Context) {
	userID, err := response.UserIDParam(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	progress, err := h.levels.Progress(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": progress})
}

// GetStreak handles GET /api/users/:id/streak
func (h *RewardsHandler) GetStreak(c *gin.Context) {
	userID, err := response.UserIDParam(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	state, err := h.streaks.Get(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": state})
}

// GetHistory handles GET /api/users/:id/history
func (h *RewardsHandler) GetHistory(c *gin.Context) {
	userID, err := response.UserIDParam(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	source := c.Query("source")

	items, hasMore, err := h.history.History(c.Request.Context(), userID, source, page, pageSize)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.HistoryResponse{
		Items:    items,
		Page:     page,
		PageSize: len(items),
		HasMore:  hasMore,
	}})
}

// GetLeaderboard handles GET /api/leaderboard
func (h *RewardsHandler) GetLeaderboard(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, _ := strconv.Atoi(limitStr)

	entries, err := h.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// GetEarnings handles GET /api/users/:id/earnings
func (h *RewardsHandler) GetEarnings(c *gin.Context) {
	userID, err := response.UserIDParam(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	total, err := h.referrals.Earnings(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"total_commission_cents": total}})
}
