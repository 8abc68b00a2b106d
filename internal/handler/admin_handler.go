package handler

import (
	"net/http"

	"anoa.com/lumirarewards/internal/dto"
	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/scheduler"
	"anoa.com/lumirarewards/internal/service"
	"anoa.com/lumirarewards/pkg/response"
	"anoa.com/lumirarewards/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	ledger    service.LedgerService
	levels    service.LevelService
	campaigns service.CampaignService
	jobs      *scheduler.Scheduler
}

func NewAdminHandler(ledger service.LedgerService, levels service.LevelService, campaigns service.CampaignService, jobs *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{
		ledger:    ledger,
		levels:    levels,
		campaigns: campaigns,
		jobs:      jobs,
	}
}

// CreateAdjustment handles POST /api/admin/adjustments
func (h *AdminHandler) CreateAdjustment(c *gin.Context) {
	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ctx := c.Request.Context()
	if req.Amount >= 0 {
		result, err := h.ledger.Credit(ctx, userID, model.SourceManualAdjustment, req.Amount, req.ExternalReference, req.Note)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": result})
		return
	}

	// Corrections are the one debit allowed to push a balance negative.
	result, err := h.ledger.Debit(ctx, userID, model.SourceManualAdjustment, -req.Amount, req.ExternalReference, req.Note, true)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if err := h.levels.Evaluate(ctx, userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// ListCampaigns handles GET /api/admin/campaigns
func (h *AdminHandler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.List(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": campaigns})
}

// CreateCampaign handles POST /api/admin/campaigns
func (h *AdminHandler) CreateCampaign(c *gin.Context) {
	var req dto.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at must be after starts_at"})
		return
	}

	campaign := &model.Campaign{
		Label:      req.Label,
		Multiplier: req.Multiplier,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
	}
	if err := h.campaigns.Create(c.Request.Context(), campaign); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": campaign})
}

// RunSweep handles POST /api/admin/sweeps/:name
func (h *AdminHandler) RunSweep(c *gin.Context) {
	name := c.Param("name")
	if err := h.jobs.RunByName(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sweep completed", "job": name})
}
