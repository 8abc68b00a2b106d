package handler

import (
	"net/http"
	"time"

	"anoa.com/lumirarewards/internal/dto"
	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/service"
	"anoa.com/lumirarewards/pkg/response"
	"anoa.com/lumirarewards/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler receives trigger-source calls: generic credit events, paid
// orders and daily-activity pings.
type EventHandler struct {
	ledger    service.LedgerService
	streaks   service.StreakService
	referrals service.ReferralService
}

func NewEventHandler(ledger service.LedgerService, streaks service.StreakService, referrals service.ReferralService) *EventHandler {
	return &EventHandler{
		ledger:    ledger,
		streaks:   streaks,
		referrals: referrals,
	}
}

// CreditEvent handles POST /api/events
func (h *EventHandler) CreditEvent(c *gin.Context) {
	var req dto.CreditEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	result, err := h.ledger.Credit(c.Request.Context(), userID, req.Source, req.Amount, req.ExternalReference, req.Note)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": result})
}

// OrderPaid handles POST /api/orders
func (h *EventHandler) OrderPaid(c *gin.Context) {
	var req dto.OrderPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	result, err := h.ledger.Credit(c.Request.Context(), userID, model.SourceOrder, req.XPAmount, req.OrderID, "order paid")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	commission, err := h.referrals.RecordPurchase(c.Request.Context(), userID, req.OrderID, req.TotalCents)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"credit":     result,
		"commission": commission,
	}})
}

// RecordActivity handles POST /api/users/:id/activity
func (h *EventHandler) RecordActivity(c *gin.Context) {
	userID, err := response.UserIDParam(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	at := time.Now()
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	state, err := h.streaks.RecordActivity(c.Request.Context(), userID, at, req.Timezone)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": state})
}

// RegisterReferral handles POST /api/referrals
func (h *EventHandler) RegisterReferral(c *gin.Context) {
	var req dto.RegisterReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	referrerID, err := uuid.Parse(req.ReferrerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referrer id"})
		return
	}
	referredID, err := uuid.Parse(req.ReferredID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referred id"})
		return
	}

	ref, err := h.referrals.Register(c.Request.Context(), referrerID, referredID, req.Code)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": ref})
}
