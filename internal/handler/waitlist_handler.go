package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planewx/waitlist-api/internal/models"
	"github.com/planewx/waitlist-api/internal/service"
	appErrors "github.com/planewx/waitlist-api/pkg/errors"
	"github.com/planewx/waitlist-api/pkg/response"
)

type signupService interface {
	Join(ctx context.Context, req service.JoinRequest) (*models.WaitlistEntry, error)
}

type countService interface {
	Count(ctx context.Context) (int, error)
}

// WaitlistHandler exposes the public signup endpoints.
type WaitlistHandler struct {
	signups signupService
	counts  countService
	metrics *service.MetricsService
}

// NewWaitlistHandler builds a new handler.
func NewWaitlistHandler(signups signupService, counts countService, metrics *service.MetricsService) *WaitlistHandler {
	return &WaitlistHandler{signups: signups, counts: counts, metrics: metrics}
}

// Join accepts a new waitlist signup.
func (h *WaitlistHandler) Join(c *gin.Context) {
	var req service.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	entry, err := h.signups.Join(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSignup()
	response.Created(c, entry)
}

// Count returns the public waitlist counter.
func (h *WaitlistHandler) Count(c *gin.Context) {
	n, err := h.counts.Count(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": n})
}
