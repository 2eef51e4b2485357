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

type adminService interface {
	ListEntries(ctx context.Context, secret string) ([]models.WaitlistEntry, error)
	ApplyBulkAction(ctx context.Context, secret, action string, ids []string) (*service.BulkResult, error)
	MarkJoined(ctx context.Context, secret, token, email string) (*service.MarkJoinedResult, error)
	SyncJoined(ctx context.Context, secret string) (*service.SyncResult, error)
}

// AdminHandler exposes the admin waitlist surface. The shared secret rides
// in the query string for reads and the JSON body for mutations; the
// service re-checks it on every call.
type AdminHandler struct {
	admin   adminService
	metrics *service.MetricsService
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(admin adminService, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{admin: admin, metrics: metrics}
}

// List returns all waitlist entries with referrers attached.
func (h *AdminHandler) List(c *gin.Context) {
	entries, err := h.admin.ListEntries(c.Request.Context(), c.Query("secret"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"total": len(entries)})
}

type bulkActionRequest struct {
	Secret string   `json:"secret"`
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

// BulkAction runs one lifecycle action over the selected entries.
func (h *AdminHandler) BulkAction(c *gin.Context) {
	var req bulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action payload"))
		return
	}

	result, err := h.admin.ApplyBulkAction(c.Request.Context(), req.Secret, req.Action, req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordBulkOutcome(req.Action, "success", result.Success)
	h.metrics.RecordBulkOutcome(req.Action, "skipped", result.Skipped)
	h.metrics.RecordBulkOutcome(req.Action, "failed", result.Failed)
	if req.Action == string(service.ActionInvite) || req.Action == string(service.ActionResend) {
		h.metrics.RecordInvitesSent(result.Success)
	}
	response.JSON(c, http.StatusOK, result)
}

type markJoinedRequest struct {
	Secret string `json:"secret"`
	Token  string `json:"token"`
	Email  string `json:"email"`
}

// MarkJoined marks a single entry joined by token or email.
func (h *AdminHandler) MarkJoined(c *gin.Context) {
	var req markJoinedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mark-joined payload"))
		return
	}

	result, err := h.admin.MarkJoined(c.Request.Context(), req.Secret, req.Token, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

type syncJoinedRequest struct {
	Secret string `json:"secret"`
}

// SyncJoined reconciles invited entries against the identity provider.
func (h *AdminHandler) SyncJoined(c *gin.Context) {
	var req syncJoinedRequest
	// An empty body is fine when no secret is configured.
	_ = c.ShouldBindJSON(&req)

	result, err := h.admin.SyncJoined(c.Request.Context(), req.Secret)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordSynced(result.Synced)
	response.JSON(c, http.StatusOK, result)
}
