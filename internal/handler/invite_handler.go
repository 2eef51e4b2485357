package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planewx/waitlist-api/internal/service"
	"github.com/planewx/waitlist-api/pkg/response"
)

type inviteService interface {
	Validate(ctx context.Context, token string) (*service.InviteVerdict, error)
}

type emailPreviewer interface {
	PreviewInvite() string
}

// InviteHandler serves invite token validation and the email preview.
type InviteHandler struct {
	invites inviteService
	mailer  emailPreviewer
}

// NewInviteHandler builds a new handler.
func NewInviteHandler(invites inviteService, mailer emailPreviewer) *InviteHandler {
	return &InviteHandler{invites: invites, mailer: mailer}
}

// Validate resolves an invite token to a verdict. Unusable tokens are a
// normal answer, not an error, so the status is 200 either way.
func (h *InviteHandler) Validate(c *gin.Context) {
	verdict, err := h.invites.Validate(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict)
}

// PreviewEmail renders the invitation email with a placeholder token.
func (h *InviteHandler) PreviewEmail(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(h.mailer.PreviewInvite()))
}
