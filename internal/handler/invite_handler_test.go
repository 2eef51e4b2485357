package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planewx/waitlist-api/internal/service"
)

type inviteServiceMock struct {
	verdict *service.InviteVerdict
	err     error
	token   string
}

func (m *inviteServiceMock) Validate(_ context.Context, token string) (*service.InviteVerdict, error) {
	m.token = token
	return m.verdict, m.err
}

type previewerMock struct{}

func (previewerMock) PreviewInvite() string {
	return "<html><body>You're invited</body></html>"
}

func TestInviteHandlerValidate(t *testing.T) {
	invites := &inviteServiceMock{verdict: &service.InviteVerdict{Valid: true, Email: "pilot@x.com"}}
	h := NewInviteHandler(invites, previewerMock{})

	c, w := newTestContext(t, http.MethodGet, "/waitlist/validate-invite?token=abc123", nil)
	h.Validate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", invites.token)

	envelope := decodeEnvelope(t, w)
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "pilot@x.com", data["email"])
}

func TestInviteHandlerValidateExpiredStillOK(t *testing.T) {
	invites := &inviteServiceMock{verdict: &service.InviteVerdict{Reason: service.ReasonExpired}}
	h := NewInviteHandler(invites, previewerMock{})

	c, w := newTestContext(t, http.MethodGet, "/waitlist/validate-invite?token=old", nil)
	h.Validate(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "expired", data["reason"])
}

func TestInviteHandlerPreviewEmail(t *testing.T) {
	h := NewInviteHandler(&inviteServiceMock{}, previewerMock{})

	c, w := newTestContext(t, http.MethodGet, "/waitlist/preview-email", nil)
	h.PreviewEmail(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.True(t, strings.Contains(w.Body.String(), "invited"))
}
