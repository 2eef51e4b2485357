package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendInvitePostsToProvider(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, "Bearer re_test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	c := New(Config{
		APIKey:     "re_test_key",
		BaseURL:    srv.URL,
		FromEmail:  "PlaneWX <hello@planewx.ai>",
		LandingURL: "https://planewx.example",
		Timeout:    time.Second,
	}, zap.NewNop())

	err := c.SendInvite(context.Background(), "pilot@example.com", "tok123")
	require.NoError(t, err)

	assert.Equal(t, []string{"pilot@example.com"}, got.To)
	assert.Equal(t, "PlaneWX <hello@planewx.ai>", got.From)
	assert.Contains(t, got.HTML, "https://planewx.example/invite?token=tok123")
}

func TestSendInviteProviderErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "re_test_key", BaseURL: srv.URL, LandingURL: "https://planewx.example"}, zap.NewNop())

	err := c.SendInvite(context.Background(), "pilot@example.com", "tok123")
	assert.Error(t, err)
}

func TestSendInviteWithoutAPIKeyIsLogOnly(t *testing.T) {
	c := New(Config{LandingURL: "https://planewx.example"}, zap.NewNop())
	assert.NoError(t, c.SendInvite(context.Background(), "pilot@example.com", "tok123"))
}

func TestSendSignupNotificationWithoutAdminEmailIsNoop(t *testing.T) {
	c := New(Config{APIKey: "re_test_key", BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	assert.NoError(t, c.SendSignupNotification(context.Background(), "pilot@example.com"))
}

func TestPreviewInviteUsesPlaceholderToken(t *testing.T) {
	c := New(Config{LandingURL: "https://planewx.example"}, zap.NewNop())
	html := c.PreviewInvite()
	assert.Contains(t, html, "PREVIEW_TOKEN_EXAMPLE")
	assert.Contains(t, html, "PlaneWX")
}
