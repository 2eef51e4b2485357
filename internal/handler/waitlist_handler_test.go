package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planewx/waitlist-api/internal/models"
	"github.com/planewx/waitlist-api/internal/service"
	appErrors "github.com/planewx/waitlist-api/pkg/errors"
)

type signupServiceMock struct {
	entry *models.WaitlistEntry
	err   error
	got   service.JoinRequest
}

func (m *signupServiceMock) Join(_ context.Context, req service.JoinRequest) (*models.WaitlistEntry, error) {
	m.got = req
	return m.entry, m.err
}

type countServiceMock struct {
	count int
	err   error
}

func (m *countServiceMock) Count(context.Context) (int, error) {
	return m.count, m.err
}

func newTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestWaitlistHandlerJoin(t *testing.T) {
	signups := &signupServiceMock{entry: &models.WaitlistEntry{ID: "1", Email: "pilot@x.com", Status: models.StatusPending}}
	h := NewWaitlistHandler(signups, &countServiceMock{}, nil)

	c, w := newTestContext(t, http.MethodPost, "/waitlist/join", service.JoinRequest{Email: "pilot@x.com"})
	h.Join(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pilot@x.com", signups.got.Email)

	envelope := decodeEnvelope(t, w)
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pilot@x.com", data["email"])
}

func TestWaitlistHandlerJoinInvalidBody(t *testing.T) {
	h := NewWaitlistHandler(&signupServiceMock{}, &countServiceMock{}, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/waitlist/join", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Join(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWaitlistHandlerJoinDuplicate(t *testing.T) {
	signups := &signupServiceMock{err: appErrors.ErrDuplicateEmail}
	h := NewWaitlistHandler(signups, &countServiceMock{}, nil)

	c, w := newTestContext(t, http.MethodPost, "/waitlist/join", service.JoinRequest{Email: "pilot@x.com"})
	h.Join(c)

	require.Equal(t, http.StatusConflict, w.Code)
	envelope := decodeEnvelope(t, w)
	errObj, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "DUPLICATE_EMAIL", errObj["code"])
}

func TestWaitlistHandlerCount(t *testing.T) {
	h := NewWaitlistHandler(&signupServiceMock{}, &countServiceMock{count: 73}, nil)

	c, w := newTestContext(t, http.MethodGet, "/waitlist/count", nil)
	h.Count(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(73), data["count"])
}

func TestWaitlistHandlerCountError(t *testing.T) {
	h := NewWaitlistHandler(&signupServiceMock{}, &countServiceMock{err: errors.New("db down")}, nil)

	c, w := newTestContext(t, http.MethodGet, "/waitlist/count", nil)
	h.Count(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
