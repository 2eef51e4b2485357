package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planewx/waitlist-api/internal/client"
	"github.com/planewx/waitlist-api/internal/models"
	appErrors "github.com/planewx/waitlist-api/pkg/errors"
)

type mockAdminStore struct {
	entries       []models.WaitlistEntry
	listErr       error
	byToken       map[string]models.WaitlistEntry
	byEmail       map[string]models.WaitlistEntry
	batchErr      error
	batchIDs      []string
	invitedIDs    []string
	resetIDs      []string
	revokedIDs    []string
	deletedIDs    []string
	joinedIDs     []string
	markInviteErr error
}

func (m *mockAdminStore) ListAll(context.Context) ([]models.WaitlistEntry, error) {
	return m.entries, m.listErr
}

func (m *mockAdminStore) ListByIDs(_ context.Context, ids []string) ([]models.WaitlistEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.WaitlistEntry
	for _, e := range m.entries {
		if _, ok := want[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAdminStore) ListByStatus(_ context.Context, status models.WaitlistStatus) ([]models.WaitlistEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.WaitlistEntry
	for _, e := range m.entries {
		if models.DeriveStatus(e.Status, e.SignedUpAt) == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAdminStore) MarkJoinedByToken(_ context.Context, token string, _ time.Time) (*models.WaitlistEntry, error) {
	if e, ok := m.byToken[token]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminStore) MarkJoinedByEmail(_ context.Context, email string, _ time.Time) (*models.WaitlistEntry, error) {
	if e, ok := m.byEmail[email]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminStore) BatchMarkJoined(_ context.Context, ids []string, _ time.Time) error {
	m.batchIDs = ids
	return m.batchErr
}

func (m *mockAdminStore) MarkInvited(_ context.Context, id string, _ time.Time, _ string, _ time.Time) error {
	if m.markInviteErr != nil {
		return m.markInviteErr
	}
	m.invitedIDs = append(m.invitedIDs, id)
	return nil
}

func (m *mockAdminStore) ResetToPending(_ context.Context, id string) error {
	m.resetIDs = append(m.resetIDs, id)
	return nil
}

func (m *mockAdminStore) Revoke(_ context.Context, id string) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return nil
}

func (m *mockAdminStore) Delete(_ context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockAdminStore) MarkJoined(_ context.Context, id string, _ time.Time) error {
	m.joinedIDs = append(m.joinedIDs, id)
	return nil
}

type mockProfileStore struct {
	calls     int
	gotCodes  []string
	referrers []models.Referrer
	err       error
}

func (m *mockProfileStore) FindByReferralCodes(_ context.Context, codes []string) ([]models.Referrer, error) {
	m.calls++
	m.gotCodes = codes
	return m.referrers, m.err
}

type mockInviteMailer struct {
	sent    []string
	failFor map[string]error
}

func (m *mockInviteMailer) SendInvite(_ context.Context, to, _ string) error {
	if err, ok := m.failFor[to]; ok {
		return err
	}
	m.sent = append(m.sent, to)
	return nil
}

type countingPacer struct{ pauses int }

func (p *countingPacer) Pause(context.Context) { p.pauses = p.pauses + 1 }

type mockAccounts struct {
	accounts []client.Account
	err      error
	calls    int
}

func (m *mockAccounts) ListAllAccounts(context.Context) ([]client.Account, error) {
	m.calls++
	return m.accounts, m.err
}

func newAdminFixture(secret string, store *mockAdminStore) (*AdminService, *mockProfileStore, *mockInviteMailer, *countingPacer, *mockAccounts) {
	profiles := &mockProfileStore{}
	mail := &mockInviteMailer{failFor: map[string]error{}}
	pace := &countingPacer{}
	accounts := &mockAccounts{}
	lc := NewLifecycle(store, NewTokenIssuer(time.Hour))
	svc := NewAdminService(secret, store, profiles, lc, mail, pace, accounts, nil)
	return svc, profiles, mail, pace, accounts
}

func strPtr(s string) *string { return &s }

func TestAdminServiceAuthorize(t *testing.T) {
	store := &mockAdminStore{}

	t.Run("empty configured secret admits everyone", func(t *testing.T) {
		svc, _, _, _, _ := newAdminFixture("", store)
		_, err := svc.ListEntries(context.Background(), "whatever")
		assert.NoError(t, err)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		svc, _, _, _, _ := newAdminFixture("s3cret", store)
		_, err := svc.ListEntries(context.Background(), "nope")
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("matching secret admits", func(t *testing.T) {
		svc, _, _, _, _ := newAdminFixture("s3cret", store)
		_, err := svc.ListEntries(context.Background(), "s3cret")
		assert.NoError(t, err)
	})
}

func TestAdminServiceListEntriesResolvesReferrers(t *testing.T) {
	store := &mockAdminStore{entries: []models.WaitlistEntry{
		{ID: "1", Email: "a@x.com", ReferralCode: strPtr("CODE1")},
		{ID: "2", Email: "b@x.com", ReferralCode: strPtr("CODE1")},
		{ID: "3", Email: "c@x.com", ReferralCode: strPtr("CODE2")},
		{ID: "4", Email: "d@x.com"},
	}}
	svc, profiles, _, _, _ := newAdminFixture("", store)
	profiles.referrers = []models.Referrer{
		{ReferralCode: "CODE1", FullName: "Ada"},
	}

	entries, err := svc.ListEntries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Duplicate codes collapse into a single batched lookup.
	assert.Equal(t, 1, profiles.calls)
	assert.ElementsMatch(t, []string{"CODE1", "CODE2"}, profiles.gotCodes)

	require.NotNil(t, entries[0].Referrer)
	assert.Equal(t, "Ada", entries[0].Referrer.FullName)
	require.NotNil(t, entries[1].Referrer)
	assert.Nil(t, entries[2].Referrer, "unresolved code stays bare")
	assert.Nil(t, entries[3].Referrer)
}

func TestAdminServiceListEntriesSurvivesReferrerFailure(t *testing.T) {
	store := &mockAdminStore{entries: []models.WaitlistEntry{
		{ID: "1", Email: "a@x.com", ReferralCode: strPtr("CODE1")},
	}}
	svc, profiles, _, _, _ := newAdminFixture("", store)
	profiles.err = errors.New("profiles table missing")

	entries, err := svc.ListEntries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Referrer)
}

func TestAdminServiceApplyBulkActionInvite(t *testing.T) {
	joined := time.Now().Add(-time.Hour)
	store := &mockAdminStore{entries: []models.WaitlistEntry{
		{ID: "p1", Email: "p1@x.com", Status: models.StatusPending},
		{ID: "p2", Email: "p2@x.com", Status: models.StatusPending},
		{ID: "i1", Email: "i1@x.com", Status: models.StatusInvited},
		{ID: "j1", Email: "j1@x.com", SignedUpAt: &joined},
	}}
	svc, _, mail, pace, _ := newAdminFixture("", store)
	mail.failFor["p2@x.com"] = errors.New("provider 500")

	res, err := svc.ApplyBulkAction(context.Background(), "", "invite", []string{"p1", "p2", "i1", "j1"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 2, res.Skipped, "invited and joined entries do not admit invite")
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "invited 1 user(s), 2 skipped, 1 failed", res.Message)

	// Only the successful send reached the store.
	assert.Equal(t, []string{"p1"}, store.invitedIDs)
	// The pause runs after every send attempt, failed ones included.
	assert.Equal(t, 2, pace.pauses)
}

func TestAdminServiceApplyBulkActionFailedCommit(t *testing.T) {
	store := &mockAdminStore{
		entries:       []models.WaitlistEntry{{ID: "p1", Email: "p1@x.com", Status: models.StatusPending}},
		markInviteErr: errors.New("db write failed"),
	}
	svc, _, mail, _, _ := newAdminFixture("", store)

	res, err := svc.ApplyBulkAction(context.Background(), "", "invite", []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Success)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"p1@x.com"}, mail.sent)
}

func TestAdminServiceApplyBulkActionDeleteSkipsNothing(t *testing.T) {
	joined := time.Now().Add(-time.Hour)
	store := &mockAdminStore{entries: []models.WaitlistEntry{
		{ID: "p1", Status: models.StatusPending},
		{ID: "i1", Status: models.StatusInvited},
		{ID: "j1", SignedUpAt: &joined},
	}}
	svc, _, mail, pace, _ := newAdminFixture("", store)

	res, err := svc.ApplyBulkAction(context.Background(), "", "delete", []string{"p1", "i1", "j1"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, "deleted 3 user(s), 0 skipped, 0 failed", res.Message)
	assert.ElementsMatch(t, []string{"p1", "i1", "j1"}, store.deletedIDs)
	assert.Empty(t, mail.sent)
	assert.Equal(t, 0, pace.pauses, "no pause without email sends")
}

func TestAdminServiceApplyBulkActionBadInput(t *testing.T) {
	store := &mockAdminStore{entries: []models.WaitlistEntry{{ID: "p1", Status: models.StatusPending}}}
	svc, _, _, _, _ := newAdminFixture("", store)

	_, err := svc.ApplyBulkAction(context.Background(), "", "promote", []string{"p1"})
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)

	_, err = svc.ApplyBulkAction(context.Background(), "", "invite", nil)
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)

	_, err = svc.ApplyBulkAction(context.Background(), "", "invite", []string{"ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAdminServiceMarkJoined(t *testing.T) {
	store := &mockAdminStore{
		byToken: map[string]models.WaitlistEntry{"tok123": {ID: "1", Email: "t@x.com"}},
		byEmail: map[string]models.WaitlistEntry{"e@x.com": {ID: "2", Email: "e@x.com"}},
	}
	svc, _, _, _, _ := newAdminFixture("", store)
	ctx := context.Background()

	res, err := svc.MarkJoined(ctx, "", "tok123", "")
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "t@x.com", res.Email)

	res, err = svc.MarkJoined(ctx, "", "", "  E@X.com ")
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "e@x.com", res.Email)

	res, err = svc.MarkJoined(ctx, "", "unknown", "")
	require.NoError(t, err)
	assert.False(t, res.Updated)

	_, err = svc.MarkJoined(ctx, "", "", "")
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)
}

func TestAdminServiceSyncJoined(t *testing.T) {
	store := &mockAdminStore{entries: []models.WaitlistEntry{
		{ID: "i1", Email: "Alice@X.com", Status: models.StatusInvited},
		{ID: "i2", Email: "bob@x.com", Status: models.StatusInvited},
		{ID: "i3", Email: "carol@x.com", Status: models.StatusInvited},
		{ID: "p1", Email: "pending@x.com", Status: models.StatusPending},
	}}
	svc, _, _, _, accounts := newAdminFixture("", store)
	accounts.accounts = []client.Account{
		{Email: "alice@x.com"},
		{Email: "BOB@x.com"},
		{Email: "stranger@x.com"},
	}

	res, err := svc.SyncJoined(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Checked, "only invited entries are examined")
	assert.Equal(t, 2, res.Synced)
	assert.ElementsMatch(t, []string{"Alice@X.com", "bob@x.com"}, res.Emails)
	assert.ElementsMatch(t, []string{"i1", "i2"}, store.batchIDs)
}

func TestAdminServiceSyncJoinedNothingInvited(t *testing.T) {
	store := &mockAdminStore{entries: []models.WaitlistEntry{
		{ID: "p1", Email: "pending@x.com", Status: models.StatusPending},
	}}
	svc, _, _, _, accounts := newAdminFixture("", store)

	res, err := svc.SyncJoined(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)
	assert.Equal(t, 0, res.Synced)
	assert.Empty(t, res.Emails)
	assert.Equal(t, 0, accounts.calls, "no provider call without invited entries")
}

func TestAdminServiceSyncJoinedNoMatches(t *testing.T) {
	store := &mockAdminStore{entries: []models.WaitlistEntry{
		{ID: "i1", Email: "alice@x.com", Status: models.StatusInvited},
	}}
	svc, _, _, _, accounts := newAdminFixture("", store)
	accounts.accounts = []client.Account{{Email: "stranger@x.com"}}

	res, err := svc.SyncJoined(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 0, res.Synced)
	assert.Nil(t, store.batchIDs)
}
