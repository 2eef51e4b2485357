package service

import (
	"context"
	"fmt"
	"time"

	"github.com/planewx/waitlist-api/internal/models"
)

// Action identifies a lifecycle operation on a waitlist entry.
type Action string

const (
	ActionInvite     Action = "invite"
	ActionResend     Action = "resend"
	ActionReset      Action = "reset"
	ActionRevoke     Action = "revoke"
	ActionDelete     Action = "delete"
	ActionMarkJoined Action = "mark_joined"
)

// ParseAction maps a raw string onto a known action.
func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionInvite, ActionResend, ActionReset, ActionRevoke, ActionDelete, ActionMarkJoined:
		return Action(raw), true
	}
	return "", false
}

// actionLabels feed the human-readable bulk summary message.
var actionLabels = map[Action]string{
	ActionInvite:     "invited",
	ActionResend:     "resent invites to",
	ActionReset:      "reset to pending",
	ActionRevoke:     "revoked invites for",
	ActionDelete:     "deleted",
	ActionMarkJoined: "marked as joined",
}

type lifecycleStore interface {
	MarkInvited(ctx context.Context, id string, invitedAt time.Time, token string, expiresAt time.Time) error
	ResetToPending(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	MarkJoined(ctx context.Context, id string, signedUpAt time.Time) error
}

// Transition is a staged lifecycle change for a single entry: the action's
// precondition has been checked and its effects computed, but nothing has
// been persisted yet. Callers that need to send email do so between Stage
// and Commit so a failed send never advances state.
type Transition struct {
	Action Action
	Entry  models.WaitlistEntry

	// Token and ExpiresAt are populated for invite and resend.
	Token     string
	ExpiresAt time.Time

	at time.Time
}

// RequiresEmail reports whether this transition must be preceded by a
// successful invitation send.
func (t *Transition) RequiresEmail() bool {
	return t.Action == ActionInvite || t.Action == ActionResend
}

// Lifecycle is the central state machine for waitlist entries. All status
// changes flow through Stage/Commit; no call site mutates entry fields
// directly.
type Lifecycle struct {
	store  lifecycleStore
	tokens *TokenIssuer
	now    func() time.Time
}

// NewLifecycle builds the state machine.
func NewLifecycle(store lifecycleStore, tokens *TokenIssuer) *Lifecycle {
	return &Lifecycle{store: store, tokens: tokens, now: time.Now}
}

// Stage checks the action's precondition against the entry's canonical
// status and prepares the transition. A nil transition with a nil error
// means the precondition was not met and the entry must be counted as
// skipped, not failed.
func (l *Lifecycle) Stage(entry models.WaitlistEntry, action Action) (*Transition, error) {
	status := models.DeriveStatus(entry.Status, entry.SignedUpAt)

	switch action {
	case ActionInvite:
		if status != models.StatusPending {
			return nil, nil
		}
	case ActionResend, ActionRevoke:
		if status != models.StatusInvited {
			return nil, nil
		}
	case ActionReset, ActionDelete, ActionMarkJoined:
		// No precondition: these apply to any status.
	default:
		return nil, fmt.Errorf("unknown lifecycle action %q", action)
	}

	t := &Transition{Action: action, Entry: entry, at: l.now().UTC()}

	if t.RequiresEmail() {
		token, expiresAt, err := l.tokens.Issue()
		if err != nil {
			return nil, err
		}
		t.Token = token
		t.ExpiresAt = expiresAt
	}

	return t, nil
}

// Commit persists a staged transition.
func (l *Lifecycle) Commit(ctx context.Context, t *Transition) error {
	switch t.Action {
	case ActionInvite, ActionResend:
		return l.store.MarkInvited(ctx, t.Entry.ID, t.at, t.Token, t.ExpiresAt)
	case ActionReset:
		// signed_up_at survives a reset; see the reset test for the
		// resulting state on previously joined entries.
		return l.store.ResetToPending(ctx, t.Entry.ID)
	case ActionRevoke:
		return l.store.Revoke(ctx, t.Entry.ID)
	case ActionDelete:
		return l.store.Delete(ctx, t.Entry.ID)
	case ActionMarkJoined:
		return l.store.MarkJoined(ctx, t.Entry.ID, t.at)
	}
	return fmt.Errorf("unknown lifecycle action %q", t.Action)
}
