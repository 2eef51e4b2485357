package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/planewx/waitlist-api/internal/models"
	appErrors "github.com/planewx/waitlist-api/pkg/errors"
)

// Verdict reasons for an unusable invite token.
const (
	ReasonInvalid = "invalid"
	ReasonUsed    = "used"
	ReasonExpired = "expired"
)

type tokenFinder interface {
	FindByToken(ctx context.Context, token string) (*models.WaitlistEntry, error)
}

// InviteVerdict answers whether a token is usable right now.
type InviteVerdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Email  string `json:"email,omitempty"`
}

// InviteService is the read-path counterpart to token issuance. Validating a
// token never consumes it; consumption happens through mark-joined.
type InviteService struct {
	repo tokenFinder
	now  func() time.Time
}

// NewInviteService creates an instance of InviteService.
func NewInviteService(repo tokenFinder) *InviteService {
	return &InviteService{repo: repo, now: time.Now}
}

// Validate resolves a token to a verdict. An expiry timestamp equal to "now"
// counts as expired: only strictly-future expiries are usable.
func (s *InviteService) Validate(ctx context.Context, token string) (*InviteVerdict, error) {
	if token == "" {
		return &InviteVerdict{Reason: ReasonInvalid}, nil
	}

	entry, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &InviteVerdict{Reason: ReasonInvalid}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up invite token")
	}

	if entry.Status == models.StatusJoined || entry.SignedUpAt != nil {
		return &InviteVerdict{Reason: ReasonUsed}, nil
	}

	if entry.ApprovalTokenExpiresAt != nil && !entry.ApprovalTokenExpiresAt.After(s.now()) {
		return &InviteVerdict{Reason: ReasonExpired}, nil
	}

	return &InviteVerdict{Valid: true, Email: entry.Email}, nil
}
