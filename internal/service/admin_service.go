package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/planewx/waitlist-api/internal/client"
	"github.com/planewx/waitlist-api/internal/models"
	appErrors "github.com/planewx/waitlist-api/pkg/errors"
	"github.com/planewx/waitlist-api/pkg/pacer"
)

type adminStore interface {
	ListAll(ctx context.Context) ([]models.WaitlistEntry, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.WaitlistEntry, error)
	ListByStatus(ctx context.Context, status models.WaitlistStatus) ([]models.WaitlistEntry, error)
	MarkJoinedByToken(ctx context.Context, token string, signedUpAt time.Time) (*models.WaitlistEntry, error)
	MarkJoinedByEmail(ctx context.Context, email string, signedUpAt time.Time) (*models.WaitlistEntry, error)
	BatchMarkJoined(ctx context.Context, ids []string, signedUpAt time.Time) error
}

type referrerStore interface {
	FindByReferralCodes(ctx context.Context, codes []string) ([]models.Referrer, error)
}

type inviteMailer interface {
	SendInvite(ctx context.Context, to, token string) error
}

type accountLister interface {
	ListAllAccounts(ctx context.Context) ([]client.Account, error)
}

// BulkResult summarises a bulk action run over a set of entries.
type BulkResult struct {
	Success int    `json:"success"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Message string `json:"message"`
}

// MarkJoinedResult reports whether a token or email resolved to an entry
// that has now been marked joined.
type MarkJoinedResult struct {
	Updated bool   `json:"updated"`
	Email   string `json:"email,omitempty"`
}

// SyncResult reports one reconciliation sweep. Checked counts the invited
// entries examined; Synced the subset found in the accounts listing and
// marked joined.
type SyncResult struct {
	Checked int      `json:"checked"`
	Synced  int      `json:"synced"`
	Emails  []string `json:"emails"`
}

// AdminService carries every admin-facing operation: listing the waitlist,
// running bulk lifecycle actions, marking entries joined, and the
// sync-joined reconciliation sweep. Every method re-checks the shared
// secret; a server configured without one runs with open admin access.
type AdminService struct {
	secret    string
	repo      adminStore
	profiles  referrerStore
	lifecycle *Lifecycle
	mail      inviteMailer
	pace      pacer.Pacer
	accounts  accountLister
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdminService creates an instance of AdminService.
func NewAdminService(secret string, repo adminStore, profiles referrerStore, lifecycle *Lifecycle, mail inviteMailer, pace pacer.Pacer, accounts accountLister, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pace == nil {
		pace = pacer.Noop{}
	}
	return &AdminService{
		secret:    secret,
		repo:      repo,
		profiles:  profiles,
		lifecycle: lifecycle,
		mail:      mail,
		pace:      pace,
		accounts:  accounts,
		logger:    logger,
		now:       time.Now,
	}
}

// authorize compares the caller's secret against the configured one. An
// empty configured secret disables the check entirely.
func (s *AdminService) authorize(secret string) error {
	if s.secret == "" {
		return nil
	}
	if secret != s.secret {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// ListEntries returns every waitlist entry, newest first, with referrer
// profiles attached. All referral codes are resolved in one lookup.
func (s *AdminService) ListEntries(ctx context.Context, secret string) ([]models.WaitlistEntry, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list waitlist entries")
	}

	seen := make(map[string]struct{})
	var codes []string
	for _, e := range entries {
		if e.ReferralCode == nil || *e.ReferralCode == "" {
			continue
		}
		if _, ok := seen[*e.ReferralCode]; ok {
			continue
		}
		seen[*e.ReferralCode] = struct{}{}
		codes = append(codes, *e.ReferralCode)
	}

	if len(codes) > 0 {
		referrers, err := s.profiles.FindByReferralCodes(ctx, codes)
		if err != nil {
			// A broken referrer lookup should not hide the list itself.
			s.logger.Warn("referrer lookup failed", zap.Error(err))
		} else {
			byCode := make(map[string]models.Referrer, len(referrers))
			for _, r := range referrers {
				byCode[r.ReferralCode] = r
			}
			for i := range entries {
				if entries[i].ReferralCode == nil {
					continue
				}
				if r, ok := byCode[*entries[i].ReferralCode]; ok {
					ref := r
					entries[i].Referrer = &ref
				}
			}
		}
	}

	return entries, nil
}

// ApplyBulkAction runs one lifecycle action over the selected entries,
// strictly in sequence. Entries whose current status does not admit the
// action are skipped; a failed invite email leaves the entry untouched and
// counts as failed. The provider pause runs after every send attempt,
// successful or not.
func (s *AdminService) ApplyBulkAction(ctx context.Context, secret, rawAction string, ids []string) (*BulkResult, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}

	action, ok := ParseAction(rawAction)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unknown action %q", rawAction))
	}
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "no entries selected")
	}

	entries, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selected entries")
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no valid entries found")
	}

	result := &BulkResult{}
	for _, entry := range entries {
		t, err := s.lifecycle.Stage(entry, action)
		if err != nil {
			s.logger.Warn("staging failed",
				zap.String("action", string(action)),
				zap.String("entry_id", entry.ID),
				zap.Error(err))
			result.Failed++
			continue
		}
		if t == nil {
			result.Skipped++
			continue
		}

		if t.RequiresEmail() {
			sendErr := s.mail.SendInvite(ctx, entry.Email, t.Token)
			s.pace.Pause(ctx)
			if sendErr != nil {
				s.logger.Warn("invite email failed",
					zap.String("action", string(action)),
					zap.String("email", entry.Email),
					zap.Error(sendErr))
				result.Failed++
				continue
			}
		}

		if err := s.lifecycle.Commit(ctx, t); err != nil {
			s.logger.Warn("commit failed",
				zap.String("action", string(action)),
				zap.String("entry_id", entry.ID),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Success++
	}

	result.Message = fmt.Sprintf("%s %d user(s), %d skipped, %d failed",
		actionLabels[action], result.Success, result.Skipped, result.Failed)
	return result, nil
}

// MarkJoined marks a single entry joined, located by invite token or, when
// no token is given, by normalized email. An unresolvable identifier is not
// an error: the result simply reports Updated false.
func (s *AdminService) MarkJoined(ctx context.Context, secret, token, email string) (*MarkJoinedResult, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}

	token = strings.TrimSpace(token)
	email = strings.ToLower(strings.TrimSpace(email))
	if token == "" && email == "" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "token or email is required")
	}

	var (
		entry *models.WaitlistEntry
		err   error
	)
	if token != "" {
		entry, err = s.repo.MarkJoinedByToken(ctx, token, s.now().UTC())
	} else {
		entry, err = s.repo.MarkJoinedByEmail(ctx, email, s.now().UTC())
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &MarkJoinedResult{Updated: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark entry joined")
	}

	return &MarkJoinedResult{Updated: true, Email: entry.Email}, nil
}

// SyncJoined reconciles invited entries against the identity provider's
// account listing: any invited entry whose email already has an account is
// marked joined. The sweep is idempotent, entries it marks move out of the
// invited set and will not be examined again.
func (s *AdminService) SyncJoined(ctx context.Context, secret string) (*SyncResult, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}

	invited, err := s.repo.ListByStatus(ctx, models.StatusInvited)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invited entries")
	}

	result := &SyncResult{Checked: len(invited), Emails: []string{}}
	if len(invited) == 0 {
		return result, nil
	}

	accounts, err := s.accounts.ListAllAccounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}

	registered := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		if a.Email != "" {
			registered[strings.ToLower(a.Email)] = struct{}{}
		}
	}

	var ids []string
	for _, e := range invited {
		if _, ok := registered[strings.ToLower(e.Email)]; ok {
			ids = append(ids, e.ID)
			result.Emails = append(result.Emails, e.Email)
		}
	}
	if len(ids) == 0 {
		return result, nil
	}

	if err := s.repo.BatchMarkJoined(ctx, ids, s.now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark synced entries joined")
	}
	result.Synced = len(ids)

	s.logger.Info("sync-joined sweep complete",
		zap.Int("checked", result.Checked),
		zap.Int("synced", result.Synced))
	return result, nil
}
