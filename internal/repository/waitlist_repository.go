package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/planewx/waitlist-api/internal/models"
)

// ErrDuplicateEmail is returned when an insert violates the unique
// constraint on the email column.
var ErrDuplicateEmail = errors.New("waitlist: duplicate email")

// Legacy rows may carry a NULL status; COALESCE keeps the scan simple and
// models.Normalize derives the canonical value afterwards.
const entryColumns = `id, email, home_airport, xc_flights_per_week, COALESCE(status, '') AS status, created_at, invited_at, signed_up_at, approval_token, approval_token_expires_at, referral_code`

// WaitlistRepository provides database access for waitlist entries.
type WaitlistRepository struct {
	db *sqlx.DB
}

// NewWaitlistRepository creates a new instance of WaitlistRepository.
func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Create inserts a new waitlist entry. A unique-constraint violation on the
// email column is mapped to ErrDuplicateEmail.
func (r *WaitlistRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = models.StatusPending
	}

	const query = `INSERT INTO waitlist (id, email, home_airport, xc_flights_per_week, status, created_at, referral_code) VALUES (:id, :email, :home_airport, :xc_flights_per_week, :status, :created_at, :referral_code)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create waitlist entry: %w", err)
	}
	return nil
}

// FindByID returns an entry by identifier.
func (r *WaitlistRepository) FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM waitlist WHERE id = $1 LIMIT 1", entryColumns)
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find waitlist entry by id: %w", err)
	}
	entry.Normalize()
	return &entry, nil
}

// FindByToken returns the entry holding the given approval token.
func (r *WaitlistRepository) FindByToken(ctx context.Context, token string) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM waitlist WHERE approval_token = $1 LIMIT 1", entryColumns)
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find waitlist entry by token: %w", err)
	}
	entry.Normalize()
	return &entry, nil
}

// ListAll returns every entry ordered newest first.
func (r *WaitlistRepository) ListAll(ctx context.Context) ([]models.WaitlistEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM waitlist ORDER BY created_at DESC", entryColumns)
	var entries []models.WaitlistEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list waitlist entries: %w", err)
	}
	for i := range entries {
		entries[i].Normalize()
	}
	return entries, nil
}

// ListByIDs returns the entries matching the given identifiers. Unknown IDs
// are silently absent from the result.
func (r *WaitlistRepository) ListByIDs(ctx context.Context, ids []string) ([]models.WaitlistEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM waitlist WHERE id IN (?)", entryColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build list-by-ids query: %w", err)
	}
	query = r.db.Rebind(query)

	var entries []models.WaitlistEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list waitlist entries by ids: %w", err)
	}
	for i := range entries {
		entries[i].Normalize()
	}
	return entries, nil
}

// ListByStatus returns all entries currently in the given status.
func (r *WaitlistRepository) ListByStatus(ctx context.Context, status models.WaitlistStatus) ([]models.WaitlistEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM waitlist WHERE status = $1 ORDER BY created_at DESC", entryColumns)
	var entries []models.WaitlistEntry
	if err := r.db.SelectContext(ctx, &entries, query, status); err != nil {
		return nil, fmt.Errorf("list waitlist entries by status: %w", err)
	}
	for i := range entries {
		entries[i].Normalize()
	}
	return entries, nil
}

// MarkInvited records an invitation: status, timestamp and a fresh token.
// Serves both the initial invite and a resend (the stored token is simply
// replaced, invalidating the previous one).
func (r *WaitlistRepository) MarkInvited(ctx context.Context, id string, invitedAt time.Time, token string, expiresAt time.Time) error {
	const query = `UPDATE waitlist SET status = 'invited', invited_at = $2, approval_token = $3, approval_token_expires_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, invitedAt, token, expiresAt); err != nil {
		return fmt.Errorf("mark invited: %w", err)
	}
	return nil
}

// ResetToPending reverts an entry to pending and clears the invite fields.
// signed_up_at is deliberately left untouched.
func (r *WaitlistRepository) ResetToPending(ctx context.Context, id string) error {
	const query = `UPDATE waitlist SET status = 'pending', invited_at = NULL, approval_token = NULL, approval_token_expires_at = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("reset to pending: %w", err)
	}
	return nil
}

// Revoke invalidates an outstanding invite. invited_at is retained.
func (r *WaitlistRepository) Revoke(ctx context.Context, id string) error {
	const query = `UPDATE waitlist SET status = 'revoked', approval_token = NULL, approval_token_expires_at = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}
	return nil
}

// Delete permanently removes an entry.
func (r *WaitlistRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM waitlist WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete waitlist entry: %w", err)
	}
	return nil
}

// MarkJoined flags a single entry as joined.
func (r *WaitlistRepository) MarkJoined(ctx context.Context, id string, signedUpAt time.Time) error {
	const query = `UPDATE waitlist SET status = 'joined', signed_up_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, signedUpAt); err != nil {
		return fmt.Errorf("mark joined: %w", err)
	}
	return nil
}

// MarkJoinedByToken flags the entry holding the token as joined and returns
// it. sql.ErrNoRows is returned when no entry matches.
func (r *WaitlistRepository) MarkJoinedByToken(ctx context.Context, token string, signedUpAt time.Time) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf("UPDATE waitlist SET status = 'joined', signed_up_at = $2 WHERE approval_token = $1 RETURNING %s", entryColumns)
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, token, signedUpAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("mark joined by token: %w", err)
	}
	entry.Normalize()
	return &entry, nil
}

// MarkJoinedByEmail flags the entry with the given normalized email as
// joined and returns it. sql.ErrNoRows is returned when no entry matches.
func (r *WaitlistRepository) MarkJoinedByEmail(ctx context.Context, email string, signedUpAt time.Time) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf("UPDATE waitlist SET status = 'joined', signed_up_at = $2 WHERE email = $1 RETURNING %s", entryColumns)
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, email, signedUpAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("mark joined by email: %w", err)
	}
	entry.Normalize()
	return &entry, nil
}

// BatchMarkJoined flags all given entries as joined in a single statement.
func (r *WaitlistRepository) BatchMarkJoined(ctx context.Context, ids []string, signedUpAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("UPDATE waitlist SET status = 'joined', signed_up_at = ? WHERE id IN (?)", signedUpAt, ids)
	if err != nil {
		return fmt.Errorf("build batch mark joined query: %w", err)
	}
	query = r.db.Rebind(query)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("batch mark joined: %w", err)
	}
	return nil
}

// CountNotSignedUp counts entries still waiting, i.e. without a signup
// timestamp.
func (r *WaitlistRepository) CountNotSignedUp(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM waitlist WHERE signed_up_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
