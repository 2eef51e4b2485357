package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/planewx/waitlist-api/internal/models"
)

// ProfileRepository reads referrer profiles. The profiles table belongs to
// the main application; this service never writes to it.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByReferralCodes returns the profiles matching any of the given codes
// in a single query. Codes without a matching profile are simply absent from
// the result.
func (r *ProfileRepository) FindByReferralCodes(ctx context.Context, codes []string) ([]models.Referrer, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In("SELECT referral_code, full_name, avatar_url FROM profiles WHERE referral_code IN (?)", codes)
	if err != nil {
		return nil, fmt.Errorf("build referral lookup query: %w", err)
	}
	query = r.db.Rebind(query)

	var referrers []models.Referrer
	if err := r.db.SelectContext(ctx, &referrers, query, args...); err != nil {
		return nil, fmt.Errorf("find referrers by codes: %w", err)
	}
	return referrers, nil
}
