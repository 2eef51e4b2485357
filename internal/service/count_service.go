package service

import (
	"context"
	"time"

	appErrors "github.com/planewx/waitlist-api/pkg/errors"
)

const countCacheKey = "waitlist:count"

type entryCounter interface {
	CountNotSignedUp(ctx context.Context) (int, error)
}

// CountService serves the public waitlist counter. The published number is
// the count of entries that have not signed up yet, padded by a fixed base
// so the landing page never shows an empty list.
type CountService struct {
	repo     entryCounter
	cache    *CacheService
	base     int
	cacheTTL time.Duration
}

// NewCountService creates an instance of CountService.
func NewCountService(repo entryCounter, cache *CacheService, base int, cacheTTL time.Duration) *CountService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &CountService{repo: repo, cache: cache, base: base, cacheTTL: cacheTTL}
}

// Count returns the padded public count, from cache when available.
func (s *CountService) Count(ctx context.Context) (int, error) {
	var cached int
	if hit, err := s.cache.Get(ctx, countCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	n, err := s.repo.CountNotSignedUp(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count waitlist entries")
	}

	total := n + s.base
	// A failed cache write only costs the next request a query.
	_ = s.cache.Set(ctx, countCacheKey, total, s.cacheTTL)
	return total, nil
}
