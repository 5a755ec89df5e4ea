package account

import (
	"context"

	"github.com/vanshpatelx/Opinex/internal/logger"
)

// Store is the cache-aside layer over the account cache and the durable
// repository. The cache is the first and fastest source of truth during
// the eventual-consistency window: a freshly registered account is
// visible here before its durable row exists.
type Store struct {
	cache Cache
	repo  Repository
}

func NewStore(cache Cache, repo Repository) *Store {
	return &Store{cache: cache, repo: repo}
}

// Exists is the cache-only fast path used by the registration duplicate
// check. A false result does not prove absence; the durable store is
// authoritative.
func (s *Store) Exists(ctx context.Context, email string) (bool, error) {
	return s.cache.Exists(ctx, email)
}

// FindByEmail reads through the cache. A cache failure falls through to
// the durable store instead of being treated as absence. A durable hit
// backfills the cache with a fresh TTL; a durable miss returns
// (nil, nil) without negative caching.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	cached, err := s.cache.Get(ctx, email)
	if err != nil {
		logger.Warn("cache read failed, falling back to database", map[string]any{
			"email": email,
			"error": err.Error(),
		})
	} else if cached != nil {
		return cached, nil
	}

	a, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}

	if err := s.cache.Set(ctx, a); err != nil {
		// backfill is best-effort; the durable row already answered
		logger.Warn("cache backfill failed", map[string]any{
			"email": email,
			"error": err.Error(),
		})
	}

	return a, nil
}

// WriteThrough sets the cache entry immediately so the account is
// visible to login before the asynchronous durable write lands.
func (s *Store) WriteThrough(ctx context.Context, a *Account) error {
	return s.cache.Set(ctx, a)
}
