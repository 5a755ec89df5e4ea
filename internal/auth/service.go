// Package auth composes the cache-aside store, identifier generator,
// hasher, token issuer, and event publisher into the register and login
// operations.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanshpatelx/Opinex/internal/account"
	"github.com/vanshpatelx/Opinex/internal/auth/credentials"
	"github.com/vanshpatelx/Opinex/internal/idgen"
	"github.com/vanshpatelx/Opinex/internal/logger"
	"github.com/vanshpatelx/Opinex/internal/pubsub"
	"github.com/vanshpatelx/Opinex/internal/token"
)

var (
	// ErrValidation rejects malformed input before any side effect.
	ErrValidation = errors.New("invalid request")
	// ErrAlreadyExists reports a registration for a taken email.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and wrong
	// password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store is the cache-aside account store the orchestrators run against.
type Store interface {
	Exists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	WriteThrough(ctx context.Context, a *account.Account) error
}

// Publisher hands accepted registrations to the persistence bridge.
type Publisher interface {
	Publish(ctx context.Context, ev pubsub.RegistrationEvent) error
}

type Service struct {
	store     Store
	publisher Publisher
	issuer    *token.Issuer

	newID func() uint64
	now   func() time.Time
}

func NewService(store Store, publisher Publisher, issuer *token.Issuer) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		issuer:    issuer,
		newID:     idgen.Next,
		now:       time.Now,
	}
}

// Register accepts a new account and returns a signed token. The
// account becomes visible through the cache immediately; the durable
// row lands asynchronously via the event consumer. Errors outside the
// package taxonomy are infrastructure failures.
func (s *Service) Register(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrValidation
	}

	// cache fast path; a cache failure is not proof of absence, the
	// durable check below stays authoritative either way
	exists, err := s.store.Exists(ctx, email)
	if err != nil {
		logger.Warn("cache existence check failed", map[string]any{
			"email": email,
			"error": err.Error(),
		})
	}
	if exists {
		logger.Warn("registration rejected, user already cached", map[string]any{
			"email": email,
		})
		return "", ErrAlreadyExists
	}

	// authoritative check; a durable hit also backfills the cache
	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("checking existing account: %w", err)
	}
	if existing != nil {
		logger.Warn("registration rejected, user exists in database", map[string]any{
			"email": email,
		})
		return "", ErrAlreadyExists
	}

	hash, err := credentials.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	a := &account.Account{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: hash,
		Type:         account.TypeUser,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.WriteThrough(ctx, a); err != nil {
		return "", fmt.Errorf("caching new account: %w", err)
	}

	if err := s.publisher.Publish(ctx, pubsub.NewRegistrationEvent(a)); err != nil {
		// log-and-continue: the cache entry already satisfies
		// near-term login; durable persistence waits for the next
		// successful publish
		logger.Error("failed to publish registration event", map[string]any{
			"email": email,
			"id":    a.ID,
			"error": err.Error(),
		})
	}

	tok, err := s.issuer.Issue(a.ID, a.Email, a.Type)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	logger.Info("user registered", map[string]any{
		"email": email,
		"id":    a.ID,
	})
	return tok, nil
}

// Login verifies credentials via the read-through store and returns a
// signed token. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrValidation
	}

	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("looking up account: %w", err)
	}
	if a == nil {
		logger.Warn("login failed, user not found", map[string]any{
			"email": email,
		})
		return "", ErrInvalidCredentials
	}

	if err := credentials.Verify(a.PasswordHash, password); err != nil {
		logger.Warn("login failed, password mismatch", map[string]any{
			"email": email,
		})
		return "", ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(a.ID, a.Email, a.Type)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	logger.Info("user logged in", map[string]any{
		"email": email,
		"id":    a.ID,
	})
	return tok, nil
}
