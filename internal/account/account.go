// Package account holds the identity record and the cache-aside store
// that layers a Redis projection over the durable accounts table.
package account

import (
	"context"
	"time"
)

const (
	TypeUser  = "USER"
	TypeAdmin = "ADMIN"
)

// Account is the durable identity record. PasswordHash is the bcrypt
// digest, never the plaintext.
type Account struct {
	ID           uint64
	Email        string
	PasswordHash string
	Type         string
	CreatedAt    time.Time
}

// Cache is the volatile projection of accounts keyed by email.
// A nil Account from Get means the entry is absent.
type Cache interface {
	Exists(ctx context.Context, email string) (bool, error)
	Get(ctx context.Context, email string) (*Account, error)
	Set(ctx context.Context, a *Account) error
}

// Repository is the durable side. FindByEmail returns (nil, nil) when no
// row exists. Insert is idempotent: a duplicate email is a no-op and is
// reported through the bool, not an error.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Insert(ctx context.Context, a *Account) (bool, error)
}
