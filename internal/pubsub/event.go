// Package pubsub is the asynchronous persistence bridge: the auth
// service publishes accepted registrations to a fanout exchange and a
// separate consumer process applies them to the durable store. Delivery
// is at-least-once; application is idempotent.
package pubsub

import (
	"strconv"
	"time"

	"github.com/vanshpatelx/Opinex/internal/account"
)

// RegistrationEvent is the immutable message published once per
// accepted registration. Password carries the bcrypt digest, never the
// plaintext. The identifier travels as a string so brokers and
// downstream JSON consumers never truncate it.
type RegistrationEvent struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRegistrationEvent(a *account.Account) RegistrationEvent {
	return RegistrationEvent{
		ID:        strconv.FormatUint(a.ID, 10),
		Email:     a.Email,
		Password:  a.PasswordHash,
		Type:      a.Type,
		CreatedAt: a.CreatedAt,
	}
}

func (e RegistrationEvent) toAccount() (*account.Account, error) {
	id, err := strconv.ParseUint(e.ID, 10, 64)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		ID:           id,
		Email:        e.Email,
		PasswordHash: e.Password,
		Type:         e.Type,
		CreatedAt:    e.CreatedAt,
	}, nil
}
