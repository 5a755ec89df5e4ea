package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshpatelx/Opinex/internal/account"
)

// memRepo applies inserts into a map keyed by email, mirroring the
// durable unique constraint.
type memRepo struct {
	rows      map[string]*account.Account
	insertErr error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]*account.Account{}}
}

func (m *memRepo) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	a, ok := m.rows[email]
	if !ok {
		return nil, nil
	}
	return a, nil
}

func (m *memRepo) Insert(ctx context.Context, a *account.Account) (bool, error) {
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if _, ok := m.rows[a.Email]; ok {
		return false, nil
	}
	m.rows[a.Email] = a
	return true, nil
}

func eventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(RegistrationEvent{
		ID:        "1740600000000112",
		Email:     "alice@example.com",
		Password:  "$2a$10$digest",
		Type:      account.TypeUser,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return body
}

func TestApply_InsertsOnce(t *testing.T) {
	repo := newMemRepo()
	c := NewConsumer("amqp://localhost", "auth_events", "auth_queue", repo)

	applied, err := c.apply(context.Background(), eventBody(t))
	require.NoError(t, err)
	assert.True(t, applied)

	got := repo.rows["alice@example.com"]
	require.NotNil(t, got)
	assert.Equal(t, uint64(1740600000000112), got.ID)
	assert.Equal(t, "$2a$10$digest", got.PasswordHash)
}

func TestApply_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := newMemRepo()
	c := NewConsumer("amqp://localhost", "auth_events", "auth_queue", repo)
	body := eventBody(t)

	applied, err := c.apply(context.Background(), body)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = c.apply(context.Background(), body)
	require.NoError(t, err, "a redelivery must not fail")
	assert.False(t, applied)
	assert.Len(t, repo.rows, 1, "exactly one durable row per email")
}

func TestApply_MalformedBody(t *testing.T) {
	c := NewConsumer("amqp://localhost", "auth_events", "auth_queue", newMemRepo())

	_, err := c.apply(context.Background(), []byte("not json"))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestApply_BadID(t *testing.T) {
	c := NewConsumer("amqp://localhost", "auth_events", "auth_queue", newMemRepo())

	_, err := c.apply(context.Background(), []byte(`{"id":"abc","email":"a@b.c","password":"x"}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestApply_MissingFields(t *testing.T) {
	c := NewConsumer("amqp://localhost", "auth_events", "auth_queue", newMemRepo())

	_, err := c.apply(context.Background(), []byte(`{"id":"1","email":"","password":""}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestApply_RepoErrorIsRetryable(t *testing.T) {
	repo := newMemRepo()
	repo.insertErr = errors.New("db down")
	c := NewConsumer("amqp://localhost", "auth_events", "auth_queue", repo)

	_, err := c.apply(context.Background(), eventBody(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedEvent, "transient errors must stay requeueable")
}
