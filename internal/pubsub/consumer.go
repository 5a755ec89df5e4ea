package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vanshpatelx/Opinex/internal/account"
	"github.com/vanshpatelx/Opinex/internal/logger"
)

// ErrMalformedEvent marks a message body that can never be applied.
// Such messages are rejected without requeue; everything else is
// requeued and the broker owns the retry.
var ErrMalformedEvent = errors.New("pubsub: malformed registration event")

const applyTimeout = 5 * time.Second

// Consumer drains the registration queue and applies each event to the
// durable store idempotently. A duplicate delivery acks as a no-op; a
// failing insert is nacked back to the broker. A single bad message
// never takes the process down.
type Consumer struct {
	url      string
	exchange string
	queue    string
	repo     account.Repository
}

func NewConsumer(url, exchange, queue string, repo account.Repository) *Consumer {
	return &Consumer{
		url:      url,
		exchange: exchange,
		queue:    queue,
		repo:     repo,
	}
}

// Run consumes until ctx is cancelled, reconnecting with a fixed
// backoff when the broker connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := c.consumeOnce(ctx); err != nil {
			logger.Error("consumer connection lost", map[string]any{
				"queue": c.queue,
				"error": err.Error(),
			})
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectBackoff):
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(
		c.exchange, amqp.ExchangeFanout, true, false, false, false, nil,
	); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		c.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(q.Name, "", c.exchange, false, nil); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name,
		"dbserver-"+uuid.NewString(), // consumer tag
		false,                        // manual ack
		false, false, false, nil,
	)
	if err != nil {
		return err
	}

	logger.Info("consuming registration events", map[string]any{
		"queue":    q.Name,
		"exchange": c.exchange,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("pubsub: delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery) {
	_, err := c.apply(ctx, msg.Body)

	switch {
	case errors.Is(err, ErrMalformedEvent):
		logger.Error("dropping malformed registration event", map[string]any{
			"error": err.Error(),
		})
		_ = msg.Reject(false) // requeueing can never succeed
	case err != nil:
		logger.Error("failed to apply registration event, requeueing", map[string]any{
			"error": err.Error(),
		})
		_ = msg.Nack(false, true)
	default:
		// fresh insert and benign duplicate both ack
		_ = msg.Ack(false)
	}
}

// apply parses an event body and performs the idempotent durable
// insert. The returned bool reports whether a row was actually written;
// false means a duplicate delivery (or a lost concurrent registration
// race) was ignored.
func (c *Consumer) apply(ctx context.Context, body []byte) (bool, error) {
	var ev RegistrationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	a, err := ev.toAccount()
	if err != nil {
		return false, fmt.Errorf("%w: bad id: %v", ErrMalformedEvent, err)
	}
	if a.Email == "" || a.PasswordHash == "" {
		return false, fmt.Errorf("%w: missing fields", ErrMalformedEvent)
	}

	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	inserted, err := c.repo.Insert(ctx, a)
	if err != nil {
		return false, err
	}

	if !inserted {
		// either a redelivery or the losing side of a concurrent
		// registration; the durable unique constraint arbitrated
		logger.Warn("registration event ignored, account row already exists", map[string]any{
			"id":    ev.ID,
			"email": ev.Email,
		})
		return false, nil
	}

	logger.Info("account persisted", map[string]any{
		"id":    ev.ID,
		"email": ev.Email,
	})
	return true, nil
}
