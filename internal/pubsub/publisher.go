package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vanshpatelx/Opinex/internal/logger"
)

// reconnectBackoff is the fixed delay between broker reconnection
// attempts. Broker disconnects are expected in normal operation.
const reconnectBackoff = 5 * time.Second

var ErrBrokerUnavailable = errors.New("pubsub: broker unavailable")

// Publisher publishes registration events to a durable fanout
// exchange. It never crashes the issuing process: connection loss is
// reported to callers as an error while the Run supervisor keeps
// retrying in the background.
type Publisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, exchange string) *Publisher {
	return &Publisher{url: url, exchange: exchange}
}

// Run supervises the broker connection until ctx is cancelled,
// reconnecting with a fixed backoff whenever it drops.
func (p *Publisher) Run(ctx context.Context) {
	for {
		if !p.connected() {
			if err := p.connect(); err != nil {
				logger.Error("failed to connect to broker", map[string]any{
					"error": err.Error(),
				})
			} else {
				logger.Info("broker publisher connected", map[string]any{
					"exchange": p.exchange,
				})
			}
		}

		select {
		case <-ctx.Done():
			p.Close()
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (p *Publisher) connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed() && p.ch != nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.ch = ch
	p.mu.Unlock()

	return nil
}

// Publish sends one registration event. A failure is returned to the
// caller; the orchestrator's policy is to log and continue, since the
// cache entry already satisfies near-term login.
func (p *Publisher) Publish(ctx context.Context, ev RegistrationEvent) error {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	if ch == nil {
		return ErrBrokerUnavailable
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		p.exchange,
		"",    // fanout ignores routing keys
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		p.drop()
		return err
	}

	return nil
}

// drop discards the broken channel so Run re-establishes it.
func (p *Publisher) drop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
	}
	p.conn = nil
	p.ch = nil
}

func (p *Publisher) Close() {
	p.drop()
}
