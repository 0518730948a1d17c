package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/talentvault/talentvault-backend/pkg/config"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

// ErrNotConnected is returned while the broker connection is being re-established
var ErrNotConnected = errors.New("rabbitmq: not connected")

// RabbitMQ owns one connection and one publishing channel. A dropped
// connection is redialled in the background until Close is called.
type RabbitMQ struct {
	config *config.RabbitMQConfig
	logger *logger.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	exchanges []string
	done      chan struct{}
	closeOnce sync.Once
}

// New dials the broker, retrying up to MaxRetries times ReconnectDelay apart
func New(ctx context.Context, cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		config: cfg,
		logger: log.WithComponent("rabbitmq"),
		done:   make(chan struct{}),
	}

	if err := r.dialWithRetry(ctx); err != nil {
		return nil, err
	}

	go r.watch()
	return r, nil
}

func (r *RabbitMQ) dialWithRetry(ctx context.Context) error {
	attempts := max(r.config.MaxRetries, 1)

	var err error
	for i := 1; i <= attempts; i++ {
		if err = r.dial(); err == nil {
			return nil
		}
		r.logger.Warn().Err(err).Int("attempt", i).Int("max_attempts", attempts).Msg("RabbitMQ dial failed")

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.done:
			return ErrNotConnected
		case <-time.After(r.config.ReconnectDelay):
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
}

func (r *RabbitMQ) dial() error {
	conn, err := amqp.Dial(r.config.URL)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.channel = ch
	exchanges := append([]string(nil), r.exchanges...)
	r.mu.Unlock()

	// redeclare after a reconnect; the broker may have been restarted
	for _, name := range exchanges {
		if err := declareTopic(ch, name); err != nil {
			return fmt.Errorf("failed to redeclare exchange %s: %w", name, err)
		}
	}

	r.logger.Info().Msg("connected to RabbitMQ")
	return nil
}

// watch redials whenever the connection drops
func (r *RabbitMQ) watch() {
	for {
		r.mu.RLock()
		conn := r.conn
		r.mu.RUnlock()

		closed := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-r.done:
			return
		case amqpErr := <-closed:
			if amqpErr == nil {
				// graceful close initiated by us
				return
			}
			r.logger.Error().Str("reason", amqpErr.Reason).Int("code", amqpErr.Code).Msg("RabbitMQ connection lost, reconnecting")
		}

		r.mu.Lock()
		r.channel = nil
		r.mu.Unlock()

		for {
			err := r.dialWithRetry(context.Background())
			if err == nil {
				break
			}
			if errors.Is(err, ErrNotConnected) {
				return
			}
			r.logger.Error().Err(err).Msg("RabbitMQ reconnect failed, backing off")
			select {
			case <-r.done:
				return
			case <-time.After(r.config.ReconnectDelay):
			}
		}
	}
}

// Channel returns the current publishing channel, or nil while reconnecting
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

// Close stops reconnecting and closes the connection
func (r *RabbitMQ) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		defer r.mu.Unlock()

		if r.channel != nil {
			if cerr := r.channel.Close(); cerr != nil {
				r.logger.Warn().Err(cerr).Msg("failed to close channel")
			}
		}
		if r.conn != nil && !r.conn.IsClosed() {
			if cerr := r.conn.Close(); cerr != nil {
				err = fmt.Errorf("failed to close connection: %w", cerr)
				return
			}
		}
		r.logger.Info().Msg("RabbitMQ connection closed")
	})
	return err
}

// Health reports whether the connection is usable
func (r *RabbitMQ) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.conn == nil || r.conn.IsClosed() || r.channel == nil {
		return map[string]string{"status": "down", "error": "connection closed"}
	}
	return map[string]string{"status": "up"}
}

// DeclareExchange declares a durable topic exchange and remembers it for reconnects
func (r *RabbitMQ) DeclareExchange(name string) error {
	ch := r.Channel()
	if ch == nil {
		return ErrNotConnected
	}
	if err := declareTopic(ch, name); err != nil {
		return err
	}

	r.mu.Lock()
	r.exchanges = append(r.exchanges, name)
	r.mu.Unlock()
	return nil
}

func declareTopic(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}
