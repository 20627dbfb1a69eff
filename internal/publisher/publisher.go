package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/listmsg/mailman-bridge/internal/model"
)

// ErrBreakerOpen is returned when the circuit breaker refuses an
// attempt because the broker has been failing.
var ErrBreakerOpen = errors.New("publisher: breaker open")

// Publisher hands a NotificationPayload to the bus. Serialization and
// transport live behind this interface; callers never see the wire
// format.
type Publisher interface {
	Publish(ctx context.Context, payload *model.NotificationPayload) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration // default 50ms
	WriteTimeout time.Duration // default 5s

	MaxAttempts   int           // default 3
	Backoff       time.Duration // base for exponential backoff, default 500ms
	FailThreshold int
	OpenFor       time.Duration
}

// Kafka is a thin wrapper around a segmentio/kafka-go Writer with
// bounded retries and a circuit breaker in front of the broker.
type Kafka struct {
	w           *kafka.Writer
	br          *Breaker
	log         *zap.Logger
	maxAttempts int
	backoff     time.Duration
}

func NewKafka(c Config, log *zap.Logger) *Kafka {
	bt := c.BatchTimeout
	if bt <= 0 {
		bt = 50 * time.Millisecond
	}
	wt := c.WriteTimeout
	if wt <= 0 {
		wt = 5 * time.Second
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: bt,
		WriteTimeout: wt,
		RequiredAcks: kafka.RequireOne,
	}

	return &Kafka{
		w:           w,
		br:          NewBreaker(c.FailThreshold, c.OpenFor),
		log:         log,
		maxAttempts: attempts,
		backoff:     backoff,
	}
}

// Publish writes one payload, keyed by list id so a list's messages
// stay on one partition. Attempts are bounded with exponential backoff;
// the last error is returned once attempts are exhausted.
func (p *Kafka) Publish(ctx context.Context, payload *model.NotificationPayload) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(payload.MList.ListID),
		Value: value,
	}

	var last error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := p.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if !p.br.Allow() {
			last = ErrBreakerOpen
			continue
		}

		if err := p.w.WriteMessages(ctx, msg); err != nil {
			p.br.OnFailure()
			last = err
			p.log.Warn("publish attempt failed",
				zap.String("message_id", payload.Msg["message-id"]),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		p.br.OnSuccess()
		return nil
	}

	return last
}

func (p *Kafka) Close() error { return p.w.Close() }
