// Package events provides a PostgreSQL-backed pub/sub EventBus built on Watermill.
//
// Delivery semantics:
//   - Subscribe uses a per-service ConsumerGroup: messages are load-balanced
//     across all instances in the group — only one instance processes each
//     message. Use this for worker patterns.
//   - SubscribeBroadcast uses a caller-chosen group name: give each process a
//     distinct group and every process receives every message. The auction
//     change feed uses this so each replica can maintain its own working set.
//
// Handlers should be idempotent. On failure a message is Nacked and redelivered;
// the bus retries up to 3 times with exponential backoff before giving up.
//
// OTel context propagation: trace context is injected into message metadata on
// Publish and extracted in Subscribe, enabling end-to-end distributed tracing.
package events

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	_ "github.com/jackc/pgx/v5/stdlib" // register the "pgx" driver
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/auctiondesk/pkg/config"
	"github.com/ghuser/auctiondesk/pkg/logger"
)

const (
	maxRetries      = 3
	retryBaseDelay  = time.Second
	shutdownTimeout = 30 * time.Second
)

// EventBus is a PostgreSQL-backed pub/sub EventBus built on Watermill's SQL
// transport. It uses FOR UPDATE SKIP LOCKED under the hood for concurrent-safe
// delivery.
type EventBus struct {
	publisher *watermillsql.Publisher
	db        *sql.DB
	ownsDB    bool
	cfg       *config.Config
	log       logger.Logger
	wg        sync.WaitGroup

	mu   sync.Mutex
	subs []*watermillsql.Subscriber
}

// NewEventBus opens a database connection from cfg.DatabaseURL and initializes
// a Watermill SQL publisher. Schema tables are created automatically on first
// use. Subscribers are created per Subscribe call.
func NewEventBus(cfg *config.Config, log logger.Logger) (*EventBus, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("events: open db: %w", err)
	}
	bus, err := newEventBus(db, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	bus.ownsDB = true
	return bus, nil
}

// NewEventBusWithDB builds an EventBus on an existing connection so the bus
// shares the application's pool. The caller keeps ownership of db.
func NewEventBusWithDB(db *sql.DB, cfg *config.Config, log logger.Logger) (*EventBus, error) {
	return newEventBus(db, cfg, log)
}

func newEventBus(db *sql.DB, cfg *config.Config, log logger.Logger) (*EventBus, error) {
	pub, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		&slogAdapter{log: log},
	)
	if err != nil {
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}

	return &EventBus{
		publisher: pub,
		db:        db,
		cfg:       cfg,
		log:       log,
	}, nil
}

// NewTxPublisher returns a Publisher bound to the given *sql.Tx.
// All Publish calls on the returned publisher execute within that transaction,
// enabling atomic "save row + publish change event" semantics.
//
// AutoInitializeSchema is false — tables are guaranteed to exist after
// EventBus startup.
func (q *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	pub, err := watermillsql.NewPublisher(
		tx,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: false,
		},
		&slogAdapter{log: q.log},
	)
	if err != nil {
		return nil, fmt.Errorf("events: new tx publisher: %w", err)
	}
	return pub, nil
}

// Publish sends one or more messages to the given topic.
// OTel trace context from ctx is injected into each message's metadata so
// the receiving subscriber can restore the trace and continue the span tree.
func (q *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
	if err := q.publisher.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers handler to process messages from topic asynchronously,
// load-balanced across all instances sharing cfg.ServiceName.
func (q *EventBus) Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	return q.subscribe(ctx, topic, q.cfg.ServiceName+"-consumer", handler)
}

// SubscribeBroadcast registers handler under the given consumer group name.
// Give each process a distinct group so every process observes every message;
// this is how change-feed followers stay aligned with the store.
func (q *EventBus) SubscribeBroadcast(ctx context.Context, topic, group string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	return q.subscribe(ctx, topic, group, handler)
}

// subscribe wires a dedicated SQL subscriber for the topic. The subscription
// is released when ctx is cancelled or the bus is closed.
//
// Ack/Nack is managed by the bus:
//   - handler returns nil   → Ack (message consumed)
//   - handler returns error → retried up to 3× with exponential backoff (1s, 2s, 4s)
//   - all retries exhausted → Nack + error forwarded to the returned channel
//
// The returned error channel is buffered (capacity 100). Callers must drain it.
func (q *EventBus) subscribe(ctx context.Context, topic, group string, handler func(context.Context, *message.Message) error) (<-chan error, error) {
	sub, err := watermillsql.NewSubscriber(
		q.db,
		watermillsql.SubscriberConfig{
			SchemaAdapter:    watermillsql.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillsql.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			ConsumerGroup:    group,
		},
		&slogAdapter{log: q.log},
	)
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber: %w", err)
	}

	ch, err := sub.Subscribe(ctx, topic)
	if err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	q.mu.Lock()
	q.subs = append(q.subs, sub)
	q.mu.Unlock()

	errCh := make(chan error, 100)
	propagator := otel.GetTextMapPropagator()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(errCh)

		for msg := range ch {
			// Restore the publisher's trace context from message metadata.
			carrier := propagation.MapCarrier{}
			for k, v := range msg.Metadata {
				carrier[k] = v
			}
			msgCtx := propagator.Extract(ctx, carrier)

			if err := retryWithBackoff(msgCtx, msg, handler, maxRetries, retryBaseDelay, q.log); err != nil {
				msg.Nack()
				select {
				case errCh <- err:
				default:
					q.log.ErrorContext(msgCtx, "events: error channel full, dropping error",
						"error", err, "topic", topic)
				}
			} else {
				msg.Ack()
			}
		}
	}()

	return errCh, nil
}

// retryWithBackoff calls handler up to maxRetries times with exponential backoff.
// Returns nil on first success; returns the last error after all retries exhaust.
func retryWithBackoff(
	ctx context.Context,
	msg *message.Message,
	handler func(context.Context, *message.Message) error,
	maxRetries int,
	baseDelay time.Duration,
	log logger.Logger,
) error {
	delay := baseDelay
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt < maxRetries {
			log.WarnContext(ctx, "events: handler failed, retrying",
				"attempt", attempt,
				"max_retries", maxRetries,
				"next_delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("events: handler failed after %d retries: %w", maxRetries, err)
}

// Ping checks the EventBus database connection health.
func (q *EventBus) Ping(ctx context.Context) error {
	if err := q.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close gracefully shuts down the EventBus.
// Shutdown order: stop subscribers → wait for in-flight handlers (30 s max) →
// close publisher → close the database connection if the bus owns it.
func (q *EventBus) Close() error {
	q.mu.Lock()
	subs := q.subs
	q.subs = nil
	q.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Close(); err != nil {
			return fmt.Errorf("events: close subscriber: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		q.log.Error("events: timed out waiting for in-flight handlers to complete")
	}

	if err := q.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	if q.ownsDB {
		return q.db.Close()
	}
	return nil
}

// slogAdapter bridges logger.Logger to watermill.LoggerAdapter.
type slogAdapter struct{ log logger.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
