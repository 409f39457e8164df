package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/domain/events"
	"hr-backend/pkg/observability"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeUnknown   = "unknown_type"
	outcomeMalformed = "malformed"
)

// Consumer drains the notification queue. A message is completed only after
// its handler succeeds; any failure gives the lease back so the queue
// redelivers it, which makes delivery at least once.
type Consumer struct {
	queue    ports.Queue
	registry *Registry
	logger   *zap.Logger
	metrics  *observability.Collector

	idleWait   time.Duration
	maxBackoff time.Duration
}

func NewConsumer(queue ports.Queue, registry *Registry, idleWait time.Duration, logger *zap.Logger, metrics *observability.Collector) *Consumer {
	if idleWait <= 0 {
		idleWait = time.Second
	}
	return &Consumer{
		queue:      queue,
		registry:   registry,
		logger:     logger,
		metrics:    metrics,
		idleWait:   idleWait,
		maxBackoff: 30 * time.Second,
	}
}

// ProcessNext leases one message and handles it. It reports false when the
// queue was empty. A handler error is returned after the lease is failed.
func (c *Consumer) ProcessNext(ctx context.Context) (bool, error) {
	d, err := c.queue.Dequeue(ctx)
	if err != nil {
		return false, fmt.Errorf("dequeue: %w", err)
	}
	if d == nil {
		return false, nil
	}

	logger := c.logger.With(zap.String("message_id", d.MessageID), zap.Int("attempt", d.Attempt))

	if err := c.Handle(ctx, d.Body); err != nil {
		logger.Warn("Notification failed, returning it to the queue", zap.Error(err))
		if ferr := c.queue.Fail(ctx, d); ferr != nil {
			logger.Error("Failed to release lease; message reappears after visibility timeout", zap.Error(ferr))
		}
		return true, err
	}

	if err := c.queue.Complete(ctx, d); err != nil {
		// The handler already ran; a redelivery is absorbed by its idempotency.
		logger.Error("Failed to complete notification", zap.Error(err))
		return true, fmt.Errorf("complete: %w", err)
	}
	return true, nil
}

// Handle routes a single envelope body to its handler. An unknown type is
// logged and treated as done so it cannot block the queue.
func (c *Consumer) Handle(ctx context.Context, body []byte) (err error) {
	body = events.Unwrap(body)

	header, err := events.PeekHeader(body)
	if err != nil {
		c.metrics.RecordProcessed("", outcomeMalformed)
		return err
	}

	ctx, span := observability.StartSpan(ctx, "notification.handle",
		attribute.String("notification.type", string(header.Type)),
		attribute.String("notification.id", header.ID),
	)
	defer func() { observability.EndSpan(span, err) }()

	handler, ok := c.registry.Lookup(header.Type)
	if !ok {
		c.logger.Warn("Unknown notification type, discarding",
			zap.String("type", string(header.Type)),
			zap.String("id", header.ID),
		)
		c.metrics.RecordProcessed(string(header.Type), outcomeUnknown)
		return nil
	}

	start := time.Now()
	if err = handler.Handle(ctx, body); err != nil {
		outcome := outcomeFailed
		if errors.Is(err, events.ErrMalformed) {
			outcome = outcomeMalformed
		}
		c.metrics.RecordProcessed(string(header.Type), outcome)
		return fmt.Errorf("%s: %w", handler.Name(), err)
	}

	c.metrics.RecordProcessed(string(header.Type), outcomeCompleted)
	c.logger.Debug("Notification handled",
		zap.String("type", string(header.Type)),
		zap.String("id", header.ID),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Run polls the queue until ctx is cancelled. Dequeue errors back off
// exponentially up to maxBackoff.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Notification consumer started")
	backoff := c.idleWait

	for {
		if ctx.Err() != nil {
			c.logger.Info("Notification consumer stopping")
			return nil
		}

		processed, err := c.ProcessNext(ctx)
		switch {
		case err != nil && !processed:
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("Queue unavailable", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				continue
			}
			backoff = min(backoff*2, c.maxBackoff)
		case !processed:
			backoff = c.idleWait
			sleep(ctx, c.idleWait)
		default:
			backoff = c.idleWait
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
