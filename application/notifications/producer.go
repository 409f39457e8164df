package notifications

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
	"hr-backend/domain/events"
	"hr-backend/pkg/observability"
)

const defaultEnqueueTimeout = 2 * time.Second

// Producer publishes notifications for committed writes. Publishing is fire
// and forget: one attempt is made, and a failure is logged and counted but
// never reaches the caller.
type Producer struct {
	publisher ports.Publisher
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *observability.Collector
}

func NewProducer(publisher ports.Publisher, logger *zap.Logger, metrics *observability.Collector) *Producer {
	return &Producer{
		publisher: publisher,
		timeout:   defaultEnqueueTimeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// UserCreated enqueues a user_created envelope for u.
func (p *Producer) UserCreated(ctx context.Context, u *entities.User) {
	p.publish(ctx, events.TypeUserCreated, events.NewUserCreated(u), zap.Int64("user_id", u.ID))
}

func (p *Producer) publish(ctx context.Context, t events.Type, envelope interface{}, fields ...zap.Field) {
	fields = append(fields, zap.String("type", string(t)))

	body, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("Failed to encode notification", append(fields, zap.Error(err))...)
		p.metrics.RecordEnqueue(string(t), "error")
		return
	}

	// The request may finish before the publish does.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.publisher.Enqueue(ctx, body); err != nil {
		p.logger.Error("Failed to enqueue notification, dropping it", append(fields, zap.Error(err))...)
		p.metrics.RecordEnqueue(string(t), "error")
		return
	}

	p.logger.Debug("Notification enqueued", fields...)
	p.metrics.RecordEnqueue(string(t), "ok")
}
