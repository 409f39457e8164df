package eventbridge

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"hr-backend/domain/events"
)

// Source is the EventBridge source of every notification.
const Source = "hr-backend.notifications"

// API is the subset of the EventBridge client used by Publisher.
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher is a ports.Publisher that puts envelopes on an event bus. A
// rule on the bus routes them to the notification queue, so consumers use
// the queue implementation, not this one.
type Publisher struct {
	client  API
	busName string
	logger  *zap.Logger
}

func NewPublisher(client API, busName string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, busName: busName, logger: logger}
}

func (p *Publisher) Enqueue(ctx context.Context, body []byte) error {
	header, err := events.PeekHeader(body)
	if err != nil {
		return err
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.busName),
			Source:       aws.String(Source),
			DetailType:   aws.String(string(header.Type)),
			Detail:       aws.String(string(body)),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event to EventBridge: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, entry := range out.Entries {
			if entry.ErrorCode != nil {
				return fmt.Errorf("event rejected: %s: %s", aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
		return fmt.Errorf("%d events failed to publish", out.FailedEntryCount)
	}

	p.logger.Debug("Event published to EventBridge",
		zap.String("eventType", string(header.Type)),
		zap.String("eventBus", p.busName),
	)
	return nil
}
