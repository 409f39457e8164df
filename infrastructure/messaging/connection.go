package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"hr-backend/application/ports"
)

// Transport identifies the backend named by QUEUE_CONNECTION.
type Transport string

const (
	TransportDisabled    Transport = "disabled"
	TransportSQS         Transport = "sqs"
	TransportEventBridge Transport = "eventbridge"
	TransportMemory      Transport = "memory"
)

// Connection is a parsed QUEUE_CONNECTION value.
type Connection struct {
	Transport Transport
	// Target is the queue URL for SQS and the bus name for EventBridge.
	Target string
}

// ParseConnection accepts:
//
//	https://sqs.<region>.amazonaws.com/<account>/<queue>   SQS queue URL
//	sqs://<queue url without scheme>                       same, explicit
//	eventbridge://<bus name>                               EventBridge bus
//	memory://                                              in-process queue
//	""                                                     notifications disabled
func ParseConnection(raw string) (Connection, error) {
	if raw == "" {
		return Connection{Transport: TransportDisabled}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Connection{}, fmt.Errorf("invalid QUEUE_CONNECTION: %w", err)
	}

	switch u.Scheme {
	case "https", "http":
		if !strings.Contains(u.Host, "sqs") && !strings.Contains(u.Host, "localhost") {
			return Connection{}, fmt.Errorf("QUEUE_CONNECTION %q is not an SQS queue URL", raw)
		}
		return Connection{Transport: TransportSQS, Target: raw}, nil
	case "sqs":
		return Connection{Transport: TransportSQS, Target: "https://" + strings.TrimPrefix(raw, "sqs://")}, nil
	case "eventbridge":
		if u.Host == "" {
			return Connection{}, fmt.Errorf("QUEUE_CONNECTION %q has no bus name", raw)
		}
		return Connection{Transport: TransportEventBridge, Target: u.Host}, nil
	case "memory":
		return Connection{Transport: TransportMemory}, nil
	default:
		return Connection{}, fmt.Errorf("unsupported queue scheme %q", u.Scheme)
	}
}

// ErrNotConsumable is returned when a consumer is started on a transport
// that cannot be read from.
var ErrNotConsumable = errors.New("queue transport cannot be consumed")

// Disabled drops every message.
type Disabled struct{}

func (Disabled) Enqueue(context.Context, []byte) error { return nil }

func (Disabled) Dequeue(context.Context) (*ports.Delivery, error) { return nil, ErrNotConsumable }

func (Disabled) Complete(context.Context, *ports.Delivery) error { return ErrNotConsumable }

func (Disabled) Fail(context.Context, *ports.Delivery) error { return ErrNotConsumable }

// PublishOnly adapts a producer-only transport such as EventBridge to
// ports.Queue. Its messages are consumed from the queue the bus rule
// targets, by another process.
type PublishOnly struct {
	ports.Publisher
}

func (PublishOnly) Dequeue(context.Context) (*ports.Delivery, error) { return nil, ErrNotConsumable }

func (PublishOnly) Complete(context.Context, *ports.Delivery) error { return ErrNotConsumable }

func (PublishOnly) Fail(context.Context, *ports.Delivery) error { return ErrNotConsumable }
