package ports

import (
	"context"
)

// Delivery is one leased message. The lease is opaque to the application.
type Delivery struct {
	MessageID string
	Body      []byte
	Lease     string
	Attempt   int
}

// Publisher puts a message on the notification queue.
type Publisher interface {
	Enqueue(ctx context.Context, body []byte) error
}

// Queue is the consumer side of a durable queue with visibility leases.
type Queue interface {
	Publisher

	// Dequeue leases the next visible message. It returns nil, nil when the
	// queue is empty.
	Dequeue(ctx context.Context) (*Delivery, error)

	// Complete removes the message permanently.
	Complete(ctx context.Context, d *Delivery) error

	// Fail gives up the lease so the message becomes visible again after
	// the queue's retry delay.
	Fail(ctx context.Context, d *Delivery) error
}

// Mailer sends outbound email.
type Mailer interface {
	SendWelcome(ctx context.Context, userID int64, username, email string) error
}
