package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"hr-backend/application/ports"
)

// ErrStaleLease is returned when a delivery's lease expired and the message
// was handed to another consumer.
var ErrStaleLease = errors.New("lease no longer held")

type message struct {
	id        string
	body      []byte
	visibleAt time.Time
	attempts  int
	lease     string
}

// DefaultMaxAttempts matches the dequeue limit of an SQS redrive policy
// with maxReceiveCount 5.
const DefaultMaxAttempts = 5

// Queue is an in-process ports.Queue with SQS-like visibility semantics:
// a dequeued message is hidden for the visibility timeout and reappears if
// it is neither completed nor failed before then. A message that used up
// its attempts moves to the dead-letter list instead of reappearing.
type Queue struct {
	mu          sync.Mutex
	messages    []*message
	deadLetters [][]byte
	visibility  time.Duration
	retryDelay  time.Duration
	maxAttempts int
	seq         int64
	now         func() time.Time
}

func NewQueue(visibility, retryDelay time.Duration) *Queue {
	return &Queue{
		visibility:  visibility,
		retryDelay:  retryDelay,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
}

// SetMaxAttempts sets how many deliveries a message gets; n <= 0 keeps the
// current limit.
func (q *Queue) SetMaxAttempts(n int) {
	if n <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.maxAttempts = n
}

// SetClock replaces the time source.
func (q *Queue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

func (q *Queue) Enqueue(_ context.Context, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	copied := make([]byte, len(body))
	copy(copied, body)
	q.messages = append(q.messages, &message{
		id:        strconv.FormatInt(q.seq, 10),
		body:      copied,
		visibleAt: q.now(),
	})
	return nil
}

func (q *Queue) Dequeue(_ context.Context) (*ports.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for i := 0; i < len(q.messages); i++ {
		m := q.messages[i]
		if now.Before(m.visibleAt) {
			continue
		}
		// Lease expired on the last attempt.
		if m.attempts >= q.maxAttempts {
			q.deadLetter(i)
			i--
			continue
		}
		m.attempts++
		m.lease = uuid.NewString()
		m.visibleAt = now.Add(q.visibility)
		return &ports.Delivery{MessageID: m.id, Body: m.body, Lease: m.lease, Attempt: m.attempts}, nil
	}
	return nil, nil
}

func (q *Queue) Complete(_ context.Context, d *ports.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.messages {
		if m.id != d.MessageID {
			continue
		}
		if m.lease != d.Lease {
			return ErrStaleLease
		}
		q.messages = append(q.messages[:i], q.messages[i+1:]...)
		return nil
	}
	return ErrStaleLease
}

// Fail returns the message for another attempt after the retry delay, or
// dead-letters it once its attempts are used up.
func (q *Queue) Fail(_ context.Context, d *ports.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.messages {
		if m.id != d.MessageID {
			continue
		}
		if m.lease != d.Lease {
			return ErrStaleLease
		}
		if m.attempts >= q.maxAttempts {
			q.deadLetter(i)
			return nil
		}
		m.lease = ""
		m.visibleAt = q.now().Add(q.retryDelay)
		return nil
	}
	return ErrStaleLease
}

// deadLetter moves messages[i] to the dead-letter list. Callers hold q.mu.
func (q *Queue) deadLetter(i int) {
	q.deadLetters = append(q.deadLetters, q.messages[i].body)
	q.messages = append(q.messages[:i], q.messages[i+1:]...)
}

// DeadLetters returns the bodies of messages that exhausted their attempts.
func (q *Queue) DeadLetters() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][]byte, len(q.deadLetters))
	copy(out, q.deadLetters)
	return out
}

// Len reports how many messages are stored, visible or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
