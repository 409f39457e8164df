package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnection(t *testing.T) {
	tests := []struct {
		raw     string
		want    Connection
		wantErr bool
	}{
		{raw: "", want: Connection{Transport: TransportDisabled}},
		{
			raw:  "https://sqs.eu-west-1.amazonaws.com/123456789012/user-notifications",
			want: Connection{Transport: TransportSQS, Target: "https://sqs.eu-west-1.amazonaws.com/123456789012/user-notifications"},
		},
		{
			raw:  "sqs://localhost:4566/000000000000/user-notifications",
			want: Connection{Transport: TransportSQS, Target: "https://localhost:4566/000000000000/user-notifications"},
		},
		{raw: "eventbridge://hr-events", want: Connection{Transport: TransportEventBridge, Target: "hr-events"}},
		{raw: "memory://", want: Connection{Transport: TransportMemory}},
		{raw: "eventbridge://", wantErr: true},
		{raw: "https://example.com/queue", wantErr: true},
		{raw: "amqp://broker", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseConnection(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisabled(t *testing.T) {
	var q Disabled
	assert.NoError(t, q.Enqueue(context.Background(), []byte("x")))
	_, err := q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrNotConsumable)
}

type recordingPublisher struct{ bodies []string }

func (p *recordingPublisher) Enqueue(_ context.Context, body []byte) error {
	p.bodies = append(p.bodies, string(body))
	return nil
}

func TestPublishOnly(t *testing.T) {
	pub := &recordingPublisher{}
	q := PublishOnly{Publisher: pub}

	require.NoError(t, q.Enqueue(context.Background(), []byte("a")))
	assert.Equal(t, []string{"a"}, pub.bodies)

	_, err := q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrNotConsumable)
}
