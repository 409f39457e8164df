package sqs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hr-backend/application/ports"
)

type mockSQS struct {
	mock.Mock
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.SendMessageOutput)
	return out, args.Error(1)
}

func (m *mockSQS) ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.ReceiveMessageOutput)
	return out, args.Error(1)
}

func (m *mockSQS) DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.DeleteMessageOutput)
	return out, args.Error(1)
}

func (m *mockSQS) ChangeMessageVisibility(ctx context.Context, in *sqs.ChangeMessageVisibilityInput, _ ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.ChangeMessageVisibilityOutput)
	return out, args.Error(1)
}

const queueURL = "https://sqs.us-east-1.amazonaws.com/123456789012/user-notifications"

func newQueue(client API) *Queue {
	return NewQueue(client, Config{
		QueueURL:          queueURL,
		VisibilityTimeout: 30 * time.Second,
		RetryDelay:        10 * time.Second,
		WaitTime:          time.Minute,
	}, zap.NewNop())
}

func TestQueue_Enqueue(t *testing.T) {
	client := new(mockSQS)
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		return aws.ToString(in.QueueUrl) == queueURL && aws.ToString(in.MessageBody) == `{"type":"user_created"}`
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil)

	err := newQueue(client).Enqueue(context.Background(), []byte(`{"type":"user_created"}`))

	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestQueue_DequeueLeasesOneMessage(t *testing.T) {
	client := new(mockSQS)
	client.On("ReceiveMessage", mock.Anything, mock.MatchedBy(func(in *sqs.ReceiveMessageInput) bool {
		return in.MaxNumberOfMessages == 1 && in.WaitTimeSeconds == 20 && in.VisibilityTimeout == 30
	})).Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{{
		MessageId:     aws.String("m-1"),
		Body:          aws.String("payload"),
		ReceiptHandle: aws.String("rh-1"),
		Attributes:    map[string]string{"ApproximateReceiveCount": "3"},
	}}}, nil).Once()
	client.On("ReceiveMessage", mock.Anything, mock.Anything).Return(&sqs.ReceiveMessageOutput{}, nil).Once()

	q := newQueue(client)
	d, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ports.Delivery{MessageID: "m-1", Body: []byte("payload"), Lease: "rh-1", Attempt: 3}, d)

	d, err = q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestQueue_CompleteAndFailUseReceiptHandle(t *testing.T) {
	client := new(mockSQS)
	client.On("DeleteMessage", mock.Anything, mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return aws.ToString(in.ReceiptHandle) == "rh-1"
	})).Return(&sqs.DeleteMessageOutput{}, nil)
	client.On("ChangeMessageVisibility", mock.Anything, mock.MatchedBy(func(in *sqs.ChangeMessageVisibilityInput) bool {
		return aws.ToString(in.ReceiptHandle) == "rh-2" && in.VisibilityTimeout == 10
	})).Return(&sqs.ChangeMessageVisibilityOutput{}, nil)

	q := newQueue(client)
	require.NoError(t, q.Complete(context.Background(), &ports.Delivery{MessageID: "m-1", Lease: "rh-1"}))
	require.NoError(t, q.Fail(context.Background(), &ports.Delivery{MessageID: "m-2", Lease: "rh-2"}))
	client.AssertExpectations(t)
}

func TestQueue_PropagatesErrors(t *testing.T) {
	client := new(mockSQS)
	client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))
	client.On("ReceiveMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	q := newQueue(client)
	assert.Error(t, q.Enqueue(context.Background(), []byte("x")))
	_, err := q.Dequeue(context.Background())
	assert.Error(t, err)
}
