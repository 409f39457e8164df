package sqs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"hr-backend/application/ports"
)

// API is the subset of the SQS client used by Queue.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Config configures a Queue. Durations are rounded down to whole seconds.
type Config struct {
	QueueURL          string
	VisibilityTimeout time.Duration
	RetryDelay        time.Duration
	// WaitTime enables long polling on Dequeue. At most 20s.
	WaitTime time.Duration
}

// Queue is a ports.Queue on Amazon SQS. The receipt handle is the lease;
// redelivery after too many receives is left to the queue's redrive policy.
type Queue struct {
	client API
	cfg    Config
	logger *zap.Logger
}

func NewQueue(client API, cfg Config, logger *zap.Logger) *Queue {
	if cfg.WaitTime > 20*time.Second {
		cfg.WaitTime = 20 * time.Second
	}
	return &Queue{client: client, cfg: cfg, logger: logger}
}

func seconds(d time.Duration) int32 {
	return int32(d / time.Second)
}

func (q *Queue) Enqueue(ctx context.Context, body []byte) error {
	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.cfg.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	q.logger.Debug("Message sent", zap.String("messageID", aws.ToString(out.MessageId)))
	return nil
}

func (q *Queue) Dequeue(ctx context.Context) (*ports.Delivery, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.cfg.QueueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     seconds(q.cfg.WaitTime),
		VisibilityTimeout:   seconds(q.cfg.VisibilityTimeout),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive message: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	attempt, _ := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	return &ports.Delivery{
		MessageID: aws.ToString(msg.MessageId),
		Body:      []byte(aws.ToString(msg.Body)),
		Lease:     aws.ToString(msg.ReceiptHandle),
		Attempt:   attempt,
	}, nil
}

func (q *Queue) Complete(ctx context.Context, d *ports.Delivery) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.cfg.QueueURL),
		ReceiptHandle: aws.String(d.Lease),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message %s: %w", d.MessageID, err)
	}
	return nil
}

// Fail shortens the visibility timeout to the retry delay.
func (q *Queue) Fail(ctx context.Context, d *ports.Delivery) error {
	_, err := q.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(q.cfg.QueueURL),
		ReceiptHandle:     aws.String(d.Lease),
		VisibilityTimeout: seconds(q.cfg.RetryDelay),
	})
	if err != nil {
		return fmt.Errorf("failed to release message %s: %w", d.MessageID, err)
	}
	return nil
}
