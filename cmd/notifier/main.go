package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"hr-backend/infrastructure/config"
	"hr-backend/infrastructure/di"
)

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// Handler processes an SQS batch. Failed records are reported individually
// so only they are redelivered; the event source mapping must enable
// ReportBatchItemFailures.
func Handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, record := range event.Records {
		if err := container.Consumer.Handle(ctx, []byte(record.Body)); err != nil {
			container.Logger.Warn("Notification failed, will be redelivered",
				zap.String("message_id", record.MessageId),
				zap.String("receive_count", record.Attributes["ApproximateReceiveCount"]),
				zap.Error(err),
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}
	return resp, nil
}

func main() {
	lambda.Start(Handler)
}
