package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"hr-backend/application/ports"
)

const (
	attrStatus     = "Status"
	attrLeaseUntil = "LeaseUntil"

	statusPending = "pending"
	statusDone    = "done"
)

type idempotencyItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Status     string `dynamodbav:"Status"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	LeaseUntil int64  `dynamodbav:"LeaseUntil,omitempty"`
	TTL        int64  `dynamodbav:"TTL"`
}

// IdempotencyStore records side-effect keys in the same table. The table's
// TTL attribute expires old records; lease expiry is checked explicitly
// because TTL deletion lags.
type IdempotencyStore struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewIdempotencyStore(client API, tableName string) *IdempotencyStore {
	return &IdempotencyStore{client: client, tableName: tableName, now: time.Now}
}

func idempotencyKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "IDEMPOTENCY#" + key},
		attrSK: &types.AttributeValueMemberS{Value: "IDEMPOTENCY"},
	}
}

// Claim writes a pending item unless a done item or a live lease exists.
func (s *IdempotencyStore) Claim(ctx context.Context, key string, lease time.Duration) (ports.ClaimResult, error) {
	now := s.now()
	item, err := attributevalue.MarshalMap(idempotencyItem{
		PK:         "IDEMPOTENCY#" + key,
		SK:         "IDEMPOTENCY",
		Status:     statusPending,
		CreatedAt:  now.UTC().Format(time.RFC3339),
		LeaseUntil: now.Add(lease).Unix(),
		TTL:        now.Add(lease).Unix(),
	})
	if err != nil {
		return ports.ClaimInProgress, err
	}

	free := expression.Name(attrPK).AttributeNotExists().Or(
		expression.Name(attrStatus).Equal(expression.Value(statusPending)).
			And(expression.Name(attrLeaseUntil).LessThan(expression.Value(now.Unix()))),
	)
	expr, err := expression.NewBuilder().WithCondition(free).Build()
	if err != nil {
		return ports.ClaimInProgress, fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err == nil {
		return ports.ClaimAcquired, nil
	}
	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return ports.ClaimInProgress, classify("claim idempotency key", err)
	}
	return s.holder(ctx, key)
}

// holder reports why a claim was refused.
func (s *IdempotencyStore) holder(ctx context.Context, key string) (ports.ClaimResult, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            idempotencyKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return ports.ClaimInProgress, classify("read idempotency key", err)
	}
	var existing idempotencyItem
	if out.Item != nil {
		if err := attributevalue.UnmarshalMap(out.Item, &existing); err != nil {
			return ports.ClaimInProgress, fmt.Errorf("failed to parse idempotency item: %w", err)
		}
	}
	if existing.Status == statusDone {
		return ports.ClaimDone, nil
	}
	return ports.ClaimInProgress, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, retention time.Duration) error {
	now := s.now()
	item, err := attributevalue.MarshalMap(idempotencyItem{
		PK:        "IDEMPOTENCY#" + key,
		SK:        "IDEMPOTENCY",
		Status:    statusDone,
		CreatedAt: now.UTC().Format(time.RFC3339),
		TTL:       now.Add(retention).Unix(),
	})
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return classify("complete idempotency key", err)
	}
	return nil
}

// Release deletes the item only while it is still pending.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(attrStatus).Equal(expression.Value(statusPending))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       idempotencyKey(key),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return classify("release idempotency key", err)
	}
	return nil
}
