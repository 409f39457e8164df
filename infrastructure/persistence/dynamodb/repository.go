package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
)

// API is the subset of the DynamoDB client used here.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

const (
	attrPK         = "PK"
	attrSK         = "SK"
	attrEntityType = "EntityType"
	attrSeq        = "Seq"
	counterPK      = "COUNTER"
)

// Repository stores one entity kind in a single table:
//
//	PK = KIND#<plural>   SK = ID#<zero padded id>
//
// Ids come from an atomic counter item (PK = COUNTER, SK = <plural>).
type Repository[T entities.Entity] struct {
	client    API
	tableName string
	kind      entities.Kind
	logger    *zap.Logger
	now       func() time.Time
}

func NewRepository[T entities.Entity](client API, tableName string, kind entities.Kind, logger *zap.Logger) *Repository[T] {
	return &Repository[T]{
		client:    client,
		tableName: tableName,
		kind:      kind,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *Repository[T]) partition() string {
	return "KIND#" + r.kind.Plural
}

func sortKey(id int64) string {
	return fmt.Sprintf("ID#%020d", id)
}

func (r *Repository[T]) key(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: r.partition()},
		attrSK: &types.AttributeValueMemberS{Value: sortKey(id)},
	}
}

func (r *Repository[T]) Load(ctx context.Context, id int64) (T, error) {
	var zero T
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(id),
	})
	if err != nil {
		return zero, classify("get item", err)
	}
	if out.Item == nil {
		return zero, fmt.Errorf("%s %d: %w", r.kind.Singular, id, ports.ErrNotFound)
	}
	return r.parse(out.Item)
}

func (r *Repository[T]) LoadAll(ctx context.Context) ([]T, error) {
	keyCond := expression.Key(attrPK).Equal(expression.Value(r.partition()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	out := make([]T, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify("query", err)
		}
		for _, item := range page.Items {
			entity, err := r.parse(item)
			if err != nil {
				r.logger.Error("Failed to parse item",
					zap.String("kind", r.kind.Plural),
					zap.String("sk", itemSortKey(item)),
					zap.Error(err),
				)
				return nil, err
			}
			out = append(out, entity)
		}
	}
	return out, nil
}

// Save writes entity. New entities get an id from the counter and are
// written with a condition so an id is never reused; existing entities are
// written only while the item still exists, so a concurrent delete wins.
func (r *Repository[T]) Save(ctx context.Context, entity T) error {
	isNew := entity.EntityID() == 0
	if isNew {
		id, err := r.nextID(ctx)
		if err != nil {
			return err
		}
		entity.SetEntityID(id)
	}
	entity.Stamp(r.now())

	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}
	for k, v := range r.key(entity.EntityID()) {
		item[k] = v
	}
	item[attrEntityType] = &types.AttributeValueMemberS{Value: r.kind.Singular}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}
	cond := expression.Name(attrPK).AttributeExists()
	if isNew {
		cond = expression.Name(attrPK).AttributeNotExists()
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}
	input.ConditionExpression = expr.Condition()
	input.ExpressionAttributeNames = expr.Names()

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return classify("put item", err)
		}
		if isNew {
			return fmt.Errorf("%s %d: %w", r.kind.Singular, entity.EntityID(), ports.ErrConflict)
		}
		return fmt.Errorf("%s %d: %w", r.kind.Singular, entity.EntityID(), ports.ErrNotFound)
	}

	r.logger.Debug("Entity saved",
		zap.String("kind", r.kind.Plural),
		zap.Int64("id", entity.EntityID()),
		zap.Bool("created", isNew),
	)
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(attrPK).AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      r.key(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%s %d: %w", r.kind.Singular, id, ports.ErrNotFound)
		}
		return classify("delete item", err)
	}
	return nil
}

// nextID atomically increments the kind's counter item.
func (r *Repository[T]) nextID(ctx context.Context) (int64, error) {
	update := expression.Add(expression.Name(attrSeq), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: counterPK},
			attrSK: &types.AttributeValueMemberS{Value: r.kind.Plural},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, classify("allocate id", err)
	}

	seq, ok := out.Attributes[attrSeq].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter for %s returned no sequence", r.kind.Plural)
	}
	id, err := strconv.ParseInt(seq.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence %q: %w", seq.Value, err)
	}
	return id, nil
}

func (r *Repository[T]) parse(item map[string]types.AttributeValue) (T, error) {
	var entity T
	if err := attributevalue.UnmarshalMap(item, &entity); err != nil {
		return entity, fmt.Errorf("failed to parse item: %w", err)
	}
	return entity, nil
}

func itemSortKey(item map[string]types.AttributeValue) string {
	if sk, ok := item[attrSK].(*types.AttributeValueMemberS); ok {
		return sk.Value
	}
	return ""
}

// Error codes after which the same request may succeed.
var retryableCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
}

// classify keeps the AWS error code in the message so logs show throttling
// and validation errors distinctly. Throttling is marked ports.ErrUnavailable.
func classify(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if retryableCodes[apiErr.ErrorCode()] {
			return fmt.Errorf("dynamodb %s failed (%s): %w: %w", op, apiErr.ErrorCode(), ports.ErrUnavailable, err)
		}
		return fmt.Errorf("dynamodb %s failed (%s): %w", op, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("dynamodb %s failed: %w", op, err)
}
