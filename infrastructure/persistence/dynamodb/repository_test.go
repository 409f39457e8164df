package dynamodb

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
)

// fakeTable understands exactly the requests this package issues.
type fakeTable struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	err      error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue), pageSize: 2}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func keyOf(m map[string]types.AttributeValue) string {
	return str(m[attrPK]) + "|" + str(m[attrSK])
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func num(av types.AttributeValue) int64 {
	if n, ok := av.(*types.AttributeValueMemberN); ok {
		v, _ := strconv.ParseInt(n.Value, 10, 64)
		return v
	}
	return 0
}

// holds evaluates the condition shapes this package builds: existence
// checks, the status equality used by Release, and the lease takeover
// used by Claim.
func holds(cond *string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) bool {
	if cond == nil {
		return true
	}
	var strVal string
	var numVal int64
	for _, v := range values {
		switch v.(type) {
		case *types.AttributeValueMemberS:
			strVal = str(v)
		case *types.AttributeValueMemberN:
			numVal = num(v)
		}
	}
	switch {
	case strings.Contains(*cond, " OR "):
		return item == nil || (str(item[attrStatus]) == strVal && num(item[attrLeaseUntil]) < numVal)
	case strings.Contains(*cond, "attribute_not_exists"):
		return item == nil
	case strings.Contains(*cond, "attribute_exists"):
		return item != nil
	default:
		return item != nil && str(item[attrStatus]) == strVal
	}
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	k := keyOf(in.Item)
	if !holds(in.ConditionExpression, in.ExpressionAttributeValues, f.items[k]) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	k := keyOf(in.Key)
	if !holds(in.ConditionExpression, in.ExpressionAttributeValues, f.items[k]) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyOf(in.Key)
	item, ok := f.items[k]
	if !ok {
		item = map[string]types.AttributeValue{attrPK: in.Key[attrPK], attrSK: in.Key[attrSK]}
	}
	var seq int64
	if n, ok := item[attrSeq].(*types.AttributeValueMemberN); ok {
		seq, _ = strconv.ParseInt(n.Value, 10, 64)
	}
	seq++
	next := &types.AttributeValueMemberN{Value: strconv.FormatInt(seq, 10)}
	item[attrSeq] = next
	f.items[k] = item
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{attrSeq: next}}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pk string
	for _, v := range in.ExpressionAttributeValues {
		pk = str(v)
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if str(item[attrPK]) == pk {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return str(matched[i][attrSK]) < str(matched[j][attrSK]) })

	start := 0
	if in.ExclusiveStartKey != nil {
		after := str(in.ExclusiveStartKey[attrSK])
		for start < len(matched) && str(matched[start][attrSK]) <= after {
			start++
		}
	}
	end := start + f.pageSize
	out := &dynamodb.QueryOutput{}
	if end < len(matched) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			attrPK: matched[end-1][attrPK],
			attrSK: matched[end-1][attrSK],
		}
	} else {
		end = len(matched)
	}
	out.Items = matched[start:end]
	return out, nil
}

func newDepartmentRepo(t *testing.T, table *fakeTable) *Repository[*entities.Department] {
	t.Helper()
	repo := NewRepository[*entities.Department](table, "hr-records", entities.KindDepartment, zap.NewNop())
	repo.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }
	return repo
}

func TestRepository_SaveAllocatesSequentialIDs(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := newDepartmentRepo(t, table)

	for _, name := range []string{"Ops", "Finance", "People"} {
		require.NoError(t, repo.Save(ctx, &entities.Department{Name: name}))
	}

	got, err := repo.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Finance", got.Name)
	assert.Equal(t, int64(2), got.ID)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), got.CreatedAt)

	item := table.items["KIND#departments|ID#00000000000000000002"]
	require.NotNil(t, item)
	assert.Equal(t, "department", str(item[attrEntityType]))
}

func TestRepository_LoadAllPagesInIDOrder(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := newDepartmentRepo(t, table)
	for i := 0; i < 11; i++ {
		require.NoError(t, repo.Save(ctx, &entities.Department{Name: "d" + strconv.Itoa(i)}))
	}
	// An item of another kind in the same table.
	other := NewRepository[*entities.User](table, "hr-records", entities.KindUser, zap.NewNop())
	require.NoError(t, other.Save(ctx, &entities.User{Username: "ana", Email: "ana@example.com"}))

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 11)
	for i, d := range all {
		assert.Equal(t, int64(i+1), d.ID)
	}
}

func TestRepository_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := newDepartmentRepo(t, newFakeTable())
	d := &entities.Department{Name: "Ops"}
	require.NoError(t, repo.Save(ctx, d))
	created := d.CreatedAt

	repo.now = func() time.Time { return created.Add(time.Hour) }
	d.Description = "operations"
	require.NoError(t, repo.Save(ctx, d))

	got, err := repo.Load(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "operations", got.Description)
	assert.Equal(t, created, got.CreatedAt)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newDepartmentRepo(t, newFakeTable())

	_, err := repo.Load(ctx, 99)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	err = repo.Delete(ctx, 99)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &entities.Department{Name: "Ops"}))
	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Load(ctx, 1)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ClassifiesAPIErrors(t *testing.T) {
	table := newFakeTable()
	table.err = &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException", Message: "slow down"}
	repo := newDepartmentRepo(t, table)

	_, err := repo.Load(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProvisionedThroughputExceededException")
	assert.NotErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, err, ports.ErrUnavailable)

	table.err = &smithy.GenericAPIError{Code: "ValidationException", Message: "bad key"}
	_, err = repo.Load(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrUnavailable)
}

func TestRepository_SaveDoesNotResurrectDeletedRecord(t *testing.T) {
	ctx := context.Background()
	repo := newDepartmentRepo(t, newFakeTable())
	require.NoError(t, repo.Save(ctx, &entities.Department{Name: "Ops"}))

	loaded, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, 1))

	loaded.Name = "Operations"
	assert.ErrorIs(t, repo.Save(ctx, loaded), ports.ErrNotFound)
	_, err = repo.Load(ctx, 1)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_SaveReportsIDCollision(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := newDepartmentRepo(t, table)
	require.NoError(t, repo.Save(ctx, &entities.Department{Name: "Ops"}))

	// Counter reset behind the repository's back.
	delete(table.items, counterPK+"|departments")
	err := repo.Save(ctx, &entities.Department{Name: "Finance"})
	assert.ErrorIs(t, err, ports.ErrConflict)
}

func TestRepository_LoadAllFailsOnCorruptItem(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	repo := newDepartmentRepo(t, table)
	require.NoError(t, repo.Save(ctx, &entities.Department{Name: "Ops"}))

	table.items["KIND#departments|ID#00000000000000000002"] = map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: "KIND#departments"},
		attrSK: &types.AttributeValueMemberS{Value: "ID#00000000000000000002"},
		"id":   &types.AttributeValueMemberS{Value: "not a number"},
	}

	all, err := repo.LoadAll(ctx)
	assert.Error(t, err)
	assert.Nil(t, all)
}

func TestIdempotencyStore_LeaseLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(newFakeTable(), "hr-records")
	store.now = func() time.Time { return now }

	got, err := store.Claim(ctx, "msg-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.ClaimAcquired, got)

	got, err = store.Claim(ctx, "msg-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.ClaimInProgress, got)

	require.NoError(t, store.Release(ctx, "msg-1"))
	got, err = store.Claim(ctx, "msg-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.ClaimAcquired, got)

	// The holder never came back; its lease runs out.
	now = now.Add(2 * time.Minute)
	got, err = store.Claim(ctx, "msg-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.ClaimAcquired, got)

	require.NoError(t, store.Complete(ctx, "msg-1", 24*time.Hour))
	require.NoError(t, store.Release(ctx, "msg-1"))

	now = now.Add(time.Hour)
	got, err = store.Claim(ctx, "msg-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ports.ClaimDone, got)
}
