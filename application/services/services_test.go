package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hr-backend/application/caching"
	"hr-backend/application/notifications"
	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
	"hr-backend/domain/events"
	"hr-backend/infrastructure/cache"
	memqueue "hr-backend/infrastructure/messaging/memory"
	"hr-backend/infrastructure/persistence/memory"
	apperrors "hr-backend/pkg/errors"
)

type countingRepo[T entities.Entity] struct {
	ports.Repository[T]
	loads     atomic.Int32
	saveErr   error
	afterLoad func(id int64)
}

func (r *countingRepo[T]) Load(ctx context.Context, id int64) (T, error) {
	r.loads.Add(1)
	e, err := r.Repository.Load(ctx, id)
	if r.afterLoad != nil {
		r.afterLoad(id)
	}
	return e, err
}

func (r *countingRepo[T]) Save(ctx context.Context, e T) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.Repository.Save(ctx, e)
}

type recordingMailer struct{ sent []int64 }

func (m *recordingMailer) SendWelcome(_ context.Context, userID int64, _, _ string) error {
	m.sent = append(m.sent, userID)
	return nil
}

type harness struct {
	store    *cache.MemoryStore
	repo     *countingRepo[*entities.User]
	queue    *memqueue.Queue
	mailer   *recordingMailer
	users    *EntityService[*entities.User]
	consumer *notifications.Consumer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	h := &harness{
		store:  cache.NewMemoryStore(128, ""),
		repo:   &countingRepo[*entities.User]{Repository: memory.NewRepository[*entities.User](entities.KindUser)},
		queue:  memqueue.NewQueue(30*time.Second, time.Second),
		mailer: &recordingMailer{},
	}

	ttl := caching.FixedTTL{Single: 10 * time.Minute, Collection: 5 * time.Minute}
	reads := caching.NewReadThrough[*entities.User](entities.KindUser, h.store, h.repo, ttl, logger, nil)
	writes := NewWritePipeline[*entities.User](entities.KindUser, h.repo, caching.NewInvalidator(h.store, logger, nil), logger)
	writes.OnCreate(notifications.NewProducer(h.queue, logger, nil).UserCreated)
	h.users = NewEntityService[*entities.User](entities.KindUser, h.repo, reads, writes, func() *entities.User { return &entities.User{} }, logger)

	registry := notifications.NewRegistry(logger)
	require.NoError(t, registry.Register(events.TypeUserCreated,
		notifications.NewWelcomeEmailHandler(h.mailer, memory.NewIdempotencyStore(), 0, logger)))
	h.consumer = notifications.NewConsumer(h.queue, registry, time.Millisecond, logger, nil)
	return h
}

func (h *harness) create(t *testing.T, body string) *entities.User {
	t.Helper()
	u, err := h.users.Decode([]byte(body))
	require.NoError(t, err)
	u, err = h.users.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func TestCreateUser_InvalidatesListAndNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	list, err := h.users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.True(t, h.store.Exists(ctx, "users:all"))

	u := h.create(t, `{"username":"ana","email":"ana@example.com"}`)
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	assert.False(t, h.store.Exists(ctx, "users:all"))
	assert.Equal(t, 1, h.queue.Len())

	processed, err := h.consumer.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []int64{1}, h.mailer.sent)
	assert.Zero(t, h.queue.Len())
}

func TestGetUser_SecondReadHitsCache(t *testing.T) {
	h := newHarness(t)
	u := h.create(t, `{"username":"ana","email":"ana@example.com"}`)

	for i := 0; i < 2; i++ {
		got, err := h.users.Get(context.Background(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana", got.Username)
	}
	assert.Equal(t, int32(1), h.repo.loads.Load())
}

func TestUpdateUser_MergesAndInvalidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.create(t, `{"username":"ana","email":"ana@example.com"}`)

	_, err := h.users.Get(ctx, u.ID)
	require.NoError(t, err)
	_, err = h.users.List(ctx)
	require.NoError(t, err)

	updated, err := h.users.Update(ctx, u.ID, []byte(`{"email":"ana@corp.example","id":99,"created_at":"2000-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, u.ID, updated.ID)
	assert.Equal(t, "ana", updated.Username)
	assert.Equal(t, "ana@corp.example", updated.Email)
	assert.True(t, updated.CreatedAt.Equal(u.CreatedAt))

	assert.False(t, h.store.Exists(ctx, "user:1"))
	assert.False(t, h.store.Exists(ctx, "users:all"))

	got, err := h.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@corp.example", got.Email)
	assert.Equal(t, 1, h.queue.Len(), "updates do not notify")
}

func TestDeleteUser_InvalidatesAndReturnsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.create(t, `{"username":"ana","email":"ana@example.com"}`)
	_, err := h.users.Get(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, h.users.Delete(ctx, u.ID))
	assert.False(t, h.store.Exists(ctx, "user:1"))

	_, err = h.users.Get(ctx, u.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = h.users.Delete(ctx, u.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateUser_ValidationFailureWritesNothing(t *testing.T) {
	h := newHarness(t)
	u, err := h.users.Decode([]byte(`{"username":"ana","email":"not-an-email"}`))
	require.NoError(t, err)

	_, err = h.users.Create(context.Background(), u)
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, h.queue.Len())
}

func TestCreateUser_FailedCommitSkipsInvalidationAndNotify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.users.List(ctx)
	require.NoError(t, err)

	h.repo.saveErr = errors.New("table unavailable")
	u, err := h.users.Decode([]byte(`{"username":"ana","email":"ana@example.com"}`))
	require.NoError(t, err)
	_, err = h.users.Create(ctx, u)

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDatabase))
	assert.True(t, h.store.Exists(ctx, "users:all"))
	assert.Zero(t, h.queue.Len())
}

func TestDecode_RejectsNonObject(t *testing.T) {
	h := newHarness(t)
	_, err := h.users.Decode([]byte(`[1,2]`))
	assert.True(t, apperrors.IsValidation(err))

	_, err = h.users.Decode([]byte(`{"username":5}`))
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdate_UnknownIDIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.users.Update(context.Background(), 404, []byte(`{}`))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdate_ConcurrentDeleteWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.create(t, `{"username":"ana","email":"ana@example.com"}`)

	// Another request deletes the user between our load and our save.
	h.repo.afterLoad = func(id int64) {
		require.NoError(t, h.repo.Repository.Delete(ctx, id))
	}
	_, err := h.users.Update(ctx, u.ID, []byte(`{"username":"ana2"}`))
	assert.True(t, apperrors.IsNotFound(err))

	h.repo.afterLoad = nil
	_, err = h.users.Get(ctx, u.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, h.store.Exists(ctx, "user:1"))
}

func TestCreate_TranslatesRepositoryErrors(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		want   apperrors.ErrorType
		status int
	}{
		{"throttled", fmt.Errorf("dynamodb put item failed: %w", ports.ErrUnavailable), apperrors.ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{"id collision", fmt.Errorf("user 3: %w", ports.ErrConflict), apperrors.ErrorTypeConflict, http.StatusConflict},
		{"other", errors.New("disk on fire"), apperrors.ErrorTypeDatabase, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.repo.saveErr = tt.cause
			u, err := h.users.Decode([]byte(`{"username":"ana","email":"ana@example.com"}`))
			require.NoError(t, err)

			_, err = h.users.Create(context.Background(), u)
			appErr := apperrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.want, appErr.Type)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestCreate_ValidationErrorNamesResource(t *testing.T) {
	h := newHarness(t)
	u, err := h.users.Decode([]byte(`{"username":"ana","email":"not-an-email"}`))
	require.NoError(t, err)

	_, err = h.users.Create(context.Background(), u)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "user", appErr.Details["resource"])
}
