package notifications

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hr-backend/domain/events"
)

// Handler performs the side effect for one notification type. Handlers
// must tolerate seeing the same envelope more than once.
type Handler interface {
	Handle(ctx context.Context, body []byte) error
	Name() string
}

// Registry routes envelope bodies to the handler registered for their type.
type Registry struct {
	mu       sync.RWMutex
	handlers map[events.Type]Handler
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[events.Type]Handler),
		logger:   logger,
	}
}

// Register binds handler to t, replacing any earlier binding.
func (r *Registry) Register(t events.Type, handler Handler) error {
	if t == "" {
		return fmt.Errorf("notification type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = handler

	r.logger.Info("Registered notification handler",
		zap.String("handler", handler.Name()),
		zap.String("type", string(t)),
	)
	return nil
}

// Lookup returns the handler for t.
func (r *Registry) Lookup(t events.Type) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}
