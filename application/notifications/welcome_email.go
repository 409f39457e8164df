package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/domain/events"
)

const (
	// welcomeRetention is how long a sent email is remembered.
	welcomeRetention = 7 * 24 * time.Hour
	// defaultClaimLease bounds how long a crashed attempt blocks redelivery.
	defaultClaimLease = 30 * time.Second
)

// WelcomeEmailHandler sends the welcome email for user_created. The
// envelope id is leased before sending and marked done only after the mail
// went out, so a redelivered envelope is skipped once sent and retried
// otherwise.
type WelcomeEmailHandler struct {
	mailer ports.Mailer
	claims ports.IdempotencyStore
	lease  time.Duration
	logger *zap.Logger
}

// NewWelcomeEmailHandler builds the handler. lease should not exceed the
// queue's visibility timeout; zero selects a default.
func NewWelcomeEmailHandler(mailer ports.Mailer, claims ports.IdempotencyStore, lease time.Duration, logger *zap.Logger) *WelcomeEmailHandler {
	if lease <= 0 {
		lease = defaultClaimLease
	}
	return &WelcomeEmailHandler{mailer: mailer, claims: claims, lease: lease, logger: logger}
}

func (h *WelcomeEmailHandler) Name() string { return "welcome_email" }

func (h *WelcomeEmailHandler) Handle(ctx context.Context, body []byte) error {
	e, err := events.DecodeUserCreated(body)
	if err != nil {
		return err
	}

	key := claimKey(e)
	result, err := h.claims.Claim(ctx, key, h.lease)
	if err != nil {
		return fmt.Errorf("claim %s: %w", key, err)
	}
	switch result {
	case ports.ClaimDone:
		h.logger.Info("Welcome email already sent, skipping duplicate",
			zap.String("key", key),
			zap.Int64("user_id", e.UserID),
		)
		return nil
	case ports.ClaimInProgress:
		return fmt.Errorf("%s: %w", key, ports.ErrClaimInProgress)
	}

	// Bookkeeping below must outlive a cancelled delivery context.
	detached := context.WithoutCancel(ctx)

	if err := h.mailer.SendWelcome(ctx, e.UserID, e.Username, e.Email); err != nil {
		if rerr := h.claims.Release(detached, key); rerr != nil {
			h.logger.Warn("Failed to release claim, retry waits for the lease to expire",
				zap.String("key", key),
				zap.Duration("lease", h.lease),
				zap.Error(rerr),
			)
		}
		return fmt.Errorf("send welcome to user %d: %w", e.UserID, err)
	}

	if err := h.claims.Complete(detached, key, welcomeRetention); err != nil {
		h.logger.Warn("Welcome email sent but not recorded, a redelivery may send it again",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return nil
}

// Envelopes from older producers carry no id; the user id is stable enough.
func claimKey(e events.UserCreated) string {
	if e.ID != "" {
		return "welcome:" + e.ID
	}
	return "welcome:user:" + strconv.FormatInt(e.UserID, 10)
}
