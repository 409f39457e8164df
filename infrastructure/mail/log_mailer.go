package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer records outbound mail in the log instead of sending it. It is
// the only ports.Mailer until an email provider is chosen.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mailer")}
}

func (m *LogMailer) SendWelcome(ctx context.Context, userID int64, username, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info("Sending welcome email",
		zap.Int64("user_id", userID),
		zap.String("username", username),
		zap.String("to", email),
	)
	return nil
}
