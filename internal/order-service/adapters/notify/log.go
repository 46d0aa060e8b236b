package notify

import (
	"context"
	"log/slog"

	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

var _ ports.SMSSender = LogSender{}

// LogSender writes messages to the log instead of sending them. Local
// development only.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, phoneNumber, message string) error {
	slog.InfoContext(ctx, "sms (not sent)", "phone_number", phoneNumber, "message", message)
	return nil
}
