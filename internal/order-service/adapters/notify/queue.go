package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
	"github.com/jcmexdev/order-management/internal/pkg/smsrelay"
)

var _ ports.SMSSender = (*QueueSender)(nil)

// QueueSender enqueues messages for the sms-relay consumer. A nil error
// means the broker accepted the message, not that it was delivered.
type QueueSender struct {
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewQueueSender(publisher ports.EventPublisher) *QueueSender {
	return &QueueSender{publisher: publisher, now: time.Now}
}

func (s *QueueSender) Send(ctx context.Context, phoneNumber, message string) error {
	sms := smsrelay.QueuedSMS{
		PhoneNumber: phoneNumber,
		Message:     message,
		QueuedAt:    s.now().UTC(),
		RequestID:   interceptors.RequestID(ctx),
	}
	// Keyed by phone number so messages to one recipient stay ordered.
	if err := s.publisher.PublishEvent(ctx, smsrelay.QueueTopic, phoneNumber, sms); err != nil {
		return fmt.Errorf("queue: enqueue sms for %s: %w", phoneNumber, err)
	}
	return nil
}
