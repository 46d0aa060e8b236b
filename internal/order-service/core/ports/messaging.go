package ports

import "context"

// SMSSender is an outbound text-message provider. Implementations report
// delivery problems as errors; the notification gateway decides what to do
// with them.
type SMSSender interface {
	Send(ctx context.Context, phoneNumber, message string) error
}

// EventPublisher publishes lifecycle events to a message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}
