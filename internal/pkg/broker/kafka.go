// Package broker publishes and consumes JSON events on Kafka. The OTel
// trace context and the request id travel in message headers.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
	"github.com/jcmexdev/order-management/internal/pkg/interceptors/constants"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Handler processes one message payload. Errors are logged and the message
// is not redelivered.
type Handler func(ctx context.Context, payload []byte) error

type Broker struct {
	brokers []string
	w       messageWriter
}

// NewKafkaBroker returns a broker with one long-lived writer. The topic is
// set per message.
func NewKafkaBroker(brokers []string) *Broker {
	return &Broker{
		brokers: brokers,
		w: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (b *Broker) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafkaGo.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: headersFrom(ctx),
	}
	if err := b.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Consume reads topic as part of groupID until ctx is cancelled.
func (b *Broker) Consume(ctx context.Context, topic string, groupID string, handler Handler) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: b.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("consumer shutting down", "topic", topic)
				return
			}
			slog.Error("error reading message", "topic", topic, "error", err)
			continue
		}
		dispatch(ctx, msg, handler)
	}
}

func (b *Broker) Close() error {
	return b.w.Close()
}

func dispatch(ctx context.Context, msg kafkaGo.Message, handler Handler) {
	msgCtx := contextFrom(ctx, msg.Headers)
	if err := handler(msgCtx, msg.Value); err != nil {
		slog.ErrorContext(msgCtx, "error handling message",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
	}
}

func headersFrom(ctx context.Context) []kafkaGo.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if id := interceptors.RequestID(ctx); id != "" {
		carrier.Set(constants.HeaderXRequestId, id)
	}

	headers := make([]kafkaGo.Header, 0, len(carrier))
	for _, k := range carrier.Keys() {
		headers = append(headers, kafkaGo.Header{Key: k, Value: []byte(carrier.Get(k))})
	}
	return headers
}

func contextFrom(ctx context.Context, headers []kafkaGo.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)
	if id := carrier.Get(constants.HeaderXRequestId); id != "" {
		ctx = interceptors.WithRequestID(ctx, id)
	}
	return ctx
}
