package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
)

type recordingWriter struct {
	msgs []kafkaGo.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func sampledContext(t *testing.T) (context.Context, trace.SpanContext) {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc), sc
}

func TestPublishEvent_RoundTripsContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	w := &recordingWriter{}
	b := &Broker{w: w}

	ctx, sc := sampledContext(t)
	ctx = interceptors.WithRequestID(ctx, "req-42")

	err := b.PublishEvent(ctx, "orders.lifecycle", "order-1", map[string]string{"action": "CREATE_ORDER"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "orders.lifecycle", msg.Topic)
	assert.Equal(t, []byte("order-1"), msg.Key)

	var got map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "CREATE_ORDER", got["action"])

	var handled bool
	dispatch(context.Background(), msg, func(ctx context.Context, payload []byte) error {
		handled = true
		assert.Equal(t, sc.TraceID(), trace.SpanContextFromContext(ctx).TraceID())
		assert.Equal(t, "req-42", interceptors.RequestID(ctx))
		assert.JSONEq(t, `{"action":"CREATE_ORDER"}`, string(payload))
		return nil
	})
	assert.True(t, handled)
}

func TestPublishEvent_WriterError(t *testing.T) {
	b := &Broker{w: &recordingWriter{err: errors.New("broker down")}}

	err := b.PublishEvent(context.Background(), "t", "k", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPublishEvent_UnmarshalableEvent(t *testing.T) {
	w := &recordingWriter{}
	b := &Broker{w: w}

	err := b.PublishEvent(context.Background(), "t", "k", make(chan int))
	require.Error(t, err)
	assert.Empty(t, w.msgs)
}
