package app

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/jcmexdev/order-management/internal/order-service/adapters/notify"
	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
	"github.com/jcmexdev/order-management/internal/pkg/smsrelay"
)

type sent struct {
	phone   string
	message string
	reqID   string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (r *recordingSender) Send(ctx context.Context, phone, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sent{phone, message, interceptors.RequestID(ctx)})
	return nil
}

func startRelay(t *testing.T, sender *recordingSender) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()))
	smsrelay.RegisterRelayServer(srv, NewServer(sender, 0))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(interceptors.PropagateClientInterceptor()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRelay_SendOverGRPC(t *testing.T) {
	sender := &recordingSender{}
	conn := startRelay(t, sender)

	ctx := interceptors.WithRequestID(context.Background(), "req-1")
	err := notify.NewRelaySender(conn).Send(ctx, "+254712345678", "Your order 1 has been placed.")
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, sent{"+254712345678", "Your order 1 has been placed.", "req-1"}, sender.sent[0])
}

func TestRelay_ProviderFailureIsUnavailable(t *testing.T) {
	conn := startRelay(t, &recordingSender{err: errors.New("provider down")})

	req, err := smsrelay.NewSendRequest("+254712345678", "hi")
	require.NoError(t, err)
	_, err = smsrelay.NewRelayClient(conn).Send(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestRelay_MissingFieldsIsInvalidArgument(t *testing.T) {
	conn := startRelay(t, &recordingSender{})

	req, err := smsrelay.NewSendRequest("", "hi")
	require.NoError(t, err)
	_, err = smsrelay.NewRelayClient(conn).Send(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHandleQueued(t *testing.T) {
	sender := &recordingSender{}
	s := NewServer(sender, 0)

	err := s.HandleQueued(context.Background(),
		[]byte(`{"phone_number":"+254712345678","message":"queued","queued_at":"2026-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "queued", sender.sent[0].message)

	assert.Error(t, s.HandleQueued(context.Background(), []byte(`not json`)))
	assert.Error(t, s.HandleQueued(context.Background(), []byte(`{"message":"no phone"}`)))
}
