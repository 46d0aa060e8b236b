package notify

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
	"github.com/jcmexdev/order-management/internal/pkg/smsrelay"
)

var _ ports.SMSSender = (*RelaySender)(nil)

// RelaySender hands messages to the sms-relay service over gRPC. The
// connection is expected to carry interceptors.PropagateClientInterceptor.
type RelaySender struct {
	client *smsrelay.RelayClient
}

func NewRelaySender(conn grpc.ClientConnInterface) *RelaySender {
	return &RelaySender{client: smsrelay.NewRelayClient(conn)}
}

func (s *RelaySender) Send(ctx context.Context, phoneNumber, message string) error {
	req, err := smsrelay.NewSendRequest(phoneNumber, message)
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}

	res, err := s.client.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("relay: send: %w", err)
	}
	if accepted, _ := smsrelay.ParseSendResponse(res); !accepted {
		return fmt.Errorf("relay: message to %s declined", phoneNumber)
	}
	return nil
}
