package notify

import (
	"fmt"
	"io"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jcmexdev/order-management/internal/config"
	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig builds the provider cfg names. The queue provider publishes
// through publisher, which must then be non-nil. The returned closer
// releases whatever connection the provider holds.
func FromConfig(cfg config.SMS, publisher ports.EventPublisher) (ports.SMSSender, io.Closer, error) {
	switch cfg.Provider {
	case config.ProviderLog:
		return LogSender{}, nopCloser{}, nil
	case config.ProviderAfricasTalking:
		return NewAfricasTalking(AfricasTalkingConfig{
			Username: cfg.Username,
			APIKey:   cfg.APIKey,
			SenderID: cfg.SenderID,
			Endpoint: cfg.Endpoint,
		}), nopCloser{}, nil
	case config.ProviderRelay:
		conn, err := grpc.NewClient(cfg.RelayAddr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
			grpc.WithUnaryInterceptor(interceptors.PropagateClientInterceptor()),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to sms-relay at %s: %w", cfg.RelayAddr, err)
		}
		return NewRelaySender(conn), conn, nil
	case config.ProviderQueue:
		if publisher == nil {
			return nil, nil, fmt.Errorf("sms provider %q needs a Kafka publisher", cfg.Provider)
		}
		return NewQueueSender(publisher), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}
