// Package app hosts the relay process: it accepts messages over gRPC
// and from the Kafka queue and forwards them to the configured provider.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
	"github.com/jcmexdev/order-management/internal/pkg/smsrelay"
)

const tracerName = "github.com/jcmexdev/order-management/internal/sms-relay"

var _ smsrelay.RelayServer = (*Server)(nil)

type Server struct {
	sender  ports.SMSSender
	timeout time.Duration
}

func NewServer(sender ports.SMSSender, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{sender: sender, timeout: timeout}
}

// Send forwards one message. A provider failure is Unavailable so the caller
// can tell it apart from a bad request.
func (s *Server) Send(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	phoneNumber, message, err := smsrelay.ParseSendRequest(req)
	if err != nil {
		return nil, status.Error(grpccodes.InvalidArgument, err.Error())
	}

	messageID, err := s.forward(ctx, phoneNumber, message)
	if err != nil {
		return nil, status.Error(grpccodes.Unavailable, err.Error())
	}
	return smsrelay.NewSendResponse(true, messageID), nil
}

// HandleQueued is the consumer handler for smsrelay.QueueTopic.
func (s *Server) HandleQueued(ctx context.Context, payload []byte) error {
	var sms smsrelay.QueuedSMS
	if err := json.Unmarshal(payload, &sms); err != nil {
		return fmt.Errorf("decode queued sms: %w", err)
	}
	if sms.PhoneNumber == "" || sms.Message == "" {
		return fmt.Errorf("queued sms is missing phone_number or message")
	}

	_, err := s.forward(ctx, sms.PhoneNumber, sms.Message)
	return err
}

func (s *Server) forward(ctx context.Context, phoneNumber, message string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sms.forward")
	defer span.End()

	messageID := uuid.NewString()
	span.SetAttributes(attribute.String("sms.message_id", messageID))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sender.Send(ctx, phoneNumber, message); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "sms forwarding failed", "phone_number", phoneNumber, "error", err)
		return "", err
	}
	slog.InfoContext(ctx, "sms forwarded", "phone_number", phoneNumber, "message_id", messageID)
	return messageID, nil
}
