package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/order-management/internal/config"
	"github.com/jcmexdev/order-management/internal/order-service/adapters/notify"
	"github.com/jcmexdev/order-management/internal/pkg/broker"
	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
	"github.com/jcmexdev/order-management/internal/pkg/smsrelay"
	"github.com/jcmexdev/order-management/internal/pkg/telemetry"
	relayapp "github.com/jcmexdev/order-management/internal/sms-relay/app"
)

func main() {
	telemetry.InitLogger()
	if err := run(); err != nil {
		slog.Error("sms-relay stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadRelay()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("initialise tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	sender, senderCloser, err := notify.FromConfig(cfg.SMS, nil)
	if err != nil {
		return err
	}
	defer senderCloser.Close()

	relay := relayapp.NewServer(sender, cfg.SMS.Timeout)

	consumerDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		kb := broker.NewKafkaBroker(cfg.KafkaBrokers)
		defer kb.Close()
		go func() {
			defer close(consumerDone)
			slog.Info("sms queue consumer running", "topic", smsrelay.QueueTopic, "group", cfg.ConsumerGroup)
			kb.Consume(ctx, smsrelay.QueueTopic, cfg.ConsumerGroup, relay.HandleQueued)
		}()
	} else {
		close(consumerDone)
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
	)
	smsrelay.RegisterRelayServer(grpcServer, relay)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		healthSrv.Shutdown()
		if stopGRPC(grpcServer, cfg.ShutdownTimeout) {
			slog.Warn("grpc drain timed out, connections closed", "timeout", cfg.ShutdownTimeout)
		}
	}()

	slog.Info("sms-relay gRPC running", "addr", cfg.GRPCAddr, "sms_provider", cfg.SMS.Provider)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}
	<-consumerDone
	return nil
}

// stopGRPC drains in-flight calls for up to timeout, then closes whatever is
// left. It reports whether the stop was forced.
func stopGRPC(srv *grpc.Server, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return false
	case <-time.After(timeout):
		srv.Stop()
		<-done
		return true
	}
}
