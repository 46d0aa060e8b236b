package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
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
	"github.com/jcmexdev/order-management/internal/order-service/adapters/sqlstore"
	"github.com/jcmexdev/order-management/internal/order-service/app"
	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
	"github.com/jcmexdev/order-management/internal/order-service/infra/httpx"
	"github.com/jcmexdev/order-management/internal/pkg/broker"
	"github.com/jcmexdev/order-management/internal/pkg/cache"
	"github.com/jcmexdev/order-management/internal/pkg/interceptors"
	"github.com/jcmexdev/order-management/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger()
	if err := run(); err != nil {
		slog.Error("api-server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadAPI()
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

	store, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		publisher ports.EventPublisher
		engineOpt []app.Option
	)
	if len(cfg.KafkaBrokers) > 0 {
		kb := broker.NewKafkaBroker(cfg.KafkaBrokers)
		defer kb.Close()
		publisher = kb
		engineOpt = append(engineOpt, app.WithPublisher(kb))
	}

	sender, senderCloser, err := notify.FromConfig(cfg.SMS, publisher)
	if err != nil {
		return err
	}
	defer senderCloser.Close()

	var idem cache.Cache
	if cfg.RedisAddr != "" {
		client, err := cache.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		idem = cache.NewRedisCache(client, cfg.ServiceName)
	}

	ledger := app.NewLedger(store)
	audit := app.NewAuditLog(store)
	gateway := app.NewNotificationGateway(sender, cfg.SMS.Timeout)
	engine := app.NewEngine(store, ledger, audit, gateway, engineOpt...)
	registry := app.NewRegistry(store, cfg.BcryptCost)
	defer engine.Wait()

	handler := httpx.NewHandler(engine, ledger, audit, registry, idem)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	go watchStore(ctx, store, healthSrv)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("api-server gRPC running", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		slog.Info("api-server HTTP running", "addr", cfg.HTTPAddr, "db_driver", cfg.DBDriver, "sms_provider", cfg.SMS.Provider)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	healthSrv.Shutdown()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("http shutdown error", "error", shutdownErr)
	}
	grpcServer.GracefulStop()
	return err
}

// watchStore reports the database reachability through the health service.
func watchStore(ctx context.Context, store *sqlstore.Store, healthSrv *health.Server) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			slog.WarnContext(ctx, "database ping failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		cancel()
		healthSrv.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
