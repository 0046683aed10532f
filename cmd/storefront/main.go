package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/storefront-preorders/internal/coordinator"
	"github.com/jcmexdev/storefront-preorders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-preorders/internal/pkg/config"
	"github.com/jcmexdev/storefront-preorders/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/app"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/adapters/notify"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/adapters/realtime"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/adapters/store/sqlite"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/adapters/store/xlsx"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/infra/httpx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(telemetry.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled() {
		shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Environment: cfg.Environment,
		})
		if err != nil {
			slog.Error("failed to initialise tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open order store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	dispatcher := coordinator.NewDispatcher(
		coordinator.WithTimeout(cfg.NotifyTimeout),
		coordinator.WithErrorSink(notify.LogFailure),
	)
	hub := realtime.NewHub()

	svc, err := app.NewOrderService(app.OrderServiceDeps{
		Store:       store,
		Notifier:    newNotifier(cfg, dispatcher),
		Broadcaster: hub,
	})
	if err != nil {
		slog.Error("failed to build order service", "error", err)
		os.Exit(1)
	}

	handler := httpx.NewHandler(svc, newReplayCache(ctx, cfg), cfg.IdempotencyTTL)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpx.NewRouter(handler, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("storefront listening", "addr", srv.Addr, "order_store", cfg.OrderStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down")
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Warn("notifications still pending at exit", "error", err)
	}
}

func openStore(cfg *config.Config) (ports.OrderStore, func(), error) {
	switch cfg.OrderStore {
	case config.StoreSQLite:
		repo, err := sqlite.Open(cfg.OrdersDB)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				slog.Error("close order store", "error", err)
			}
		}, nil
	default:
		return xlsx.New(cfg.OrdersFile), func() {}, nil
	}
}

func newNotifier(cfg *config.Config, dispatcher *coordinator.Dispatcher) *notify.Notifier {
	var email notify.EmailClient
	if cfg.EmailEnabled() {
		email = notify.NewSendGridClient(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.SendGridFromName)
	} else {
		slog.Info("email notifications disabled", "reason", "SENDGRID_API_KEY or SENDGRID_FROM not set")
	}

	var sms notify.SMSClient
	if cfg.SMSEnabled() {
		sms = notify.NewTwilioClient(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	} else {
		slog.Info("sms notifications disabled", "reason", "TWILIO_SID, TWILIO_TOKEN or TWILIO_FROM not set")
	}

	return notify.New(email, sms, dispatcher)
}

func newReplayCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.ServiceName)
	}

	c := cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := cache.Ping(pingCtx, c); err != nil {
		slog.Warn("redis unreachable, using in-process idempotency cache", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemoryCache(cfg.ServiceName)
	}
	return c
}
