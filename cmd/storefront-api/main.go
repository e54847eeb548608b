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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront/internal/api-gateway/core/ports"
	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx"
	catalogsql "github.com/jcmexdev/storefront/internal/catalog-service/adapters/sqlstore"
	"github.com/jcmexdev/storefront/internal/catalog-service/adapters/storage"
	catalogapp "github.com/jcmexdev/storefront/internal/catalog-service/app"
	"github.com/jcmexdev/storefront/internal/coordinator"
	sagasql "github.com/jcmexdev/storefront/internal/coordinator/sagalog/sqlstore"
	"github.com/jcmexdev/storefront/internal/order-service/adapters/kafka"
	ordersql "github.com/jcmexdev/storefront/internal/order-service/adapters/sqlstore"
	orderapp "github.com/jcmexdev/storefront/internal/order-service/app"
	"github.com/jcmexdev/storefront/internal/pkg/auth"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/database"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/storefront/session"
	usersql "github.com/jcmexdev/storefront/internal/user-service/adapters/sqlstore"
	userapp "github.com/jcmexdev/storefront/internal/user-service/app"
)

const uploadsPrefix = "/uploads"

func main() {
	telemetry.InitLogger()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisCache := cache.NewRedisCache(cfg.RedisAddr, "storefront")

	images, err := storage.NewLocal(cfg.UploadDir, uploadsPrefix)
	if err != nil {
		slog.Error("failed to prepare upload dir", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	var publisher orderapp.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewPublisher(cfg.KafkaBrokers)
		defer func() {
			if err := p.Close(); err != nil {
				slog.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = p
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events are not published")
	}

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	catalogSvc := catalogapp.NewService(catalogsql.NewRepository(db), images, redisCache)
	orderSvc := orderapp.NewService(ordersql.NewRepository(db), publisher, redisCache)
	userSvc := userapp.NewService(usersql.NewRepository(db), tokens)
	sessions := session.NewStore(redisCache, session.DefaultTTL)
	sagas := sagasql.NewRepository(db)
	submitter := coordinator.NewSubmitter(orderSvc, sessions, sagas)

	if err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	}

	handler := httpx.NewHandler(httpx.Deps{
		Catalog:   catalogSvc,
		Orders:    orderSvc,
		Users:     userSvc,
		Sessions:  sessions,
		Submitter: submitter,
		Sagas:     sagas,
		Health: map[string]ports.HealthCheck{
			"database": db.PingContext,
			"redis":    redisCache.Ping,
		},
		Cookies: httpx.CookieConfig{Secure: cfg.CookieSecure},
	})
	router := httpx.NewRouter(handler, httpx.RouterConfig{
		Tokens:     tokens,
		Uploads:    http.FileServer(http.Dir(cfg.UploadDir)),
		SessionTTL: session.DefaultTTL,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("storefront api running", "addr", cfg.HTTPAddr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}
