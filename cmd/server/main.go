package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

type cacheStore interface {
	service.Cache
	service.TokenRevoker
	auth.Revocations
}

type publisher interface {
	service.Publisher
	Close() error
}

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	r := repo.New(gdb)
	orders := &service.OrderService{Repo: r}

	var store cacheStore = cache.NewMemory()
	var redis *cache.RedisClient
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redis, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = redis
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR is empty, using process memory")
	}
	orders.Cache = store

	var producer publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}
	orders.Events = producer

	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		orders.Index = search.NewOrderIndex(es, cfg.ESOrderIndex)
	} else {
		logger.Warn("search_disabled", "reason", "ES_URL is empty")
	}

	if cfg.SMTPHost != "" {
		orders.Mailer = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logger.Warn("mail_disabled", "reason", "SMTP_HOST is empty")
	}

	authSvc := &service.AuthService{Repo: r, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL, Revoker: store}
	seedCtx := logging.IntoContext(context.Background(), logger)
	if err := authSvc.EnsureAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	gate := auth.NewGate(cfg.JWTSecret, store)
	gate.Accounts = r

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(csrf.Middleware(csrf.Config{SessionCookie: tokens.CookieName, Secure: true}))

	httpserver.Register(e, &httpserver.Deps{
		Orders:  &httpserver.OrderHTTP{Svc: orders},
		Admin:   &httpserver.AdminHTTP{Orders: orders, Users: &service.UserService{Repo: r}},
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Cart:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Gate:    gate,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	orders.Wait()

	if err := producer.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if redis != nil {
		if err := redis.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	db.Close(gdb)

	logger.Info("stopped")
}
