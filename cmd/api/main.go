package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/freshfields/storefront-backend/api/routes"
	authsvc "github.com/freshfields/storefront-backend/internal/auth"
	billingsvc "github.com/freshfields/storefront-backend/internal/billing"
	cartsvc "github.com/freshfields/storefront-backend/internal/cart"
	ordersvc "github.com/freshfields/storefront-backend/internal/orders"
	productsvc "github.com/freshfields/storefront-backend/internal/products"
	usersvc "github.com/freshfields/storefront-backend/internal/users"
	"github.com/freshfields/storefront-backend/pkg/config"
	"github.com/freshfields/storefront-backend/pkg/db"
	"github.com/freshfields/storefront-backend/pkg/logger"
	"github.com/freshfields/storefront-backend/pkg/metrics"
	"github.com/freshfields/storefront-backend/pkg/migrate"
	"github.com/freshfields/storefront-backend/pkg/outbox"
	"github.com/freshfields/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, caching and rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	conn := dbClient.DB()
	userRepo := usersvc.NewRepository(conn)
	productRepo := productsvc.NewRepository(conn)
	cartRepo := cartsvc.NewRepository(conn)
	orderRepo := ordersvc.NewRepository(conn)
	billingRepo := billingsvc.NewRepository(conn)
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       userRepo,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	exitOnError(logg, "failed to create auth service", err)

	userService, err := usersvc.NewService(usersvc.ServiceParams{Repo: userRepo})
	exitOnError(logg, "failed to create user service", err)

	productParams := productsvc.ServiceParams{
		Repo:   productRepo,
		Logger: logg,
		Config: cfg.Catalog,
	}
	if redisClient != nil {
		productParams.Cache = redisClient
	}
	productService, err := productsvc.NewService(productParams)
	exitOnError(logg, "failed to create product service", err)

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		DB:       dbClient,
		Repo:     cartRepo,
		Products: productRepo,
	})
	exitOnError(logg, "failed to create cart service", err)

	orderService, err := ordersvc.NewService(ordersvc.ServiceParams{
		DB:     dbClient,
		Repo:   orderRepo,
		Carts:  cartRepo,
		Events: outboxService,
	})
	exitOnError(logg, "failed to create order service", err)

	billingService, err := billingsvc.NewService(billingsvc.ServiceParams{Repo: billingRepo})
	exitOnError(logg, "failed to create billing service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, httpMetrics, routes.Services{
			Auth:     authService,
			Users:    userService,
			Products: productService,
			Cart:     cartService,
			Orders:   orderService,
			Billing:  billingService,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			shutdownErr = multierr.Append(shutdownErr, serveErr)
		}
		if shutdownErr != nil {
			logg.Error(ctx, "api server shutdown error", shutdownErr)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func exitOnError(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
