package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/foodstore/api/routes"
	"github.com/angelmondragon/foodstore/internal/auth"
	"github.com/angelmondragon/foodstore/internal/cart"
	"github.com/angelmondragon/foodstore/internal/cartcount"
	"github.com/angelmondragon/foodstore/internal/catalog"
	"github.com/angelmondragon/foodstore/internal/checkout"
	"github.com/angelmondragon/foodstore/internal/orders"
	"github.com/angelmondragon/foodstore/internal/statistics"
	"github.com/angelmondragon/foodstore/internal/users"
	"github.com/angelmondragon/foodstore/pkg/auth/session"
	"github.com/angelmondragon/foodstore/pkg/backend"
	"github.com/angelmondragon/foodstore/pkg/config"
	"github.com/angelmondragon/foodstore/pkg/logger"
	"github.com/angelmondragon/foodstore/pkg/metrics"
	"github.com/angelmondragon/foodstore/pkg/redis"
)

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefront := metrics.NewStorefront(registry)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	client, err := backend.NewClient(cfg.Backend,
		backend.WithObserver(storefront),
		backend.WithAlreadyProcessedMarkers(cfg.Checkout.AlreadyProcessedMarkers...),
		backend.WithLogger(logg),
	)
	if err != nil {
		return err
	}

	svcs, err := buildServices(cfg, logg, client, sessionManager, storefront)
	if err != nil {
		return err
	}

	addr := ":" + serverPort(cfg)
	instance := os.Getenv("HOSTNAME")
	if instance == "" {
		instance = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance,
		"backend":  cfg.Backend.BaseURL,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, sessionManager, svcs, metricsHandler),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownWait)
	defer cancel()
	return multierr.Combine(server.Shutdown(shutdownCtx), <-serveErr)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	client *backend.Client,
	sessions *session.Manager,
	storefront *metrics.Storefront,
) (routes.Services, error) {
	var svcs routes.Services

	holder, err := cartcount.NewHolder(client, logg, storefront)
	if err != nil {
		return svcs, err
	}

	if svcs.Auth, err = auth.NewService(auth.ServiceParams{
		Accounts:  client,
		Sessions:  sessions,
		CartCount: holder,
		JWTConfig: cfg.JWT,
		Logger:    logg,
	}); err != nil {
		return svcs, err
	}

	if svcs.Cart, err = cart.NewService(client, holder, cfg.Checkout.DisplayCurrency, logg); err != nil {
		return svcs, err
	}

	if svcs.Catalog, err = catalog.NewService(catalog.ServiceParams{
		Menu:    client,
		News:    client,
		Reviews: client,
		Logger:  logg,
	}); err != nil {
		return svcs, err
	}

	converter, err := checkout.NewConverter(cfg.Checkout)
	if err != nil {
		return svcs, err
	}
	if svcs.Checkout, err = checkout.NewService(checkout.ServiceParams{
		Carts:     client,
		Payments:  client,
		CartCount: holder,
		Converter: converter,
		HomePath:  cfg.Checkout.HomePath,
		Metrics:   storefront,
		Logger:    logg,
	}); err != nil {
		return svcs, err
	}

	if svcs.Orders, err = orders.NewService(client, client, logg); err != nil {
		return svcs, err
	}

	if svcs.Users, err = users.NewService(client, logg); err != nil {
		return svcs, err
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return svcs, err
	}
	if svcs.Statistics, err = statistics.NewService(client, client, loc, logg); err != nil {
		return svcs, err
	}

	return svcs, nil
}

func serverPort(cfg *config.Config) string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return cfg.App.Port
}
