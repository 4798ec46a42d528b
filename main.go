package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/config"
	"github.com/nikolayk812/storefront/internal/db"
	"github.com/nikolayk812/storefront/internal/httpapi"
	"github.com/nikolayk812/storefront/internal/identity"
	"github.com/nikolayk812/storefront/internal/logging"
	"github.com/nikolayk812/storefront/internal/metrics"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/nikolayk812/storefront/internal/service"
	"github.com/nikolayk812/storefront/internal/settlement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const usage = `usage:
  storefront [serve]        run the HTTP server
  storefront token <userID> print a bearer token valid for 24h`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve()
	case "token":
		if len(os.Args) != 3 {
			log.Fatal(usage)
		}
		err = token(os.Args[2])
	default:
		log.Fatal(usage)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func token(userID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	resolver, err := identity.NewResolver(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("identity.NewResolver: %w", err)
	}

	signed, err := resolver.Issue(userID, 24*time.Hour)
	if err != nil {
		return fmt.Errorf("resolver.Issue: %w", err)
	}

	fmt.Println(signed)
	return nil
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger, err := logging.NewLogger(cfg.ServiceName, cfg.Env, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("logging.NewLogger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pool.Ping: %w", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m, err := metrics.New("storefront", registry)
	if err != nil {
		return fmt.Errorf("metrics.New: %w", err)
	}

	strategy, err := newSettlement(cfg)
	if err != nil {
		return fmt.Errorf("newSettlement: %w", err)
	}

	resolver, err := identity.NewResolver(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("identity.NewResolver: %w", err)
	}

	transactor := repository.NewTransactor(pool)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Orders:    service.NewOrderService(transactor, m),
		Payments:  service.NewPaymentService(transactor, strategy, cfg.SettlementTimeout, m),
		Catalog:   service.NewCatalogService(transactor, m),
		Identity:  resolver,
		Currency:  cfg.Currency,
		Logger:    logger,
		Metrics:   m,
		Gatherer:  registry,
		RateLimit: rate.Limit(cfg.RateLimitRPS),
		RateBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("settlement", strategy.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}

func newSettlement(cfg config.Config) (port.SettlementStrategy, error) {
	switch cfg.Settlement {
	case config.SettlementStripe:
		strategy, err := settlement.NewStripe(cfg.StripeSecretKey, cfg.StripePaymentMethod, nil)
		if err != nil {
			return nil, fmt.Errorf("settlement.NewStripe: %w", err)
		}
		return strategy, nil
	default:
		return settlement.NewAlwaysComplete(), nil
	}
}
