package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/mipastel/pedidos-backend/api/controllers"
	"github.com/mipastel/pedidos-backend/api/routes"
	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/internal/auth"
	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/internal/catalog"
	"github.com/mipastel/pedidos-backend/internal/orders"
	"github.com/mipastel/pedidos-backend/internal/reports"
	"github.com/mipastel/pedidos-backend/internal/uploads"
	"github.com/mipastel/pedidos-backend/pkg/config"
	"github.com/mipastel/pedidos-backend/pkg/db"
	"github.com/mipastel/pedidos-backend/pkg/instance"
	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/metrics"
	"github.com/mipastel/pedidos-backend/pkg/migrate"
	"github.com/mipastel/pedidos-backend/pkg/redis"
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

	appLog, err := logger.NewRotatingFile(cfg.AppLogPath(), logger.RotationOptions{MaxSizeMB: 10, MaxBackups: 5})
	if err != nil {
		logg.Error(context.Background(), "failed to open application log", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
		Extra:       appLog,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped", err)
		_ = appLog.Close()
		os.Exit(1)
	}
	_ = appLog.Close()
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     cfg.App.Addr(),
		"instance": instance.GetID(),
	})
	if cfg.Auth.SecretGenerated {
		logg.Warn(ctx, "SECRET_KEY not set; sessions will not survive a restart")
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	normales, err := db.New(ctx, cfg.DB, "normales", cfg.DB.NormalesDSN, logg)
	if err != nil {
		return fmt.Errorf("bootstrap normales database: %w", err)
	}
	closers = append(closers, normales)

	clientes, err := db.New(ctx, cfg.DB, "clientes", cfg.DB.ClientesDSN, logg)
	if err != nil {
		return fmt.Errorf("bootstrap clientes database: %w", err)
	}
	closers = append(closers, clientes)

	if err := migrate.MaybeRun(ctx, cfg, logg, normales, clientes); err != nil {
		return fmt.Errorf("auto migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.NewAuthMetrics(reg)

	auditFile, err := logger.NewRotatingFile(cfg.AuditPath(), logger.RotationOptions{
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
		MaxAgeDays: cfg.Audit.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	closers = append(closers, auditFile)
	auditLog, err := audit.New(audit.Params{Writer: auditFile, Logger: logg, Metrics: metrics.NewAuditMetrics(reg)})
	if err != nil {
		return err
	}

	az, err := authz.New(authz.Params{Audit: auditLog, Metrics: authMetrics, Logger: logg})
	if err != nil {
		return err
	}

	var (
		redisClient *redis.Client
		throttle    auth.ThrottleStore
	)
	policy := auth.ThrottlePolicy{MaxAttempts: cfg.Auth.MaxLoginAttempts, Window: cfg.Auth.LoginTimeout()}
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		closers = append(closers, redisClient)
		throttle = auth.NewRedisThrottle(redisClient, policy)
	} else {
		logg.Info(ctx, "REDIS_URL not set; using in-process login throttle")
		throttle = auth.NewMemoryThrottle(policy, time.Now)
	}

	creds := auth.DefaultCredentials()
	hashes, err := auth.LoadHashes(ctx, creds, auth.ProvisionParams{
		Path:       cfg.Auth.PasswordHashesFile,
		Strict:     cfg.Auth.StrictCredentials,
		AdminHash:  cfg.Auth.AdminPasswordHash,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logg,
	})
	if err != nil {
		return fmt.Errorf("load password hashes: %w", err)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Directory:       auth.NewDirectory(creds, hashes),
		Throttle:        throttle,
		Secret:          cfg.Auth.SecretKey,
		SessionDuration: cfg.Auth.SessionDuration(),
		Audit:           auditLog,
		Metrics:         authMetrics,
		Logger:          logg,
	})
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalog.NewRepository(normales.DB()),
		DB:     normales,
		Logger: logg,
	})
	if err != nil {
		return err
	}
	if seeded, err := catalogService.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed price catalog: %w", err)
	} else if seeded > 0 {
		logg.Info(logg.WithField(ctx, "rows", seeded), "catalog.seeded")
	}

	photos, err := uploads.NewSink(cfg.Uploads.Dir, cfg.Uploads.MaxBytes(), time.Now)
	if err != nil {
		return fmt.Errorf("prepare uploads dir: %w", err)
	}

	stockRepo := orders.NewStockRepository(normales.DB())
	customRepo := orders.NewCustomRepository(clientes.DB())
	orderService, err := orders.NewService(orders.ServiceParams{
		Stock:    stockRepo,
		Custom:   customRepo,
		StockDB:  normales,
		CustomDB: clientes,
		Prices:   catalogService,
		Authz:    az,
		Audit:    auditLog,
		Photos:   photos,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	reportService, err := reports.NewService(reports.ServiceParams{
		Stock:   stockRepo,
		Custom:  customRepo,
		Authz:   az,
		Dir:     cfg.Reports.Dir,
		Timeout: cfg.Reports.Timeout,
		Metrics: metrics.NewReportMetrics(reg),
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	deps := routes.Deps{
		Config:    cfg,
		Logger:    logg,
		Auth:      authService,
		Authz:     az,
		Catalog:   catalogService,
		Orders:    orderService,
		Reports:   reportService,
		Databases: []controllers.NamedPinger{normales, clientes},
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if redisClient != nil {
		deps.RateLimiter = redisClient
	}

	server := &http.Server{
		Addr:              cfg.App.Addr(),
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.App.ReadTimeout,
		WriteTimeout:      cfg.App.WriteTimeout,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logg.Info(ctx, "api server stopped")
	return nil
}
