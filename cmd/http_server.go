package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/accessrequest"
	"github.com/frahmantamala/payable/internal/auth"
	"github.com/frahmantamala/payable/internal/category"
	"github.com/frahmantamala/payable/internal/core/events"
	"github.com/frahmantamala/payable/internal/expense"
	"github.com/frahmantamala/payable/internal/observability"
	"github.com/frahmantamala/payable/internal/snapshot"
	"github.com/frahmantamala/payable/internal/transport/openapi"
	"github.com/frahmantamala/payable/internal/transport/rest"
	"github.com/frahmantamala/payable/internal/user"
	"github.com/frahmantamala/payable/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

type Dependencies struct {
	Config *internal.Config
	Stores *Stores
	Bus    *events.EventBus
	Bridge *events.RedisBridge
	Syncer *snapshot.Syncer
	Router http.Handler
	Logger *slog.Logger
}

func startHTTPServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Stores.Close(context.Background()); err != nil {
			deps.Logger.Error("store close error", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Syncer.Run(gctx)
		return nil
	})

	if deps.Bridge != nil {
		g.Go(func() error {
			err := deps.Bridge.Listen(gctx, func(events.Event) { deps.Syncer.Trigger() })
			if err != nil && !errors.Is(err, context.Canceled) {
				// losing the bridge only delays remote changes until the next tick
				deps.Logger.Warn("redis bridge stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		deps.Logger.Info("Starting HTTP server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	deps.Logger.Info("Server stopped")
	return err
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	stores, err := openStores(ctx, cfg.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	bus := events.NewEventBus(lg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(registry)

	userSvc := user.NewService(stores.Users, bus, lg)
	categorySvc := category.NewService(stores.Categories, stores.Expenses, bus, lg)
	expenseSvc := expense.NewService(stores.Expenses, categorySvc, bus, lg)
	requestSvc := accessrequest.NewService(stores.Requests, userSvc, bus, prom, lg)
	authSvc := auth.NewService(userSvc, auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration), lg)

	if cfg.Database.SeedOnStart {
		if err := seedDefaults(ctx, userSvc, categorySvc, lg); err != nil {
			_ = stores.Close(ctx)
			return nil, err
		}
	}

	source := snapshot.NewStoreSource(userSvc, expenseSvc, requestSvc, categorySvc)
	syncer := snapshot.NewSyncer(source, cfg.Sync.Interval, prom, lg.With("component", "snapshot"))

	// local writes refresh the snapshot without waiting for the tick
	bus.SubscribeAll(events.ChangeEvents, func(context.Context, events.Event) error {
		syncer.Trigger()
		return nil
	})

	pingers := map[string]rest.Pinger{"database": stores.Pinger}

	var bridge *events.RedisBridge
	if cfg.Events.Redis.Enabled {
		rdb := events.NewRedisClient(events.RedisConfig{
			Addr:     cfg.Events.Redis.Addr,
			Password: cfg.Events.Redis.Password,
			DB:       cfg.Events.Redis.DB,
			Channel:  cfg.Events.Redis.Channel,
		})
		bridge = events.NewRedisBridge(rdb, cfg.Events.Redis.Channel, lg)
		bridge.Attach(bus)
		pingers["redis"] = bridge
	}

	opts := rest.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if cfg.Observability.Metrics.Enabled {
		opts.Metrics = prom
		opts.MetricsPath = cfg.Observability.Metrics.Path
		opts.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}
	if cfg.Server.ValidateRequests {
		doc, err := openapi.Load(ctx)
		if err != nil {
			_ = stores.Close(ctx)
			return nil, fmt.Errorf("load openapi document: %w", err)
		}
		opts.Validator = openapi.NewValidator(doc, lg, rest.APIPrefixes...)
	}

	handlers := rest.Handlers{
		Auth:       auth.NewHandler(authSvc),
		RBAC:       auth.NewRBACAuthorization(auth.NewPermissionChecker(), cfg.Security.EnforceRoles, lg),
		Users:      user.NewHandler(userSvc),
		Requests:   accessrequest.NewHandler(requestSvc),
		Categories: category.NewHandler(categorySvc),
		Expenses:   expense.NewHandler(expenseSvc),
		Snapshot:   snapshot.NewHandler(syncer),
		Health:     rest.NewHealthHandler(pingers, syncer),
	}

	return &Dependencies{
		Config: cfg,
		Stores: stores,
		Bus:    bus,
		Bridge: bridge,
		Syncer: syncer,
		Router: rest.NewRouter(handlers, opts, lg),
		Logger: lg,
	}, nil
}
