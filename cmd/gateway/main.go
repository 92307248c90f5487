package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mapdesk/geoquery/internal/audit"
	"github.com/mapdesk/geoquery/internal/backend"
	"github.com/mapdesk/geoquery/internal/clippings"
	"github.com/mapdesk/geoquery/internal/core/config"
	"github.com/mapdesk/geoquery/internal/core/httpclient"
	"github.com/mapdesk/geoquery/internal/core/server"
	"github.com/mapdesk/geoquery/internal/logger"
	"github.com/mapdesk/geoquery/internal/metrics"
	"github.com/mapdesk/geoquery/internal/workspace"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "gateway",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting gateway",
		"addr", cfg.Addr,
		"version", Version,
		"backend", cfg.BackendURL)

	client, err := backend.New(appLog, httpclient.NewOutbound(cfg.BackendTimeout), cfg.BackendURL, cfg.AuthToken)
	if err != nil {
		appLog.Error("failed to initialize backend client", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := clippings.NewStore(ctx, cfg.RedisAddr,
		clippings.WithPoolSize(cfg.RedisPoolSize),
		clippings.WithDialTimeout(cfg.RedisDialTimeout),
		clippings.WithReadTimeout(cfg.RedisReadTimeout),
		clippings.WithWriteTimeout(cfg.RedisWriteTimeout),
	)
	if err != nil {
		appLog.Error("failed to connect to redis", "err", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	if cfg.Audit.Enabled {
		pub, err := audit.NewPublisher(cfg.AuditBrokers(), cfg.Audit.Topic, cfg.Audit.QueueSize)
		if err != nil {
			appLog.Error("failed to initialize audit publisher", "err", err)
			return 1
		}
		audit.InitGlobal(pub)
		defer func() { _ = audit.CloseGlobal() }()
	}

	prov := metrics.Init(metrics.Config{
		Path:    os.Getenv("METRICS_PATH"),
		Version: Version,
	})

	ws := workspace.New(workspace.Deps{
		Logger:    appLog,
		Backend:   client,
		Store:     store,
		Bus:       clippings.NewBus(),
		FieldsTTL: cfg.FieldsCacheTTL,
	})
	if err := ws.Start(ctx); err != nil {
		// the readiness probe stays red until the next successful sync
		appLog.Warn("initial workspace sync failed", "err", err)
	}

	if err := server.Run(ctx, cfg, appLog, ws, prov); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
