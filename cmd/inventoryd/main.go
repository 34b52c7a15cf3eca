// Command inventoryd serves the inventory and production planning API.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"inventorycore/internal/adapters/httpapi"
	"inventorycore/internal/adapters/reports"
	"inventorycore/internal/blob"
	"inventorycore/internal/config"
	"inventorycore/internal/core"
	"inventorycore/internal/infra/events"
	"inventorycore/internal/infra/idempotency"
	"inventorycore/internal/infra/logger"
	"inventorycore/internal/infra/metrics"
)

const spanHistory = 256

func main() {
	os.Exit(run(os.Args, os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("inventoryd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "optional YAML config file")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before reading the environment")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(stderr, "inventoryd: %v\n", err)
		return 1
	}
	log := logger.New(cfg.App.Env, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("inventoryd stopped")
		return 1
	}
	log.Info().Msg("graceful shutdown complete")
	return 0
}

// serve runs the API until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	a, err := assemble(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("storage", cfg.Storage.Driver).Msg("http server started")
		if err := a.echo.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
		defer cancel()
		return a.echo.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type app struct {
	echo    *echo.Echo
	service *core.Service
	closers []func() error
	log     zerolog.Logger
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("release resource")
		}
	}
}

// assemble wires storage, observability, idempotency, and reports behind the
// HTTP API. Optional backends are enabled by their config keys.
func assemble(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{log: log}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	store, closeStore, err := core.OpenPersistentStore(ctx, core.StorageConfig{
		Driver:      core.StorageDriver(cfg.Storage.Driver),
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	}, core.NewDefaultRulesEngine())
	if err != nil {
		return fail(fmt.Errorf("open storage: %w", err))
	}
	a.closers = append(a.closers, closeStore)

	opts := []core.Option{
		core.WithLogger(log),
		core.WithTracer(core.NewLogTracer(log, spanHistory)),
	}
	api := httpapi.Options{
		Logger:         log,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RateLimit:      cfg.HTTP.RateLimit,
		RateBurst:      cfg.HTTP.RateBurst,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		StorageDriver:  cfg.Storage.Driver,
	}

	if cfg.Metrics.Enabled {
		switch cfg.Metrics.Backend {
		case "expvar":
			opts = append(opts, core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("inventory")))
			api.MetricsHandler = expvar.Handler()
		default:
			rec := metrics.NewRecorder()
			opts = append(opts, core.WithMetricsRecorder(rec))
			api.MetricsHandler = rec.Handler()
			api.Requests = rec
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewAuditPublisher(events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log), log)
		opts = append(opts, core.WithAuditRecorder(publisher))
		a.closers = append(a.closers, publisher.Close)
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return fail(fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err))
		}
		a.closers = append(a.closers, rdb.Close)
		api.Idempotency = idempotency.NewRedisStore(rdb, cfg.Redis.IdempotencyTTL)
	} else {
		api.Idempotency = idempotency.NewMemoryStore(cfg.Redis.IdempotencyTTL)
	}

	a.service = core.NewService(store, opts...)

	blobs, err := blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.Blob.Driver),
		FSRoot: cfg.Blob.FSRoot,
		S3: blob.S3Config{
			Region:          cfg.Blob.S3.Region,
			Bucket:          cfg.Blob.S3.Bucket,
			Endpoint:        cfg.Blob.S3.Endpoint,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
			SessionToken:    cfg.Blob.S3.SessionToken,
			PathStyle:       cfg.Blob.S3.PathStyle,
		},
	})
	if err != nil {
		return fail(fmt.Errorf("open blob store: %w", err))
	}
	api.Reports = reports.NewExporter(a.service, blobs)

	a.echo = httpapi.New(a.service, api)
	return a, nil
}
