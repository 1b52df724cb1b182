// cmd/worker/main.go
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

	"github.com/joho/godotenv"

	"github.com/tendant/simple-transform/internal/blob"
	"github.com/tendant/simple-transform/internal/cache"
	"github.com/tendant/simple-transform/internal/config"
	"github.com/tendant/simple-transform/internal/engine"
	"github.com/tendant/simple-transform/internal/metrics"
	"github.com/tendant/simple-transform/internal/queue"
	"github.com/tendant/simple-transform/internal/store"
	"github.com/tendant/simple-transform/internal/transform"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "load config", err)
	}
	logger.Info("worker starting",
		"nats_url", cfg.Queue.NATSURL,
		"stream", cfg.Queue.Stream,
		"subject", cfg.Queue.Subject,
		"durable", cfg.Queue.Durable,
		"lease", cfg.Queue.Lease(),
		"db_type", cfg.Database.Type,
		"blob_backend", cfg.Blob.Backend,
	)

	st, err := openStore(cfg.Database)
	if err != nil {
		fatal(logger, "open store", err, "db_type", cfg.Database.Type)
	}
	defer st.Close()

	blobs, err := openBlobs(cfg.Blob)
	if err != nil {
		fatal(logger, "open blob store", err, "backend", cfg.Blob.Backend)
	}

	c := cache.New(cfg.Cache.MemcachedEndpoint, logger)

	nc, err := queue.Connect(cfg.Queue.NATSURL)
	if err != nil {
		fatal(logger, "connect to NATS", err, "nats_url", cfg.Queue.NATSURL)
	}
	defer nc.Close()
	logger.Info("connected to NATS", "nats_url", cfg.Queue.NATSURL)

	q, err := queue.NewJetStreamQueue(nc, queue.JetStreamConfig{
		Stream:     cfg.Queue.Stream,
		Subject:    cfg.Queue.Subject,
		Durable:    cfg.Queue.Durable,
		AckWait:    cfg.Queue.Lease(),
		MaxDeliver: cfg.Queue.MaxDeliver,
	})
	if err != nil {
		fatal(logger, "set up work queue", err, "stream", cfg.Queue.Stream)
	}

	m := metrics.New()
	prefixes := engine.Prefixes{
		Upload: cfg.Keys.UploadPrefix,
		Output: cfg.Keys.OutputPrefix,
		Thumb:  cfg.Keys.ThumbPrefix,
	}
	controller := engine.NewController(st, blobs, c, transform.NewPipeline(), prefixes, m, logger)

	consumer := engine.NewConsumer(q, controller, blobs, prefixes, engine.ConsumerConfig{
		Lease:        cfg.Queue.Lease(),
		Extend:       cfg.Queue.Extend(),
		EmptyBackoff: cfg.Queue.EmptyBackoff(),
		ReceiveWait:  cfg.Queue.ReceiveWait(),
	}, m, logger)

	metricsSrv := startMetricsServer(cfg.Service.MetricsAddr, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fatal(logger, "consumer", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "err", err)
	}
	logger.Info("worker stopped")
}

func startMetricsServer(addr string, m *metrics.Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err, "addr", addr)
		}
	}()
	logger.Info("metrics listening", "addr", addr)
	return srv
}

func openStore(cfg config.DatabaseConfig) (store.Store, error) {
	if cfg.Type == "memory" {
		return store.NewMemoryStore(), nil
	}
	db, err := store.InitDB(cfg.Type, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return store.NewStore(db), nil
}

func openBlobs(cfg config.BlobConfig) (blob.Store, error) {
	if cfg.Backend == "memory" {
		return blob.NewMemoryStore(), nil
	}
	return blob.NewMinioStore(blob.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
