// cmd/server/main.go
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

	"github.com/tendant/simple-transform/internal/auth"
	"github.com/tendant/simple-transform/internal/blob"
	"github.com/tendant/simple-transform/internal/cache"
	"github.com/tendant/simple-transform/internal/config"
	"github.com/tendant/simple-transform/internal/engine"
	"github.com/tendant/simple-transform/internal/httpapi"
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
	logger.Info("server starting", "addr", cfg.Service.Addr, "db_type", cfg.Database.Type, "blob_backend", cfg.Blob.Backend)

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

	var q queue.Queue
	if cfg.Queue.NATSURL != "" {
		nc, err := queue.Connect(cfg.Queue.NATSURL)
		if err != nil {
			fatal(logger, "connect to NATS", err, "nats_url", cfg.Queue.NATSURL)
		}
		defer nc.Close()
		jsq, err := queue.NewJetStreamQueue(nc, queue.JetStreamConfig{
			Stream:     cfg.Queue.Stream,
			Subject:    cfg.Queue.Subject,
			Durable:    cfg.Queue.Durable + "-api",
			AckWait:    cfg.Queue.Lease(),
			MaxDeliver: cfg.Queue.MaxDeliver,
		})
		if err != nil {
			fatal(logger, "set up work queue", err, "stream", cfg.Queue.Stream)
		}
		q = jsq
		logger.Info("connected to NATS", "nats_url", cfg.Queue.NATSURL, "subject", cfg.Queue.Subject)
	}

	m := metrics.New()
	prefixes := engine.Prefixes{
		Upload: cfg.Keys.UploadPrefix,
		Output: cfg.Keys.OutputPrefix,
		Thumb:  cfg.Keys.ThumbPrefix,
	}
	controller := engine.NewController(st, blobs, c, transform.NewPipeline(), prefixes, m, logger)

	srv := httpapi.NewServer(httpapi.Options{
		Store:        st,
		Blobs:        blobs,
		Cache:        c,
		Queue:        q,
		Controller:   controller,
		Auth:         auth.LocalAuthenticator{},
		Metrics:      m,
		Logger:       logger,
		PresignTTL:   cfg.Service.PresignTTL(),
		CacheTTL:     cfg.Service.CacheTTL(),
		DefaultLimit: cfg.Service.DefaultLimit,
		MaxLimit:     cfg.Service.MaxLimit,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Service.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	logger.Info("listening", "addr", cfg.Service.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "serve", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}
	logger.Info("server stopped")
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
