// internal/engine/consumer.go
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"

	"github.com/tendant/simple-transform/internal/blob"
	"github.com/tendant/simple-transform/internal/metrics"
	"github.com/tendant/simple-transform/internal/queue"
	"github.com/tendant/simple-transform/internal/transform"
	"github.com/tendant/simple-transform/pkg/schema"
)

const defaultMinHeartbeat = 10 * time.Second

// ConsumerConfig bounds every wait in the consumption loop.
type ConsumerConfig struct {
	Lease        time.Duration
	Extend       time.Duration
	EmptyBackoff time.Duration
	ReceiveWait  time.Duration
	// MinHeartbeat floors the heartbeat interval; zero means the 10s
	// default. Tests lower it.
	MinHeartbeat time.Duration
}

// Consumer pulls one work message at a time, holds its lease alive with a
// background heartbeat while the message is processed, and deletes the
// message only on confirmed success. On any processing error the lease is
// simply released to expire, so the queue redelivers (at-least-once);
// bounding redeliveries is the queue's job.
type Consumer struct {
	queue      queue.Queue
	controller *Controller
	blobs      blob.Store
	prefixes   Prefixes
	cfg        ConsumerConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewConsumer(q queue.Queue, controller *Controller, blobs blob.Store, prefixes Prefixes, cfg ConsumerConfig, m *metrics.Metrics, logger *slog.Logger) *Consumer {
	if cfg.MinHeartbeat <= 0 {
		cfg.MinHeartbeat = defaultMinHeartbeat
	}
	return &Consumer{
		queue:      q,
		controller: controller,
		blobs:      blobs,
		prefixes:   prefixes,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

// Run consumes until ctx is cancelled. Cancellation stops new receives;
// a message already in flight is always carried to completion.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", "lease", c.cfg.Lease, "extend", c.cfg.Extend)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped")
			return nil
		default:
		}

		if err := c.poll(ctx); err != nil {
			c.logger.Error("poll error", "err", err)
			sleepCtx(ctx, 500*time.Millisecond)
		}
	}
}

func (c *Consumer) poll(ctx context.Context) error {
	delivery, err := c.queue.Receive(ctx, c.cfg.ReceiveWait)
	if err != nil {
		return err
	}
	if delivery == nil {
		sleepCtx(ctx, c.cfg.EmptyBackoff)
		return nil
	}
	c.process(ctx, delivery)
	return nil
}

// process handles exactly one delivery. The heartbeat is cancelled on
// every exit path; shutdown of the surrounding context must not preempt
// in-flight work, so processing runs on a detached context.
func (c *Consumer) process(ctx context.Context, delivery *queue.Delivery) {
	procCtx := context.WithoutCancel(ctx)

	stopHeartbeat := c.startHeartbeat(procCtx, delivery.Lease)
	defer stopHeartbeat()

	var msg schema.WorkMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		// undecodable body: leave for redelivery and eventual dead-letter
		c.logger.Error("malformed work message", "err", err)
		return
	}
	logger := c.logger.With("job_id", msg.JobID)

	if err := c.handle(procCtx, msg); err != nil {
		logger.Error("processing failed; leaving message for redelivery", "err", err, "code", CodeOf(err))
		return
	}

	stopHeartbeat()
	if err := delivery.Lease.Delete(procCtx); err != nil {
		// the message may come back; reprocessing is idempotent
		logger.Warn("lease delete failed", "err", err)
		return
	}
	logger.Info("message processed and deleted")
}

func (c *Consumer) handle(ctx context.Context, msg schema.WorkMessage) error {
	if msg.OwnerID != "" {
		_, err := c.controller.Execute(ctx, msg.OwnerID, msg.JobID)
		return err
	}
	return c.runGeneric(ctx, msg)
}

// runGeneric is the key-to-key path for messages without a job record:
// resolve keys, fetch, apply ops, store. Key resolution fails before any
// blob I/O.
func (c *Consumer) runGeneric(ctx context.Context, msg schema.WorkMessage) error {
	inKey, outKey, err := msg.ResolveKeys(c.prefixes.Upload, c.prefixes.Output)
	if err != nil {
		return badRequest("resolve work message keys", err)
	}

	input, err := c.blobs.Get(ctx, inKey)
	if err != nil {
		return storageError("fetch input blob", err)
	}
	output, err := transform.ApplyOps(input, msg.Ops)
	if err != nil {
		return transformFailed(err)
	}
	if err := c.blobs.Put(ctx, outKey, output, "image/png"); err != nil {
		return storageError("persist output blob", err)
	}
	return nil
}

// startHeartbeat extends the delivery's lease at half the lease duration
// (floored at the configured minimum) until the returned stop function is
// called. Extension failures are logged and swallowed; they never abort
// in-flight processing.
func (c *Consumer) startHeartbeat(ctx context.Context, lease queue.Lease) func() {
	interval := c.cfg.Lease / 2
	if interval < c.cfg.MinHeartbeat {
		interval = c.cfg.MinHeartbeat
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: interval / 10})
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := lease.Extend(ctx, c.cfg.Extend); err != nil {
					c.logger.Warn("lease extension failed", "err", err)
					continue
				}
				c.metrics.IncLeaseExtensions()
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
