// internal/engine/controller.go
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/tendant/simple-transform/internal/blob"
	"github.com/tendant/simple-transform/internal/cache"
	"github.com/tendant/simple-transform/internal/metrics"
	"github.com/tendant/simple-transform/internal/store"
	"github.com/tendant/simple-transform/internal/store/model"
	"github.com/tendant/simple-transform/internal/transform"
)

// Controller runs the job lifecycle. Both ingestion adapters (the
// synchronous HTTP handler and the queue consumer) call Execute, so the
// state transitions are identical in both deployment shapes.
type Controller struct {
	store    store.Store
	blobs    blob.Store
	cache    *cache.Cache
	pipeline *transform.Pipeline
	prefixes Prefixes
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// list limits whose cached views are invalidated on every transition
	cachedLimits []int
}

func NewController(st store.Store, blobs blob.Store, c *cache.Cache, pipeline *transform.Pipeline, prefixes Prefixes, m *metrics.Metrics, logger *slog.Logger) *Controller {
	return &Controller{
		store:        st,
		blobs:        blobs,
		cache:        c,
		pipeline:     pipeline,
		prefixes:     prefixes,
		metrics:      m,
		logger:       logger,
		cachedLimits: []int{20, 100},
	}
}

// Result reports one successful execution.
type Result struct {
	OutputKey  string
	ThumbKey   string
	DurationMs int64
	Iterations int
	Kernel     string
}

// Execute runs the full lifecycle for one job: queued → running →
// done/failed. Re-running with the same ids is safe; outputs are written
// to deterministic keys and simply overwritten.
//
// A crash between the running transition and completion leaves the job
// in running; there is no reconciliation sweep for that case.
func (c *Controller) Execute(ctx context.Context, ownerID, jobID string) (*Result, error) {
	logger := c.logger.With("owner_id", ownerID, "job_id", jobID)

	job, err := c.store.Job().Get(ctx, ownerID, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, notFound("job not found")
		}
		return nil, storageError("load job", err)
	}

	file, err := c.store.File().Get(ctx, ownerID, job.FileID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, notFound("file not found")
		}
		return nil, storageError("load file record", err)
	}

	if err := c.store.Job().UpdateStatus(ctx, ownerID, job.ID, model.JobStatusRunning); err != nil {
		return nil, storageError("transition to running", err)
	}
	c.invalidate(ownerID, job.ID)

	result, err := c.process(ctx, job, file, logger)
	if err != nil {
		c.markFailed(ctx, ownerID, job.ID, logger)
		c.metrics.IncFailed()
		return nil, err
	}

	c.metrics.IncProcessed()
	return result, nil
}

func (c *Controller) process(ctx context.Context, job *model.Job, file *model.File, logger *slog.Logger) (*Result, error) {
	input, err := c.blobs.Get(ctx, file.BlobKey)
	if err != nil {
		return nil, storageError("fetch input blob", err)
	}

	iterations := transform.ClampIterations(job.Params.Iterations)
	res, err := c.pipeline.Run(input, job.Params.Kernel, iterations)
	if err != nil {
		return nil, transformFailed(err)
	}
	c.metrics.ObserveTransformSeconds(res.Elapsed.Seconds())

	outputKey := c.prefixes.OutputKey(job.OwnerID, job.ID)
	thumbKey := c.prefixes.ThumbKey(job.OwnerID, job.ID)

	if err := c.blobs.Put(ctx, outputKey, res.Output, "image/jpeg"); err != nil {
		return nil, storageError("persist output blob", err)
	}
	if err := c.blobs.Put(ctx, thumbKey, res.Thumb, "image/jpeg"); err != nil {
		return nil, storageError("persist thumbnail blob", err)
	}

	if err := c.store.Job().SetDone(ctx, job.OwnerID, job.ID, outputKey, thumbKey); err != nil {
		return nil, storageError("transition to done", err)
	}

	c.invalidate(job.OwnerID, job.ID)
	c.appendLog(ctx, job, res, logger)

	logger.Info("job done", "output_key", outputKey, "thumb_key", thumbKey,
		"duration_ms", res.Elapsed.Milliseconds(), "iterations", res.Iterations, "kernel", res.Kernel)

	return &Result{
		OutputKey:  outputKey,
		ThumbKey:   thumbKey,
		DurationMs: res.Elapsed.Milliseconds(),
		Iterations: res.Iterations,
		Kernel:     res.Kernel,
	}, nil
}

// markFailed is best-effort: a failure to persist the failed transition is
// logged, not retried, and never masks the original error.
func (c *Controller) markFailed(ctx context.Context, ownerID, jobID string, logger *slog.Logger) {
	if err := c.store.Job().UpdateStatus(ctx, ownerID, jobID, model.JobStatusFailed); err != nil {
		logger.Error("transition to failed did not persist", "err", err)
		return
	}
	c.invalidate(ownerID, jobID)
}

// invalidate drops the owner's cached list and detail views. Failures are
// swallowed; the cache degrades, the job does not.
func (c *Controller) invalidate(ownerID, jobID string) {
	for _, limit := range c.cachedLimits {
		c.cache.Delete(cache.ListKey(ownerID, limit))
	}
	c.cache.Delete(cache.DetailKey(ownerID, jobID))
}

// appendLog records one processing attempt. Log append is a non-fatal
// side effect: a failure is logged and swallowed.
func (c *Controller) appendLog(ctx context.Context, job *model.Job, res *transform.Result, logger *slog.Logger) {
	entry := &model.JobLog{
		JobID:   job.ID,
		ID:      strconv.FormatInt(time.Now().UnixMilli(), 10),
		OwnerID: job.OwnerID,
		Stage:   "process",
		Detail: model.JobLogDetail{
			DurationMs: res.Elapsed.Milliseconds(),
			Iterations: res.Iterations,
			Kernel:     res.Kernel,
		},
	}
	if err := c.store.JobLog().Append(ctx, entry); err != nil {
		logger.Warn("append job log failed", "err", err)
	}
}
