package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-transform/internal/blob"
	"github.com/tendant/simple-transform/internal/cache"
	"github.com/tendant/simple-transform/internal/store"
	"github.com/tendant/simple-transform/internal/store/model"
	"github.com/tendant/simple-transform/internal/transform"
	"github.com/tendant/simple-transform/pkg/schema"
)

var testPrefixes = Prefixes{Upload: "uploads/", Output: "outputs/", Thumb: "thumbs/"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipeline() *transform.Pipeline {
	return &transform.Pipeline{WorkingWidth: 64, ThumbWidth: 16, Quality: 92, ThumbQuality: 80, MedianSize: 3}
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 32))
	for x := 0; x < 48; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 7), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestController(t *testing.T) (*store.MemoryStore, *blob.MemoryStore, *Controller) {
	t.Helper()
	st := store.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	c := NewController(st, blobs, cache.New("", testLogger()), testPipeline(), testPrefixes, nil, testLogger())
	return st, blobs, c
}

func seedJob(t *testing.T, st store.Store, blobs blob.Store, input []byte) {
	t.Helper()
	ctx := context.Background()
	if input != nil {
		require.NoError(t, blobs.Put(ctx, "uploads/alice/f1.png", input, "image/png"))
	}
	require.NoError(t, st.File().Create(ctx, &model.File{
		OwnerID: "alice", ID: "f1", BlobKey: "uploads/alice/f1.png", Mime: "image/png",
	}))
	require.NoError(t, st.Job().Create(ctx, &model.Job{
		OwnerID: "alice", ID: "j1", FileID: "f1",
		Status: model.JobStatusQueued,
		Params: model.JobParams{Iterations: 3, Kernel: "blur5"},
	}))
}

func TestExecuteHappyPath(t *testing.T) {
	ctx := context.Background()
	st, blobs, c := newTestController(t)
	seedJob(t, st, blobs, testImage(t))

	res, err := c.Execute(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, "outputs/alice/j1.jpg", res.OutputKey)
	assert.Equal(t, "thumbs/alice/j1.jpg", res.ThumbKey)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, "blur5", res.Kernel)
	assert.GreaterOrEqual(t, res.DurationMs, int64(0))

	job, err := st.Job().Get(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusDone, job.Status)
	assert.Equal(t, res.OutputKey, job.OutputKey)
	assert.Equal(t, res.ThumbKey, job.ThumbKey)

	output, err := blobs.Get(ctx, res.OutputKey)
	require.NoError(t, err)
	assert.NotEmpty(t, output)
	thumb, err := blobs.Get(ctx, res.ThumbKey)
	require.NoError(t, err)
	assert.NotEmpty(t, thumb)
	assert.Equal(t, "image/jpeg", blobs.ContentType(res.OutputKey))

	entries, err := st.JobLog().List(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "process", entries[0].Stage)
	assert.Equal(t, 3, entries[0].Detail.Iterations)
	assert.Equal(t, "blur5", entries[0].Detail.Kernel)
	assert.GreaterOrEqual(t, entries[0].Detail.DurationMs, int64(0))
}

func TestExecuteJobNotFound(t *testing.T) {
	_, _, c := newTestController(t)

	_, err := c.Execute(context.Background(), "alice", "missing")
	require.Error(t, err)
	assert.Equal(t, schema.CodeNotFound, CodeOf(err))
}

func TestExecuteJobNotOwned(t *testing.T) {
	ctx := context.Background()
	st, blobs, c := newTestController(t)
	seedJob(t, st, blobs, testImage(t))

	_, err := c.Execute(ctx, "bob", "j1")
	require.Error(t, err)
	assert.Equal(t, schema.CodeNotFound, CodeOf(err))

	// the owner's record is untouched
	job, err := st.Job().Get(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, job.Status)
}

func TestExecuteMissingFileLeavesJobQueued(t *testing.T) {
	ctx := context.Background()
	st, _, c := newTestController(t)
	require.NoError(t, st.Job().Create(ctx, &model.Job{
		OwnerID: "alice", ID: "j1", FileID: "ghost",
		Status: model.JobStatusQueued,
		Params: model.JobParams{Iterations: 1, Kernel: "edge"},
	}))

	_, err := c.Execute(ctx, "alice", "j1")
	require.Error(t, err)
	assert.Equal(t, schema.CodeNotFound, CodeOf(err))

	job, err := st.Job().Get(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusQueued, job.Status, "job must never transition to running when the file record is missing")
}

func TestExecuteMissingBlobMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	st, _, c := newTestController(t)
	seedJob(t, st, nil, nil) // file record exists, blob does not

	_, err := c.Execute(ctx, "alice", "j1")
	require.Error(t, err)
	assert.Equal(t, schema.CodeStorageError, CodeOf(err))

	job, err := st.Job().Get(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Empty(t, job.OutputKey)
	assert.Empty(t, job.ThumbKey)
}

func TestExecuteUndecodableInputMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	st, blobs, c := newTestController(t)
	seedJob(t, st, blobs, []byte("definitely not an image"))

	_, err := c.Execute(ctx, "alice", "j1")
	require.Error(t, err)
	assert.Equal(t, schema.CodeTransformFailed, CodeOf(err))

	job, err := st.Job().Get(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
}

func TestExecuteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, blobs, c := newTestController(t)
	seedJob(t, st, blobs, testImage(t))

	first, err := c.Execute(ctx, "alice", "j1")
	require.NoError(t, err)

	// a redelivered message re-runs the controller against a done job
	second, err := c.Execute(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, first.OutputKey, second.OutputKey)
	assert.Equal(t, first.ThumbKey, second.ThumbKey)

	job, err := st.Job().Get(ctx, "alice", "j1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusDone, job.Status)
	assert.Equal(t, first.OutputKey, job.OutputKey)

	entries, err := st.JobLog().List(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, entries, 2, "each attempt appends its own log entry")
}
