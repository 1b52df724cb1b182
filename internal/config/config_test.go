package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Queue.NATSURL)
	assert.Equal(t, 180*time.Second, cfg.Queue.Lease())
	assert.Equal(t, 60*time.Second, cfg.Queue.Extend())
	assert.Equal(t, 400*time.Millisecond, cfg.Queue.EmptyBackoff())
	assert.Equal(t, "uploads/", cfg.Keys.UploadPrefix)
	assert.Equal(t, "outputs/", cfg.Keys.OutputPrefix)
	assert.Equal(t, "thumbs/", cfg.Keys.ThumbPrefix)
	assert.Equal(t, 300*time.Second, cfg.Service.PresignTTL())
	assert.Equal(t, 20, cfg.Service.DefaultLimit)
	assert.Equal(t, 100, cfg.Service.MaxLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEASE_SEC", "30")
	t.Setenv("LEASE_EXTEND_SEC", "15")
	t.Setenv("QUEUE_SUBJECT", "transform.test")
	t.Setenv("DB_TYPE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Queue.Lease())
	assert.Equal(t, 15*time.Second, cfg.Queue.Extend())
	assert.Equal(t, "transform.test", cfg.Queue.Subject)
	assert.Equal(t, "memory", cfg.Database.Type)
}
