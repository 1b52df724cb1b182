// internal/config/config.go
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Blob     BlobConfig
	Queue    QueueConfig
	Cache    CacheConfig
	Keys     KeyConfig
}

type ServiceConfig struct {
	Addr            string `envconfig:"SERVICE_ADDR" default:":8080"`
	MetricsAddr     string `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	PresignTTLSecs  int    `envconfig:"PRESIGN_TTL_SEC" default:"300"`
	CacheTTLSecs    int    `envconfig:"CACHE_TTL_SEC" default:"60"`
	DefaultLimit    int    `envconfig:"LIST_DEFAULT_LIMIT" default:"20"`
	MaxLimit        int    `envconfig:"LIST_MAX_LIMIT" default:"100"`
}

type DatabaseConfig struct {
	Type string `envconfig:"DB_TYPE" default:"sqlite"`
	DSN  string `envconfig:"DB_DSN" default:"./data/jobs.db"`
}

type BlobConfig struct {
	Backend   string `envconfig:"BLOB_BACKEND" default:"s3"`
	Endpoint  string `envconfig:"S3_ENDPOINT" default:"127.0.0.1:9000"`
	AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	Bucket    string `envconfig:"S3_BUCKET" default:"transform-content"`
	UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
}

type QueueConfig struct {
	NATSURL        string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`
	Stream         string `envconfig:"QUEUE_STREAM" default:"TRANSFORM"`
	Subject        string `envconfig:"QUEUE_SUBJECT" default:"transform.jobs"`
	Durable        string `envconfig:"QUEUE_DURABLE" default:"transform-workers"`
	LeaseSec       int    `envconfig:"LEASE_SEC" default:"180"`
	ExtendSec      int    `envconfig:"LEASE_EXTEND_SEC" default:"60"`
	EmptyBackoffMs int    `envconfig:"EMPTY_BACKOFF_MS" default:"400"`
	ReceiveWaitSec int    `envconfig:"RECEIVE_WAIT_SEC" default:"20"`
	MaxDeliver     int    `envconfig:"QUEUE_MAX_DELIVER" default:"5"`
}

type CacheConfig struct {
	MemcachedEndpoint string `envconfig:"MEMCACHED_ENDPOINT" default:""`
}

type KeyConfig struct {
	UploadPrefix string `envconfig:"UPLOAD_PREFIX" default:"uploads/"`
	OutputPrefix string `envconfig:"OUTPUT_PREFIX" default:"outputs/"`
	ThumbPrefix  string `envconfig:"THUMB_PREFIX" default:"thumbs/"`
}

func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c QueueConfig) Lease() time.Duration        { return time.Duration(c.LeaseSec) * time.Second }
func (c QueueConfig) Extend() time.Duration       { return time.Duration(c.ExtendSec) * time.Second }
func (c QueueConfig) EmptyBackoff() time.Duration { return time.Duration(c.EmptyBackoffMs) * time.Millisecond }
func (c QueueConfig) ReceiveWait() time.Duration  { return time.Duration(c.ReceiveWaitSec) * time.Second }

func (c ServiceConfig) PresignTTL() time.Duration { return time.Duration(c.PresignTTLSecs) * time.Second }
func (c ServiceConfig) CacheTTL() time.Duration   { return time.Duration(c.CacheTTLSecs) * time.Second }
