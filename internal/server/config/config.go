// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment overlay and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/common"
)

// Storage backends accepted by StorageBackend.
const (
	StorageDisk = "disk"
	StorageS3   = "s3"
	StorageGCS  = "gcs"
)

// Config holds runtime settings for the MediaGate server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the token issuer and media host API.
//   - EndpointAddrGRPC: bind address for the gRPC health endpoint.
//   - PrivateKey: signing key for upload tokens. Never sent to clients.
//   - PublicKey / URLEndpoint: the public pair clients use for uploads.
//   - TokenValidityDuration: lifetime of issued upload tokens (<= 1h).
//   - AuthSecretKey: optional HS256 secret guarding the issuer endpoint.
//   - DatabaseDSN: optional PostgreSQL DSN (pgx) for the token ledger.
//   - StorageBackend: one of disk, s3, gcs.
//   - S3*: settings for the S3-compatible backend.
//   - GCS*: bucket and optional emulator endpoint for the gcs backend.
type Config struct {
	EndpointAddrHTTP      string
	EndpointAddrGRPC      string
	PrivateKey            string
	PublicKey             string
	URLEndpoint           string
	TokenValidityDuration time.Duration
	AuthSecretKey         string
	DatabaseDSN           string
	LedgerPruneInterval   time.Duration
	StorageBackend        string
	DiskDir               string
	S3RootUser            string
	S3RootPassword        string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
	GCSBucket             string
	GCSEndpoint           string
	MaxUploadBytes        int64
	LogFormat             string
	LogLevel              string
}

// LoadDefaults populates Config with development defaults.
// NOTE: no signing keys are set, so the issuer refuses to sign until they are provided.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.URLEndpoint = "http://127.0.0.1:8080/media"
	c.TokenValidityDuration = 30 * time.Minute
	c.LedgerPruneInterval = 1 * time.Minute
	c.StorageBackend = StorageDisk
	c.DiskDir = "media"
	c.S3Bucket = "media"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.MaxUploadBytes = 10 << 20
	c.LogFormat = "json"
	c.LogLevel = "info"
}

// HasSigningCredentials reports whether both halves of the key pair are set.
func (c *Config) HasSigningCredentials() bool {
	return c.PrivateKey != "" && c.PublicKey != ""
}

// Validate checks settings that would make the server misbehave rather than
// fail closed. Missing signing keys are not an error here.
func (c *Config) Validate() error {
	if c.TokenValidityDuration <= 0 {
		return fmt.Errorf("token validity must be positive, got %s", c.TokenValidityDuration)
	}
	if c.TokenValidityDuration > common.MaxTokenLifetime*time.Second {
		return fmt.Errorf("token validity must not exceed 1h, got %s", c.TokenValidityDuration)
	}
	switch c.StorageBackend {
	case StorageDisk, StorageS3, StorageGCS:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.StorageBackend == StorageGCS && c.GCSBucket == "" {
		return fmt.Errorf("gcs backend requires a bucket")
	}
	if c.LedgerPruneInterval <= 0 {
		return fmt.Errorf("ledger prune interval must be positive, got %s", c.LedgerPruneInterval)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
