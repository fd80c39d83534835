package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mediagate/internal/flagx"
	"github.com/dmitrijs2005/mediagate/internal/timex"
)

// JsonConfig is the JSON shape of the server configuration. Durations use
// timex.Duration so "30m" and integer nanoseconds are both accepted.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	PrivateKey            string         `json:"private_key"`
	PublicKey             string         `json:"public_key"`
	URLEndpoint           string         `json:"url_endpoint"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	AuthSecretKey         string         `json:"auth_secret_key"`
	DatabaseDSN           string         `json:"database_dsn"`
	LedgerPruneInterval   timex.Duration `json:"ledger_prune_interval"`
	StorageBackend        string         `json:"storage_backend"`
	DiskDir               string         `json:"disk_dir"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	GCSBucket             string         `json:"gcs_bucket"`
	GCSEndpoint           string         `json:"gcs_endpoint"`
	MaxUploadBytes        int64          `json:"max_upload_bytes"`
	LogFormat             string         `json:"log_format"`
	LogLevel              string         `json:"log_level"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays config with the JSON file named by -c / -config.
// Only keys present with non-zero values override earlier settings.
// Panics if the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.PrivateKey, c.PrivateKey)
	setString(&config.PublicKey, c.PublicKey)
	setString(&config.URLEndpoint, c.URLEndpoint)
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	setString(&config.AuthSecretKey, c.AuthSecretKey)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.LedgerPruneInterval.Duration != 0 {
		config.LedgerPruneInterval = c.LedgerPruneInterval.Duration
	}
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DiskDir, c.DiskDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.GCSBucket, c.GCSBucket)
	setString(&config.GCSEndpoint, c.GCSEndpoint)
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
}
