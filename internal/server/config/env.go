package config

import "github.com/dmitrijs2005/mediagate/internal/flagx"

// envBindings maps Config fields to environment variable names. The first
// non-empty name wins; the NEXT_PUBLIC_* aliases match the web app's names.
var envBindings = []struct {
	names []string
	field func(*Config) *string
}{
	{[]string{"PRIVATE_KEY"}, func(c *Config) *string { return &c.PrivateKey }},
	{[]string{"PUBLIC_KEY", "NEXT_PUBLIC_PUBLIC_KEY"}, func(c *Config) *string { return &c.PublicKey }},
	{[]string{"URL_ENDPOINT", "NEXT_PUBLIC_URL_ENDPOINT"}, func(c *Config) *string { return &c.URLEndpoint }},
	{[]string{"MEDIAGATE_AUTH_SECRET"}, func(c *Config) *string { return &c.AuthSecretKey }},
	{[]string{"DATABASE_DSN", "DATABASE_URL"}, func(c *Config) *string { return &c.DatabaseDSN }},
	{[]string{"MEDIAGATE_STORAGE"}, func(c *Config) *string { return &c.StorageBackend }},
	{[]string{"S3_ROOT_USER", "MINIO_ROOT_USER"}, func(c *Config) *string { return &c.S3RootUser }},
	{[]string{"S3_ROOT_PASSWORD", "MINIO_ROOT_PASSWORD"}, func(c *Config) *string { return &c.S3RootPassword }},
	{[]string{"S3_BUCKET"}, func(c *Config) *string { return &c.S3Bucket }},
	{[]string{"S3_REGION"}, func(c *Config) *string { return &c.S3Region }},
	{[]string{"S3_BASE_ENDPOINT"}, func(c *Config) *string { return &c.S3BaseEndpoint }},
	{[]string{"GCS_BUCKET"}, func(c *Config) *string { return &c.GCSBucket }},
	{[]string{"GCS_ENDPOINT"}, func(c *Config) *string { return &c.GCSEndpoint }},
	{[]string{"MEDIAGATE_DISK_DIR"}, func(c *Config) *string { return &c.DiskDir }},
}

// parseEnv overlays config with values from the process environment.
// It runs once at startup; handlers only ever see the resulting Config.
func parseEnv(config *Config) {
	for _, b := range envBindings {
		if v, ok := flagx.LookupEnv(b.names...); ok {
			*b.field(config) = v
		}
	}
}
