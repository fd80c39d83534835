package config

import "github.com/dmitrijs2005/mediagate/internal/flagx"

var envBindings = []struct {
	names []string
	field func(*Config) *string
}{
	{[]string{"MEDIAGATE_ISSUER_URL"}, func(c *Config) *string { return &c.IssuerURL }},
	{[]string{"MEDIAGATE_UPLOAD_ENDPOINT"}, func(c *Config) *string { return &c.UploadEndpoint }},
	{[]string{"PUBLIC_KEY", "NEXT_PUBLIC_PUBLIC_KEY"}, func(c *Config) *string { return &c.PublicKey }},
	{[]string{"MEDIAGATE_ACCESS_TOKEN"}, func(c *Config) *string { return &c.AccessToken }},
}

func parseEnv(cfg *Config) {
	for _, b := range envBindings {
		if v, ok := flagx.LookupEnv(b.names...); ok {
			*b.field(cfg) = v
		}
	}
}
