package config

import (
	"errors"
	"net/url"
	"time"
)

// Config holds runtime settings for the upload CLI.
//
// Fields:
//   - IssuerURL: base URL of the token issuer (GET {IssuerURL}/api/auth).
//   - UploadEndpoint: full URL of the media host upload endpoint.
//   - PublicKey: public key sent with every upload.
//   - Folder / FileName: destination folder and name requested from the host.
//     An empty FileName uses the local file's base name.
//   - AccessToken: optional bearer token for a guarded issuer.
type Config struct {
	IssuerURL      string
	UploadEndpoint string
	PublicKey      string
	Folder         string
	FileName       string
	AccessToken    string
	RequestTimeout time.Duration
	LogFormat      string
	LogLevel       string
}

// LoadDefaults populates c with values matching a local server.
func (c *Config) LoadDefaults() {
	c.IssuerURL = "http://127.0.0.1:8080"
	c.UploadEndpoint = "http://127.0.0.1:8080/api/v1/files/upload"
	c.Folder = "/HackathonFinder"
	c.FileName = "upload.jpg"
	c.RequestTimeout = 60 * time.Second
	c.LogFormat = "text"
	c.LogLevel = "warn"
}

// Validate reports settings that would make every upload fail.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.IssuerURL); err != nil {
		return errors.New("issuer url is invalid: " + err.Error())
	}
	if _, err := url.ParseRequestURI(c.UploadEndpoint); err != nil {
		return errors.New("upload endpoint is invalid: " + err.Error())
	}
	if c.PublicKey == "" {
		return errors.New("public key is not configured")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file at jsonPath (if any), then
// the environment.
func LoadConfig(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	return cfg, nil
}
