package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mediagate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	IssuerURL      string         `json:"issuer_url"`
	UploadEndpoint string         `json:"upload_endpoint"`
	PublicKey      string         `json:"public_key"`
	Folder         string         `json:"folder"`
	FileName       *string        `json:"file_name"`
	AccessToken    string         `json:"access_token"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LogFormat      string         `json:"log_format"`
	LogLevel       string         `json:"log_level"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays cfg with the file at path. Keys that are absent keep
// their current value; file_name may be set to "" explicitly.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.IssuerURL, jc.IssuerURL)
	setString(&cfg.UploadEndpoint, jc.UploadEndpoint)
	setString(&cfg.PublicKey, jc.PublicKey)
	setString(&cfg.Folder, jc.Folder)
	if jc.FileName != nil {
		cfg.FileName = *jc.FileName
	}
	setString(&cfg.AccessToken, jc.AccessToken)
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)

	return nil
}
