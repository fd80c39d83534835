// Package config loads runtime configuration for the MediaGate CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with --config / -c.
//  3. Environment variables (see envBindings).
//  4. Command-line flags, bound by the cli package on the loaded Config.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "issuer_url": "http://127.0.0.1:8080",
//	  "upload_endpoint": "http://127.0.0.1:8080/api/v1/files/upload",
//	  "public_key": "public_...",
//	  "folder": "/HackathonFinder",
//	  "request_timeout": "30s"
//	}
package config
