package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-r string   gRPC health bind address (e.g., ":50051")
//	-k string   private signing key
//	-p string   public key
//	-u string   public URL endpoint of stored media
//	-t int      upload token validity, minutes
//	-s string   HS256 secret guarding the issuer endpoint
//	-d string   PostgreSQL DSN for the token ledger
//	-b string   storage backend (disk, s3, gcs)
//	-m int      max upload size, bytes
//	-l string   log format (json, text, zap)
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-k", "-p", "-u", "-t", "-s", "-d", "-b", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "r", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.PrivateKey, "k", config.PrivateKey, "private signing key")
	fs.StringVar(&config.PublicKey, "p", config.PublicKey, "public key")
	fs.StringVar(&config.URLEndpoint, "u", config.URLEndpoint, "public URL endpoint")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.StringVar(&config.AuthSecretKey, "s", config.AuthSecretKey, "issuer guard secret key")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend")
	fs.Int64Var(&config.MaxUploadBytes, "m", config.MaxUploadBytes, "max upload size in bytes")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
