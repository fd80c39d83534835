// Package storage persists uploaded media bytes. Backends are selected by
// configuration: a local directory, an S3-compatible bucket or a GCS bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape the root.
var ErrInvalidKey = errors.New("invalid object key")

// PutRequest describes one object to store.
type PutRequest struct {
	// Key is a slash-separated path relative to the backend root.
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// PutResult reports what was stored.
type PutResult struct {
	Key  string
	Size int64
	ETag string
}

// Backend stores objects.
type Backend interface {
	Put(ctx context.Context, req *PutRequest) (*PutResult, error)
	Name() string
}

// CleanKey normalizes key to a relative slash path without "." or ".."
// segments.
func CleanKey(key string) (string, error) {
	if strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	k := strings.TrimPrefix(path.Clean("/"+key), "/")
	if k == "" {
		return "", ErrInvalidKey
	}
	return k, nil
}
