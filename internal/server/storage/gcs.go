package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSBackend stores objects in a Google Cloud Storage bucket.
type GCSBackend struct {
	client    *storage.Client
	bucket    string
	newWriter func(ctx context.Context, key, contentType string) io.WriteCloser
}

// NewGCSBackend creates a client using application default credentials.
// A non-empty endpoint targets an emulator without authentication.
func NewGCSBackend(ctx context.Context, bucket, endpoint string) (*GCSBackend, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	b := &GCSBackend{client: client, bucket: bucket}
	b.newWriter = func(ctx context.Context, key, contentType string) io.WriteCloser {
		w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}
	return b, nil
}

func (b *GCSBackend) Name() string { return "gcs" }

func (b *GCSBackend) Put(ctx context.Context, req *PutRequest) (*PutResult, error) {
	key, err := CleanKey(req.Key)
	if err != nil {
		return nil, err
	}

	w := b.newWriter(ctx, key, req.ContentType)
	n, err := io.Copy(w, req.Body)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gcs write %s: %w", key, err)
	}
	// The object is committed on Close.
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gcs commit %s: %w", key, err)
	}

	return &PutResult{Key: key, Size: n}, nil
}

// Close releases the underlying client.
func (b *GCSBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
