package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/mediagate/internal/filex"
)

// DiskBackend writes objects below a local directory.
type DiskBackend struct {
	root string
}

// NewDiskBackend creates root if needed.
func NewDiskBackend(root string) (*DiskBackend, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &DiskBackend{root: abs}, nil
}

func (d *DiskBackend) Name() string { return "disk" }

func (d *DiskBackend) Put(ctx context.Context, req *PutRequest) (*PutResult, error) {
	key, err := CleanKey(req.Key)
	if err != nil {
		return nil, err
	}

	dst := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, req.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("commit object: %w", err)
	}

	return &PutResult{Key: key, Size: n}, nil
}

// Handler serves stored objects read-only.
func (d *DiskBackend) Handler() http.Handler {
	return http.FileServer(http.Dir(d.root))
}
