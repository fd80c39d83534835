package client

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// UploadToken is the credential triple issued per upload attempt.
type UploadToken struct {
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
	Token     string `json:"token"`
}

func (t UploadToken) complete() bool {
	return t.Signature != "" && t.Token != "" && t.Expire > 0
}

// UploadResult is the media host's success body. Only URL is required.
type UploadResult struct {
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	FilePath     string `json:"filePath"`
	Size         int64  `json:"size"`
	FileType     string `json:"fileType"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// File is one local file to upload. Size is -1 when unknown.
type File struct {
	Name string
	Size int64
	Body io.Reader
}

// Close closes Body if it is closable.
func (f *File) Close() error {
	if c, ok := f.Body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// OpenFile opens path for upload. The caller must Close the result.
func OpenFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	return &File{Name: filepath.Base(path), Size: st.Size(), Body: fh}, nil
}

// Authenticator obtains a fresh upload token.
type Authenticator interface {
	Authenticate(ctx context.Context) (UploadToken, error)
}

// MediaClient uploads one file with a token.
type MediaClient interface {
	Upload(ctx context.Context, f *File, tok UploadToken) (*UploadResult, error)
}
