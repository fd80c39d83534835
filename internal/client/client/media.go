package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// ProgressFunc receives the number of file bytes sent so far and the total
// size (-1 when unknown).
type ProgressFunc func(sent, total int64)

// UploadOptions configures HTTPMediaClient.
type UploadOptions struct {
	Endpoint  string
	PublicKey string
	Folder    string
	// FileName overrides the local file name when non-empty.
	FileName string
	// KeepFileName disables the host's unique-suffix naming.
	KeepFileName bool
	Progress     ProgressFunc
}

// HTTPMediaClient uploads files to an ImageKit-compatible endpoint.
type HTTPMediaClient struct {
	opts       UploadOptions
	httpClient *http.Client
}

func NewHTTPMediaClient(opts UploadOptions, hc *http.Client) *HTTPMediaClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPMediaClient{opts: opts, httpClient: hc}
}

type countingReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.progress != nil {
			c.progress(c.sent, c.total)
		}
	}
	return n, err
}

func (m *HTTPMediaClient) fileName(f *File) string {
	if m.opts.FileName != "" {
		return m.opts.FileName
	}
	return f.Name
}

// writeForm streams the multipart body. Fields precede the file part so the
// host can reject a bad token before reading the payload.
func (m *HTTPMediaClient) writeForm(mw *multipart.Writer, f *File, tok UploadToken) error {
	fields := []struct{ k, v string }{
		{"fileName", m.fileName(f)},
		{"folder", m.opts.Folder},
		{"publicKey", m.opts.PublicKey},
		{"signature", tok.Signature},
		{"expire", strconv.FormatInt(tok.Expire, 10)},
		{"token", tok.Token},
		{"useUniqueFileName", strconv.FormatBool(!m.opts.KeepFileName)},
	}
	for _, fld := range fields {
		if err := mw.WriteField(fld.k, fld.v); err != nil {
			return err
		}
	}

	part, err := mw.CreateFormFile("file", m.fileName(f))
	if err != nil {
		return err
	}
	body := &countingReader{r: f.Body, total: f.Size, progress: m.opts.Progress}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	return mw.Close()
}

func (m *HTTPMediaClient) Upload(ctx context.Context, f *File, tok UploadToken) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// No progress callback may run after Upload returns.
	written := make(chan struct{})
	go func() {
		defer close(written)
		pw.CloseWithError(m.writeForm(mw, f, tok))
	}()
	defer func() {
		pr.Close()
		<-written
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.Endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUploadFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		he := &HostError{StatusCode: resp.StatusCode}
		var eb struct {
			Message string `json:"message"`
			Help    string `json:"help"`
		}
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			he.Message, he.Help = eb.Message, eb.Help
		} else {
			he.Message = strings.TrimSpace(string(body))
			if he.Message == "" {
				he.Message = http.StatusText(resp.StatusCode)
			}
		}
		return nil, he
	}

	var res UploadResult
	if err := json.Unmarshal(body, &res); err != nil || res.URL == "" {
		return nil, ErrInvalidResponse
	}

	return &res, nil
}
