package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/logging"
	"github.com/dmitrijs2005/mediagate/internal/server/ledger"
	"github.com/dmitrijs2005/mediagate/internal/server/metrics"
	"github.com/dmitrijs2005/mediagate/internal/server/storage"
	"github.com/dmitrijs2005/mediagate/internal/server/tokens"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	privateKey = "private_test"
	publicKey  = "public_test"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeStore struct {
	puts []storage.PutRequest
	data []byte
	err  error
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Put(_ context.Context, req *storage.PutRequest) (*storage.PutResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	f.data = b
	f.puts = append(f.puts, *req)
	return &storage.PutResult{Key: req.Key, Size: int64(len(b))}, nil
}

type fixture struct {
	handler *Handler
	signer  *tokens.Signer
	store   *fakeStore
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, maxBytes int64) *fixture {
	t.Helper()
	signer := tokens.NewSigner(privateKey, publicKey, 30*time.Minute)
	store := &fakeStore{}
	m := metrics.New()
	h := NewHandler(signer, ledger.NewMemoryLedger(), store, "https://ik.example.com/acct/", maxBytes, m, logging.Nop())
	h.suffix = func() (string, error) { return "deadbeef", nil }
	return &fixture{handler: h, signer: signer, store: store, metrics: m}
}

func (f *fixture) token(t *testing.T) tokens.UploadToken {
	t.Helper()
	tok, err := f.signer.Issue(context.Background())
	require.NoError(t, err)
	return tok
}

type form struct {
	fields map[string]string
	file   []byte
	noFile bool
}

func uploadForm(tok tokens.UploadToken, file []byte) form {
	return form{
		fields: map[string]string{
			"fileName":  "cover photo.png",
			"folder":    "/HackathonFinder",
			"publicKey": publicKey,
			"signature": tok.Signature,
			"expire":    strconv.FormatInt(tok.Expire, 10),
			"token":     tok.Token,
		},
		file: file,
	}
}

func (f form) request(t *testing.T) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range f.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if !f.noFile {
		fw, err := mw.CreateFormFile("file", "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(f.file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestUpload_Success(t *testing.T) {
	f := newFixture(t, 1<<20)
	tok := f.token(t)

	rec := f.do(t, uploadForm(tok, pngHeader).request(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res UploadResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))

	assert.Equal(t, "/HackathonFinder/cover photo_deadbeef.png", res.FilePath)
	assert.Equal(t, "https://ik.example.com/acct/HackathonFinder/cover photo_deadbeef.png", res.URL)
	assert.Equal(t, "cover photo_deadbeef.png", res.Name)
	assert.Equal(t, int64(len(pngHeader)), res.Size)
	assert.Equal(t, "image", res.FileType)
	assert.Equal(t, res.URL, res.ThumbnailURL)
	assert.Len(t, res.FileID, 24)

	require.Len(t, f.store.puts, 1)
	assert.Equal(t, "image/png", f.store.puts[0].ContentType)
	assert.Implements(t, (*io.ReadSeeker)(nil), f.store.puts[0].Body, "object stores need a rewindable body")
	assert.Equal(t, pngHeader, f.store.data)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.UploadsTotal.WithLabelValues(metrics.ResultSuccess)))
}

func TestUpload_KeepsFileNameWhenUniqueDisabled(t *testing.T) {
	f := newFixture(t, 1<<20)
	form := uploadForm(f.token(t), []byte("plain text"))
	form.fields["useUniqueFileName"] = "false"
	form.fields["fileName"] = "notes.txt"

	rec := f.do(t, form.request(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res UploadResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "/HackathonFinder/notes.txt", res.FilePath)
	assert.Equal(t, "non-image", res.FileType)
	assert.Empty(t, res.ThumbnailURL)
}

func TestUpload_Rejections(t *testing.T) {
	now := time.Now().Unix()
	signed := func(token string, expire int64) tokens.UploadToken {
		return tokens.UploadToken{Token: token, Expire: expire, Signature: tokens.Sign([]byte(privateKey), token, expire)}
	}

	tests := []struct {
		name       string
		form       func(f *fixture) form
		wantStatus int
		wantMsg    string
	}{
		{
			name: "wrong public key",
			form: func(f *fixture) form {
				fm := uploadForm(f.token(t), pngHeader)
				fm.fields["publicKey"] = "public_other"
				return fm
			},
			wantStatus: http.StatusForbidden,
			wantMsg:    "authenticated",
		},
		{
			name:       "expired",
			form:       func(*fixture) form { return uploadForm(signed("t-exp", now-10), pngHeader) },
			wantStatus: http.StatusForbidden,
			wantMsg:    "expired",
		},
		{
			name:       "too far",
			form:       func(*fixture) form { return uploadForm(signed("t-far", now+7200), pngHeader) },
			wantStatus: http.StatusForbidden,
			wantMsg:    "too far",
		},
		{
			name: "forged signature",
			form: func(f *fixture) form {
				tok := f.token(t)
				tok.Signature = tokens.Sign([]byte("guess"), tok.Token, tok.Expire)
				return uploadForm(tok, pngHeader)
			},
			wantStatus: http.StatusForbidden,
			wantMsg:    "signature",
		},
		{
			name: "bad expire",
			form: func(f *fixture) form {
				fm := uploadForm(f.token(t), pngHeader)
				fm.fields["expire"] = "soon"
				return fm
			},
			wantStatus: http.StatusForbidden,
			wantMsg:    "expire",
		},
		{
			name: "missing file",
			form: func(f *fixture) form {
				fm := uploadForm(f.token(t), nil)
				fm.noFile = true
				return fm
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "file",
		},
		{
			name: "missing file name",
			form: func(f *fixture) form {
				fm := uploadForm(f.token(t), pngHeader)
				delete(fm.fields, "fileName")
				return fm
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "fileName",
		},
		{
			name:       "too large",
			form:       func(f *fixture) form { return uploadForm(f.token(t), bytes.Repeat([]byte("a"), 2048)) },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantMsg:    "size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 1024)
			rec := f.do(t, tt.form(f).request(t))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Contains(t, body.Message, tt.wantMsg)
			assert.Empty(t, f.store.puts)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.UploadsTotal.WithLabelValues(metrics.ResultRejected)))
		})
	}
}

func TestUpload_ReplayRejected(t *testing.T) {
	f := newFixture(t, 1<<20)
	tok := f.token(t)

	first := f.do(t, uploadForm(tok, pngHeader).request(t))
	require.Equal(t, http.StatusOK, first.Code)

	second := f.do(t, uploadForm(tok, pngHeader).request(t))
	assert.Equal(t, http.StatusForbidden, second.Code)
	assert.Contains(t, decodeError(t, second).Message, "reused")
	assert.Len(t, f.store.puts, 1)
}

func TestUpload_NotMultipart(t *testing.T) {
	f := newFixture(t, 1<<20)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_StorageFailure(t *testing.T) {
	f := newFixture(t, 1<<20)
	f.store.err = errors.New("bucket unavailable")

	rec := f.do(t, uploadForm(f.token(t), pngHeader).request(t))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.NotContains(t, body.Message, "bucket")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.UploadsTotal.WithLabelValues(metrics.ResultFailed)))
}
