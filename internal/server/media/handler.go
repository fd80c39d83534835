// Package media implements an ImageKit-compatible upload endpoint so the
// widget can run against a self-hosted media host.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/common"
	"github.com/dmitrijs2005/mediagate/internal/logging"
	"github.com/dmitrijs2005/mediagate/internal/server/ledger"
	"github.com/dmitrijs2005/mediagate/internal/server/metrics"
	"github.com/dmitrijs2005/mediagate/internal/server/storage"
	"github.com/dmitrijs2005/mediagate/internal/server/tokens"
	"github.com/dmitrijs2005/mediagate/internal/shared"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/dmitrijs2005/mediagate/internal/server/media")

// formOverhead is the allowance for non-file multipart fields.
const formOverhead = 1 << 20

// UploadResult is the success body.
type UploadResult struct {
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	FilePath     string `json:"filePath"`
	Size         int64  `json:"size"`
	FileType     string `json:"fileType"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ErrorBody is the failure body.
type ErrorBody struct {
	Message string `json:"message"`
	Help    string `json:"help"`
}

// Verifier checks the public key and token triple of an upload.
type Verifier interface {
	CheckPublicKey(key string) error
	Verify(ctx context.Context, t tokens.UploadToken) error
}

// Handler serves POST /api/v1/files/upload.
type Handler struct {
	verifier    Verifier
	ledger      ledger.Ledger
	store       storage.Backend
	urlEndpoint string
	maxBytes    int64
	metrics     *metrics.Metrics
	logger      logging.Logger

	suffix func() (string, error)
}

// NewHandler wires the upload endpoint. urlEndpoint is the public prefix
// prepended to stored file paths.
func NewHandler(v Verifier, l ledger.Ledger, s storage.Backend, urlEndpoint string, maxBytes int64, m *metrics.Metrics, logger logging.Logger) *Handler {
	return &Handler{
		verifier:    v,
		ledger:      l,
		store:       s,
		urlEndpoint: strings.TrimRight(urlEndpoint, "/"),
		maxBytes:    maxBytes,
		metrics:     m,
		logger:      logger.With("module", "media"),
		suffix:      randomSuffix,
	}
}

func randomSuffix() (string, error) {
	return shared.MakeRandHexString(4)
}

type uploadError struct {
	status  int
	message string
	cause   error
}

func (e *uploadError) Error() string { return e.message }
func (e *uploadError) Unwrap() error { return e.cause }

func reject(status int, message string, cause error) *uploadError {
	return &uploadError{status: status, message: message, cause: cause}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "media.Upload")
	defer span.End()

	res, err := h.upload(ctx, w, r)
	if err != nil {
		var ue *uploadError
		if !errors.As(err, &ue) {
			ue = reject(http.StatusInternalServerError, "Internal server error", err)
		}

		result := metrics.ResultRejected
		if ue.status >= http.StatusInternalServerError {
			result = metrics.ResultFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, ue.message)
			h.logger.Error(ctx, "upload failed", "status", ue.status, "error", err)
		} else {
			h.logger.Warn(ctx, "upload rejected", "status", ue.status, "reason", ue.message)
		}
		h.metrics.UploadsTotal.WithLabelValues(result).Inc()

		writeJSON(w, ue.status, ErrorBody{Message: ue.message})
		return
	}

	h.metrics.UploadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	h.metrics.UploadBytes.Observe(float64(res.Size))
	span.SetAttributes(attribute.String("media.path", res.FilePath), attribute.Int64("media.size", res.Size))
	h.logger.Info(ctx, "upload stored", "path", res.FilePath, "size", res.Size)

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) upload(ctx context.Context, w http.ResponseWriter, r *http.Request) (*UploadResult, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, reject(http.StatusRequestEntityTooLarge, "File size exceeds the allowed limit", err)
		}
		return nil, reject(http.StatusBadRequest, "Invalid multipart body", err)
	}
	defer r.MultipartForm.RemoveAll()

	if err := h.verifier.CheckPublicKey(r.FormValue("publicKey")); err != nil {
		return nil, reject(http.StatusForbidden, "Your account cannot be authenticated.", err)
	}

	expire, err := strconv.ParseInt(r.FormValue("expire"), 10, 64)
	if err != nil {
		return nil, reject(http.StatusForbidden, "Invalid expire value", common.ErrInvalidToken)
	}
	tok := tokens.UploadToken{
		Token:     r.FormValue("token"),
		Expire:    expire,
		Signature: r.FormValue("signature"),
	}

	if err := h.verifier.Verify(ctx, tok); err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return nil, reject(http.StatusForbidden, "Upload token expired", err)
		case errors.Is(err, common.ErrTokenTooFar):
			return nil, reject(http.StatusForbidden, "Upload token expiry too far: expire must be less than 1 hour into the future", err)
		case errors.Is(err, common.ErrInvalidSignature), errors.Is(err, common.ErrInvalidToken):
			return nil, reject(http.StatusForbidden, "Invalid signature", err)
		default:
			return nil, err
		}
	}

	if err := h.ledger.Consume(ctx, tok.Token, time.Unix(tok.Expire, 0)); err != nil {
		if errors.Is(err, common.ErrTokenReused) {
			return nil, reject(http.StatusForbidden, "Token reused: this upload token has already been used", err)
		}
		return nil, fmt.Errorf("ledger: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, reject(http.StatusBadRequest, "Missing file parameter for upload", err)
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		return nil, reject(http.StatusRequestEntityTooLarge, "File size exceeds the allowed limit", nil)
	}

	name, err := h.objectName(r.FormValue("fileName"), r.FormValue("useUniqueFileName"))
	if err != nil {
		return nil, err
	}

	key, err := storage.CleanKey(path.Join(r.FormValue("folder"), name))
	if err != nil {
		return nil, reject(http.StatusBadRequest, "Invalid folder or fileName", err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	putCtx, span := tracer.Start(ctx, "storage.Put", trace.WithAttributes(attribute.String("storage.backend", h.store.Name())))
	stored, err := h.store.Put(putCtx, &storage.PutRequest{
		Key:         key,
		Body:        file,
		Size:        header.Size,
		ContentType: contentType,
	})
	span.End()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	filePath := "/" + stored.Key
	res := &UploadResult{
		FileID:   strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		Name:     path.Base(stored.Key),
		URL:      h.urlEndpoint + filePath,
		FilePath: filePath,
		Size:     stored.Size,
		FileType: "non-image",
	}
	if strings.HasPrefix(contentType, "image/") {
		res.FileType = "image"
		// No transformations are hosted; the original doubles as thumbnail.
		res.ThumbnailURL = res.URL
	}

	return res, nil
}

// objectName validates fileName and, unless unique naming is switched off,
// inserts a random suffix before the extension.
func (h *Handler) objectName(fileName, useUnique string) (string, error) {
	if strings.TrimSpace(fileName) == "" {
		return "", reject(http.StatusBadRequest, "Missing fileName parameter for upload", nil)
	}

	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "", reject(http.StatusBadRequest, "Invalid fileName", nil)
	}

	if useUnique == "false" {
		return name, nil
	}

	sfx, err := h.suffix()
	if err != nil {
		return "", fmt.Errorf("file name suffix: %w", err)
	}
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + sfx + ext, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
