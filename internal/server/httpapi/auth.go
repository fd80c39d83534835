package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediagate/internal/common"
	"github.com/dmitrijs2005/mediagate/internal/logging"
	"github.com/dmitrijs2005/mediagate/internal/server/auth"
	"github.com/dmitrijs2005/mediagate/internal/server/metrics"
	"github.com/dmitrijs2005/mediagate/internal/server/tokens"
)

// TokenIssuer produces upload tokens.
type TokenIssuer interface {
	Issue(ctx context.Context) (tokens.UploadToken, error)
}

type ctxKey string

const subjectKey ctxKey = "subject"

// SubjectFromContext returns the bearer subject set by requireBearer.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey).(string)
	return s, ok
}

// authHandler answers GET /api/auth with a fresh token. It never returns a
// partial token: any failure yields an error body only.
func authHandler(issuer TokenIssuer, m *metrics.Metrics, logger logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Cache-Control", "no-store")

		tok, err := issuer.Issue(ctx)
		if err != nil {
			m.TokenFailures.Inc()
			if errors.Is(err, common.ErrMissingCredentials) {
				logger.Error(ctx, "token issuing disabled", "error", err)
				writeError(w, http.StatusServiceUnavailable, "Media credentials are not configured")
				return
			}
			logger.Error(ctx, "token signing failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to generate authentication parameters")
			return
		}

		m.TokensIssued.Inc()
		logger.Debug(ctx, "token issued", "expire", tok.Expire)
		writeJSON(w, http.StatusOK, tok)
	}
}

// requireBearer rejects requests without a valid HS256 bearer token signed
// with secret.
func requireBearer(secret []byte, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get(common.AuthorizationHeaderName)
			if !strings.HasPrefix(h, common.BearerPrefix) {
				writeError(w, http.StatusUnauthorized, "missing token")
				return
			}

			subject, err := auth.SubjectFromToken(strings.TrimPrefix(h, common.BearerPrefix), secret)
			if err != nil {
				logger.Warn(r.Context(), "bearer rejected", "error", err)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
