package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediagate/internal/common"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 64 << 10

// HTTPAuthenticator requests tokens from GET {issuer}/api/auth.
type HTTPAuthenticator struct {
	issuerURL   string
	accessToken string
	httpClient  *http.Client
}

// NewHTTPAuthenticator returns an authenticator for issuerURL. accessToken,
// when non-empty, is sent as a bearer token.
func NewHTTPAuthenticator(issuerURL, accessToken string, hc *http.Client) *HTTPAuthenticator {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPAuthenticator{
		issuerURL:   strings.TrimRight(issuerURL, "/"),
		accessToken: accessToken,
		httpClient:  hc,
	}
}

func (a *HTTPAuthenticator) Authenticate(ctx context.Context) (UploadToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.issuerURL+"/api/auth", nil)
	if err != nil {
		return UploadToken{}, &TokenRequestError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if a.accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+a.accessToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return UploadToken{}, &TokenRequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return UploadToken{}, &TokenRequestError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return UploadToken{}, &TokenRequestError{StatusCode: resp.StatusCode, Err: errors.New(e.Error)}
		}
		return UploadToken{}, &TokenRequestError{StatusCode: resp.StatusCode}
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return UploadToken{}, &TokenRequestError{StatusCode: resp.StatusCode}
	}

	var tok UploadToken
	if err := json.Unmarshal(body, &tok); err != nil {
		return UploadToken{}, &TokenRequestError{Err: errors.New("malformed token response")}
	}
	if !tok.complete() {
		return UploadToken{}, &TokenRequestError{Err: errors.New("incomplete token response")}
	}

	return tok, nil
}
