package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signature":"abc","expire":1700001800,"token":"t-1"}`))
	}))
	defer srv.Close()

	tok, err := NewHTTPAuthenticator(srv.URL+"/", "", srv.Client()).Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UploadToken{Signature: "abc", Expire: 1700001800, Token: "t-1"}, tok)
}

func TestAuthenticate_SendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-value", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"signature":"s","expire":1,"token":"t"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPAuthenticator(srv.URL, "jwt-value", srv.Client()).Authenticate(context.Background())
	require.NoError(t, err)
}

func TestAuthenticate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"server error with message", http.StatusServiceUnavailable, `{"error":"Media credentials are not configured"}`, "Request failed with status 503: Media credentials are not configured"},
		{"server error without body", http.StatusInternalServerError, ``, "Request failed with status 500"},
		{"empty body", http.StatusOK, ``, "Request failed with status 200"},
		{"malformed body", http.StatusOK, `<html>`, "malformed token response"},
		{"missing signature", http.StatusOK, `{"expire":1,"token":"t"}`, "incomplete token response"},
		{"missing expire", http.StatusOK, `{"signature":"s","token":"t"}`, "incomplete token response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tok, err := NewHTTPAuthenticator(srv.URL, "", srv.Client()).Authenticate(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTokenRequest))
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, UploadToken{}, tok)
		})
	}
}

func TestAuthenticate_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPAuthenticator(url, "", nil).Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrTokenRequest)
}

func TestAuthenticate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPAuthenticator("http://127.0.0.1:1", "", nil).Authenticate(ctx)
	assert.ErrorIs(t, err, ErrTokenRequest)
	assert.ErrorIs(t, err, context.Canceled)
}
