package client

import (
	"errors"
	"fmt"
)

var (
	ErrTokenRequest    = errors.New("token request failed")
	ErrUploadFailed    = errors.New("upload failed")
	ErrInvalidResponse = fmt.Errorf("media host response has no url: %w", ErrUploadFailed)
)

// TokenRequestError describes why the issuer did not return a token.
// Its message is the bare cause so callers can prefix their own text.
type TokenRequestError struct {
	StatusCode int
	Err        error
}

func (e *TokenRequestError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Request failed with status %d", e.StatusCode)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request failed with status %d: %v", e.StatusCode, e.Err)
	}
	return e.Err.Error()
}

func (e *TokenRequestError) Unwrap() error { return e.Err }

func (e *TokenRequestError) Is(target error) bool { return target == ErrTokenRequest }

// HostError is a non-2xx answer from the media host.
type HostError struct {
	StatusCode int
	Message    string
	Help       string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("media host returned %d: %s", e.StatusCode, e.Message)
}

func (e *HostError) Is(target error) bool { return target == ErrUploadFailed }
