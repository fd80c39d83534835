// Package common defines shared constants and sentinel errors used across
// the client and server layers of MediaGate. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Token issuing errors.
	ErrMissingCredentials = errors.New("media credentials are not configured")

	// Upload token verification errors.
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenTooFar      = errors.New("token expiry too far in the future")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrTokenReused      = errors.New("token already used")
)
