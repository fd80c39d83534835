// Package common contains shared constants and sentinel errors used across
// MediaGate components.
package common

// AuthorizationHeaderName carries the bearer access token on requests to the
// token issuer when the issuer guard is enabled.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix prefixes the access token inside AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// MaxTokenLifetime is the longest validity a media host accepts for an
// upload token.
const MaxTokenLifetime = 60 * 60 // seconds
