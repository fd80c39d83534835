// Package client contains the HTTP transport used by the upload widget.
//
// # Overview
//
// The package provides:
//  1. HTTPAuthenticator, which fetches a fresh {signature, expire, token}
//     triple from the token issuer (GET /api/auth).
//  2. HTTPMediaClient, which streams a file to an ImageKit-compatible upload
//     endpoint as multipart/form-data and decodes the hosted file URL.
//
// # Error Handling
//
// Token failures match ErrTokenRequest and upload failures match
// ErrUploadFailed under errors.Is. A host rejection is a *HostError carrying
// the host's message verbatim; a success body without a url yields
// ErrInvalidResponse, which also matches ErrUploadFailed.
//
// Concurrency & Contexts
//
// Both clients are safe for concurrent use. All operations accept a
// context.Context and honor cancellation.
package client
