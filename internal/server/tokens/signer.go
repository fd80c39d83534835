// Package tokens issues and verifies short-lived upload tokens compatible with
// ImageKit's client-side upload authentication.
//
// A token triple is {token, expire, signature} where token is a random UUID,
// expire is a unix timestamp in seconds and signature is the lowercase hex
// HMAC-SHA1 of token+expire keyed with the private key.
package tokens

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/dmitrijs2005/mediagate/internal/server/tokens")

// UploadToken is the credential triple handed to upload clients.
type UploadToken struct {
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
	Token     string `json:"token"`
}

// Signer issues and verifies upload tokens for one key pair.
type Signer struct {
	privateKey []byte
	publicKey  string
	validity   time.Duration

	now   func() time.Time
	newID func() (uuid.UUID, error)
}

// NewSigner returns a Signer. Missing keys are accepted here; Issue then
// fails with common.ErrMissingCredentials.
func NewSigner(privateKey, publicKey string, validity time.Duration) *Signer {
	return &Signer{
		privateKey: []byte(privateKey),
		publicKey:  publicKey,
		validity:   validity,
		now:        time.Now,
		newID:      uuid.NewRandom,
	}
}

// Ready reports whether both keys are configured.
func (s *Signer) Ready() bool {
	return len(s.privateKey) > 0 && s.publicKey != ""
}

// PublicKey returns the public half of the key pair.
func (s *Signer) PublicKey() string {
	return s.publicKey
}

// Sign computes the hex HMAC-SHA1 of token+expire with privateKey.
func Sign(privateKey []byte, token string, expire int64) string {
	mac := hmac.New(sha1.New, privateKey)
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue creates a fresh token valid for the configured duration.
func (s *Signer) Issue(ctx context.Context) (UploadToken, error) {
	_, span := tracer.Start(ctx, "tokens.Issue")
	defer span.End()

	if !s.Ready() {
		span.SetStatus(codes.Error, common.ErrMissingCredentials.Error())
		return UploadToken{}, common.ErrMissingCredentials
	}

	id, err := s.newID()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token id")
		return UploadToken{}, fmt.Errorf("generate token id: %w", err)
	}

	token := id.String()
	expire := s.now().Add(s.validity).Unix()

	span.SetAttributes(attribute.Int64("upload.expire", expire))

	return UploadToken{
		Signature: Sign(s.privateKey, token, expire),
		Expire:    expire,
		Token:     token,
	}, nil
}

// CheckPublicKey returns common.ErrInvalidPublicKey unless key matches.
func (s *Signer) CheckPublicKey(key string) error {
	if s.publicKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.publicKey)) != 1 {
		return common.ErrInvalidPublicKey
	}
	return nil
}

// Verify checks expiry bounds and the signature of a presented token.
func (s *Signer) Verify(ctx context.Context, t UploadToken) error {
	_, span := tracer.Start(ctx, "tokens.Verify")
	defer span.End()

	if !s.Ready() {
		return common.ErrMissingCredentials
	}
	if t.Token == "" {
		return common.ErrInvalidToken
	}

	now := s.now().Unix()
	if t.Expire <= now {
		return common.ErrTokenExpired
	}
	if t.Expire > now+common.MaxTokenLifetime {
		return common.ErrTokenTooFar
	}

	want := Sign(s.privateKey, t.Token, t.Expire)
	if !hmac.Equal([]byte(want), []byte(t.Signature)) {
		span.SetStatus(codes.Error, common.ErrInvalidSignature.Error())
		return common.ErrInvalidSignature
	}

	return nil
}
