package tokens

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediagate/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexSHA1 = regexp.MustCompile(`^[0-9a-f]{40}$`)

func fixedSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s := NewSigner("private_test", "public_test", 30*time.Minute)
	s.now = func() time.Time { return now }
	return s
}

func TestSign_KnownVector(t *testing.T) {
	got := Sign([]byte("private_key_test"), "34d3fb10-b5c1-4a2c-b6ca-f89c7ae4a9f0", 1655379249)
	assert.Equal(t, "20b813ffda2de9ab1da8bbfe84a5626be5247d5d", got)
	assert.NotEqual(t, got, Sign([]byte("other"), "34d3fb10-b5c1-4a2c-b6ca-f89c7ae4a9f0", 1655379249))
	assert.NotEqual(t, got, Sign([]byte("private_key_test"), "34d3fb10-b5c1-4a2c-b6ca-f89c7ae4a9f0", 1655379250))
}

func TestIssue(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := fixedSigner(t, now)

	tok, err := s.Issue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now.Add(30*time.Minute).Unix(), tok.Expire)
	_, err = uuid.Parse(tok.Token)
	assert.NoError(t, err)
	assert.Regexp(t, hexSHA1, tok.Signature)
	assert.Equal(t, Sign([]byte("private_test"), tok.Token, tok.Expire), tok.Signature)

	other, err := s.Issue(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, tok.Token, other.Token)
}

func TestIssue_MissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		private string
		public  string
	}{
		{"no private key", "", "public"},
		{"no public key", "private", ""},
		{"nothing", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSigner(tt.private, tt.public, time.Minute)
			tok, err := s.Issue(context.Background())
			assert.ErrorIs(t, err, common.ErrMissingCredentials)
			assert.Equal(t, UploadToken{}, tok)
		})
	}
}

func TestIssue_IDError(t *testing.T) {
	s := NewSigner("k", "p", time.Minute)
	s.newID = func() (uuid.UUID, error) { return uuid.Nil, errors.New("entropy") }

	_, err := s.Issue(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy")
}

func TestVerify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := fixedSigner(t, now)

	valid, err := s.Issue(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(UploadToken) UploadToken
		wantErr error
	}{
		{"valid", func(t UploadToken) UploadToken { return t }, nil},
		{"tampered signature", func(t UploadToken) UploadToken { t.Signature = Sign([]byte("x"), t.Token, t.Expire); return t }, common.ErrInvalidSignature},
		{"tampered token", func(t UploadToken) UploadToken { t.Token = uuid.NewString(); return t }, common.ErrInvalidSignature},
		{"empty token", func(t UploadToken) UploadToken { t.Token = ""; return t }, common.ErrInvalidToken},
		{"expired", func(t UploadToken) UploadToken { t.Expire = now.Unix(); return t }, common.ErrTokenExpired},
		{"too far", func(t UploadToken) UploadToken { t.Expire = now.Unix() + 3601; return t }, common.ErrTokenTooFar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Verify(context.Background(), tt.mutate(valid))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify_AfterExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := fixedSigner(t, now)

	tok, err := s.Issue(context.Background())
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(31 * time.Minute) }
	assert.ErrorIs(t, s.Verify(context.Background(), tok), common.ErrTokenExpired)
}

func TestCheckPublicKey(t *testing.T) {
	s := NewSigner("k", "public_abc", time.Minute)
	assert.NoError(t, s.CheckPublicKey("public_abc"))
	assert.ErrorIs(t, s.CheckPublicKey("public_xyz"), common.ErrInvalidPublicKey)
	assert.ErrorIs(t, NewSigner("k", "", time.Minute).CheckPublicKey(""), common.ErrInvalidPublicKey)
}
