// Package nonce issues form tokens backed by the cache store.
package nonce

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spectrumleads/formgate/internal/cache"
	"github.com/spectrumleads/formgate/pkg/errors"
)

// FieldName is the hidden form field carrying the nonce token.
const FieldName = "inquiry_nonce"

// DefaultTTL bounds how long an issued token stays valid.
const DefaultTTL = 12 * time.Hour

const keyPrefix = "nonce:"

// Service issues and verifies form tokens. A token stays valid for its full
// TTL: the browser retry controller resubmits the same serialized form after
// a vendor timeout, so verification must not consume the token.
type Service struct {
	store cache.Store
	ttl   time.Duration
}

func NewService(store cache.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl}
}

// Issue mints a fresh token and records it in the store.
func (s *Service) Issue(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.store.Set(ctx, keyPrefix+token, []byte("1"), s.ttl); err != nil {
		return "", errors.ErrInternalServer.WithInternal(err)
	}
	return token, nil
}

// Verify reports whether a token was issued here and is still within its
// TTL. Unknown and expired tokens return false. The token is left in place so
// retries of the same form submission keep verifying until it expires.
func (s *Service) Verify(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, found, err := s.store.Get(ctx, keyPrefix+token)
	if err != nil {
		return false
	}
	return found
}
