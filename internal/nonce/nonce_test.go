package nonce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spectrumleads/formgate/internal/cache"
)

func TestNonceVerifiesAcrossRetries(t *testing.T) {
	svc := NewService(cache.NewMemoryStore(), time.Hour)
	ctx := context.Background()

	token, err := svc.Issue(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The retry controller resubmits the same serialized form, so the token
	// must keep verifying until its TTL runs out.
	require.True(t, svc.Verify(ctx, token))
	require.True(t, svc.Verify(ctx, token))
	require.True(t, svc.Verify(ctx, token))
}

func TestNonceUnknownToken(t *testing.T) {
	svc := NewService(cache.NewMemoryStore(), time.Hour)
	ctx := context.Background()

	require.False(t, svc.Verify(ctx, "made-up"))
	require.False(t, svc.Verify(ctx, ""))
}

func TestNonceExpiry(t *testing.T) {
	now := time.Now()
	store := cache.NewMemoryStore().WithClock(func() time.Time { return now })
	svc := NewService(store, time.Minute)
	ctx := context.Background()

	token, err := svc.Issue(ctx)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	require.False(t, svc.Verify(ctx, token))
}

func TestNonceTokensAreUnique(t *testing.T) {
	svc := NewService(cache.NewMemoryStore(), time.Hour)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := svc.Issue(ctx)
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
