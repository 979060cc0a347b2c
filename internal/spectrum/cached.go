package spectrum

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spectrumleads/formgate/internal/cache"
	"github.com/spectrumleads/formgate/internal/forms"
	"github.com/spectrumleads/formgate/pkg/logger"
	"github.com/spectrumleads/formgate/pkg/metrics"
)

// DefaultRequirementsTTL bounds how long a cached form definition may be
// served. The cache is an optimization shielding the vendor from repeated
// renders of the same page, never a correctness requirement.
const DefaultRequirementsTTL = 15 * time.Minute

const requirementsKeyPrefix = "spectrum:req:"

// CachedClient decorates a Client with a time-bounded requirements cache.
// Values are immutable once cached, so a stampede at worst costs a duplicate
// upstream fetch. FormsList and Submit pass straight through.
type CachedClient struct {
	inner Client
	store cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedClient wraps a client with the requirements cache. A nil store
// disables caching entirely.
func NewCachedClient(inner Client, store cache.Store, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultRequirementsTTL
	}
	return &CachedClient{
		inner: inner,
		store: store,
		ttl:   ttl,
		log:   logger.WithModule("spectrum"),
	}
}

// FormsList implements Client without caching: it backs the admin interface,
// where stale data is worse than an extra call.
func (c *CachedClient) FormsList(ctx context.Context, creds Credentials) (map[string]*string, error) {
	return c.inner.FormsList(ctx, creds)
}

// Requirements implements Client, serving cached definitions keyed by
// (api key, form id) within the TTL.
func (c *CachedClient) Requirements(ctx context.Context, creds Credentials, formID string) (*forms.Definition, error) {
	if c.store == nil {
		return c.inner.Requirements(ctx, creds, formID)
	}

	key := requirementsKey(creds.APIKey, formID)

	if raw, ok, err := c.store.Get(ctx, key); err == nil && ok {
		var definition forms.Definition
		if err := json.Unmarshal(raw, &definition); err == nil {
			metrics.RequirementsCacheLookups.WithLabelValues("hit").Inc()
			return &definition, nil
		}
	}
	metrics.RequirementsCacheLookups.WithLabelValues("miss").Inc()

	definition, err := c.inner.Requirements(ctx, creds, formID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(definition); err == nil {
		if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
			c.log.Warn("failed to cache form requirements", zap.Error(err))
		}
	}

	return definition, nil
}

// Submit implements Client by delegating to the wrapped client.
func (c *CachedClient) Submit(ctx context.Context, creds Credentials, fields map[string]string) SubmissionResult {
	return c.inner.Submit(ctx, creds, fields)
}

func requirementsKey(apiKey, formID string) string {
	if formID == "" {
		formID = "default"
	}
	sum := md5.Sum([]byte(apiKey + "_" + formID))
	return requirementsKeyPrefix + hex.EncodeToString(sum[:])
}
