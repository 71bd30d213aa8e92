package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const subscriptionCacheKeyPrefix = "go-webhook-dispatch::subscriptions_for_kind::v1"

// CachedSubscriptionReader memoizes per-kind subscription reads. A
// SubscriptionStore base is flushed on Create and SetActive; other writers
// must call Invalidate after changing a webhook row.
type CachedSubscriptionReader struct {
	base  core.SubscriptionReader
	cache repositorycache.CacheService
	ttl   time.Duration
}

// SubscriptionCacheConfig returns the cache settings for cfg, falling back to
// DefaultSubscriptionCacheTTL when the configured TTL is not positive.
func SubscriptionCacheConfig(cfg core.Config) repositorycache.Config {
	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = cfg.Dispatch.SubscriptionCacheTTL
	if cacheConfig.TTL <= 0 {
		cacheConfig.TTL = core.DefaultSubscriptionCacheTTL
	}
	return cacheConfig
}

// NewCachedSubscriptionReaderFromConfig builds the cache from
// cfg.Dispatch.SubscriptionCacheTTL and, when base is a *SubscriptionStore,
// registers the reader as its invalidator.
func NewCachedSubscriptionReaderFromConfig(base core.SubscriptionReader, cfg core.Config) (*CachedSubscriptionReader, error) {
	cacheConfig := SubscriptionCacheConfig(cfg)
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: subscription cache: %w", err)
	}
	reader, err := NewCachedSubscriptionReader(base, cacheService)
	if err != nil {
		return nil, err
	}
	reader.ttl = cacheConfig.TTL
	if store, ok := base.(*SubscriptionStore); ok && store != nil {
		store.SetInvalidator(reader)
	}
	return reader, nil
}

func NewCachedSubscriptionReader(
	base core.SubscriptionReader,
	cacheService repositorycache.CacheService,
) (*CachedSubscriptionReader, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base subscription reader is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: subscription cache service is required")
	}
	return &CachedSubscriptionReader{base: base, cache: cacheService}, nil
}

// TTL reports the entry lifetime when the reader was built from config, and
// zero otherwise.
func (r *CachedSubscriptionReader) TTL() time.Duration {
	if r == nil {
		return 0
	}
	return r.ttl
}

// SubscriptionCacheKey returns go-webhook-dispatch::subscriptions_for_kind::v1::<kind>.
func SubscriptionCacheKey(kind core.EventKind) string {
	return subscriptionCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(kind.String()))
}

func (r *CachedSubscriptionReader) SubscriptionsForKind(ctx context.Context, kind core.EventKind) ([]core.Subscription, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached subscription reader is not configured")
	}
	subscriptions, err := repositorycache.GetOrFetch(ctx, r.cache, SubscriptionCacheKey(kind), func(ctx context.Context) ([]core.Subscription, error) {
		fetched, fetchErr := r.base.SubscriptionsForKind(ctx, kind)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return cloneSubscriptions(fetched), nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSubscriptions(subscriptions), nil
}

// Invalidate drops cached reads for kinds, or for every catalog kind when
// none are given.
func (r *CachedSubscriptionReader) Invalidate(ctx context.Context, kinds ...core.EventKind) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached subscription reader is not configured")
	}
	if len(kinds) == 0 {
		kinds = core.EventKinds()
	}
	for _, kind := range kinds {
		if err := r.cache.Delete(ctx, SubscriptionCacheKey(kind)); err != nil {
			return err
		}
	}
	return nil
}

func cloneSubscriptions(input []core.Subscription) []core.Subscription {
	out := make([]core.Subscription, 0, len(input))
	for _, subscription := range input {
		copied := subscription
		if subscription.Filters != nil {
			copied.Filters = append([]byte(nil), subscription.Filters...)
		}
		if subscription.LastFiredAt != nil {
			value := *subscription.LastFiredAt
			copied.LastFiredAt = &value
		}
		out = append(out, copied)
	}
	return out
}
