package keystore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/commune-sh/matrix-authentication-service/internal/logger"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/commune-sh/matrix-authentication-service/pkg/jws"
	"github.com/patrickmn/go-cache"
)

// ErrKeyNotFound is returned by GetKeys when no key has the requested id.
var ErrKeyNotFound = errors.New("keystore: key not found")

// URLSetCache is a cache of JWK sets keyed by URL that can be easily used to verify
// JWTs from multiple issuers. Sets expire after the cache duration and are
// fetched again on next use.
type URLSetCache struct {
	client *http.Client
	sets   *cache.Cache
	opts   options

	mu   sync.Mutex
	urls map[string]struct{}
}

// NewURLSetCache returns a new JWK set cache. Sets are kept for
// cacheDuration, and Start refreshes every known URL at refreshInterval.
func NewURLSetCache(client *http.Client, refreshInterval, cacheDuration time.Duration, opts ...Option) *URLSetCache {
	o := newOptions(append([]Option{WithRefreshInterval(refreshInterval)}, opts...))
	return &URLSetCache{
		client: client,
		sets:   cache.New(cacheDuration, 2*cacheDuration),
		opts:   o,
		urls:   make(map[string]struct{}),
	}
}

// Get returns the JWK set for the given URL, fetching it if it is not cached
// or has expired.
func (c *URLSetCache) Get(ctx context.Context, url string) (jwk.KeySet, error) {
	if v, ok := c.sets.Get(url); ok {
		return v.(jwk.KeySet), nil
	}
	return c.Fetch(ctx, url)
}

// GetKeys returns every key of the set at url with the given key id. Ids
// are not unique, so several keys of different types may match. An unknown
// id causes one refetch, since the issuer may have rotated keys.
func (c *URLSetCache) GetKeys(ctx context.Context, url string, keyID string) ([]jwk.Key, error) {
	set, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	if keys := set.Find(keyID); len(keys) > 0 {
		return keys, nil
	}

	set, err = c.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh JWK set: %w", err)
	}

	if keys := set.Find(keyID); len(keys) > 0 {
		return keys, nil
	}

	return nil, fmt.Errorf("%w: %q in %s", ErrKeyNotFound, keyID, url)
}

// Verify verifies m with the key set published at url.
func (c *URLSetCache) Verify(ctx context.Context, url string, m *jws.Message) error {
	set, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return jws.VerifyWithKeySet(m, set)
}

// Range iterates over the cached JWK sets, in URL order, calling fn for
// each URL and key. If fn returns false, the iteration will stop.
func (c *URLSetCache) Range(fn func(url string, key jwk.Key) bool) {
	if fn == nil || c == nil {
		return
	}

	items := c.sets.Items()
	urls := make([]string, 0, len(items))
	for url := range items {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	for _, url := range urls {
		for _, key := range items[url].Object.(jwk.KeySet).Keys {
			if !fn(url, key) {
				return
			}
		}
	}
}

// Fetch fetches the JWK set for the given URL and caches it.
func (c *URLSetCache) Fetch(ctx context.Context, url string) (jwk.KeySet, error) {
	set, err := FetchSet(ctx, url, c.client)
	if err != nil {
		return jwk.KeySet{}, err
	}

	c.sets.SetDefault(url, set)

	c.mu.Lock()
	c.urls[url] = struct{}{}
	c.mu.Unlock()

	c.opts.logger.DebugContext(ctx, "JWK set fetched", logger.URL(url), logger.Count(set.Len()))
	return set, nil
}

// Refresh refreshes the JWK set for the given URL.
func (c *URLSetCache) Refresh(ctx context.Context, url string) (jwk.KeySet, error) {
	return c.Fetch(ctx, url)
}

// RefreshAll refreshes every URL ever fetched, including those whose
// sets have expired. All URLs are attempted, and the errors joined.
func (c *URLSetCache) RefreshAll(ctx context.Context) error {
	c.mu.Lock()
	urls := make([]string, 0, len(c.urls))
	for url := range c.urls {
		urls = append(urls, url)
	}
	c.mu.Unlock()

	var errs []error
	for _, url := range urls {
		if _, err := c.Refresh(ctx, url); err != nil {
			errs = append(errs, fmt.Errorf("failed to refresh JWK set for %q: %w", url, err))
		}
	}
	return errors.Join(errs...)
}

// Start refreshes the JWK sets at the refresh interval until ctx is
// canceled. Failures are logged, and cached sets stay in use until they
// expire.
//
// Most callers will want to call this in a goroutine after creating the cache.
func (c *URLSetCache) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.RefreshAll(ctx); err != nil && ctx.Err() == nil {
				c.opts.logger.WarnContext(ctx, "JWK set refresh failed", logger.Error(err))
			}
		}
	}
}
