// Package keystore holds JWK sets that change at runtime.
//
// A [Store] keeps one current set for an issuer and swaps it atomically on
// rotation, so every verification works against a single consistent
// snapshot. A [URLSetCache] keeps the sets of many issuers keyed by URL.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/commune-sh/matrix-authentication-service/internal/logger"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwa"
	"github.com/commune-sh/matrix-authentication-service/pkg/jwk"
	"github.com/commune-sh/matrix-authentication-service/pkg/jws"
)

var (
	// ErrNoSource is returned when refreshing a store that has no source.
	ErrNoSource = errors.New("keystore: no key set source")

	// ErrNoKeySet is returned when a store has never held a key set.
	ErrNoKeySet = errors.New("keystore: no key set loaded")
)

// DefaultRefreshInterval is used by Start when no interval is configured.
const DefaultRefreshInterval = 15 * time.Minute

// Source loads a key set.
type Source interface {
	Load(ctx context.Context) (jwk.KeySet, error)
}

// FileSource loads a key set from a JSON file.
type FileSource string

// Load implements Source.
func (f FileSource) Load(context.Context) (jwk.KeySet, error) {
	return LoadFile(string(f))
}

// URLSource loads a key set over HTTP.
type URLSource struct {
	URL    string
	Client *http.Client
}

// Load implements Source.
func (u URLSource) Load(ctx context.Context) (jwk.KeySet, error) {
	return FetchSet(ctx, u.URL, u.Client)
}

type options struct {
	logger          *slog.Logger
	source          Source
	refreshInterval time.Duration
}

// Option configures a Store or URLSetCache.
type Option func(*options)

// WithLogger sets the logger used for refresh events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSource sets where Refresh loads key sets from.
func WithSource(src Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithRefreshInterval sets how often Start refreshes.
func WithRefreshInterval(d time.Duration) Option {
	return func(o *options) {
		o.refreshInterval = d
	}
}

func newOptions(opts []Option) options {
	o := options{refreshInterval: DefaultRefreshInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.refreshInterval <= 0 {
		o.refreshInterval = DefaultRefreshInterval
	}
	return o
}

// Store holds the current key set of one issuer.
type Store struct {
	current atomic.Pointer[jwk.KeySet]
	opts    options
}

// New returns an empty store.
func New(opts ...Option) *Store {
	return &Store{opts: newOptions(opts)}
}

// NewWithKeySet returns a store holding set.
func NewWithKeySet(set jwk.KeySet, opts ...Option) (*Store, error) {
	s := New(opts...)
	if err := s.Replace(set); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace validates set and makes it the current key set. Verifications
// already running keep the set they started with.
func (s *Store) Replace(set jwk.KeySet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	clone := set.Clone()
	s.current.Store(&clone)
	return nil
}

// Snapshot returns the current key set. The returned set is never
// modified by the store.
func (s *Store) Snapshot() (jwk.KeySet, error) {
	set := s.current.Load()
	if set == nil {
		return jwk.KeySet{}, ErrNoKeySet
	}
	return *set, nil
}

// Verify verifies m against a snapshot of the current key set.
func (s *Store) Verify(m *jws.Message) error {
	set, err := s.Snapshot()
	if err != nil {
		return err
	}
	return jws.VerifyWithKeySet(m, set)
}

// SigningKey returns a private key of the current set able to sign with
// alg.
func (s *Store) SigningKey(alg jwa.Algorithm) (jwk.Key, bool) {
	set, err := s.Snapshot()
	if err != nil {
		return jwk.Key{}, false
	}
	return set.SigningKeyForAlgorithm(alg)
}

// Refresh loads a new key set from the configured source. On failure the
// current set is kept.
func (s *Store) Refresh(ctx context.Context) error {
	if s.opts.source == nil {
		return ErrNoSource
	}

	start := time.Now()
	set, err := s.opts.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh key set: %w", err)
	}

	if err := s.Replace(set); err != nil {
		return fmt.Errorf("failed to refresh key set: %w", err)
	}

	s.opts.logger.DebugContext(ctx, "key set refreshed", logger.Count(set.Len()), logger.Duration(time.Since(start)))
	return nil
}

// Start refreshes the key set at the configured interval until ctx is
// canceled. Failed refreshes are logged and the previous set stays in
// use.
//
// Most callers will want to call this in a goroutine after an initial
// Refresh.
func (s *Store) Start(ctx context.Context) error {
	if s.opts.source == nil {
		return ErrNoSource
	}

	ticker := time.NewTicker(s.opts.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.opts.logger.WarnContext(ctx, "key set refresh failed", logger.Error(err))
			}
		}
	}
}
