// Package secrets provides fetch-once secret lookup with an in-process
// cache and an environment-variable fallback for local development.
// Production deployments plug in a [Fetcher] backed by their secret
// manager; when it is absent or misses, the secret name is translated
// to an environment variable (amptimal/smtp becomes AMPTIMAL_SMTP)
// whose value is parsed as JSON, or wrapped as {"value": <raw>} when it
// isn't.
package secrets

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/ristretto/v2"

	"amptimal.dev/svc/errors"
)

// ErrNotFound is returned when a secret exists in no backend.
var ErrNotFound = errors.New("secrets: not found")

// Fetcher retrieves a named secret from a backing store.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (map[string]string, error)
}

// Store caches secrets for the life of the process: the first Get for a
// name hits the Fetcher (or the env fallback) and every later Get is
// served from memory until [Store.ClearCache].
type Store struct {
	fetcher Fetcher
	cache   *ristretto.Cache[string, map[string]string]
	logger  *slog.Logger
}

// NewStore builds a Store. fetcher may be nil, in which case only the
// environment fallback is consulted.
func NewStore(fetcher Fetcher, logger *slog.Logger) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, map[string]string]{
		NumCounters: 1 << 12,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "secrets: building cache")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
	}, nil
}

// Get returns the named secret, from cache when possible. A fetcher
// failure is not fatal: it logs and falls through to the environment.
func (s *Store) Get(ctx context.Context, name string) (map[string]string, error) {
	if secret, ok := s.cache.Get(name); ok {
		return secret, nil
	}

	if s.fetcher != nil {
		secret, err := s.fetcher.Fetch(ctx, name)
		if err == nil && secret != nil {
			s.put(name, secret)
			return secret, nil
		}
		if err != nil {
			s.logger.Debug("secret fetcher unavailable, trying env fallback", "secret", name, "err", err)
		}
	}

	secret, ok := fromEnv(name)
	if !ok {
		return nil, errors.Errorf("%w: %s", ErrNotFound, name)
	}
	s.put(name, secret)
	return secret, nil
}

// ClearCache drops every cached secret. Useful for tests or a forced
// refresh.
func (s *Store) ClearCache() {
	s.cache.Clear()
}

func (s *Store) put(name string, secret map[string]string) {
	s.cache.Set(name, secret, 1)
	s.cache.Wait()
}

// fromEnv translates a secret name to an environment variable (slashes
// to underscores, uppercased) and parses its value: JSON object of
// strings when possible, otherwise {"value": <raw>}.
func fromEnv(name string) (map[string]string, bool) {
	envKey := strings.ToUpper(strings.ReplaceAll(name, "/", "_"))
	raw, ok := os.LookupEnv(envKey)
	if !ok {
		return nil, false
	}
	var secret map[string]string
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return map[string]string{"value": raw}, true
	}
	return secret, true
}
