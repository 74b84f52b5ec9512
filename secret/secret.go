// Package secret supplies the HMAC key used to fingerprint networks.
//
// A Provider is consulted on every scored scan. Static and Env cover local
// deployments; Etcd reads the key from a shared etcd cluster so every
// replica of the scoring service produces the same fingerprints. Wrap a
// remote provider in Cached to avoid a round trip per request.
package secret

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	netguardian "github.com/zero-day-ai/netguardian"
)

// Provider returns the current fingerprint secret.
type Provider interface {
	Secret(ctx context.Context) ([]byte, error)
}

// Static is a fixed secret.
type Static []byte

// Secret returns a copy of s, or ErrSecretUnavailable when it is empty.
func (s Static) Secret(context.Context) ([]byte, error) {
	if len(s) == 0 {
		return nil, netguardian.NewConfigurationError("secret.Static",
			fmt.Errorf("%w: empty secret", netguardian.ErrSecretUnavailable))
	}
	return append([]byte(nil), s...), nil
}

// Env reads the secret from an environment variable on every call.
type Env string

// Secret returns the variable's value.
func (e Env) Secret(context.Context) ([]byte, error) {
	v := os.Getenv(string(e))
	if v == "" {
		return nil, netguardian.NewConfigurationError("secret.Env",
			fmt.Errorf("%w: %s is not set", netguardian.ErrSecretUnavailable, string(e)))
	}
	return []byte(v), nil
}

// Func adapts a function to Provider.
type Func func(ctx context.Context) ([]byte, error)

// Secret calls f.
func (f Func) Secret(ctx context.Context) ([]byte, error) { return f(ctx) }

// Cached remembers the last secret returned by Source for TTL. Failures are
// not cached, and while a fresh value cannot be fetched the previous one is
// not served either.
type Cached struct {
	Source Provider
	TTL    time.Duration

	mu      sync.Mutex
	value   []byte
	fetched time.Time
	now     func() time.Time
}

// NewCached wraps source with a cache of the given TTL.
func NewCached(source Provider, ttl time.Duration) *Cached {
	return &Cached{Source: source, TTL: ttl, now: time.Now}
}

// Secret returns the cached secret, refreshing it once TTL has elapsed.
func (c *Cached) Secret(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if c.value != nil && now.Sub(c.fetched) < c.TTL {
		return append([]byte(nil), c.value...), nil
	}

	v, err := c.Source.Secret(ctx)
	if err != nil {
		c.value = nil
		return nil, err
	}
	c.value = append([]byte(nil), v...)
	c.fetched = now
	return v, nil
}

// Invalidate drops the cached value.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
}

func (c *Cached) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
