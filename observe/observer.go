package observe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zero-day-ai/netguardian/security"
)

// Observer acquires the current network's observation. Implementations never
// fail: missing information degrades to UNKNOWN and absent fields.
type Observer interface {
	Observe(ctx context.Context) Observation
}

// NativeReading is what a platform bridge hands back: an opaque security code
// (Android int constant or iOS case name) plus whatever SSID/BSSID the OS
// disclosed. A nil *NativeReading means there is no active Wi-Fi network.
type NativeReading struct {
	Code  any    `json:"code" yaml:"code"`
	SSID  string `json:"ssid,omitempty" yaml:"ssid,omitempty"`
	BSSID string `json:"bssid,omitempty" yaml:"bssid,omitempty"`
}

// NativeSource is a platform bridge. Read should honour ctx; Platform
// observers stop waiting when ctx is done either way.
type NativeSource interface {
	Read(ctx context.Context) (*NativeReading, error)
}

// Null is the observer used when no platform bridge is available.
type Null struct {
	Platform security.Platform
}

// Observe always returns an UNKNOWN observation.
func (n Null) Observe(context.Context) Observation {
	return Unknown(n.Platform)
}

// DefaultReadTimeout bounds a native read when the caller's context has no deadline.
const DefaultReadTimeout = 5 * time.Second

// Platform observes through a NativeSource and normalizes the native code
// with the platform's table.
type Platform struct {
	source   NativeSource
	platform security.Platform
	timeout  time.Duration
	logger   *slog.Logger
}

// PlatformOption configures a Platform observer.
type PlatformOption func(*Platform)

// WithReadTimeout overrides DefaultReadTimeout.
func WithReadTimeout(d time.Duration) PlatformOption {
	return func(p *Platform) {
		p.timeout = d
	}
}

// WithLogger sets the logger used to report degraded reads.
func WithLogger(logger *slog.Logger) PlatformOption {
	return func(p *Platform) {
		p.logger = logger
	}
}

// NewPlatform creates a Platform observer for source.
func NewPlatform(source NativeSource, platform security.Platform, opts ...PlatformOption) *Platform {
	p := &Platform{
		source:   source,
		platform: platform,
		timeout:  DefaultReadTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Select picks the observer once at start-up: a Platform observer when a
// bridge exists, Null otherwise.
func Select(source NativeSource, platform security.Platform, opts ...PlatformOption) Observer {
	if source == nil {
		return Null{Platform: platform}
	}
	return NewPlatform(source, platform, opts...)
}

type readResult struct {
	reading *NativeReading
	err     error
}

// Observe reads the native source and normalizes the result.
func (p *Platform) Observe(ctx context.Context) Observation {
	if _, ok := ctx.Deadline(); !ok && p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// Buffered so a source that ignores ctx does not leak the goroutine forever.
	ch := make(chan readResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- readResult{err: fmt.Errorf("native read panicked: %v", r)}
			}
		}()
		reading, err := p.source.Read(ctx)
		ch <- readResult{reading: reading, err: err}
	}()

	select {
	case <-ctx.Done():
		p.logger.Warn("native read did not complete", "platform", p.platform, "error", ctx.Err())
		return Unknown(p.platform)
	case res := <-ch:
		if res.err != nil {
			p.logger.Warn("native read failed", "platform", p.platform, "error", res.err)
			return Unknown(p.platform)
		}
		if res.reading == nil {
			return Unknown(p.platform)
		}
		st := security.Normalize(p.platform, res.reading.Code)
		return NewObservation(p.platform, st, res.reading.SSID, res.reading.BSSID)
	}
}
