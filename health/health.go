package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/zero-day-ai/netguardian/types"
)

// DefaultTimeout bounds a check whose context has no deadline.
const DefaultTimeout = 5 * time.Second

// SlowThreshold marks an otherwise successful check as degraded.
var SlowThreshold = 2 * time.Second

// Pinger is anything that can report its own reachability, such as a store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}

func timed(name string, elapsed time.Duration, message string) types.HealthStatus {
	if elapsed > SlowThreshold {
		return types.NewDegradedStatus(name, message+" (slow)", map[string]any{
			"latency_ms": elapsed.Milliseconds(),
		})
	}
	return types.NewHealthyStatus(name, message)
}

// FuncCheck runs fn and reports unhealthy when it fails.
func FuncCheck(ctx context.Context, name string, fn func(ctx context.Context) error) types.HealthStatus {
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		return types.NewUnhealthyStatus(name, fmt.Sprintf("%s check failed", name), map[string]any{
			"error": err.Error(),
		})
	}
	return timed(name, time.Since(start), fmt.Sprintf("%s ok", name))
}

// PingCheck reports whether p answers Ping.
func PingCheck(ctx context.Context, name string, p Pinger) types.HealthStatus {
	if p == nil {
		return types.NewUnhealthyStatus(name, fmt.Sprintf("%s not configured", name), nil)
	}
	return FuncCheck(ctx, name, p.Ping)
}

// NetworkCheck verifies TCP connectivity to host:port.
func NetworkCheck(ctx context.Context, host string, port int) types.HealthStatus {
	if host == "" {
		return types.NewUnhealthyStatus("network", "host cannot be empty", nil)
	}
	if port <= 0 || port > 65535 {
		return types.NewUnhealthyStatus("network", fmt.Sprintf("invalid port: %d", port), map[string]any{
			"port": port,
		})
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	address := net.JoinHostPort(host, strconv.Itoa(port))
	var dialer net.Dialer

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return types.NewUnhealthyStatus(address, fmt.Sprintf("failed to connect to %s", address), map[string]any{
			"error": err.Error(),
		})
	}
	conn.Close()

	return timed(address, time.Since(start), fmt.Sprintf("connected to %s", address))
}

// HTTPCheck issues GET url. A 2xx answer is healthy, a 5xx or transport
// failure unhealthy, anything else degraded. A nil client uses
// http.DefaultClient.
func HTTPCheck(ctx context.Context, hc *http.Client, url string) types.HealthStatus {
	if hc == nil {
		hc = http.DefaultClient
	}

	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.NewUnhealthyStatus(url, "invalid health URL", map[string]any{"error": err.Error()})
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return types.NewUnhealthyStatus(url, fmt.Sprintf("GET %s failed", url), map[string]any{"error": err.Error()})
	}
	resp.Body.Close()

	details := map[string]any{"status_code": resp.StatusCode}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return timed(url, time.Since(start), fmt.Sprintf("GET %s returned %d", url, resp.StatusCode))
	case resp.StatusCode >= 500:
		return types.NewUnhealthyStatus(url, fmt.Sprintf("GET %s returned %d", url, resp.StatusCode), details)
	default:
		return types.NewDegradedStatus(url, fmt.Sprintf("GET %s returned %d", url, resp.StatusCode), details)
	}
}

// Combine aggregates checks into one status. Details lists the names of
// failing and degraded checks.
func Combine(checks ...types.HealthStatus) types.HealthStatus {
	if len(checks) == 0 {
		return types.NewHealthyStatus("", "no checks provided")
	}

	var failed, degraded []string
	label := func(c types.HealthStatus) string {
		switch {
		case c.Name != "":
			return c.Name
		case c.Message != "":
			return c.Message
		default:
			return "unnamed check"
		}
	}

	for _, c := range checks {
		switch c.Status {
		case types.StatusUnhealthy:
			failed = append(failed, label(c))
		case types.StatusDegraded:
			degraded = append(degraded, label(c))
		}
	}

	details := map[string]any{
		"total":    len(checks),
		"healthy":  len(checks) - len(failed) - len(degraded),
		"checks":   checks,
		"degraded": len(degraded),
	}

	switch {
	case len(failed) > 0:
		details["failed_checks"] = failed
		return types.NewUnhealthyStatus("", fmt.Sprintf("%d check(s) failed", len(failed)), details)
	case len(degraded) > 0:
		details["degraded_checks"] = degraded
		return types.NewDegradedStatus("", fmt.Sprintf("%d check(s) degraded", len(degraded)), details)
	default:
		return types.HealthStatus{
			Status:  types.StatusHealthy,
			Message: fmt.Sprintf("all %d check(s) passed", len(checks)),
			Details: details,
		}
	}
}
