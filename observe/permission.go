package observe

import "context"

// PermissionGate asks the platform for the permissions Wi-Fi details require.
// The answer only degrades the scan: callers continue either way.
type PermissionGate interface {
	Ensure(ctx context.Context) bool
}

// AlwaysGranted is the gate for platforms that need no runtime permission.
type AlwaysGranted struct{}

// Ensure always reports the permission as granted.
func (AlwaysGranted) Ensure(context.Context) bool { return true }

// StaticGate reports a fixed answer.
type StaticGate bool

// Ensure returns the gate's value.
func (g StaticGate) Ensure(context.Context) bool { return bool(g) }

// GateFunc adapts a function to PermissionGate.
type GateFunc func(ctx context.Context) bool

// Ensure calls f.
func (f GateFunc) Ensure(ctx context.Context) bool { return f(ctx) }
