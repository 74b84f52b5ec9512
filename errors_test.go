package netguardian

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kinded struct{ kind string }

func (k kinded) Error() string { return "kinded: " + k.kind }
func (k kinded) Kind() string  { return k.kind }

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  &Error{Op: "Store.Ping", Kind: KindNetwork},
			want: "netguardian: Store.Ping: network",
		},
		{
			name: "with cause",
			err:  NewValidationError("Server.PostScan", ErrInvalidPayload),
			want: "netguardian: Server.PostScan (validation): invalid scan payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	withCtx := NewInternalError("Store.RecordScan", errors.New("boom")).
		WithContext(map[string]any{"device_id": "abcd1234"})
	assert.True(t, strings.Contains(withCtx.Error(), "device_id:abcd1234"))
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("scoring: %w", NewConfigurationError("Config.Load", ErrInvalidConfig))

	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.True(t, errors.Is(err, &Error{Kind: KindConfiguration}))
	assert.True(t, errors.Is(err, &Error{Op: "Config.Load", Kind: KindConfiguration}))
	assert.False(t, errors.Is(err, &Error{Op: "Other", Kind: KindConfiguration}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNetwork}))
	assert.False(t, errors.Is(err, ErrScanFailed))
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	orig := NewTimeoutError("Client.Health", errors.New("deadline"))
	orig.Context = map[string]any{"a": 1}

	derived := orig.WithContext(map[string]any{"b": 2})

	require.Len(t, derived.Context, 2)
	assert.Len(t, orig.Context, 1)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "structured", err: NewPermissionError("Gate.Ensure", errors.New("denied")), want: KindPermission},
		{name: "kind method", err: fmt.Errorf("wrapped: %w", kinded{kind: KindRemote}), want: KindRemote},
		{name: "plain", err: errors.New("plain"), want: KindInternal},
		{name: "not found", err: NewNotFoundError("Store.Scans", errors.New("missing")), want: KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
