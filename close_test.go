package netguardian

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCloser struct {
	err   error
	calls int
}

func (s *stubCloser) Close() error {
	s.calls++
	return s.err
}

func TestCloseWithLog(t *testing.T) {
	t.Run("nil closer", func(t *testing.T) {
		var buf bytes.Buffer
		CloseWithLog(nil, slog.New(slog.NewTextHandler(&buf, nil)), "store")
		assert.Empty(t, buf.String())
	})

	t.Run("clean close is silent", func(t *testing.T) {
		var buf bytes.Buffer
		c := &stubCloser{}
		CloseWithLog(c, slog.New(slog.NewTextHandler(&buf, nil)), "store")
		assert.Equal(t, 1, c.calls)
		assert.Empty(t, buf.String())
	})

	t.Run("failure is logged at warn", func(t *testing.T) {
		var buf bytes.Buffer
		c := &stubCloser{err: errors.New("connection reset")}
		CloseWithLog(c, slog.New(slog.NewTextHandler(&buf, nil)), "redis client")

		out := buf.String()
		assert.Contains(t, out, "failed to close resource")
		assert.Contains(t, out, "redis client")
		assert.Contains(t, out, "connection reset")
		assert.Contains(t, out, "level=WARN")
	})

	t.Run("nil logger", func(t *testing.T) {
		c := &stubCloser{err: errors.New("x")}
		require.NotPanics(t, func() { CloseWithLog(c, nil, "sqlite") })
		assert.Equal(t, 1, c.calls)
	})
}
