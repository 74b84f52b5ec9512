package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/netguardian/report"
)

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedis(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func newSQLiteStore(t *testing.T) *SQLite {
	t.Helper()

	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "netguardian.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func implementations(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"redis": func(t *testing.T) Store {
			s, _ := newRedisStore(t)
			return s
		},
		"sqlite": func(t *testing.T) Store { return newSQLiteStore(t) },
	}
}

func record(device, fp, label string, ts time.Time) Record {
	return Record{
		DeviceID:    device,
		Timestamp:   ts,
		Fingerprint: fp,
		Score:       42,
		RiskLabel:   label,
		Network: report.Network{
			SSID:     "Cafe",
			Security: report.String("OPEN"),
		},
		Checks: report.AnomalyChecks{DNSAnomaly: report.Bool(true)},
		Client: &report.ClientMeta{Platform: report.String("android")},
	}
}

func TestStoreContract(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			require.NoError(t, s.Ping(ctx))

			rep, err := s.Reputation(ctx, "fp-unknown")
			require.NoError(t, err)
			assert.Equal(t, Reputation{}, rep)
			assert.Equal(t, 0.0, rep.HighRate())

			base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			first, err := s.RecordScan(ctx, record("device-a", "fp-1", "HIGH", base))
			require.NoError(t, err)
			assert.NotEmpty(t, first.ID)

			_, err = s.RecordScan(ctx, record("device-a", "fp-1", "LOW", base.Add(time.Minute)))
			require.NoError(t, err)
			_, err = s.RecordScan(ctx, record("device-b", "fp-1", "HIGH", base.Add(2*time.Minute)))
			require.NoError(t, err)

			rep, err = s.Reputation(ctx, "fp-1")
			require.NoError(t, err)
			assert.Equal(t, int64(3), rep.Seen)
			assert.Equal(t, int64(2), rep.High)
			assert.InDelta(t, 0.667, rep.HighRate(), 0.001)

			scans, err := s.Scans(ctx, "device-a", 0)
			require.NoError(t, err)
			require.Len(t, scans, 2)
			assert.Equal(t, "LOW", scans[0].RiskLabel)
			assert.Equal(t, first.ID, scans[1].ID)
			assert.True(t, scans[1].Timestamp.Equal(base))
			assert.Equal(t, "Cafe", scans[1].Network.SSID)
			assert.Equal(t, "OPEN", *scans[1].Network.Security)
			assert.Nil(t, scans[1].Network.BSSID)
			assert.True(t, *scans[1].Checks.DNSAnomaly)
			assert.Nil(t, scans[1].Checks.TLSIntercept)
			require.NotNil(t, scans[1].Client)
			assert.Equal(t, "android", *scans[1].Client.Platform)

			limited, err := s.Scans(ctx, "device-a", 1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, "LOW", limited[0].RiskLabel)

			none, err := s.Scans(ctx, "device-unknown", 10)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStoreConcurrentRecords(t *testing.T) {
	for name, open := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.RecordScan(ctx, record("device-c", "fp-2", "MEDIUM", time.Time{}))
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			rep, err := s.Reputation(ctx, "fp-2")
			require.NoError(t, err)
			assert.Equal(t, int64(20), rep.Seen)
			assert.Equal(t, int64(0), rep.High)
		})
	}
}

func TestRedisKeyLayout(t *testing.T) {
	s, mr := newRedisStore(t)
	s.prefix = "ng:"

	_, err := s.RecordScan(context.Background(), record("device-a", "fp-9", "HIGH", time.Time{}))
	require.NoError(t, err)

	assert.Equal(t, "1", mr.HGet("ng:rep:fp-9", "seen"))
	assert.Equal(t, "1", mr.HGet("ng:rep:fp-9", "high"))

	items, err := mr.List("ng:scans:device-a")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestNewRedisErrors(t *testing.T) {
	_, err := NewRedis(RedisOptions{URL: "not-a-url"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedis(RedisOptions{URL: "redis://" + addr, ConnectTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.Ping(context.Background()), ErrClosed)
	_, err := m.RecordScan(context.Background(), Record{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRecordDefaults(t *testing.T) {
	rec := prepare(Record{})
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
}
