package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	rep    map[string]Reputation
	scans  map[string][]Record
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		rep:   make(map[string]Reputation),
		scans: make(map[string][]Record),
	}
}

func (m *Memory) Reputation(_ context.Context, fingerprint string) (Reputation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Reputation{}, ErrClosed
	}
	return m.rep[fingerprint], nil
}

func (m *Memory) RecordScan(_ context.Context, rec Record) (Record, error) {
	rec = prepare(rec)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Record{}, ErrClosed
	}

	r := m.rep[rec.Fingerprint]
	r.Seen++
	r.High += isHigh(rec)
	m.rep[rec.Fingerprint] = r
	m.scans[rec.DeviceID] = append(m.scans[rec.DeviceID], rec)
	return rec, nil
}

func (m *Memory) Scans(_ context.Context, deviceID string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	all := m.scans[deviceID]
	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
