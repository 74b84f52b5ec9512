// Package store persists scored scans and the per-network reputation
// counters the scoring rules read.
//
// Three implementations share the Store contract: Memory for tests and
// single-process use, Redis for shared deployments and SQLite for a durable
// local file.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zero-day-ai/netguardian/report"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// HighRiskLabel is the score label counted as a high-risk sighting.
const HighRiskLabel = "HIGH"

// Reputation summarizes earlier sightings of one network fingerprint.
type Reputation struct {
	Seen int64 `json:"seen_count"`
	High int64 `json:"-"`
}

// HighRate is the share of sightings scored HIGH, 0 when never seen.
func (r Reputation) HighRate() float64 {
	if r.Seen <= 0 {
		return 0
	}
	return float64(r.High) / float64(r.Seen)
}

// Record is one scored scan.
type Record struct {
	ID          string               `json:"id"`
	DeviceID    string               `json:"device_id"`
	Timestamp   time.Time            `json:"ts"`
	Fingerprint string               `json:"fingerprint"`
	Score       int                  `json:"score"`
	RiskLabel   string               `json:"risk_label"`
	Network     report.Network       `json:"network"`
	Checks      report.AnomalyChecks `json:"checks"`
	Client      *report.ClientMeta   `json:"client,omitempty"`
}

// Store persists scans. Implementations are safe for concurrent use.
type Store interface {
	// Reputation returns the counters for fingerprint; unknown fingerprints
	// have a zero Reputation.
	Reputation(ctx context.Context, fingerprint string) (Reputation, error)

	// RecordScan saves rec and bumps the reputation of rec.Fingerprint. A
	// missing ID or Timestamp is filled in. It returns the stored record.
	RecordScan(ctx context.Context, rec Record) (Record, error)

	// Scans returns up to limit records for a device, newest first. A
	// non-positive limit returns all of them.
	Scans(ctx context.Context, deviceID string, limit int) ([]Record, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}

func prepare(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.Timestamp = rec.Timestamp.UTC().Truncate(time.Second)
	return rec
}

func isHigh(rec Record) int64 {
	if rec.RiskLabel == HighRiskLabel {
		return 1
	}
	return 0
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
