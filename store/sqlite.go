package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	netguardian "github.com/zero-day-ai/netguardian"
	"github.com/zero-day-ai/netguardian/report"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	device_id   TEXT NOT NULL,
	ts          INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	score       INTEGER NOT NULL,
	risk_label  TEXT NOT NULL,
	network     TEXT NOT NULL,
	checks      TEXT NOT NULL,
	client      TEXT
);
CREATE INDEX IF NOT EXISTS scans_device_ts ON scans(device_id, ts DESC);
CREATE TABLE IF NOT EXISTS reputation (
	fingerprint TEXT PRIMARY KEY,
	seen        INTEGER NOT NULL DEFAULT 0,
	high        INTEGER NOT NULL DEFAULT 0
);`

// SQLite stores scans and reputation in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:"
// for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, netguardian.NewConfigurationError("store.OpenSQLite", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent scans.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, netguardian.NewInternalError("store.OpenSQLite", fmt.Errorf("createSchema: %w", err))
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Reputation(ctx context.Context, fingerprint string) (Reputation, error) {
	var rep Reputation
	err := s.db.QueryRowContext(ctx,
		`SELECT seen, high FROM reputation WHERE fingerprint = ?`, fingerprint).
		Scan(&rep.Seen, &rep.High)
	if errors.Is(err, sql.ErrNoRows) {
		return Reputation{}, nil
	}
	if err != nil {
		return Reputation{}, fmt.Errorf("failed to read reputation for %s: %w", fingerprint, err)
	}
	return rep, nil
}

func (s *SQLite) RecordScan(ctx context.Context, rec Record) (Record, error) {
	rec = prepare(rec)

	network, err := marshalJSON(rec.Network)
	if err != nil {
		return Record{}, err
	}
	checks, err := marshalJSON(rec.Checks)
	if err != nil {
		return Record{}, err
	}
	var client sql.NullString
	if rec.Client != nil {
		v, err := marshalJSON(rec.Client)
		if err != nil {
			return Record{}, err
		}
		client = sql.NullString{String: v, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scans (id, device_id, ts, fingerprint, score, risk_label, network, checks, client)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.DeviceID, rec.Timestamp.Unix(), rec.Fingerprint, rec.Score, rec.RiskLabel,
		network, checks, client); err != nil {
		return Record{}, fmt.Errorf("failed to insert scan %s: %w", rec.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reputation (fingerprint, seen, high) VALUES (?, 1, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET seen = seen + 1, high = high + excluded.high`,
		rec.Fingerprint, isHigh(rec)); err != nil {
		return Record{}, fmt.Errorf("failed to update reputation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("failed to commit scan %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *SQLite) Scans(ctx context.Context, deviceID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, ts, fingerprint, score, risk_label, network, checks, client
		 FROM scans WHERE device_id = ? ORDER BY ts DESC, rowid DESC LIMIT ?`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans for %s: %w", deviceID, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec             Record
			ts              int64
			network, checks string
			client          sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &ts, &rec.Fingerprint, &rec.Score, &rec.RiskLabel,
			&network, &checks, &client); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		if err := json.Unmarshal([]byte(network), &rec.Network); err != nil {
			return nil, fmt.Errorf("failed to decode network: %w", err)
		}
		if err := json.Unmarshal([]byte(checks), &rec.Checks); err != nil {
			return nil, fmt.Errorf("failed to decode checks: %w", err)
		}
		if client.Valid {
			rec.Client = new(report.ClientMeta)
			if err := json.Unmarshal([]byte(client.String), rec.Client); err != nil {
				return nil, fmt.Errorf("failed to decode client: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
