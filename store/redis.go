package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	netguardian "github.com/zero-day-ai/netguardian"
)

// Key layout.
const (
	reputationKeyPrefix = "rep:"
	scansKeyPrefix      = "scans:"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration

	// KeyPrefix namespaces every key, e.g. "netguardian:".
	KeyPrefix string
}

// Redis stores reputation as a hash per fingerprint (fields seen, high) and
// scans as a JSON list per device, newest at the head.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 3 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, netguardian.NewConfigurationError("store.NewRedis", fmt.Errorf("failed to parse Redis URL: %w", err))
	}

	if opts.TLS != nil {
		redisOpts.TLSConfig = opts.TLS
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, netguardian.NewNetworkError("store.NewRedis", fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return &Redis{client: client, prefix: opts.KeyPrefix}, nil
}

func (r *Redis) reputationKey(fingerprint string) string {
	return r.prefix + reputationKeyPrefix + fingerprint
}

func (r *Redis) scansKey(deviceID string) string {
	return r.prefix + scansKeyPrefix + deviceID
}

func (r *Redis) Reputation(ctx context.Context, fingerprint string) (Reputation, error) {
	vals, err := r.client.HMGet(ctx, r.reputationKey(fingerprint), "seen", "high").Result()
	if err != nil {
		return Reputation{}, fmt.Errorf("failed to read reputation for %s: %w", fingerprint, err)
	}

	var rep Reputation
	if rep.Seen, err = parseCounter(vals[0]); err != nil {
		return Reputation{}, err
	}
	if rep.High, err = parseCounter(vals[1]); err != nil {
		return Reputation{}, err
	}
	return rep, nil
}

func parseCounter(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected counter type %T", v)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid counter %q: %w", s, err)
	}
	return n, nil
}

func (r *Redis) RecordScan(ctx context.Context, rec Record) (Record, error) {
	rec = prepare(rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal scan record: %w", err)
	}

	repKey := r.reputationKey(rec.Fingerprint)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, r.scansKey(rec.DeviceID), data)
		pipe.HIncrBy(ctx, repKey, "seen", 1)
		pipe.HIncrBy(ctx, repKey, "high", isHigh(rec))
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("failed to record scan %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (r *Redis) Scans(ctx context.Context, deviceID string, limit int) ([]Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	items, err := r.client.LRange(ctx, r.scansKey(deviceID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list scans for %s: %w", deviceID, err)
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
