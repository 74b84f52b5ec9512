package secret

import (
	"context"
	"errors"
	"fmt"
	"time"

	netguardian "github.com/zero-day-ai/netguardian"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// DefaultEtcdKey is where the fingerprint secret is stored when no key is configured.
const DefaultEtcdKey = "/netguardian/fingerprint-secret"

// KV is the part of the etcd client the provider reads through.
type KV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// Etcd reads the secret from a single etcd key.
type Etcd struct {
	kv  KV
	key string
}

// NewEtcd creates a provider reading key through kv.
func NewEtcd(kv KV, key string) *Etcd {
	if key == "" {
		key = DefaultEtcdKey
	}
	return &Etcd{kv: kv, key: key}
}

// Secret fetches the current value of the key.
func (e *Etcd) Secret(ctx context.Context) ([]byte, error) {
	resp, err := e.kv.Get(ctx, e.key)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, netguardian.NewTimeoutError("secret.Etcd", fmt.Errorf("%w: %v", netguardian.ErrSecretUnavailable, err))
		}
		return nil, netguardian.NewNetworkError("secret.Etcd", fmt.Errorf("%w: %v", netguardian.ErrSecretUnavailable, err))
	}
	if resp == nil || len(resp.Kvs) == 0 || len(resp.Kvs[0].Value) == 0 {
		return nil, netguardian.NewNotFoundError("secret.Etcd",
			fmt.Errorf("%w: key %q is empty", netguardian.ErrSecretUnavailable, e.key))
	}
	return append([]byte(nil), resp.Kvs[0].Value...), nil
}

// EtcdConfig configures DialEtcd.
type EtcdConfig struct {
	// Endpoints is the list of etcd endpoints, e.g. ["localhost:2379"].
	Endpoints []string `yaml:"endpoints"`

	// Key holds the secret. Default: DefaultEtcdKey.
	Key string `yaml:"key"`

	// DialTimeout bounds connection setup. Default: 5s.
	DialTimeout time.Duration `yaml:"dial_timeout"`

	TLS *TLSConfig `yaml:"tls,omitempty"`
}

// EtcdClient is an Etcd provider owning its connection.
type EtcdClient struct {
	*Etcd
	cli *clientv3.Client
}

// DialEtcd connects to the cluster and verifies the secret key is readable.
// The returned client must be closed.
func DialEtcd(ctx context.Context, cfg EtcdConfig) (*EtcdClient, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, netguardian.NewConfigurationError("secret.DialEtcd",
			fmt.Errorf("%w: etcd endpoints cannot be empty", netguardian.ErrInvalidConfig))
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: dialTimeout,
	}

	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsConfig, err := cfg.TLS.ClientConfig()
		if err != nil {
			return nil, netguardian.NewConfigurationError("secret.DialEtcd", err)
		}
		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, netguardian.NewNetworkError("secret.DialEtcd", fmt.Errorf("failed to create etcd client: %w", err))
	}

	p := &EtcdClient{Etcd: NewEtcd(cli, cfg.Key), cli: cli}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := p.Secret(checkCtx); err != nil {
		cli.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the etcd connection.
func (c *EtcdClient) Close() error {
	return c.cli.Close()
}
