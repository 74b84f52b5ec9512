// Package config loads netguardian.yaml, the shared configuration of the
// CLI and the scoring service.
//
//	client:
//	  api_base: https://api.example.com
//	  device_id: 5d0b3c7e-6c1f-4c55-9f0e-1f1d2f6b8a10
//	  timeout: 15s
//	server:
//	  listen: ":8080"
//	  store:
//	    type: redis
//	    redis_url: redis://localhost:6379/0
//	  secret:
//	    type: etcd
//	    etcd:
//	      endpoints: ["localhost:2379"]
//
// Environment variables override the file: NETGUARDIAN_API_BASE,
// NETGUARDIAN_DEVICE_ID, NETGUARDIAN_REDIS_URL, NETGUARDIAN_ETCD_ENDPOINTS
// (comma separated) and NETGUARDIAN_HMAC_SECRET.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	netguardian "github.com/zero-day-ai/netguardian"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by LoadFromDir.
const FileName = "netguardian.yaml"

// Environment variables read by ApplyEnv.
const (
	EnvAPIBase       = "NETGUARDIAN_API_BASE"
	EnvDeviceID      = "NETGUARDIAN_DEVICE_ID"
	EnvRedisURL      = "NETGUARDIAN_REDIS_URL"
	EnvEtcdEndpoints = "NETGUARDIAN_ETCD_ENDPOINTS"
	EnvHMACSecret    = "NETGUARDIAN_HMAC_SECRET"
)

// Store and secret backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"

	SecretStatic = "static"
	SecretEnv    = "env"
	SecretEtcd   = "etcd"
)

// Config is the root of netguardian.yaml.
type Config struct {
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ClientConfig configures the CLI scanner.
type ClientConfig struct {
	APIBase  string `yaml:"api_base"`
	DeviceID string `yaml:"device_id"`

	// Timeout bounds each backend call. Format: Go duration. Default: 15s.
	Timeout string `yaml:"timeout,omitempty"`

	// AllowHTTP permits a plain http api_base, for local development only.
	AllowHTTP bool `yaml:"allow_http,omitempty"`

	Country    string      `yaml:"country,omitempty"`
	Platform   string      `yaml:"platform,omitempty"`
	AppVersion string      `yaml:"app_version,omitempty"`
	Retry      RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig configures resubmission after transport failures.
type RetryConfig struct {
	// Attempts is the total number of submissions. Default: 1 (no retry).
	Attempts int `yaml:"attempts,omitempty"`

	// Backoff before the first retry, doubled after each. Default: 500ms.
	Backoff string `yaml:"backoff,omitempty"`
}

// ServerConfig configures the scoring service.
type ServerConfig struct {
	Listen     string `yaml:"listen,omitempty"`
	GRPCListen string `yaml:"grpc_listen,omitempty"`

	// GRPCCertFile and GRPCKeyFile enable TLS on the gRPC health listener.
	GRPCCertFile string `yaml:"grpc_cert_file,omitempty"`
	GRPCKeyFile  string `yaml:"grpc_key_file,omitempty"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`

	// RulesFile replaces the built-in scoring rules.
	RulesFile string `yaml:"rules_file,omitempty"`

	Store  StoreConfig  `yaml:"store"`
	Secret SecretConfig `yaml:"secret"`
}

// StoreConfig selects and configures the scan store.
type StoreConfig struct {
	Type       string `yaml:"type,omitempty"`
	RedisURL   string `yaml:"redis_url,omitempty"`
	KeyPrefix  string `yaml:"key_prefix,omitempty"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// SecretConfig selects where the fingerprint secret comes from.
type SecretConfig struct {
	Type  string `yaml:"type,omitempty"`
	Value string `yaml:"value,omitempty"`
	Env   string `yaml:"env,omitempty"`

	Etcd EtcdConfig `yaml:"etcd,omitempty"`

	// CacheTTL is how long a fetched secret is reused. Default: 5m.
	CacheTTL string `yaml:"cache_ttl,omitempty"`
}

// EtcdConfig locates the secret in etcd.
type EtcdConfig struct {
	Endpoints   []string `yaml:"endpoints,omitempty"`
	Key         string   `yaml:"key,omitempty"`
	DialTimeout string   `yaml:"dial_timeout,omitempty"`
	CertFile    string   `yaml:"cert_file,omitempty"`
	KeyFile     string   `yaml:"key_file,omitempty"`
	CAFile      string   `yaml:"ca_file,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:     ":8080",
			GRPCListen: ":9090",
			Store:      StoreConfig{Type: StoreMemory},
			Secret:     SecretConfig{Type: SecretEnv, Env: EnvHMACSecret},
		},
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// GetTimeout returns the backend call timeout.
func (c ClientConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// GetAttempts returns the configured attempts or 1.
func (r RetryConfig) GetAttempts() int {
	if r.Attempts <= 0 {
		return 1
	}
	return r.Attempts
}

// GetBackoff returns the initial retry backoff.
func (r RetryConfig) GetBackoff() time.Duration {
	return parseDuration(r.Backoff, 500*time.Millisecond)
}

// GetShutdownTimeout returns the graceful shutdown budget.
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(s.ShutdownTimeout, 10*time.Second)
}

// GetCacheTTL returns how long a fetched secret is reused.
func (s SecretConfig) GetCacheTTL() time.Duration {
	return parseDuration(s.CacheTTL, 5*time.Minute)
}

// GetDialTimeout returns the etcd dial timeout.
func (e EtcdConfig) GetDialTimeout() time.Duration {
	return parseDuration(e.DialTimeout, 5*time.Second)
}

// Load reads a configuration file. If path is a directory, FileName (or its
// .yml variant) inside it is read. Defaults fill whatever the file omits.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath = ""
		for _, name := range []string{FileName, strings.TrimSuffix(FileName, ".yaml") + ".yml"} {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
		if configPath == "" {
			return nil, fmt.Errorf("no %s found in %s: %w", FileName, path, fs.ErrNotExist)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, netguardian.NewConfigurationError("config.Load",
			fmt.Errorf("failed to parse %s: %w", configPath, err))
	}
	return cfg, nil
}

// LoadFromDir searches for FileName starting at dir and walking up to the
// filesystem root.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		cfg, err := Load(absDir)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("no %s found in %s or parent directories: %w", FileName, dir, fs.ErrNotExist)
		}
		absDir = parent
	}
}

// Resolve loads path when given, otherwise searches from the working
// directory and falls back to Default when no file exists. Environment
// overrides are applied either way.
func Resolve(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path != "" {
		cfg, err = Load(path)
	} else {
		var cwd string
		if cwd, err = os.Getwd(); err == nil {
			cfg, err = LoadFromDir(cwd)
		}
		if errors.Is(err, fs.ErrNotExist) {
			cfg, err = Default(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIBase); v != "" {
		c.Client.APIBase = v
	}
	if v := getenv(EnvDeviceID); v != "" {
		c.Client.DeviceID = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Server.Store.Type = StoreRedis
		c.Server.Store.RedisURL = v
	}
	if v := getenv(EnvEtcdEndpoints); v != "" {
		var endpoints []string
		for _, ep := range strings.Split(v, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				endpoints = append(endpoints, ep)
			}
		}
		c.Server.Secret.Type = SecretEtcd
		c.Server.Secret.Etcd.Endpoints = endpoints
	}
	if v := getenv(EnvHMACSecret); v != "" && c.Server.Secret.Type != SecretEtcd {
		c.Server.Secret.Type = SecretStatic
		c.Server.Secret.Value = v
	}
}

// EnsureDeviceID generates a random device id when none is configured and
// reports whether it did.
func (c *Config) EnsureDeviceID() bool {
	if strings.TrimSpace(c.Client.DeviceID) != "" {
		return false
	}
	c.Client.DeviceID = uuid.NewString()
	return true
}

// ValidateClient checks what the scanner needs.
func (c *Config) ValidateClient() error {
	if c.Client.APIBase == "" {
		return netguardian.NewConfigurationError("config.ValidateClient",
			fmt.Errorf("%w: client.api_base is required (or set %s)", netguardian.ErrInvalidConfig, EnvAPIBase))
	}
	return nil
}

// ValidateServer checks the store and secret selections.
func (c *Config) ValidateServer() error {
	fail := func(format string, args ...any) error {
		return netguardian.NewConfigurationError("config.ValidateServer",
			fmt.Errorf("%w: "+format, append([]any{netguardian.ErrInvalidConfig}, args...)...))
	}

	switch c.Server.Store.Type {
	case "", StoreMemory:
	case StoreRedis:
		if c.Server.Store.RedisURL == "" {
			return fail("server.store.redis_url is required for the redis store")
		}
	case StoreSQLite:
		if c.Server.Store.SQLitePath == "" {
			return fail("server.store.sqlite_path is required for the sqlite store")
		}
	default:
		return fail("unknown store type %q", c.Server.Store.Type)
	}

	if (c.Server.GRPCCertFile == "") != (c.Server.GRPCKeyFile == "") {
		return fail("server.grpc_cert_file and server.grpc_key_file must be set together")
	}

	switch c.Server.Secret.Type {
	case SecretStatic:
		if c.Server.Secret.Value == "" {
			return fail("server.secret.value is required for a static secret")
		}
	case "", SecretEnv:
	case SecretEtcd:
		if len(c.Server.Secret.Etcd.Endpoints) == 0 {
			return fail("server.secret.etcd.endpoints is required for the etcd secret")
		}
	default:
		return fail("unknown secret type %q", c.Server.Secret.Type)
	}
	return nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Logger builds a slog.Logger writing to w. Format is "json" or "text"
// (default); level is debug, info (default), warn or error.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
