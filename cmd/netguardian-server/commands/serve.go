package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	netguardian "github.com/zero-day-ai/netguardian"
	"github.com/zero-day-ai/netguardian/config"
	"github.com/zero-day-ai/netguardian/score"
	"github.com/zero-day-ai/netguardian/secret"
	"github.com/zero-day-ai/netguardian/serve"
	"github.com/zero-day-ai/netguardian/store"
)

var (
	flagListen     string
	flagGRPCListen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scoring API and gRPC health service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides server.listen)")
	serveCmd.Flags().StringVar(&flagGRPCListen, "grpc-listen", "", "gRPC listen address (overrides server.grpc_listen)")
	rootCmd.AddCommand(serveCmd)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Type {
	case "", config.StoreMemory:
		return store.NewMemory(), nil
	case config.StoreRedis:
		return store.NewRedis(store.RedisOptions{URL: cfg.RedisURL, KeyPrefix: cfg.KeyPrefix})
	case config.StoreSQLite:
		return store.OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

// openSecret returns the provider and, for etcd, the connection to close.
func openSecret(ctx context.Context, cfg config.SecretConfig) (secret.Provider, io.Closer, error) {
	switch cfg.Type {
	case config.SecretStatic:
		return secret.Static(cfg.Value), nil, nil
	case "", config.SecretEnv:
		name := cfg.Env
		if name == "" {
			name = config.EnvHMACSecret
		}
		return secret.Env(name), nil, nil
	case config.SecretEtcd:
		etcdCfg := secret.EtcdConfig{
			Endpoints:   cfg.Etcd.Endpoints,
			Key:         cfg.Etcd.Key,
			DialTimeout: cfg.Etcd.GetDialTimeout(),
		}
		if cfg.Etcd.CertFile != "" {
			etcdCfg.TLS = &secret.TLSConfig{
				Enabled:  true,
				CertFile: cfg.Etcd.CertFile,
				KeyFile:  cfg.Etcd.KeyFile,
				CAFile:   cfg.Etcd.CAFile,
			}
		}
		cli, err := secret.DialEtcd(ctx, etcdCfg)
		if err != nil {
			return nil, nil, err
		}
		return secret.NewCached(cli, cfg.GetCacheTTL()), cli, nil
	default:
		return nil, nil, fmt.Errorf("unknown secret type %q", cfg.Type)
	}
}

func loadEngine(path string) (*score.Engine, error) {
	if path == "" {
		return score.Default(), nil
	}
	rules, err := score.LoadRules(path)
	if err != nil {
		return nil, err
	}
	return score.New(rules)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagListen != "" {
		cfg.Server.Listen = flagListen
	}
	if flagGRPCListen != "" {
		cfg.Server.GRPCListen = flagGRPCListen
	}

	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx := cmd.Context()

	engine, err := loadEngine(cfg.Server.RulesFile)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg.Server.Store)
	if err != nil {
		return err
	}

	provider, closer, err := openSecret(ctx, cfg.Server.Secret)
	if err != nil {
		netguardian.CloseWithLog(st, logger, "scan store")
		return err
	}
	if closer != nil {
		defer netguardian.CloseWithLog(closer, logger, "etcd client")
	}

	opts := []serve.Option{
		serve.WithStore(st),
		serve.WithSecret(provider),
		serve.WithEngine(engine),
		serve.WithLogger(logger),
	}
	if cfg.Server.GRPCCertFile != "" {
		opts = append(opts, serve.WithTLS(cfg.Server.GRPCCertFile, cfg.Server.GRPCKeyFile))
	}

	srv, err := serve.New(serve.Config{
		Addr:            cfg.Server.Listen,
		GRPCAddr:        cfg.Server.GRPCListen,
		ShutdownTimeout: cfg.Server.GetShutdownTimeout(),
	}, opts...)
	if err != nil {
		netguardian.CloseWithLog(st, logger, "scan store")
		return err
	}

	logger.Info("starting scoring service",
		"store", cfg.Server.Store.Type,
		"secret", cfg.Server.Secret.Type,
		"rules", cfg.Server.RulesFile)
	return srv.Serve(ctx)
}
