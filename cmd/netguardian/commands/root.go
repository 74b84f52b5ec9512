package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/netguardian/config"
)

// Version is set at build time with -ldflags "-X ...commands.Version=v1.2.3".
var Version = "dev"

var (
	flagConfig   string
	flagLogLevel string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "netguardian",
	Short: "Assess the security of the Wi-Fi network you are on",
	Long: `NetGuardian classifies the current Wi-Fi network's encryption, reports it
to the NetGuardian scoring service and prints the resulting safety score.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to netguardian.yaml (default: search from the working directory)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print machine-readable JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the configuration and installs its logger as the default.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	} else if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	slog.SetDefault(cfg.Log.Logger(os.Stderr))
	return cfg, nil
}
