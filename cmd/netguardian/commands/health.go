package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/netguardian/client"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the scoring service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&flagAPIBase, "api-base", "", "Scoring service base URL")
	healthCmd.Flags().BoolVar(&flagAllowHTTP, "allow-http", false, "Allow a plain http scoring service (development only)")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAPIBase != "" {
		cfg.Client.APIBase = flagAPIBase
	}
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	opts := []client.Option{client.WithTimeout(cfg.Client.GetTimeout())}
	if cfg.Client.AllowHTTP || flagAllowHTTP {
		opts = append(opts, client.WithAllowHTTP())
	}
	c, err := client.New(cfg.Client.APIBase, opts...)
	if err != nil {
		return err
	}

	res := c.Health(cmd.Context())
	w := cmd.OutOrStdout()

	if flagJSON {
		if err := json.NewEncoder(w).Encode(res); err != nil {
			return err
		}
	} else if res.OK {
		fmt.Fprintf(w, "%s is healthy\n", c.BaseURL())
	} else {
		fmt.Fprintf(w, "%s is unhealthy: %s\n", c.BaseURL(), res.Detail)
	}

	if !res.OK {
		return fmt.Errorf("scoring service unhealthy")
	}
	return nil
}
