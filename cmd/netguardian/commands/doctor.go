package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/netguardian/client"
	"github.com/zero-day-ai/netguardian/config"
	"github.com/zero-day-ai/netguardian/health"
	"github.com/zero-day-ai/netguardian/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorChecks(ctx context.Context, cfg *config.Config) []types.HealthStatus {
	var checks []types.HealthStatus

	if err := cfg.ValidateClient(); err != nil {
		checks = append(checks, types.NewUnhealthyStatus("config", err.Error(), nil))
		return checks
	}
	checks = append(checks, types.NewHealthyStatus("config", "client configuration valid"))

	if strings.TrimSpace(cfg.Client.DeviceID) == "" {
		checks = append(checks, types.NewDegradedStatus("device_id",
			"no device id configured; one is generated per run (use scan --save)", nil))
	} else {
		checks = append(checks, types.NewHealthyStatus("device_id", cfg.Client.DeviceID))
	}

	if strings.HasPrefix(cfg.Client.APIBase, "http://") && !cfg.Client.AllowHTTP {
		checks = append(checks, types.NewUnhealthyStatus("api_base",
			"plain http requires client.allow_http", nil))
		return checks
	}

	if host, port, ok := hostPort(cfg.Client.APIBase); ok {
		tcp := health.NetworkCheck(ctx, host, port)
		tcp.Name = "tcp"
		checks = append(checks, tcp)
		if tcp.IsUnhealthy() {
			return checks
		}
	}

	hc := &http.Client{Timeout: cfg.Client.GetTimeout()}
	status := health.HTTPCheck(ctx, hc, strings.TrimRight(cfg.Client.APIBase, "/")+client.HealthPath)
	status.Name = "api"
	checks = append(checks, status)
	return checks
}

// hostPort extracts the dial target of an http(s) base URL.
func hostPort(base string) (string, int, bool) {
	u, err := url.Parse(base)
	if err != nil || u.Hostname() == "" {
		return "", 0, false
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		return u.Hostname(), port, err == nil
	}
	switch u.Scheme {
	case "https":
		return u.Hostname(), 443, true
	case "http":
		return u.Hostname(), 80, true
	}
	return "", 0, false
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	checks := doctorChecks(ctx, cfg)
	overall := health.Combine(checks...)
	w := cmd.OutOrStdout()

	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(overall); err != nil {
			return err
		}
	} else {
		for _, c := range checks {
			fmt.Fprintf(w, "[%-9s] %-10s %s\n", c.Status, c.Name, c.Message)
			if e, ok := c.Details["error"]; ok {
				fmt.Fprintf(w, "            %v\n", e)
			}
		}
		fmt.Fprintf(w, "\n%s\n", overall.Message)
	}

	if overall.IsUnhealthy() {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}
