package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zero-day-ai/netguardian/client"
	"github.com/zero-day-ai/netguardian/config"
	"github.com/zero-day-ai/netguardian/observe"
	"github.com/zero-day-ai/netguardian/report"
	"github.com/zero-day-ai/netguardian/scan"
	"github.com/zero-day-ai/netguardian/security"
)

var (
	flagReading    string
	flagBridge     string
	flagPlatform   string
	flagAPIBase    string
	flagDeviceID   string
	flagAllowHTTP  bool
	flagSaveConfig bool
	flagChecks     []string
	flagDenied     bool
)

var errScanNotScored = errors.New("scan was not scored")

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the current network and submit it for scoring",
	Example: `  netguardian scan --reading reading.yaml --check captive_portal=true
  netguardian scan --platform ios --json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagReading, "reading", "", "YAML/JSON file holding the native Wi-Fi reading (default: no platform bridge)")
	scanCmd.Flags().StringVar(&flagBridge, "bridge", "", "Command printing the native Wi-Fi reading to stdout (alternative to --reading)")
	scanCmd.Flags().StringVar(&flagPlatform, "platform", "", "Platform of the reading (android, ios)")
	scanCmd.Flags().StringVar(&flagAPIBase, "api-base", "", "Scoring service base URL")
	scanCmd.Flags().StringVar(&flagDeviceID, "device-id", "", "Device identifier sent with the scan")
	scanCmd.Flags().BoolVar(&flagAllowHTTP, "allow-http", false, "Allow a plain http scoring service (development only)")
	scanCmd.Flags().BoolVar(&flagSaveConfig, "save", false, "Persist a generated device id to --config")
	scanCmd.Flags().StringSliceVar(&flagChecks, "check", nil, "Anomaly check result as name=bool (repeatable)")
	scanCmd.Flags().BoolVar(&flagDenied, "permission-denied", false, "Scan as if the location permission was refused")
	rootCmd.AddCommand(scanCmd)
}

// parseChecks turns name=bool pairs into AnomalyChecks. Unmentioned checks
// stay unmeasured.
func parseChecks(pairs []string) (report.AnomalyChecks, error) {
	var checks report.AnomalyChecks
	targets := map[string]**bool{
		"client_isolation": &checks.ClientIsolation,
		"arp_anomaly":      &checks.ARPAnomaly,
		"dns_anomaly":      &checks.DNSAnomaly,
		"tls_intercept":    &checks.TLSIntercept,
		"captive_portal":   &checks.CaptivePortal,
	}

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return checks, fmt.Errorf("check %q: want name=bool", pair)
		}
		target, known := targets[strings.TrimSpace(name)]
		if !known {
			return checks, fmt.Errorf("unknown check %q", name)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return checks, fmt.Errorf("check %q: %w", name, err)
		}
		*target = report.Bool(b)
	}
	return checks, nil
}

func scannerFor(cfg *config.Config, logger *slog.Logger) (*scan.Scanner, error) {
	platformName := flagPlatform
	if platformName == "" {
		platformName = cfg.Client.Platform
	}
	if platformName == "" {
		platformName = string(security.PlatformAndroid)
	}
	platform, ok := security.ParsePlatform(platformName)
	if !ok {
		return nil, fmt.Errorf("unknown platform %q (want android or ios)", platformName)
	}

	checks, err := parseChecks(flagChecks)
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithTimeout(cfg.Client.GetTimeout()),
		client.WithLogger(logger),
		client.WithUserAgent("netguardian-cli/" + Version),
	}
	if cfg.Client.AllowHTTP {
		opts = append(opts, client.WithAllowHTTP())
	}
	c, err := client.New(cfg.Client.APIBase, opts...)
	if err != nil {
		return nil, err
	}

	var source observe.NativeSource
	switch {
	case flagReading != "" && flagBridge != "":
		return nil, errors.New("--reading and --bridge are mutually exclusive")
	case flagReading != "":
		source = observe.FileSource{Path: flagReading}
	case flagBridge != "":
		cmdSource, err := observe.ParseCommand(flagBridge)
		if err != nil {
			return nil, err
		}
		source = cmdSource
	}

	return scan.New(c, cfg.Client.DeviceID,
		scan.WithObserver(observe.Select(source, platform, observe.WithLogger(logger))),
		scan.WithPermissionGate(observe.StaticGate(!flagDenied)),
		scan.WithChecks(func(context.Context, observe.Observation) report.AnomalyChecks { return checks }),
		scan.WithClientMeta(&report.ClientMeta{
			Platform:   report.String(string(platform)),
			AppVersion: report.String(appVersion(cfg)),
		}),
		scan.WithCountry(cfg.Client.Country),
		scan.WithRetry(cfg.Client.Retry.GetAttempts(), cfg.Client.Retry.GetBackoff()),
		scan.WithLogger(logger),
	), nil
}

func appVersion(cfg *config.Config) string {
	if cfg.Client.AppVersion != "" {
		return cfg.Client.AppVersion
	}
	return Version
}

type scanOutput struct {
	Risk             security.RiskLabel  `json:"risk"`
	Description      string              `json:"description"`
	Observation      observe.Observation `json:"observation"`
	PermissionDenied bool                `json:"permission_denied"`
	Payload          report.ScanPayload  `json:"payload"`
	Health           client.HealthResult `json:"health"`
	Attempts         int                 `json:"attempts"`
	Result           json.RawMessage     `json:"result,omitempty"`
	Status           string              `json:"status"`
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAPIBase != "" {
		cfg.Client.APIBase = flagAPIBase
	}
	if flagDeviceID != "" {
		cfg.Client.DeviceID = flagDeviceID
	}
	if flagAllowHTTP {
		cfg.Client.AllowHTTP = true
	}
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	logger := slog.Default()
	if cfg.EnsureDeviceID() {
		logger.Info("generated device id", "device_id", cfg.Client.DeviceID)
		if flagSaveConfig && flagConfig != "" {
			if err := cfg.Save(flagConfig); err != nil {
				return err
			}
		}
	}

	scanner, err := scannerFor(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := scanner.Run(ctx)
	w := cmd.OutOrStdout()

	if flagJSON {
		res := scanOutput{
			Risk:             out.Risk,
			Description:      out.Description,
			Observation:      out.Observation,
			PermissionDenied: out.PermissionDenied,
			Payload:          out.Payload,
			Health:           out.Health,
			Attempts:         out.Attempts,
			Status:           out.Status,
		}
		if out.Score != nil {
			res.Result = out.Score.Raw
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, out.Summary())
	}

	if out.Err != nil {
		return fmt.Errorf("%w: %v", errScanNotScored, out.Err)
	}
	return nil
}
