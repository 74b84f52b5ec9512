package report

import (
	"strings"

	"github.com/zero-day-ai/netguardian/observe"
	"github.com/zero-day-ai/netguardian/security"
)

// BuildOption adjusts fields the observation does not carry.
type BuildOption func(*buildConfig)

type buildConfig struct {
	country string
}

// WithCountry sets network.country (an ISO 3166 code such as "CA").
// Empty leaves it null.
func WithCountry(code string) BuildOption {
	return func(c *buildConfig) {
		c.country = strings.ToUpper(strings.TrimSpace(code))
	}
}

// Build assembles the scan report for one observation. It only slots values:
// the ssid falls back to UnknownSSID, bssid and country pass through as null
// when unknown, and security is always the canonical name, including
// "UNKNOWN". Build is deterministic and copies every pointer it is given, so
// the result shares no memory with its inputs.
func Build(obs observe.Observation, checks AnomalyChecks, deviceID string, meta *ClientMeta, opts ...BuildOption) ScanPayload {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	st := obs.SecurityType
	if !st.Valid() {
		st = security.Unknown
	}

	ssid := obs.SSIDOr(UnknownSSID)
	if ssid == "" {
		ssid = UnknownSSID
	}

	return ScanPayload{
		DeviceID: deviceID,
		Network: Network{
			SSID:     ssid,
			BSSID:    copyString(obs.BSSID),
			Country:  String(cfg.country),
			Security: String(string(st)),
		},
		Checks: AnomalyChecks{
			ClientIsolation: copyBool(checks.ClientIsolation),
			ARPAnomaly:      copyBool(checks.ARPAnomaly),
			DNSAnomaly:      copyBool(checks.DNSAnomaly),
			TLSIntercept:    copyBool(checks.TLSIntercept),
			CaptivePortal:   copyBool(checks.CaptivePortal),
		},
		Client: copyMeta(meta),
	}
}

func copyMeta(meta *ClientMeta) *ClientMeta {
	if meta == nil {
		return nil
	}
	return &ClientMeta{
		Platform:   copyString(meta.Platform),
		AppVersion: copyString(meta.AppVersion),
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
