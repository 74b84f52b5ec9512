package score

import (
	"fmt"
	"os"

	netguardian "github.com/zero-day-ai/netguardian"
	"gopkg.in/yaml.v3"
)

// Rule adds Impact to the score when When evaluates to true.
type Rule struct {
	Code   string `yaml:"code" json:"code"`
	Impact int    `yaml:"impact" json:"impact"`
	When   string `yaml:"when" json:"when"`
}

// DefaultRules reproduces the service's built-in scoring.
func DefaultRules() []Rule {
	return []Rule{
		{Code: "OPEN_WIFI", Impact: -40, When: `security == "OPEN"`},
		{Code: "WEP_WIFI", Impact: -40, When: `security == "WEP"`},
		{Code: "NO_CLIENT_ISOLATION", Impact: -15, When: `"client_isolation" in checks && !checks.client_isolation`},
		{Code: "ARP_SPOOF_SIGNALS", Impact: -25, When: `"arp_anomaly" in checks && checks.arp_anomaly`},
		{Code: "DNS_ANOMALY", Impact: -20, When: `"dns_anomaly" in checks && checks.dns_anomaly`},
		{Code: "TLS_INTERCEPT", Impact: -35, When: `"tls_intercept" in checks && checks.tls_intercept`},
		{Code: "CAPTIVE_PORTAL_ON_OPEN_WIFI", Impact: -5, When: `security == "OPEN" && "captive_portal" in checks && checks.captive_portal`},
		{Code: "BAD_REPUTATION", Impact: -10, When: `reputation.seen >= 30 && reputation.high_rate >= 0.30`},
	}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules decodes a YAML rules document.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, netguardian.NewConfigurationError("score.ParseRules", fmt.Errorf("failed to parse rules: %w", err))
	}
	if len(f.Rules) == 0 {
		return nil, netguardian.NewConfigurationError("score.ParseRules",
			fmt.Errorf("%w: no rules defined", netguardian.ErrInvalidConfig))
	}
	for i, r := range f.Rules {
		if r.Code == "" || r.When == "" {
			return nil, netguardian.NewConfigurationError("score.ParseRules",
				fmt.Errorf("%w: rule %d needs code and when", netguardian.ErrInvalidConfig, i))
		}
	}
	return f.Rules, nil
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, netguardian.NewConfigurationError("score.LoadRules", fmt.Errorf("failed to read rules file: %w", err))
	}
	return ParseRules(data)
}
