package score

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	netguardian "github.com/zero-day-ai/netguardian"
)

func TestEvaluateDefaultRules(t *testing.T) {
	engine := Default()

	tests := []struct {
		name    string
		in      Input
		score   int
		label   Label
		reasons []string
	}{
		{
			name:    "clean wpa",
			in:      Input{Security: "WPA_PERSONAL"},
			score:   100,
			label:   LabelLow,
			reasons: []string{},
		},
		{
			name:    "open",
			in:      Input{Security: "open"},
			score:   60,
			label:   LabelMedium,
			reasons: []string{"OPEN_WIFI"},
		},
		{
			name:    "wep",
			in:      Input{Security: "WEP"},
			score:   60,
			label:   LabelMedium,
			reasons: []string{"WEP_WIFI"},
		},
		{
			name:    "client isolation false counts, null does not",
			in:      Input{Security: "WPA_PERSONAL", Checks: map[string]bool{"client_isolation": false}},
			score:   85,
			label:   LabelLow,
			reasons: []string{"NO_CLIENT_ISOLATION"},
		},
		{
			name:    "client isolation true",
			in:      Input{Checks: map[string]bool{"client_isolation": true}},
			score:   100,
			label:   LabelLow,
			reasons: []string{},
		},
		{
			name:    "captive portal only on open",
			in:      Input{Security: "WPA_PERSONAL", Checks: map[string]bool{"captive_portal": true}},
			score:   100,
			label:   LabelLow,
			reasons: []string{},
		},
		{
			name: "everything, clamped and truncated",
			in: Input{
				Security: "OPEN",
				Checks: map[string]bool{
					"client_isolation": false,
					"arp_anomaly":      true,
					"dns_anomaly":      true,
					"tls_intercept":    true,
					"captive_portal":   true,
				},
				Seen:     40,
				HighRate: 0.5,
			},
			score:   0,
			label:   LabelHigh,
			reasons: []string{"OPEN_WIFI", "TLS_INTERCEPT", "ARP_SPOOF_SIGNALS"},
		},
		{
			name:    "bad reputation needs both thresholds",
			in:      Input{Security: "WPA_PERSONAL", Seen: 30, HighRate: 0.30},
			score:   90,
			label:   LabelLow,
			reasons: []string{"BAD_REPUTATION"},
		},
		{
			name:    "too few sightings",
			in:      Input{Security: "WPA_PERSONAL", Seen: 29, HighRate: 1},
			score:   100,
			label:   LabelLow,
			reasons: []string{},
		},
		{
			name:    "ordered by impact",
			in:      Input{Security: "OPEN", Checks: map[string]bool{"dns_anomaly": true, "client_isolation": false}},
			score:   25,
			label:   LabelHigh,
			reasons: []string{"OPEN_WIFI", "DNS_ANOMALY", "NO_CLIENT_ISOLATION"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Evaluate(tt.in)
			require.NoError(t, err)

			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.label, res.Label)

			codes := make([]string, 0, len(res.Reasons))
			for _, r := range res.Reasons {
				codes = append(codes, r.Code)
			}
			assert.Equal(t, tt.reasons, codes)
			assert.Equal(t, Advice(tt.label), res.Advice)
		})
	}
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, LabelLow, LabelFor(80))
	assert.Equal(t, LabelMedium, LabelFor(79))
	assert.Equal(t, LabelMedium, LabelFor(50))
	assert.Equal(t, LabelHigh, LabelFor(49))
	assert.Len(t, Advice(LabelHigh), 3)
}

func TestNewRejectsBadRules(t *testing.T) {
	_, err := New([]Rule{{Code: "SYNTAX", When: `security ==`}})
	require.Error(t, err)
	assert.Equal(t, netguardian.KindConfiguration, netguardian.KindOf(err))

	_, err = New([]Rule{{Code: "NOT_BOOL", When: `security`}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must return bool")

	_, err = New([]Rule{{Code: "UNKNOWN_VAR", When: `signal > 3`}})
	require.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - code: HIDDEN_SSID_OPEN
    impact: -60
    when: security == "OPEN"
`), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	engine, err := New(rules)
	require.NoError(t, err)

	res, err := engine.Evaluate(Input{Security: "OPEN"})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Score)
	assert.Equal(t, LabelHigh, res.Label)
}

func TestParseRulesValidation(t *testing.T) {
	_, err := ParseRules([]byte("rules: []"))
	assert.ErrorIs(t, err, netguardian.ErrInvalidConfig)

	_, err = ParseRules([]byte("rules:\n  - code: X\n"))
	assert.ErrorIs(t, err, netguardian.ErrInvalidConfig)

	_, err = ParseRules([]byte("rules: [unclosed"))
	assert.Error(t, err)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
