package observe

import (
	"strings"

	"github.com/zero-day-ai/netguardian/security"
)

// Observation is the normalized result of one acquisition attempt. It is a
// value: build it with NewObservation and do not mutate it afterwards.
type Observation struct {
	Platform     security.Platform     `json:"platform"`
	SecurityType security.SecurityType `json:"securityType"`
	SSID         *string               `json:"ssid,omitempty"`
	BSSID        *string               `json:"bssid,omitempty"`
}

// Values Android reports in place of the real SSID/BSSID when the app lacks
// location permission.
const (
	androidRedactedSSID  = "<unknown ssid>"
	androidRedactedBSSID = "02:00:00:00:00:00"
)

// NewObservation builds an Observation. Empty or platform-redacted SSID and
// BSSID values are recorded as absent, and Android's surrounding quotes are
// stripped from the SSID.
func NewObservation(platform security.Platform, st security.SecurityType, ssid, bssid string) Observation {
	if !st.Valid() {
		st = security.Unknown
	}
	return Observation{
		Platform:     platform,
		SecurityType: st,
		SSID:         cleanSSID(ssid),
		BSSID:        cleanBSSID(bssid),
	}
}

// Unknown is the observation used when nothing could be acquired.
func Unknown(platform security.Platform) Observation {
	return Observation{Platform: platform, SecurityType: security.Unknown}
}

// SSIDOr returns the SSID or fallback when the platform withheld it.
func (o Observation) SSIDOr(fallback string) string {
	if o.SSID == nil {
		return fallback
	}
	return *o.SSID
}

// BSSIDOr returns the BSSID or fallback when the platform withheld it.
func (o Observation) BSSIDOr(fallback string) string {
	if o.BSSID == nil {
		return fallback
	}
	return *o.BSSID
}

// Risk classifies the observation's security type.
func (o Observation) Risk() security.RiskLabel {
	return security.RiskLabelOf(o.SecurityType)
}

func cleanSSID(ssid string) *string {
	ssid = strings.TrimSpace(ssid)
	if len(ssid) >= 2 && strings.HasPrefix(ssid, `"`) && strings.HasSuffix(ssid, `"`) {
		ssid = ssid[1 : len(ssid)-1]
	}
	if ssid == "" || ssid == androidRedactedSSID {
		return nil
	}
	return &ssid
}

func cleanBSSID(bssid string) *string {
	bssid = strings.ToLower(strings.TrimSpace(bssid))
	if bssid == "" || bssid == androidRedactedBSSID {
		return nil
	}
	return &bssid
}
