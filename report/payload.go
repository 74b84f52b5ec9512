package report

import (
	"encoding/json"
	"fmt"

	netguardian "github.com/zero-day-ai/netguardian"
	"github.com/zero-day-ai/netguardian/schema"
)

// UnknownSSID is sent when the device could not read the network name; the
// scoring service requires a non-empty ssid.
const UnknownSSID = "UNKNOWN"

// Network is the network record of a scan report.
type Network struct {
	SSID     string  `json:"ssid"`
	BSSID    *string `json:"bssid"`
	Country  *string `json:"country"`
	Security *string `json:"security"`
}

// AnomalyChecks carries the results of the measurement layer. A nil flag
// means the check was not performed; it is sent as null.
type AnomalyChecks struct {
	ClientIsolation *bool `json:"client_isolation"`
	ARPAnomaly      *bool `json:"arp_anomaly"`
	DNSAnomaly      *bool `json:"dns_anomaly"`
	TLSIntercept    *bool `json:"tls_intercept"`
	CaptivePortal   *bool `json:"captive_portal"`
}

// ClientMeta identifies the reporting client.
type ClientMeta struct {
	Platform   *string `json:"platform,omitempty"`
	AppVersion *string `json:"app_version,omitempty"`
}

// ScanPayload is the body of POST /v1/scans.
type ScanPayload struct {
	DeviceID string        `json:"device_id"`
	Network  Network       `json:"network"`
	Checks   AnomalyChecks `json:"checks"`
	Client   *ClientMeta   `json:"client,omitempty"`
}

// Measured returns the checks that were actually performed, keyed by their
// wire names.
func (c AnomalyChecks) Measured() map[string]bool {
	out := make(map[string]bool, 5)
	set := func(name string, v *bool) {
		if v != nil {
			out[name] = *v
		}
	}
	set("client_isolation", c.ClientIsolation)
	set("arp_anomaly", c.ARPAnomaly)
	set("dns_anomaly", c.DNSAnomaly)
	set("tls_intercept", c.TLSIntercept)
	set("captive_portal", c.CaptivePortal)
	return out
}

// Validate checks the payload against the wire schema this client promises
// to send.
func (p ScanPayload) Validate() error {
	data, err := json.Marshal(p)
	if err != nil {
		return netguardian.NewValidationError("ScanPayload.Validate", err)
	}
	if err := schema.ScanPayload().ValidateBytes(data); err != nil {
		return netguardian.NewValidationError("ScanPayload.Validate",
			fmt.Errorf("%w: %v", netguardian.ErrInvalidPayload, err))
	}
	return nil
}

// Bool returns a pointer to v, for filling AnomalyChecks.
func Bool(v bool) *bool {
	return &v
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
