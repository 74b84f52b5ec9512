package schema

import "github.com/zero-day-ai/netguardian/security"

// Field limits enforced by the scoring service.
const (
	DeviceIDMinLength = 8
	DeviceIDMaxLength = 128
	SSIDMaxLength     = 64
	BSSIDMaxLength    = 32
	CountryMaxLength  = 8
	SecurityMaxLength = 32
)

// ScanRequest is the shape the scoring service accepts on POST /v1/scans.
// network.security may be any short string or null.
func ScanRequest() JSON {
	nullableBool := Bool().OrNull()

	return Object(map[string]JSON{
		"device_id": StringLen(DeviceIDMinLength, DeviceIDMaxLength),
		"network": Object(map[string]JSON{
			"ssid":     StringLen(1, SSIDMaxLength),
			"bssid":    StringLen(-1, BSSIDMaxLength).OrNull(),
			"country":  StringLen(-1, CountryMaxLength).OrNull(),
			"security": StringLen(-1, SecurityMaxLength).OrNull(),
		}, "ssid"),
		"checks": Object(map[string]JSON{
			"client_isolation": nullableBool,
			"arp_anomaly":      nullableBool,
			"dns_anomaly":      nullableBool,
			"tls_intercept":    nullableBool,
			"captive_portal":   nullableBool,
		}),
		"client": Object(map[string]JSON{
			"platform":    String().OrNull(),
			"app_version": String().OrNull(),
		}).OrNull(),
	}, "device_id", "network", "checks")
}

// ScanPayload is ScanRequest tightened to what this client sends:
// network.security must be a canonical security type or null.
func ScanPayload() JSON {
	s := ScanRequest()

	canonical := make([]any, 0, len(security.All()))
	for _, st := range security.All() {
		canonical = append(canonical, string(st))
	}

	network := s.Properties["network"]
	props := make(map[string]JSON, len(network.Properties))
	for k, v := range network.Properties {
		props[k] = v
	}
	props["security"] = Enum(canonical...).OrNull()
	network.Properties = props

	s.Properties = copyProps(s.Properties)
	s.Properties["network"] = network
	return s
}

// ScoreResult is the minimum a 2xx answer to POST /v1/scans must carry.
// Additional fields are allowed and top_reasons may be empty.
func ScoreResult() JSON {
	return Object(map[string]JSON{
		"score":       Number(),
		"risk_label":  String(),
		"top_reasons": Array(Object(map[string]JSON{"code": String()}, "code")),
	}, "score", "risk_label", "top_reasons")
}

func copyProps(in map[string]JSON) map[string]JSON {
	out := make(map[string]JSON, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
