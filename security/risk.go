package security

// RiskLabel is the coarse risk tier derived from a SecurityType.
type RiskLabel string

const (
	// HighRisk covers unauthenticated or broken encryption.
	HighRisk RiskLabel = "HIGH_RISK"

	// LowerRisk covers WPA-family networks. It is never an assertion of safety.
	LowerRisk RiskLabel = "LOWER_RISK"

	// RiskUnknown means there was not enough information to classify.
	RiskUnknown RiskLabel = "UNKNOWN"
)

// RiskLabelOf classifies a security type. OPEN and WEP are HighRisk, the WPA
// variants LowerRisk, and UNKNOWN (or any non-canonical value) RiskUnknown.
func RiskLabelOf(s SecurityType) RiskLabel {
	switch s {
	case Open, WEP:
		return HighRisk
	case WPAPersonal, WPAEnterprise:
		return LowerRisk
	default:
		return RiskUnknown
	}
}

// String implements fmt.Stringer.
func (r RiskLabel) String() string {
	return string(r)
}

// Display returns the label shown to users.
func (r RiskLabel) Display() string {
	switch r {
	case HighRisk:
		return "HIGH RISK"
	case LowerRisk:
		return "LOWER RISK"
	default:
		return "UNKNOWN"
	}
}

var descriptions = map[SecurityType]string{
	Open:          "Open (no password)",
	WEP:           "WEP (unsafe / obsolete)",
	WPAPersonal:   "WPA/WPA2/WPA3 Personal",
	WPAEnterprise: "WPA Enterprise",
	Unknown:       "Unknown",
}

// Describe returns a stable user-facing description of s.
func Describe(s SecurityType) string {
	if d, ok := descriptions[s]; ok {
		return d
	}
	return descriptions[Unknown]
}
