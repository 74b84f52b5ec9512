package security

import "strings"

// SecurityType is the canonical Wi-Fi security classification every
// platform-native signal is normalized into.
type SecurityType string

const (
	Open          SecurityType = "OPEN"
	WEP           SecurityType = "WEP"
	WPAPersonal   SecurityType = "WPA_PERSONAL"
	WPAEnterprise SecurityType = "WPA_ENTERPRISE"
	Unknown       SecurityType = "UNKNOWN"
)

// All returns the five canonical security types in a stable order.
func All() []SecurityType {
	return []SecurityType{Open, WEP, WPAPersonal, WPAEnterprise, Unknown}
}

// String implements fmt.Stringer.
func (s SecurityType) String() string {
	return string(s)
}

// Valid reports whether s is one of the canonical values.
func (s SecurityType) Valid() bool {
	switch s {
	case Open, WEP, WPAPersonal, WPAEnterprise, Unknown:
		return true
	}
	return false
}

// ParseSecurityType maps a canonical name (case-insensitive) to its
// SecurityType. Any other input yields Unknown.
func ParseSecurityType(s string) SecurityType {
	st := SecurityType(strings.ToUpper(strings.TrimSpace(s)))
	if st.Valid() {
		return st
	}
	return Unknown
}

// Platform identifies the operating system that produced a native reading.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// ParsePlatform returns the platform named by s, or false if it is not supported.
func ParsePlatform(s string) (Platform, bool) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformAndroid, PlatformIOS:
		return p, true
	}
	return "", false
}
