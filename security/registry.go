package security

import (
	"strings"
	"sync"
)

// Android WifiInfo.SECURITY_TYPE_* constants.
const (
	AndroidSecurityUnknown              = -1
	AndroidSecurityOpen                 = 0
	AndroidSecurityWEP                  = 1
	AndroidSecurityPSK                  = 2
	AndroidSecurityEAP                  = 3
	AndroidSecuritySAE                  = 4
	AndroidSecurityEAPWPA3Enterprise192 = 5
	AndroidSecurityOWE                  = 6
	AndroidSecurityWAPIPSK              = 7
	AndroidSecurityWAPICert             = 8
	AndroidSecurityEAPWPA3Enterprise    = 9
	AndroidSecurityOSEN                 = 10
	AndroidSecurityPasspointR1R2        = 11
	AndroidSecurityPasspointR3          = 12
	AndroidSecurityDPP                  = 13
)

// registry holds the native code -> canonical type tables, keyed by platform.
// Keys are stored lowercase so lookups are case-insensitive.
var (
	registry = make(map[Platform]map[string]SecurityType)
	mu       sync.RWMutex
)

// Register adds native code aliases for a platform. Later registrations
// override earlier ones for the same key. Values that are not canonical are
// stored as Unknown.
//
//	security.Register(security.PlatformIOS, map[string]security.SecurityType{
//	    "wpa3Personal": security.WPAPersonal,
//	})
func Register(platform Platform, mappings map[string]SecurityType) {
	mu.Lock()
	defer mu.Unlock()

	table := registry[platform]
	if table == nil {
		table = make(map[string]SecurityType, len(mappings))
		registry[platform] = table
	}

	for code, st := range mappings {
		if !st.Valid() {
			st = Unknown
		}
		table[strings.ToLower(strings.TrimSpace(code))] = st
	}
}

func lookup(platform Platform, code string) SecurityType {
	mu.RLock()
	defer mu.RUnlock()

	if st, ok := registry[platform][strings.ToLower(strings.TrimSpace(code))]; ok {
		return st
	}
	return Unknown
}

func init() {
	Register(PlatformAndroid, map[string]SecurityType{
		"0": Open,
		"1": WEP,
		"2": WPAPersonal,
		"4": WPAPersonal,
		"3": WPAEnterprise,
		"9": WPAEnterprise,

		"SECURITY_TYPE_OPEN":                Open,
		"SECURITY_TYPE_WEP":                 WEP,
		"SECURITY_TYPE_PSK":                 WPAPersonal,
		"SECURITY_TYPE_SAE":                 WPAPersonal,
		"SECURITY_TYPE_EAP":                 WPAEnterprise,
		"SECURITY_TYPE_EAP_WPA3_ENTERPRISE": WPAEnterprise,
	})

	// Both the NEHotspotNetworkSecurityType cases and the per-protocol
	// names some SDKs expose.
	Register(PlatformIOS, map[string]SecurityType{
		"open":           Open,
		"wep":            WEP,
		"personal":       WPAPersonal,
		"wpa":            WPAPersonal,
		"wpa2":           WPAPersonal,
		"wpa3":           WPAPersonal,
		"enterprise":     WPAEnterprise,
		"wpaEnterprise":  WPAEnterprise,
		"wpa2Enterprise": WPAEnterprise,
		"wpa3Enterprise": WPAEnterprise,
	})
}
