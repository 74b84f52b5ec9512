// Package security normalizes platform-native Wi-Fi security signals into a
// canonical SecurityType and classifies the result into a coarse risk label.
//
// Every function in this package is total: unrecognised, missing or faulty
// input classifies as Unknown rather than producing an error, because absence
// of information is itself a valid classification.
//
// # Normalization
//
// Android reports WifiInfo.SECURITY_TYPE_* integers, iOS reports hotspot
// security case names. Both are looked up in per-platform tables:
//
//	security.NormalizeAndroid(security.AndroidSecuritySAE) // WPA_PERSONAL
//	security.NormalizeIOS("enterprise")                    // WPA_ENTERPRISE
//	security.Normalize(security.PlatformIOS, nil)          // UNKNOWN
//
// Tables can be extended at start-up with Register.
//
// # Risk
//
//	OPEN, WEP                      -> HIGH_RISK
//	WPA_PERSONAL, WPA_ENTERPRISE   -> LOWER_RISK
//	UNKNOWN                        -> UNKNOWN
package security
