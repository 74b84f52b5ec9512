// Package fingerprint derives the stable, non-reversible network identifier
// the scoring service keys reputation on.
package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	netguardian "github.com/zero-day-ai/netguardian"
)

// ErrEmptySecret is returned when the HMAC key is empty.
var ErrEmptySecret = errors.New("fingerprint secret is empty")

// Network is the identifying part of a scanned network.
type Network struct {
	SSID    string
	BSSID   string
	Country string
}

// Compute returns base64url(HMAC-SHA256(secret, ssid|bssid|country)) without
// padding. SSID and BSSID are trimmed and lowercased, country trimmed and
// uppercased, so cosmetic differences between platforms map to the same
// fingerprint.
func Compute(secret []byte, n Network) (string, error) {
	if len(secret) == 0 {
		return "", netguardian.NewConfigurationError("fingerprint.Compute", ErrEmptySecret)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(canonical(n)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func canonical(n Network) string {
	return strings.ToLower(strings.TrimSpace(n.SSID)) + "|" +
		strings.ToLower(strings.TrimSpace(n.BSSID)) + "|" +
		strings.ToUpper(strings.TrimSpace(n.Country))
}
