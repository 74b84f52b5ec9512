package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	netguardian "github.com/zero-day-ai/netguardian"
)

func TestCompute(t *testing.T) {
	secret := []byte("s3cret")

	got, err := Compute(secret, Network{SSID: "Cafe", BSSID: "AA:BB:CC:DD:EE:FF", Country: "ca"})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("cafe|aa:bb:cc:dd:ee:ff|CA"))
	want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, got)
	assert.Len(t, got, 43)
	assert.False(t, strings.ContainsAny(got, "+/="))
}

func TestComputeCanonicalizes(t *testing.T) {
	secret := []byte("k")

	a, err := Compute(secret, Network{SSID: " Home ", BSSID: "aa:bb", Country: "us"})
	require.NoError(t, err)
	b, err := Compute(secret, Network{SSID: "home", BSSID: "AA:BB ", Country: " US"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Compute(secret, Network{SSID: "home", BSSID: "aa:bb", Country: "CA"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := Compute([]byte("other"), Network{SSID: "home", BSSID: "aa:bb", Country: "US"})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestComputeFieldBoundaries(t *testing.T) {
	secret := []byte("k")

	a, err := Compute(secret, Network{SSID: "ab", BSSID: "c"})
	require.NoError(t, err)
	b, err := Compute(secret, Network{SSID: "a", BSSID: "bc"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestComputeEmptySecret(t *testing.T) {
	_, err := Compute(nil, Network{SSID: "x"})
	assert.ErrorIs(t, err, ErrEmptySecret)
	assert.Equal(t, netguardian.KindConfiguration, netguardian.KindOf(err))
}
