package observe

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/netguardian/security"
)

type sourceFunc func(ctx context.Context) (*NativeReading, error)

func (f sourceFunc) Read(ctx context.Context) (*NativeReading, error) { return f(ctx) }

func TestNewObservation(t *testing.T) {
	tests := []struct {
		name      string
		ssid      string
		bssid     string
		wantSSID  *string
		wantBSSID *string
	}{
		{name: "plain", ssid: "HomeNet", bssid: "AA:BB:CC:DD:EE:FF", wantSSID: ptr("HomeNet"), wantBSSID: ptr("aa:bb:cc:dd:ee:ff")},
		{name: "android quoted", ssid: `"HomeNet"`, wantSSID: ptr("HomeNet")},
		{name: "android redacted", ssid: "<unknown ssid>", bssid: "02:00:00:00:00:00"},
		{name: "empty", ssid: "", bssid: " "},
		{name: "lone quote kept", ssid: `"`, wantSSID: ptr(`"`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := NewObservation(security.PlatformAndroid, security.WPAPersonal, tt.ssid, tt.bssid)
			assert.Equal(t, tt.wantSSID, obs.SSID)
			assert.Equal(t, tt.wantBSSID, obs.BSSID)
		})
	}

	obs := NewObservation(security.PlatformIOS, security.SecurityType("WPA2"), "", "")
	assert.Equal(t, security.Unknown, obs.SecurityType)
	assert.Equal(t, "N/A", obs.SSIDOr("N/A"))
	assert.Equal(t, security.RiskUnknown, obs.Risk())
}

func TestNull(t *testing.T) {
	obs := Null{Platform: security.PlatformIOS}.Observe(context.Background())
	assert.Equal(t, Unknown(security.PlatformIOS), obs)
	assert.Nil(t, obs.SSID)
	assert.Nil(t, obs.BSSID)
}

func TestSelect(t *testing.T) {
	assert.IsType(t, Null{}, Select(nil, security.PlatformAndroid))

	src := sourceFunc(func(context.Context) (*NativeReading, error) { return nil, nil })
	assert.IsType(t, &Platform{}, Select(src, security.PlatformAndroid))
}

func TestPlatformObserve(t *testing.T) {
	tests := []struct {
		name     string
		platform security.Platform
		source   sourceFunc
		want     Observation
	}{
		{
			name:     "android psk",
			platform: security.PlatformAndroid,
			source: func(context.Context) (*NativeReading, error) {
				return &NativeReading{Code: security.AndroidSecurityPSK, SSID: `"HomeNet"`}, nil
			},
			want: Observation{Platform: security.PlatformAndroid, SecurityType: security.WPAPersonal, SSID: ptr("HomeNet")},
		},
		{
			name:     "ios enterprise",
			platform: security.PlatformIOS,
			source: func(context.Context) (*NativeReading, error) {
				return &NativeReading{Code: "enterprise", SSID: "Corp", BSSID: "00:11:22:33:44:55"}, nil
			},
			want: Observation{Platform: security.PlatformIOS, SecurityType: security.WPAEnterprise, SSID: ptr("Corp"), BSSID: ptr("00:11:22:33:44:55")},
		},
		{
			name:     "no active wifi",
			platform: security.PlatformAndroid,
			source:   func(context.Context) (*NativeReading, error) { return nil, nil },
			want:     Unknown(security.PlatformAndroid),
		},
		{
			name:     "source error",
			platform: security.PlatformAndroid,
			source: func(context.Context) (*NativeReading, error) {
				return nil, errors.New("connectivity service unavailable")
			},
			want: Unknown(security.PlatformAndroid),
		},
		{
			name:     "source panic",
			platform: security.PlatformIOS,
			source:   func(context.Context) (*NativeReading, error) { panic("fetchCurrent crashed") },
			want:     Unknown(security.PlatformIOS),
		},
		{
			name:     "unmapped code keeps ssid",
			platform: security.PlatformAndroid,
			source: func(context.Context) (*NativeReading, error) {
				return &NativeReading{Code: security.AndroidSecurityOWE, SSID: "Airport"}, nil
			},
			want: Observation{Platform: security.PlatformAndroid, SecurityType: security.Unknown, SSID: ptr("Airport")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := NewPlatform(tt.source, tt.platform).Observe(context.Background())
			assert.Equal(t, tt.want, obs)
		})
	}
}

func TestPlatformObserveDoesNotHang(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	src := sourceFunc(func(context.Context) (*NativeReading, error) {
		<-block
		return &NativeReading{Code: 0}, nil
	})

	start := time.Now()
	obs := NewPlatform(src, security.PlatformAndroid, WithReadTimeout(20*time.Millisecond)).
		Observe(context.Background())

	assert.Equal(t, security.Unknown, obs.SecurityType)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	connected := filepath.Join(dir, "android.yaml")
	require.NoError(t, os.WriteFile(connected, []byte("connected: true\ncode: 4\nssid: '\"Cafe\"'\nbssid: AA:AA:AA:AA:AA:AA\n"), 0o600))

	reading, err := FileSource{Path: connected}.Read(context.Background())
	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.Equal(t, 4, reading.Code)
	assert.Equal(t, `"Cafe"`, reading.SSID)

	obs := NewPlatform(FileSource{Path: connected}, security.PlatformAndroid).Observe(context.Background())
	assert.Equal(t, security.WPAPersonal, obs.SecurityType)
	assert.Equal(t, "Cafe", obs.SSIDOr(""))

	iosJSON := filepath.Join(dir, "ios.json")
	require.NoError(t, os.WriteFile(iosJSON, []byte(`{"connected": true, "code": "open", "ssid": "Lobby"}`), 0o600))
	obs = NewPlatform(FileSource{Path: iosJSON}, security.PlatformIOS).Observe(context.Background())
	assert.Equal(t, security.Open, obs.SecurityType)

	offline := filepath.Join(dir, "offline.yaml")
	require.NoError(t, os.WriteFile(offline, []byte("connected: false\n"), 0o600))
	reading, err = FileSource{Path: offline}.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, reading)

	_, err = FileSource{Path: filepath.Join(dir, "missing.yaml")}.Read(context.Background())
	assert.Error(t, err)
}

func TestCommandSource(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ctx := context.Background()

	src := CommandSource{Command: "sh", Args: []string{"-c", "printf 'connected: true\ncode: wpa3\nssid: Home\n'"}}
	obs := NewPlatform(src, security.PlatformIOS).Observe(ctx)
	assert.Equal(t, security.WPAPersonal, obs.SecurityType)
	assert.Equal(t, "Home", obs.SSIDOr(""))

	reading, err := CommandSource{Command: "sh", Args: []string{"-c", "echo 'connected: false'"}}.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, reading)

	_, err = CommandSource{Command: "sh", Args: []string{"-c", "echo denied >&2; exit 3"}}.Read(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 3: denied")

	_, err = CommandSource{Command: "sh", Args: []string{"-c", "exec sleep 5"}, Timeout: 50 * time.Millisecond}.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = CommandSource{}.Read(ctx)
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	src, err := ParseCommand("  adb-wifi --serial  emulator-5554 ")
	require.NoError(t, err)
	assert.Equal(t, "adb-wifi", src.Command)
	assert.Equal(t, []string{"--serial", "emulator-5554"}, src.Args)

	_, err = ParseCommand("   ")
	assert.Error(t, err)
}

func TestGates(t *testing.T) {
	ctx := context.Background()
	assert.True(t, AlwaysGranted{}.Ensure(ctx))
	assert.False(t, StaticGate(false).Ensure(ctx))
	assert.True(t, GateFunc(func(context.Context) bool { return true }).Ensure(ctx))
}

func ptr(s string) *string { return &s }
