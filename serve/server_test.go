package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/netguardian/client"
	"github.com/zero-day-ai/netguardian/fingerprint"
	"github.com/zero-day-ai/netguardian/observe"
	"github.com/zero-day-ai/netguardian/report"
	"github.com/zero-day-ai/netguardian/scan"
	"github.com/zero-day-ai/netguardian/secret"
	"github.com/zero-day-ai/netguardian/security"
	"github.com/zero-day-ai/netguardian/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

var testSecret = secret.Static("test-secret")

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := New(Config{Addr: "127.0.0.1:0"}, append([]Option{WithSecret(testSecret)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Post(url+"/v1/scans", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

const openScan = `{
	"device_id": "device-0001",
	"network": {"ssid": "CafeNet", "bssid": "AA:BB:CC:00:11:22", "country": "ca", "security": "OPEN"},
	"checks": {"client_isolation": false, "arp_anomaly": null, "dns_anomaly": null, "tls_intercept": null, "captive_portal": true},
	"client": {"platform": "android", "app_version": "1.0.0"}
}`

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		_, ts := newTestServer(t)

		resp, err := http.Get(ts.URL + "/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("secret missing", func(t *testing.T) {
		_, ts := newTestServer(t, WithSecret(secret.Env("NETGUARDIAN_TEST_UNSET_SECRET")))

		resp, err := http.Get(ts.URL + "/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var status map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		assert.Equal(t, "unhealthy", status["status"])
	})
}

func TestPostScan(t *testing.T) {
	st := store.NewMemory()
	_, ts := newTestServer(t, WithStore(st))

	resp, body := postJSON(t, ts.URL, openScan)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got ScanResponse
	require.NoError(t, json.Unmarshal(body, &got))

	wantFP, err := fingerprint.Compute([]byte("test-secret"), fingerprint.Network{
		SSID: "CafeNet", BSSID: "AA:BB:CC:00:11:22", Country: "CA",
	})
	require.NoError(t, err)

	assert.Equal(t, wantFP, got.Fingerprint)
	assert.Equal(t, 40, got.Score)
	assert.Equal(t, "HIGH", string(got.RiskLabel))
	require.Len(t, got.TopReasons, 3)
	assert.Equal(t, "OPEN_WIFI", got.TopReasons[0].Code)
	assert.Equal(t, -40, got.TopReasons[0].Impact)
	assert.Equal(t, "NO_CLIENT_ISOLATION", got.TopReasons[1].Code)
	assert.Equal(t, "CAPTIVE_PORTAL_ON_OPEN_WIFI", got.TopReasons[2].Code)
	assert.Len(t, got.Advice, 3)
	assert.Equal(t, Reputation{}, got.Reputation, "reputation reflects sightings before this scan")

	_, body = postJSON(t, ts.URL, openScan)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, int64(1), got.Reputation.SeenCount)
	assert.Equal(t, 1.0, got.Reputation.HighRiskRate)

	rep, err := st.Reputation(context.Background(), wantFP)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rep.Seen)
}

func TestPostScanValidation(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		loc  string
	}{
		{name: "not json", body: `{`},
		{name: "short device id", body: `{"device_id":"abc","network":{"ssid":"x"},"checks":{}}`, loc: "device_id"},
		{name: "empty ssid", body: `{"device_id":"device-0001","network":{"ssid":""},"checks":{}}`, loc: "network.ssid"},
		{name: "missing checks", body: `{"device_id":"device-0001","network":{"ssid":"x"}}`},
		{name: "wrong check type", body: `{"device_id":"device-0001","network":{"ssid":"x"},"checks":{"dns_anomaly":"yes"}}`, loc: "checks.dns_anomaly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, ts.URL, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			var got struct {
				Detail []ValidationDetail `json:"detail"`
			}
			require.NoError(t, json.Unmarshal(body, &got))
			require.Len(t, got.Detail, 1)
			if tt.loc != "" {
				assert.Equal(t, tt.loc, got.Detail[0].Loc)
			}
		})
	}
}

func TestPostScanAcceptsNonCanonicalSecurity(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := postJSON(t, ts.URL,
		`{"device_id":"device-0001","network":{"ssid":"x","security":"wpa3-sae"},"checks":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var got ScanResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 100, got.Score)
	assert.Empty(t, got.TopReasons)
	assert.NotNil(t, got.TopReasons)
}

func TestPostScanFingerprintError(t *testing.T) {
	failing := secret.Func(func(context.Context) ([]byte, error) {
		return nil, errors.New("secrets backend down")
	})
	_, ts := newTestServer(t, WithSecret(failing))

	resp, body := postJSON(t, ts.URL, openScan)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Contains(t, got.Detail, "fingerprint_error: ")
	assert.Contains(t, got.Detail, "secrets backend down")
}

func TestPostScanStoreError(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Close())
	_, ts := newTestServer(t, WithStore(st))

	resp, _ := postJSON(t, ts.URL, openScan)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDeviceScans(t *testing.T) {
	_, ts := newTestServer(t)

	postJSON(t, ts.URL, openScan)
	postJSON(t, ts.URL, openScan)

	resp, err := http.Get(ts.URL + "/v1/devices/device-0001/scans?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		DeviceID string         `json:"device_id"`
		Scans    []store.Record `json:"scans"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "device-0001", got.DeviceID)
	require.Len(t, got.Scans, 1)
	assert.Equal(t, "CafeNet", got.Scans[0].Network.SSID)

	bad, err := http.Get(ts.URL + "/v1/devices/short/scans")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, bad.StatusCode)

	bad, err = http.Get(ts.URL + "/v1/devices/device-0001/scans?limit=zero")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, bad.StatusCode)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(Config{Addr: "127.0.0.1:0"})
	assert.Error(t, err)
}

// The scan client and the scoring service agree on the wire format.
func TestClientEndToEnd(t *testing.T) {
	srv, err := New(Config{Addr: "127.0.0.1:0"}, WithSecret(testSecret))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })

	ts := httptest.NewTLSServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL, client.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	obs := observe.NewObservation(security.PlatformIOS, security.WEP, "Library", "aa:bb:cc:dd:ee:ff")
	scanner := scan.New(c, "device-e2e-0001",
		scan.WithObserver(staticObserver(obs)),
		scan.WithChecks(func(context.Context, observe.Observation) report.AnomalyChecks {
			return report.AnomalyChecks{TLSIntercept: report.Bool(true)}
		}),
		scan.WithCountry("us"),
	)

	out := scanner.Run(context.Background())
	require.NoError(t, out.Err)
	require.NotNil(t, out.Score)

	assert.True(t, out.Health.OK)
	assert.Equal(t, 25.0, out.Score.Score)
	assert.Equal(t, "HIGH", out.Score.RiskLabel)
	require.Len(t, out.Score.TopReasons, 2)
	assert.Equal(t, "WEP_WIFI", out.Score.TopReasons[0].Code)
	impact, ok := out.Score.TopReasons[0].Impact()
	assert.True(t, ok)
	assert.Equal(t, -40.0, impact)
	assert.NotEmpty(t, out.Score.Fingerprint)
	require.NotNil(t, out.Score.Reputation)
	assert.Equal(t, 0, out.Score.Reputation.SeenCount)
	assert.Contains(t, out.Summary(), "HIGH RISK")
}

type staticObserver observe.Observation

func (s staticObserver) Observe(context.Context) observe.Observation { return observe.Observation(s) }

func TestServeLifecycle(t *testing.T) {
	srv, err := New(Config{
		Addr:          "127.0.0.1:0",
		GRPCAddr:      "127.0.0.1:0",
		ReadyInterval: 20 * time.Millisecond,
	}, WithSecret(testSecret))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	conn, err := grpc.NewClient(srv.GRPCAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	hc := grpc_health_v1.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		resp, err := hc.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
