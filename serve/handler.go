package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	netguardian "github.com/zero-day-ai/netguardian"
	"github.com/zero-day-ai/netguardian/fingerprint"
	"github.com/zero-day-ai/netguardian/health"
	"github.com/zero-day-ai/netguardian/report"
	"github.com/zero-day-ai/netguardian/schema"
	"github.com/zero-day-ai/netguardian/score"
	"github.com/zero-day-ai/netguardian/secret"
	"github.com/zero-day-ai/netguardian/store"
	"github.com/zero-day-ai/netguardian/types"
)

const (
	maxRequestBody   = 64 << 10
	defaultScanLimit = 50
	maxScanLimit     = 500
)

// ScanResponse is the body of a successful POST /v1/scans.
type ScanResponse struct {
	Fingerprint string         `json:"fingerprint"`
	Score       int            `json:"score"`
	RiskLabel   score.Label    `json:"risk_label"`
	TopReasons  []score.Reason `json:"top_reasons"`
	Advice      []string       `json:"advice"`
	Reputation  Reputation     `json:"reputation"`
}

// Reputation is the network's history before the scan being answered.
type Reputation struct {
	SeenCount    int64   `json:"seen_count"`
	HighRiskRate float64 `json:"high_risk_rate"`
}

// ValidationDetail locates one schema violation in a 422 answer.
type ValidationDetail struct {
	Loc string `json:"loc"`
	Msg string `json:"msg"`
}

type handler struct {
	engine  *score.Engine
	store   store.Store
	secret  secret.Provider
	metrics *metrics
	logger  *slog.Logger
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.ready)
	mux.HandleFunc("POST /v1/scans", h.postScan)
	mux.HandleFunc("GET /v1/devices/{id}/scans", h.deviceScans)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) readiness(r *http.Request) types.HealthStatus {
	ctx := r.Context()
	return health.Combine(
		health.PingCheck(ctx, "store", h.store),
		health.FuncCheck(ctx, "secret", func(ctx context.Context) error {
			_, err := h.secret.Secret(ctx)
			return err
		}),
	)
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	status := h.readiness(r)
	code := http.StatusOK
	if !status.Usable() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *handler) postScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxRequestBody {
		h.metrics.recordRejected(ctx, "too_large")
		writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	if err := schema.ScanRequest().ValidateBytes(body); err != nil {
		h.metrics.recordRejected(ctx, "validation")
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			writeDetail(w, http.StatusUnprocessableEntity, []ValidationDetail{{Loc: verr.Path, Msg: verr.Reason}})
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, []ValidationDetail{{Msg: err.Error()}})
		return
	}

	var req report.ScanPayload
	if err := json.Unmarshal(body, &req); err != nil {
		h.metrics.recordRejected(ctx, "validation")
		writeDetail(w, http.StatusUnprocessableEntity, []ValidationDetail{{Msg: err.Error()}})
		return
	}

	key, err := h.secret.Secret(ctx)
	var fp string
	if err == nil {
		fp, err = fingerprint.Compute(key, fingerprint.Network{
			SSID:    req.Network.SSID,
			BSSID:   deref(req.Network.BSSID),
			Country: deref(req.Network.Country),
		})
	}
	if err != nil {
		h.metrics.recordRejected(ctx, "fingerprint")
		h.logger.Error("fingerprint failed",
			"device_id", req.DeviceID,
			"kind", netguardian.KindOf(err),
			"error", err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("fingerprint_error: %v", err))
		return
	}

	rep, err := h.store.Reputation(ctx, fp)
	if err != nil {
		h.logger.Error("reputation lookup failed", "fingerprint", fp, "error", err)
		writeDetail(w, http.StatusInternalServerError, "store_error")
		return
	}

	security := strings.ToUpper(deref(req.Network.Security))
	res, err := h.engine.Evaluate(score.Input{
		Security: security,
		Checks:   req.Checks.Measured(),
		Seen:     rep.Seen,
		HighRate: rep.HighRate(),
	})
	if err != nil {
		h.logger.Error("scoring failed", "fingerprint", fp, "error", err)
		writeDetail(w, http.StatusInternalServerError, "score_error")
		return
	}

	rec, err := h.store.RecordScan(ctx, store.Record{
		DeviceID:    req.DeviceID,
		Fingerprint: fp,
		Score:       res.Score,
		RiskLabel:   string(res.Label),
		Network:     req.Network,
		Checks:      req.Checks,
		Client:      req.Client,
	})
	if err != nil {
		h.logger.Error("recording scan failed", "fingerprint", fp, "error", err)
		writeDetail(w, http.StatusInternalServerError, "store_error")
		return
	}

	h.metrics.recordScore(ctx, res.Score, string(res.Label), security)
	h.logger.Info("scan scored",
		"scan_id", rec.ID,
		"device_id", req.DeviceID,
		"score", res.Score,
		"risk_label", res.Label,
		"seen", rep.Seen)

	writeJSON(w, http.StatusOK, ScanResponse{
		Fingerprint: fp,
		Score:       res.Score,
		RiskLabel:   res.Label,
		TopReasons:  res.Reasons,
		Advice:      res.Advice,
		Reputation: Reputation{
			SeenCount:    rep.Seen,
			HighRiskRate: math.Round(rep.HighRate()*1000) / 1000,
		},
	})
}

func (h *handler) deviceScans(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("id")
	if len(deviceID) < schema.DeviceIDMinLength || len(deviceID) > schema.DeviceIDMaxLength {
		writeDetail(w, http.StatusUnprocessableEntity, []ValidationDetail{{Loc: "id", Msg: "invalid device id"}})
		return
	}

	limit := defaultScanLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeDetail(w, http.StatusUnprocessableEntity, []ValidationDetail{{Loc: "limit", Msg: "must be a positive integer"}})
			return
		}
		limit = min(n, maxScanLimit)
	}

	scans, err := h.store.Scans(r.Context(), deviceID, limit)
	if err != nil {
		h.logger.Error("listing scans failed", "device_id", deviceID, "error", err)
		writeDetail(w, http.StatusInternalServerError, "store_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device_id": deviceID, "scans": scans})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
