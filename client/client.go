package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	netguardian "github.com/zero-day-ai/netguardian"
	"github.com/zero-day-ai/netguardian/report"
	"github.com/zero-day-ai/netguardian/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Paths served by the scoring service.
const (
	HealthPath = "/health"
	ScansPath  = "/v1/scans"
)

const (
	tracerName      = "github.com/zero-day-ai/netguardian/client"
	maxResponseBody = 1 << 20
)

// Client talks to the scoring service. It performs no retries, caching or
// deduplication: every call is one independent round trip. A Client is safe
// for concurrent use.
type Client struct {
	base           *url.URL
	http           *http.Client
	timeout        time.Duration
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	userAgent      string
	allowHTTP      bool
}

// New creates a client for the service at baseURL, which must be an https
// origin unless WithAllowHTTP is given.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		logger:         slog.Default(),
		tracerProvider: noop.NewTracerProvider(),
		userAgent:      "netguardian-client",
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, netguardian.NewConfigurationError("client.New", fmt.Errorf("invalid base URL: %w", err))
	}
	switch {
	case u.Scheme == "https":
	case u.Scheme == "http" && c.allowHTTP:
	default:
		return nil, netguardian.NewConfigurationError("client.New",
			fmt.Errorf("%w: base URL %q must use https", netguardian.ErrInvalidConfig, baseURL))
	}
	if u.Host == "" {
		return nil, netguardian.NewConfigurationError("client.New",
			fmt.Errorf("%w: base URL %q has no host", netguardian.ErrInvalidConfig, baseURL))
	}
	c.base = u

	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}

	c.tracer = c.tracerProvider.Tracer(tracerName)
	return c, nil
}

// BaseURL returns the service origin the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Health probes the service's liveness endpoint. It never returns an error:
// a non-2xx answer is reported with the body as Detail and a transport
// failure with the error message as Detail.
func (c *Client) Health(ctx context.Context) HealthResult {
	const op = "client.Health"

	ctx, span := c.tracer.Start(ctx, "netguardian.client.health", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := c.newRequest(ctx, http.MethodGet, HealthPath, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return HealthResult{OK: false, Detail: err.Error()}
	}

	status, body, err := c.do(req, span)
	if err != nil {
		c.logger.Warn("health probe failed", "op", op, "error", err)
		return HealthResult{OK: false, Detail: err.Error()}
	}

	if !isSuccess(status) {
		span.SetStatus(codes.Error, http.StatusText(status))
		c.logger.Warn("health probe rejected", "op", op, "status", status)
		return HealthResult{OK: false, Detail: string(body)}
	}

	return HealthResult{OK: true}
}

// SubmitScan posts a scan report and returns the service's score unchanged.
//
// Errors are always one of *RemoteRejectedError (non-2xx),
// *MalformedResponseError (2xx that is not a valid ScoreResult) or
// *TransportError (no response). No partial ScoreResult is ever returned.
func (c *Client) SubmitScan(ctx context.Context, payload report.ScanPayload) (*ScoreResult, error) {
	const op = "client.SubmitScan"

	ctx, span := c.tracer.Start(ctx, "netguardian.client.submit_scan", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return nil, netguardian.NewValidationError(op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, ScansPath, data)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req, span)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if !isSuccess(status) {
		span.SetStatus(codes.Error, http.StatusText(status))
		c.logger.Warn("scan rejected", "op", op, "status", status)
		return nil, &RemoteRejectedError{Op: op, StatusCode: status, Body: string(body)}
	}

	result, err := decodeScore(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		c.logger.Warn("scan response malformed", "op", op, "error", err)
		return nil, &MalformedResponseError{Op: op, Body: string(body), Err: err}
	}

	span.SetAttributes(
		attribute.Float64("netguardian.score", result.Score),
		attribute.String("netguardian.risk_label", result.RiskLabel),
	)
	c.logger.Debug("scan scored", "op", op, "score", result.Score, "risk_label", result.RiskLabel)
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// do performs the round trip and reads the whole (bounded) body. A non-nil
// error means no usable HTTP response was obtained.
func (c *Client) do(req *http.Request, span trace.Span) (int, []byte, error) {
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", req.URL.String()),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return 0, nil, err
	}
	defer netguardian.CloseWithLog(resp.Body, c.logger, "HTTP response body")

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func decodeScore(body []byte) (*ScoreResult, error) {
	if err := schema.ScoreResult().ValidateBytes(body); err != nil {
		return nil, err
	}

	var core struct {
		Score      float64  `json:"score"`
		RiskLabel  string   `json:"risk_label"`
		TopReasons []Reason `json:"top_reasons"`
	}
	if err := json.Unmarshal(body, &core); err != nil {
		return nil, err
	}

	var opt optional
	_ = json.Unmarshal(body, &opt)

	raw := make(json.RawMessage, len(body))
	copy(raw, body)

	return &ScoreResult{
		Score:       core.Score,
		RiskLabel:   core.RiskLabel,
		TopReasons:  core.TopReasons,
		Fingerprint: opt.Fingerprint,
		Advice:      opt.Advice,
		Reputation:  opt.Reputation,
		Raw:         raw,
	}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
