package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zero-day-ai/netguardian/client"
	"github.com/zero-day-ai/netguardian/observe"
	"github.com/zero-day-ai/netguardian/report"
	"github.com/zero-day-ai/netguardian/security"
)

// Backend is the subset of *client.Client the scanner needs.
type Backend interface {
	Health(ctx context.Context) client.HealthResult
	SubmitScan(ctx context.Context, payload report.ScanPayload) (*client.ScoreResult, error)
}

// Outcome is everything one scan produced. Exactly one of Score and Err is
// set. Status is always a displayable line.
type Outcome struct {
	Observation      observe.Observation
	PermissionDenied bool
	Risk             security.RiskLabel
	Description      string
	Payload          report.ScanPayload
	Health           client.HealthResult
	Score            *client.ScoreResult
	Attempts         int
	Err              error
	Status           string
}

// Scanner runs the scan flow: permission gate, acquisition, normalization,
// classification, report building and submission. At most one scan is in
// flight per Scanner; a Run issued while another is running waits for it and
// returns the same Outcome.
type Scanner struct {
	backend  Backend
	deviceID string

	gate     observe.PermissionGate
	observer observe.Observer
	checks   ChecksFunc
	meta     *report.ClientMeta
	country  string
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	inflight *call
}

type call struct {
	done    chan struct{}
	outcome Outcome
}

// New creates a Scanner submitting to backend on behalf of deviceID.
// Without WithObserver the null observer is used.
func New(backend Backend, deviceID string, opts ...Option) *Scanner {
	s := &Scanner{
		backend:  backend,
		deviceID: deviceID,
		gate:     observe.AlwaysGranted{},
		observer: observe.Null{},
		checks:   func(context.Context, observe.Observation) report.AnomalyChecks { return report.AnomalyChecks{} },
		attempts: 1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one scan. It never panics on backend failures and never
// returns a raw error: failures are reported in Outcome.Err and Outcome.Status.
func (s *Scanner) Run(ctx context.Context) Outcome {
	s.mu.Lock()
	if c := s.inflight; c != nil {
		s.mu.Unlock()
		s.logger.Debug("scan already in flight, joining")
		select {
		case <-c.done:
			return c.outcome
		case <-ctx.Done():
			return Outcome{Err: ctx.Err(), Status: statusFor(ctx.Err())}
		}
	}
	c := &call{done: make(chan struct{})}
	s.inflight = c
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight = nil
		s.mu.Unlock()
		close(c.done)
	}()

	c.outcome = s.run(ctx)
	return c.outcome
}

func (s *Scanner) run(ctx context.Context) Outcome {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var out Outcome

	// Degrade, don't block: a denied permission only thins the observation.
	if !s.gate.Ensure(ctx) {
		out.PermissionDenied = true
		s.logger.Info("wifi permission denied, continuing with degraded observation")
	}

	out.Observation = s.observer.Observe(ctx)
	out.Risk = security.RiskLabelOf(out.Observation.SecurityType)
	out.Description = security.Describe(out.Observation.SecurityType)

	checks := s.checks(ctx, out.Observation)
	out.Payload = report.Build(out.Observation, checks, s.deviceID, s.meta, report.WithCountry(s.country))

	if err := out.Payload.Validate(); err != nil {
		out.Err = err
		out.Status = statusFor(err)
		s.logger.Warn("scan report invalid, not submitting", "error", err)
		return out
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out.Health = s.backend.Health(ctx)
	}()

	score, attempts, err := s.submit(ctx, out.Payload)
	wg.Wait()

	out.Attempts = attempts
	if err != nil {
		out.Err = err
		out.Status = statusFor(err)
		s.logger.Warn("scan not scored",
			"security", out.Observation.SecurityType,
			"attempts", attempts,
			"error", err)
		return out
	}

	out.Score = score
	out.Status = scoreStatus(score)
	s.logger.Info("scan scored",
		"security", out.Observation.SecurityType,
		"risk", out.Risk,
		"score", score.Score,
		"risk_label", score.RiskLabel)
	return out
}

func (s *Scanner) submit(ctx context.Context, payload report.ScanPayload) (*client.ScoreResult, int, error) {
	backoff := s.backoff
	var lastErr error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		score, err := s.backend.SubmitScan(ctx, payload)
		if err == nil {
			return score, attempt, nil
		}
		lastErr = err

		if !client.IsRetryable(err) || attempt == s.attempts {
			return nil, attempt, err
		}

		s.logger.Debug("retrying scan submission", "attempt", attempt, "backoff", backoff, "error", err)
		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, attempt, errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
			backoff *= 2
		}
	}
	return nil, s.attempts, lastErr
}
