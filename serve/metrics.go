package serve

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/zero-day-ai/netguardian/serve"

type metrics struct {
	scored   metric.Int64Counter
	scores   metric.Int64Histogram
	rejected metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(meterName)

	var (
		m   metrics
		err error
	)
	m.scored, err = meter.Int64Counter(
		"netguardian.scans.scored",
		metric.WithDescription("Number of scans scored"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.scores, err = meter.Int64Histogram(
		"netguardian.scan.score",
		metric.WithDescription("Safety score from 0 (worst) to 100 (best)"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.rejected, err = meter.Int64Counter(
		"netguardian.scans.rejected",
		metric.WithDescription("Number of scan requests refused, by reason"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *metrics) recordScore(ctx context.Context, score int, label, security string) {
	attrs := metric.WithAttributes(
		attribute.String("risk_label", label),
		attribute.String("security", security),
	)
	m.scored.Add(ctx, 1, attrs)
	m.scores.Record(ctx, int64(score), attrs)
}

func (m *metrics) recordRejected(ctx context.Context, reason string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
