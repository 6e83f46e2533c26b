package observability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type SlowQueryDetector struct {
	warningThreshold  time.Duration
	criticalThreshold time.Duration
	logger            *zap.Logger
}

func NewSlowQueryDetector(warning, critical time.Duration, logger *zap.Logger) *SlowQueryDetector {
	return &SlowQueryDetector{
		warningThreshold:  warning,
		criticalThreshold: critical,
		logger:            logger,
	}
}

// Intercept reports an aggregation that took longer than the warning
// threshold. The slowest source is named so a single lagging collection is
// easy to spot.
func (sqd *SlowQueryDetector) Intercept(ctx context.Context, query string, duration time.Duration, totalHits int, slowestSource string, failedSources int) bool {
	if duration <= sqd.warningThreshold {
		return false
	}

	severity := sqd.classifySeverity(duration)
	SlowQueryCounter.WithLabelValues(severity).Inc()

	sqd.logger.Warn("slow search detected",
		zap.String("trace_id", TraceIDFromContext(ctx)),
		zap.String("query_hash", hashQueryForLog(query)),
		zap.Float64("duration_ms", float64(duration.Milliseconds())),
		zap.Int("total_hits", totalHits),
		zap.String("slowest_source", slowestSource),
		zap.Int("failed_sources", failedSources),
		zap.String("severity", severity),
	)
	return true
}

func (sqd *SlowQueryDetector) classifySeverity(d time.Duration) string {
	if d > sqd.criticalThreshold {
		return "critical"
	}
	if d > sqd.warningThreshold {
		return "warning"
	}
	return "normal"
}

// Queries are logged hashed; raw search text is never written out.
func hashQueryForLog(q string) string {
	return fmt.Sprintf("%016x", hashUint64(q))
}

func hashUint64(s string) uint64 {
	h := uint64(0)
	for _, c := range s {
		h = h*31 + uint64(c)
	}
	return h
}
