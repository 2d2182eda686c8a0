package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bookscout/bookscout/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// newBreaker opens after a 60% failure rate over at least 20 requests in a
// one minute window, and probes again after 30 seconds.
func newBreaker(name string, m *metrics.Metrics) *gobreaker.CircuitBreaker[[]byte] {
	m.SetBreakerState(name, 0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 20 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		IsSuccessful: breakerSuccess,

		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, stateToFloat(to))
		},
	})
}

// breakerSuccess does not count callers hanging up as upstream failures.
func breakerSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
