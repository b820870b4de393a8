package source

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/emilsandberg/sl-board/src/common/types"
)

// breakerStrategy skips a tier that keeps failing, so the chain reaches a
// working fallback without waiting out another timeout first.
type breakerStrategy struct {
	inner Strategy
	cb    *gobreaker.CircuitBreaker[types.Snapshot]
}

func withBreaker(inner Strategy, logger *zap.SugaredLogger) *breakerStrategy {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("fetch strategy breaker state change",
				"strategy", name, "from", from.String(), "to", to.String())
		},
	}

	return &breakerStrategy{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[types.Snapshot](settings),
	}
}

func (s *breakerStrategy) Name() string {
	return s.inner.Name()
}

func (s *breakerStrategy) Attempt(ctx context.Context) (types.Snapshot, error) {
	snap, err := s.cb.Execute(func() (types.Snapshot, error) {
		return s.inner.Attempt(ctx)
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return types.Snapshot{}, fe
		}
		// open or half-open breaker refusing the call
		return types.Snapshot{}, unavailable(s.inner.Name(), err)
	}
	return snap, nil
}
