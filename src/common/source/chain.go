package source

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/emilsandberg/sl-board/src/common/config"
	"github.com/emilsandberg/sl-board/src/common/metrics"
	"github.com/emilsandberg/sl-board/src/common/types"
	"github.com/emilsandberg/sl-board/src/common/utils"
)

// Chain walks fetch strategies in order: direct API, then each CORS proxy,
// then mock data. The first success wins.
type Chain struct {
	strategies []Strategy
	timeout    time.Duration
	logger     *zap.SugaredLogger
}

func NewChain(cfg *config.Config, logger *zap.SugaredLogger) *Chain {
	client := utils.NewHTTPClient(cfg.FetchTimeout)

	strategies := make([]Strategy, 0, len(cfg.Proxies)+2)
	strategies = append(strategies, withBreaker(&directStrategy{client: client, cfg: cfg}, logger))
	for _, proxy := range cfg.Proxies {
		strategies = append(strategies, withBreaker(&proxyStrategy{client: client, proxy: proxy, cfg: cfg}, logger))
	}
	strategies = append(strategies, &mockStrategy{cfg: cfg})

	return &Chain{strategies: strategies, timeout: cfg.FetchTimeout, logger: logger}
}

// NewChainWith assembles a chain from explicit strategies, for tests and
// alternate wiring.
func NewChainWith(timeout time.Duration, logger *zap.SugaredLogger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, timeout: timeout, logger: logger}
}

// Fetch returns the first snapshot a strategy produces. When every strategy
// fails it falls back to prev marked stale. It never returns an error.
func (c *Chain) Fetch(ctx context.Context, prev types.Snapshot) types.Snapshot {
	start := time.Now()

	for _, strategy := range c.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		snap, err := strategy.Attempt(attemptCtx)
		cancel()

		if err != nil {
			kind := KindUnavailable
			var fe *FetchError
			if errors.As(err, &fe) {
				kind = fe.Kind
			}
			metrics.FetchStrategyFailures.WithLabelValues(strategy.Name(), kind.String()).Inc()
			c.logger.Warnw("fetch strategy failed", "strategy", strategy.Name(), "kind", kind.String(), "error", err)
			continue
		}

		metrics.FetchTotal.WithLabelValues(string(snap.Source)).Inc()
		metrics.FetchDuration.Observe(time.Since(start).Seconds())
		return snap
	}

	metrics.FetchExhausted.Inc()
	c.logger.Errorw("all fetch strategies exhausted, serving stale data",
		"previous_fetch", prev.FetchedAt)
	return prev.MarkStale()
}
