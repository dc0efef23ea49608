package exchange

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/marketpulse/scanner/internal/domain"
)

// RateLimiter enforces a process-wide, per-market request budget against
// the exchange. Requests are weighted (a batch kline pull costs more than
// a single ticker read) and waiters are served FIFO by the underlying
// token bucket.
type RateLimiter struct {
	limiters map[domain.MarketKind]*rate.Limiter
}

// NewRateLimiter builds a limiter refilling spotPerMin/futuresPerMin
// tokens evenly over each minute, with a burst equal to the per-minute
// budget so a freshly started process can use its full budget at once.
func NewRateLimiter(spotPerMin, futuresPerMin int) *RateLimiter {
	return &RateLimiter{
		limiters: map[domain.MarketKind]*rate.Limiter{
			domain.MarketSpot:    rate.NewLimiter(rate.Limit(float64(spotPerMin)/60.0), spotPerMin),
			domain.MarketFutures: rate.NewLimiter(rate.Limit(float64(futuresPerMin)/60.0), futuresPerMin),
		},
	}
}

// Wait blocks until weight tokens are available for market, or ctx is
// cancelled.
func (r *RateLimiter) Wait(ctx context.Context, market domain.MarketKind, weight int) error {
	limiter, ok := r.limiters[market]
	if !ok {
		return nil
	}
	return limiter.WaitN(ctx, weight)
}
