package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/marketpulse/scanner/internal/domain"
	"github.com/marketpulse/scanner/internal/risk"
)

// BinanceConfig configures the read-only Binance client.
type BinanceConfig struct {
	BaseURLSpot      string
	BaseURLFutures   string
	Testnet          bool
	SpotRateLimit    int
	FuturesRateLimit int
	MaxRetries       int
}

// BinanceClient is the read-only Binance spot + USDT-perp futures
// market-data client. It never calls an order-placement endpoint.
type BinanceClient struct {
	spot     *binance.Client
	futures  *futures.Client
	limiter  *RateLimiter
	retry    RetryConfig
	cache    *CandleCache // optional, nil disables caching
	breakers *risk.CircuitBreakerManager
}

// NewBinanceClient builds a client against the live or testnet Binance
// REST API, with no API key (every call made is public market data).
func NewBinanceClient(cfg BinanceConfig, cache *CandleCache) *BinanceClient {
	if cfg.Testnet {
		binance.UseTestnet = true
		futures.UseTestnet = true
	}

	spotClient := binance.NewClient("", "")
	if cfg.BaseURLSpot != "" {
		spotClient.BaseURL = cfg.BaseURLSpot
	}
	futuresClient := binance.NewFuturesClient("", "")
	if cfg.BaseURLFutures != "" {
		futuresClient.BaseURL = cfg.BaseURLFutures
	}

	retry := DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}

	return &BinanceClient{
		spot:    spotClient,
		futures: futuresClient,
		limiter: NewRateLimiter(cfg.SpotRateLimit, cfg.FuturesRateLimit),
		retry:   retry,
		cache:   cache,
	}
}

// WithCircuitBreakers attaches a per-market-kind circuit breaker
// manager; every exchange call below is then gated through it, so a
// sustained outage on one market kind trips open without affecting
// the other. Nil disables circuit breaking (the zero value already
// behaves this way).
func (c *BinanceClient) WithCircuitBreakers(breakers *risk.CircuitBreakerManager) *BinanceClient {
	c.breakers = breakers
	return c
}

// withBreaker runs op through the breaker for market, recording the
// outcome in the breaker's metrics. With no breaker manager attached,
// op runs unguarded.
func (c *BinanceClient) withBreaker(market domain.MarketKind, op func() error) error {
	if c.breakers == nil {
		return op()
	}
	breaker := c.breakers.Exchange(market)
	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	c.breakers.Metrics().RecordRequest(breakerServiceName(market), err == nil)
	return err
}

func breakerServiceName(market domain.MarketKind) string {
	if market == domain.MarketFutures {
		return "exchange_futures"
	}
	return "exchange_spot"
}

// ListUSDTPairs implements Client.
func (c *BinanceClient) ListUSDTPairs(ctx context.Context, market domain.MarketKind) ([]domain.Symbol, error) {
	if err := c.limiter.Wait(ctx, market, 10); err != nil {
		return nil, err
	}

	var symbols []domain.Symbol
	op := func() error {
		switch market {
		case domain.MarketSpot:
			info, err := c.spot.NewExchangeInfoService().Do(ctx)
			if err != nil {
				return err
			}
			for _, s := range info.Symbols {
				if s.QuoteAsset != "USDT" || s.Status != "TRADING" {
					continue
				}
				symbols = append(symbols, domain.Symbol{
					Name:       s.Symbol,
					Market:     domain.MarketSpot,
					BaseAsset:  s.BaseAsset,
					QuoteAsset: s.QuoteAsset,
					Active:     true,
				})
			}
		case domain.MarketFutures:
			info, err := c.futures.NewExchangeInfoService().Do(ctx)
			if err != nil {
				return err
			}
			for _, s := range info.Symbols {
				if s.QuoteAsset != "USDT" || s.ContractType != "PERPETUAL" || s.Status != "TRADING" {
					continue
				}
				symbols = append(symbols, domain.Symbol{
					Name:       s.Symbol,
					Market:     domain.MarketFutures,
					BaseAsset:  s.BaseAsset,
					QuoteAsset: s.QuoteAsset,
					Active:     true,
				})
			}
		default:
			return fmt.Errorf("unknown market %q", market)
		}
		return nil
	}

	if err := c.withBreaker(market, func() error { return WithRetry(ctx, c.retry, op) }); err != nil {
		return nil, classifyError("ListUSDTPairs", err)
	}
	return symbols, nil
}

// Get24hVolumes implements Client.
func (c *BinanceClient) Get24hVolumes(ctx context.Context, market domain.MarketKind, symbols []string) (map[string]float64, error) {
	if err := c.limiter.Wait(ctx, market, 10); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	volumes := make(map[string]float64)
	op := func() error {
		switch market {
		case domain.MarketSpot:
			stats, err := c.spot.NewListPriceChangeStatsService().Do(ctx)
			if err != nil {
				return err
			}
			for _, s := range stats {
				if !wanted[s.Symbol] {
					continue
				}
				v, err := strconv.ParseFloat(s.QuoteVolume, 64)
				if err != nil {
					continue
				}
				volumes[s.Symbol] = v
			}
		case domain.MarketFutures:
			stats, err := c.futures.NewListPriceChangeStatsService().Do(ctx)
			if err != nil {
				return err
			}
			for _, s := range stats {
				if !wanted[s.Symbol] {
					continue
				}
				v, err := strconv.ParseFloat(s.QuoteVolume, 64)
				if err != nil {
					continue
				}
				volumes[s.Symbol] = v
			}
		default:
			return fmt.Errorf("unknown market %q", market)
		}
		return nil
	}

	if err := c.withBreaker(market, func() error { return WithRetry(ctx, c.retry, op) }); err != nil {
		return nil, classifyError("Get24hVolumes", err)
	}
	return volumes, nil
}

// GetKlines implements Client.
func (c *BinanceClient) GetKlines(ctx context.Context, market domain.MarketKind, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	if c.cache != nil {
		if candles, ok := c.cache.Get(market, symbol, tf); ok && len(candles) >= limit {
			return candles[len(candles)-limit:], nil
		}
	}

	if err := c.limiter.Wait(ctx, market, 1); err != nil {
		return nil, err
	}

	var candles []domain.Candle
	op := func() error {
		switch market {
		case domain.MarketSpot:
			raw, err := c.spot.NewKlinesService().Symbol(symbol).Interval(string(tf)).Limit(limit).Do(ctx)
			if err != nil {
				return err
			}
			candles = make([]domain.Candle, 0, len(raw))
			for _, k := range raw {
				candle, err := convertSpotKline(symbol, market, tf, k)
				if err != nil {
					return err
				}
				candles = append(candles, candle)
			}
		case domain.MarketFutures:
			raw, err := c.futures.NewKlinesService().Symbol(symbol).Interval(string(tf)).Limit(limit).Do(ctx)
			if err != nil {
				return err
			}
			candles = make([]domain.Candle, 0, len(raw))
			for _, k := range raw {
				candle, err := convertFuturesKline(symbol, market, tf, k)
				if err != nil {
					return err
				}
				candles = append(candles, candle)
			}
		default:
			return fmt.Errorf("unknown market %q", market)
		}
		return nil
	}

	if err := c.withBreaker(market, func() error { return WithRetry(ctx, c.retry, op) }); err != nil {
		return nil, classifyError("GetKlines", err)
	}

	if c.cache != nil {
		c.cache.Put(market, symbol, tf, candles)
	}
	return candles, nil
}

// BatchGetKlines implements Client. Symbols are fetched with bounded
// concurrency; a failure on one symbol is logged and omitted rather
// than failing the whole batch.
func (c *BinanceClient) BatchGetKlines(ctx context.Context, market domain.MarketKind, symbols []string, tf domain.Timeframe, limit int) (map[string][]domain.Candle, error) {
	results := make(map[string][]domain.Candle, len(symbols))
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			candles, err := c.GetKlines(gctx, market, symbol, tf, limit)
			if err != nil {
				log.Warn().Err(err).Str("symbol", symbol).Msg("batch klines fetch failed, skipping symbol")
				return nil
			}
			<-mu
			results[symbol] = candles
			mu <- struct{}{}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetTicker implements Client.
func (c *BinanceClient) GetTicker(ctx context.Context, market domain.MarketKind, symbol string) (float64, error) {
	if err := c.limiter.Wait(ctx, market, 1); err != nil {
		return 0, err
	}

	var price float64
	op := func() error {
		switch market {
		case domain.MarketSpot:
			prices, err := c.spot.NewListPricesService().Symbol(symbol).Do(ctx)
			if err != nil {
				return err
			}
			if len(prices) == 0 {
				return fmt.Errorf("no price returned for %s", symbol)
			}
			v, err := strconv.ParseFloat(prices[0].Price, 64)
			if err != nil {
				return err
			}
			price = v
		case domain.MarketFutures:
			prices, err := c.futures.NewListPricesService().Symbol(symbol).Do(ctx)
			if err != nil {
				return err
			}
			if len(prices) == 0 {
				return fmt.Errorf("no price returned for %s", symbol)
			}
			v, err := strconv.ParseFloat(prices[0].Price, 64)
			if err != nil {
				return err
			}
			price = v
		default:
			return fmt.Errorf("unknown market %q", market)
		}
		return nil
	}

	if err := c.withBreaker(market, func() error { return WithRetry(ctx, c.retry, op) }); err != nil {
		return 0, classifyError("GetTicker", err)
	}
	return price, nil
}

// GetBatchTickers implements Client.
func (c *BinanceClient) GetBatchTickers(ctx context.Context, market domain.MarketKind, symbols []string) (map[string]float64, error) {
	if err := c.limiter.Wait(ctx, market, 2); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	tickers := make(map[string]float64)
	op := func() error {
		switch market {
		case domain.MarketSpot:
			prices, err := c.spot.NewListPricesService().Do(ctx)
			if err != nil {
				return err
			}
			for _, p := range prices {
				if !wanted[p.Symbol] {
					continue
				}
				v, err := strconv.ParseFloat(p.Price, 64)
				if err != nil {
					continue
				}
				tickers[p.Symbol] = v
			}
		case domain.MarketFutures:
			prices, err := c.futures.NewListPricesService().Do(ctx)
			if err != nil {
				return err
			}
			for _, p := range prices {
				if !wanted[p.Symbol] {
					continue
				}
				v, err := strconv.ParseFloat(p.Price, 64)
				if err != nil {
					continue
				}
				tickers[p.Symbol] = v
			}
		default:
			return fmt.Errorf("unknown market %q", market)
		}
		return nil
	}

	if err := c.withBreaker(market, func() error { return WithRetry(ctx, c.retry, op) }); err != nil {
		return nil, classifyError("GetBatchTickers", err)
	}
	return tickers, nil
}

func convertSpotKline(symbol string, market domain.MarketKind, tf domain.Timeframe, k *binance.Kline) (domain.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	return domain.Candle{
		Symbol:    symbol,
		Market:    market,
		Timeframe: tf,
		OpenTime:  time.UnixMilli(k.OpenTime),
		CloseTime: time.UnixMilli(k.CloseTime),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

func convertFuturesKline(symbol string, market domain.MarketKind, tf domain.Timeframe, k *futures.Kline) (domain.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return domain.Candle{}, err
	}
	return domain.Candle{
		Symbol:    symbol,
		Market:    market,
		Timeframe: tf,
		OpenTime:  time.UnixMilli(k.OpenTime),
		CloseTime: time.UnixMilli(k.CloseTime),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

// classifyError wraps err as a Transient or PermanentExchangeError based
// on the same heuristics retry.go uses to decide whether to retry.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsRetryable(err) {
		return &TransientExchangeError{Op: op, Err: err}
	}
	if strings.Contains(err.Error(), "cancelled") {
		return err
	}
	return &PermanentExchangeError{Op: op, Err: err}
}
