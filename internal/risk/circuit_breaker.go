// Package risk wraps exchange and persistence calls in gobreaker
// circuit breakers so a sustained outage trips open and sheds load
// instead of retrying forever.
package risk

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"

	"github.com/marketpulse/scanner/internal/domain"
)

// Circuit breaker states for Prometheus metrics.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Circuit breaker thresholds, one set per service type.
const (
	ExchangeMinRequests     = 5
	ExchangeFailureRatio    = 0.6
	ExchangeOpenTimeout     = 30 * time.Second
	ExchangeHalfOpenMaxReqs = 3
	ExchangeCountInterval   = 10 * time.Second

	PersistenceMinRequests     = 10
	PersistenceFailureRatio    = 0.6
	PersistenceOpenTimeout     = 15 * time.Second
	PersistenceHalfOpenMaxReqs = 5
	PersistenceCountInterval   = 10 * time.Second
)

// CircuitBreakerManager owns one breaker per market kind for exchange
// calls, plus one for the persistence layer. There is no LLM breaker:
// this system makes no model-provider calls.
type CircuitBreakerManager struct {
	spot        *gobreaker.CircuitBreaker
	futures     *gobreaker.CircuitBreaker
	persistence *gobreaker.CircuitBreaker
	metrics     *CircuitBreakerMetrics
}

// CircuitBreakerMetrics holds the Prometheus metrics all breakers in a
// manager report through.
type CircuitBreakerMetrics struct {
	state    *prometheus.GaugeVec
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
}

var (
	globalMetrics *CircuitBreakerMetrics
	metricsOnce   sync.Once
)

func initMetrics() {
	metricsOnce.Do(func() {
		globalMetrics = &CircuitBreakerMetrics{
			state: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "circuit_breaker_state",
					Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
				},
				[]string{"service"},
			),
			requests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "circuit_breaker_requests_total",
					Help: "Total number of requests through circuit breaker",
				},
				[]string{"service", "result"},
			),
			failures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "circuit_breaker_failures_total",
					Help: "Total number of failures tracked by circuit breaker",
				},
				[]string{"service"},
			),
		}
	})
}

// ServiceSettings configures a single breaker.
type ServiceSettings struct {
	MinRequests     uint32
	FailureRatio    float64
	OpenTimeout     time.Duration
	HalfOpenMaxReqs uint32
	CountInterval   time.Duration
}

func defaultExchangeSettings() ServiceSettings {
	return ServiceSettings{
		MinRequests:     ExchangeMinRequests,
		FailureRatio:    ExchangeFailureRatio,
		OpenTimeout:     ExchangeOpenTimeout,
		HalfOpenMaxReqs: ExchangeHalfOpenMaxReqs,
		CountInterval:   ExchangeCountInterval,
	}
}

func defaultPersistenceSettings() ServiceSettings {
	return ServiceSettings{
		MinRequests:     PersistenceMinRequests,
		FailureRatio:    PersistenceFailureRatio,
		OpenTimeout:     PersistenceOpenTimeout,
		HalfOpenMaxReqs: PersistenceHalfOpenMaxReqs,
		CountInterval:   PersistenceCountInterval,
	}
}

// NewCircuitBreakerManager builds a manager with default settings for
// both market-kind exchange breakers and the persistence breaker.
func NewCircuitBreakerManager() *CircuitBreakerManager {
	spot := defaultExchangeSettings()
	futures := defaultExchangeSettings()
	persistence := defaultPersistenceSettings()
	return NewCircuitBreakerManagerWithSettings(spot, futures, persistence)
}

// NewCircuitBreakerManagerWithSettings builds a manager from explicit
// per-breaker settings.
func NewCircuitBreakerManagerWithSettings(spotSettings, futuresSettings, persistenceSettings ServiceSettings) *CircuitBreakerManager {
	initMetrics()
	manager := &CircuitBreakerManager{metrics: globalMetrics}

	manager.spot = newBreaker(manager, "exchange_spot", spotSettings)
	manager.futures = newBreaker(manager, "exchange_futures", futuresSettings)
	manager.persistence = newBreaker(manager, "persistence", persistenceSettings)

	manager.updateMetrics("exchange_spot", manager.spot.State())
	manager.updateMetrics("exchange_futures", manager.futures.State())
	manager.updateMetrics("persistence", manager.persistence.State())

	return manager
}

func newBreaker(manager *CircuitBreakerManager, name string, settings ServiceSettings) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.HalfOpenMaxReqs,
		Interval:    settings.CountInterval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= settings.MinRequests && failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(_ string, _ gobreaker.State, to gobreaker.State) {
			manager.updateMetrics(name, to)
		},
	})
}

// NewPassthroughCircuitBreakerManager never trips, for tests that
// exercise other components without circuit-breaker interference.
func NewPassthroughCircuitBreakerManager() *CircuitBreakerManager {
	initMetrics()
	manager := &CircuitBreakerManager{metrics: globalMetrics}

	neverTrip := gobreaker.Settings{MaxRequests: 1000, Interval: 0, Timeout: time.Millisecond,
		ReadyToTrip: func(gobreaker.Counts) bool { return false }}

	spotSettings, futuresSettings, persistenceSettings := neverTrip, neverTrip, neverTrip
	spotSettings.Name, futuresSettings.Name, persistenceSettings.Name = "exchange_spot_passthrough", "exchange_futures_passthrough", "persistence_passthrough"

	manager.spot = gobreaker.NewCircuitBreaker(spotSettings)
	manager.futures = gobreaker.NewCircuitBreaker(futuresSettings)
	manager.persistence = gobreaker.NewCircuitBreaker(persistenceSettings)
	return manager
}

// Exchange returns the breaker for market.
func (m *CircuitBreakerManager) Exchange(market domain.MarketKind) *gobreaker.CircuitBreaker {
	if market == domain.MarketFutures {
		return m.futures
	}
	return m.spot
}

// Persistence returns the persistence-layer breaker.
func (m *CircuitBreakerManager) Persistence() *gobreaker.CircuitBreaker {
	return m.persistence
}

func (m *CircuitBreakerManager) updateMetrics(service string, state gobreaker.State) {
	var stateValue float64
	switch state {
	case gobreaker.StateClosed:
		stateValue = 0
	case gobreaker.StateOpen:
		stateValue = 1
	case gobreaker.StateHalfOpen:
		stateValue = 2
	}
	m.metrics.state.WithLabelValues(service).Set(stateValue)
}

// RecordRequest records a request outcome for service.
func (m *CircuitBreakerMetrics) RecordRequest(service string, success bool) {
	result := ResultSuccess
	if !success {
		result = ResultFailure
		m.failures.WithLabelValues(service).Inc()
	}
	m.requests.WithLabelValues(service, result).Inc()
}

// Metrics returns the shared metrics instance.
func (m *CircuitBreakerManager) Metrics() *CircuitBreakerMetrics {
	return m.metrics
}
