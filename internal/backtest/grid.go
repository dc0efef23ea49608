package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/marketpulse/scanner/internal/domain"
)

// ParamType is the kind of value a grid Parameter sweeps over.
type ParamType string

const (
	ParamTypeInt   ParamType = "int"
	ParamTypeFloat ParamType = "float"
)

// Parameter is one axis of the grid: signal-engine config fields swept
// from Min to Max in Step increments.
type Parameter struct {
	Name string
	Type ParamType
	Min  float64
	Max  float64
	Step float64
}

// ParameterSet is one point in the grid, keyed by Parameter.Name.
type ParameterSet map[string]float64

// ConfigMutator applies a ParameterSet onto a base signal-engine
// config, returning the mutated copy used for that grid point's run.
// cmd/backtest supplies one that knows which config field each
// parameter name maps to (e.g. "min_confidence" -> cfg.MinConfidence).
type ConfigMutator func(base domain.SignalEngineConfig, params ParameterSet) domain.SignalEngineConfig

// GridResult is one grid point's outcome, ranked by Score.
type GridResult struct {
	Parameters ParameterSet
	Metrics    *domain.BacktestMetrics
	Score      float64
	Rank       int
}

// ObjectiveFunction scores a completed run's metrics for ranking.
type ObjectiveFunction func(*domain.BacktestMetrics) float64

// MaximizeSharpeRatio is the objective cmd/backtest's --grid mode uses
// by default, per its top-N-by-Sharpe contract.
var MaximizeSharpeRatio ObjectiveFunction = func(m *domain.BacktestMetrics) float64 { return m.SharpeRatio }

// GridSearchOptimizer runs the executor once per point in an exhaustive
// parameter grid and ranks the results. Walk-forward and genetic search
// are not implemented: nothing in this codebase's backtest surface
// needs windowed out-of-sample validation or evolutionary search, only
// a top-N report over a small swept parameter space.
type GridSearchOptimizer struct {
	executor  *Executor
	baseRun   domain.BacktestRun
	baseCfg   domain.SignalEngineConfig
	mutate    ConfigMutator
	params    []Parameter
	objective ObjectiveFunction
	parallel  int
}

// NewGridSearchOptimizer constructs a grid search over params, applying
// each combination to baseCfg via mutate before running baseRun
// (cloned with a fresh ID per point) through executor.
func NewGridSearchOptimizer(executor *Executor, baseRun domain.BacktestRun, baseCfg domain.SignalEngineConfig, mutate ConfigMutator, params []Parameter, objective ObjectiveFunction) *GridSearchOptimizer {
	if objective == nil {
		objective = MaximizeSharpeRatio
	}
	return &GridSearchOptimizer{
		executor:  executor,
		baseRun:   baseRun,
		baseCfg:   baseCfg,
		mutate:    mutate,
		params:    params,
		objective: objective,
		parallel:  4,
	}
}

// SetParallelism overrides the default of 4 concurrent grid points.
func (opt *GridSearchOptimizer) SetParallelism(n int) {
	if n > 0 {
		opt.parallel = n
	}
}

// Optimize loads the run's candles once, replays every grid point
// against them, and returns results ranked best-first.
func (opt *GridSearchOptimizer) Optimize(ctx context.Context) ([]GridResult, error) {
	candlesBySymbol, err := opt.executor.loadAll(ctx, opt.baseRun)
	if err != nil {
		return nil, fmt.Errorf("backtest: grid search failed to load candles: %w", err)
	}

	combinations := generateCombinations(opt.params)
	log.Info().Int("combinations", len(combinations)).Msg("backtest: starting grid search")

	results := make([]GridResult, len(combinations))
	sem := make(chan struct{}, opt.parallel)
	var wg sync.WaitGroup

	for i, params := range combinations {
		i, params := i, params
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			cfg := opt.mutate(opt.baseCfg, params)
			run := opt.baseRun
			run.ID = uuid.New().String()

			finished, _, err := opt.executor.runWithCandles(ctx, run, cfg, candlesBySymbol)
			if err != nil || finished.Metrics == nil {
				log.Warn().Err(err).Interface("params", params).Msg("backtest: grid point failed")
				return
			}
			results[i] = GridResult{Parameters: params, Metrics: finished.Metrics, Score: opt.objective(finished.Metrics)}
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// generateCombinations expands params into the cartesian product of
// their Min..Max sweeps.
func generateCombinations(params []Parameter) []ParameterSet {
	if len(params) == 0 {
		return []ParameterSet{{}}
	}
	return expand(params, 0, ParameterSet{})
}

func expand(params []Parameter, idx int, current ParameterSet) []ParameterSet {
	if idx >= len(params) {
		clone := make(ParameterSet, len(current))
		for k, v := range current {
			clone[k] = v
		}
		return []ParameterSet{clone}
	}

	p := params[idx]
	step := p.Step
	if step <= 0 {
		step = 1
	}

	var out []ParameterSet
	for v := p.Min; v <= p.Max; v += step {
		next := make(ParameterSet, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		if p.Type == ParamTypeInt {
			next[p.Name] = float64(int(v))
		} else {
			next[p.Name] = v
		}
		out = append(out, expand(params, idx+1, next)...)
	}
	return out
}
