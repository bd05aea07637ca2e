// Copyright 2024-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"context"
	"fmt"
	"time"

	"github.com/foliolens/folio-api/timeseries"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Manager resolves benchmark and risk-free series through a cache and the
// configured providers. It satisfies the market data interface the
// analysis package consumes.
type Manager struct {
	benchmark       Provider
	riskFree        Provider
	cache           Cache
	benchmarkSymbol string
	riskFreeSymbol  string
}

// NewManager wires the default providers: Tiingo for benchmark prices and
// FRED for the risk-free rate. Symbols come from market.benchmark and
// market.riskfree configuration, falling back to SPY and DTB3.
func NewManager() *Manager {
	benchmarkSymbol := viper.GetString("market.benchmark")
	if benchmarkSymbol == "" {
		benchmarkSymbol = DefaultBenchmarkSymbol
	}

	riskFreeSymbol := viper.GetString("market.riskfree")
	if riskFreeSymbol == "" {
		riskFreeSymbol = DefaultRiskFreeSymbol
	}

	return &Manager{
		benchmark:       NewTiingo(""),
		riskFree:        NewFred(),
		cache:           NewSeriesCache(),
		benchmarkSymbol: benchmarkSymbol,
		riskFreeSymbol:  riskFreeSymbol,
	}
}

// NewManagerWith builds a manager from explicit collaborators; used by
// tests and the warmup job.
func NewManagerWith(benchmark, riskFree Provider, cache Cache, benchmarkSymbol, riskFreeSymbol string) *Manager {
	return &Manager{
		benchmark:       benchmark,
		riskFree:        riskFree,
		cache:           cache,
		benchmarkSymbol: benchmarkSymbol,
		riskFreeSymbol:  riskFreeSymbol,
	}
}

// Benchmark returns daily benchmark closes covering [begin, end].
func (manager *Manager) Benchmark(ctx context.Context, begin, end time.Time) (timeseries.Series, error) {
	return manager.fetch(ctx, manager.benchmark, manager.benchmarkSymbol, begin, end)
}

// RiskFree returns the annualized percent risk-free rate for [begin, end].
func (manager *Manager) RiskFree(ctx context.Context, begin, end time.Time) (timeseries.Series, error) {
	return manager.fetch(ctx, manager.riskFree, manager.riskFreeSymbol, begin, end)
}

// BenchmarkSymbol is the configured benchmark ticker, for display.
func (manager *Manager) BenchmarkSymbol() string {
	return manager.benchmarkSymbol
}

func (manager *Manager) fetch(ctx context.Context, provider Provider, symbol string, begin, end time.Time) (timeseries.Series, error) {
	interval := &Interval{Begin: begin, End: end}
	if err := interval.Valid(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeRange, err.Error())
	}

	if manager.cache != nil {
		if series, ok := manager.cache.Get(ctx, symbol, interval); ok {
			return series, nil
		}
	}

	series, err := provider.Series(ctx, symbol, begin, end)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", provider.Name(), symbol, err)
	}

	series = series.Normalize()
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%s %s returned invalid series: %w", provider.Name(), symbol, err)
	}

	if manager.cache != nil {
		manager.cache.Set(ctx, symbol, interval, series)
	}

	log.Debug().Str("Provider", provider.Name()).Str("Symbol", symbol).Int("Rows", len(series)).Msg("fetched series")
	return series, nil
}

// Warmup pre-fetches the benchmark and risk-free series for the trailing
// five years so the first analysis request after startup is served from
// cache. Used by the nightly refresh job.
func (manager *Manager) Warmup(ctx context.Context) {
	end := time.Now()
	begin := end.AddDate(-5, 0, 0)

	if _, err := manager.Benchmark(ctx, begin, end); err != nil {
		log.Warn().Err(err).Msg("benchmark warmup failed")
	}
	if _, err := manager.RiskFree(ctx, begin, end); err != nil {
		log.Warn().Err(err).Msg("risk-free warmup failed")
	}
}
