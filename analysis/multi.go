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

package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/foliolens/folio-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// comparison metric keys, in report order
var comparisonMetrics = []string{
	"totalReturn",
	"excessReturn",
	"stdDev",
	"alpha",
	"beta",
	"sharpeRatio",
	"maxDrawdown",
	"upCapture",
	"downCapture",
}

type multiItem struct {
	name   string
	result *Result
	err    error
}

// AnalyzeMany runs the single-portfolio pipeline for each named series
// against one shared benchmark and risk-free fetch. A portfolio that fails
// to analyze becomes a warning and is omitted; the call only errors when no
// market data can be fetched at all or the input is empty.
func (analyzer *Analyzer) AnalyzeMany(ctx context.Context, portfolios []NamedSeries, opts *Options) (*MultiResult, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "analysis.AnalyzeMany")
	defer span.End()

	if len(portfolios) == 0 {
		return nil, ErrNoPortfolios
	}

	if opts == nil {
		opts = &Options{}
	}

	// validate up front; a bad series becomes a warning, not a batch failure
	preWarnings := []string{}
	valid := make([]NamedSeries, 0, len(portfolios))
	var begin, end time.Time
	for _, named := range portfolios {
		named.Series = named.Series.Normalize()
		if err := named.Series.Validate(); err != nil {
			log.Warn().Err(err).Str("Portfolio", named.Name).Msg("invalid portfolio series")
			preWarnings = append(preWarnings, fmt.Sprintf("%s: Could not calculate - %s", named.Name, err.Error()))
			continue
		}

		if begin.IsZero() || named.Series.First().Date.Before(begin) {
			begin = named.Series.First().Date
		}
		if named.Series.Last().Date.After(end) {
			end = named.Series.Last().Date
		}
		valid = append(valid, named)
	}

	if len(valid) == 0 {
		return nil, ErrNoPortfolios
	}
	portfolios = valid

	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = end
	}

	benchmark, riskFree, err := analyzer.fetchMarket(ctx, begin, asOf)
	if err != nil {
		return nil, err
	}

	items := make(chan multiItem, len(portfolios))
	var wg sync.WaitGroup

	for _, named := range portfolios {
		wg.Add(1)
		go func(named NamedSeries) {
			defer wg.Done()
			res, err := analyzeAligned(named.Series, benchmark, riskFree, asOf, opts.Periods)
			items <- multiItem{name: named.Name, result: res, err: err}
		}(named)
	}

	wg.Wait()
	close(items)

	multi := &MultiResult{
		Portfolios: make(map[string]*Result, len(portfolios)),
		Warnings:   preWarnings,
	}

	for item := range items {
		if item.err != nil {
			log.Warn().Err(item.err).Str("Portfolio", item.name).Msg("portfolio analysis failed")
			multi.Warnings = append(multi.Warnings, fmt.Sprintf("%s: Could not calculate - %s", item.name, item.err.Error()))
			continue
		}

		multi.Portfolios[item.name] = item.result
		for _, warning := range item.result.Warnings {
			multi.Warnings = append(multi.Warnings, fmt.Sprintf("%s: %s", item.name, warning))
		}
	}

	sort.Strings(multi.Warnings)

	multi.Comparison = buildComparison(multi.Portfolios)
	multi.Chart = buildCombinedChart(portfolios, multi.Portfolios)

	return multi, nil
}

// buildComparison pivots per-portfolio period metrics into a
// metric -> period -> portfolio lookup for side-by-side display.
func buildComparison(results map[string]*Result) map[string]map[string]map[string]*float64 {
	comparison := make(map[string]map[string]map[string]*float64, len(comparisonMetrics))
	for _, metric := range comparisonMetrics {
		comparison[metric] = make(map[string]map[string]*float64)
	}

	for name, result := range results {
		for _, period := range result.Periods {
			for _, metric := range comparisonMetrics {
				byPeriod := comparison[metric]
				if byPeriod[period.Name] == nil {
					byPeriod[period.Name] = make(map[string]*float64, len(results))
				}
				byPeriod[period.Name][name] = metricValue(period, metric)
			}
		}
	}

	return comparison
}

func metricValue(period *PeriodMetrics, metric string) *float64 {
	switch metric {
	case "totalReturn":
		return period.PortfolioReturn
	case "excessReturn":
		return period.ExcessReturn
	case "stdDev":
		return period.Portfolio.StdDev
	case "alpha":
		return period.Portfolio.Alpha
	case "beta":
		return period.Portfolio.Beta
	case "sharpeRatio":
		return period.Portfolio.SharpeRatio
	case "maxDrawdown":
		return period.Portfolio.MaxDrawdown
	case "upCapture":
		return period.Portfolio.UpCapture
	case "downCapture":
		return period.Portfolio.DownCapture
	}
	return nil
}

// buildCombinedChart overlays every successfully analyzed portfolio on the
// trading days they share, rebasing each curve and the benchmark to 0.0 at
// the first shared date. Individual charts are already rebased at their own
// window starts, so rebasing here is a ratio of growth factors.
func buildCombinedChart(order []NamedSeries, results map[string]*Result) *CombinedChart {
	charts := make(map[string]*ChartSeries, len(results))
	names := make([]string, 0, len(results))
	for _, named := range order {
		if result, ok := results[named.Name]; ok && result.Chart != nil {
			charts[named.Name] = result.Chart
			names = append(names, named.Name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	// shared dates are those present in every chart
	counts := make(map[int64]int)
	for _, name := range names {
		for _, dt := range charts[name].Dates {
			counts[dt.Unix()]++
		}
	}

	first := charts[names[0]]
	shared := make([]time.Time, 0, len(first.Dates))
	for _, dt := range first.Dates {
		if counts[dt.Unix()] == len(names) {
			shared = append(shared, dt)
		}
	}

	if len(shared) == 0 {
		return nil
	}

	combined := &CombinedChart{
		Dates:      shared,
		Portfolios: make(map[string][]float64, len(names)),
		Benchmark:  rebaseOnto(shared, first.Dates, first.Benchmark),
	}
	for _, name := range names {
		combined.Portfolios[name] = rebaseOnto(shared, charts[name].Dates, charts[name].Portfolio)
	}

	return combined
}

// rebaseOnto picks the cumulative-return values falling on the shared
// dates and re-anchors them to 0.0 at the first shared date.
func rebaseOnto(shared, dates []time.Time, cumulative []float64) []float64 {
	byDate := make(map[int64]float64, len(dates))
	for idx, dt := range dates {
		byDate[dt.Unix()] = cumulative[idx]
	}

	out := make([]float64, len(shared))
	base := 1.0 + byDate[shared[0].Unix()]
	for idx, dt := range shared {
		out[idx] = (1.0+byDate[dt.Unix()])/base - 1.0
	}

	return out
}
