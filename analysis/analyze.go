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
	"time"

	"github.com/foliolens/folio-api/dataframe"
	"github.com/foliolens/folio-api/observability/opentelemetry"
	"github.com/foliolens/folio-api/timeseries"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const (
	maxPriorYears    = 4
	chartWindowYears = 3

	thinSampleMonths        = 12
	recommendedSampleMonths = 36
)

// fetchPad is how far before the portfolio's first date the market series
// are requested, so the first benchmark return has a prior observation and
// holidays at the range edge still resolve.
const fetchPad = 7 * 24 * time.Hour

// Options adjusts an analysis run. The zero value asks for auto-generated
// periods as of the portfolio's last trading day.
type Options struct {
	AsOf    time.Time
	Periods []PeriodDefinition
}

// Analyzer runs the measurement pipeline against a market data source.
type Analyzer struct {
	market MarketData
}

func NewAnalyzer(market MarketData) *Analyzer {
	return &Analyzer{market: market}
}

// Analyze measures a single portfolio. The benchmark and risk-free series
// are fetched for the portfolio's full date range; failure to fetch either
// aborts the call, everything after that fails soft into warnings.
func (analyzer *Analyzer) Analyze(ctx context.Context, portfolio timeseries.Series, opts *Options) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "analysis.Analyze")
	defer span.End()

	if opts == nil {
		opts = &Options{}
	}

	portfolio = portfolio.Normalize()
	if err := portfolio.Validate(); err != nil {
		return nil, fmt.Errorf("invalid portfolio series: %w", err)
	}

	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = portfolio.Last().Date
	}
	portfolio = portfolio.Between(portfolio.First().Date, asOf)
	if len(portfolio) == 0 {
		return nil, fmt.Errorf("%w: no portfolio observations on or before as-of date", ErrInsufficientData)
	}

	benchmark, riskFree, err := analyzer.fetchMarket(ctx, portfolio.First().Date, asOf)
	if err != nil {
		return nil, err
	}

	return analyzeAligned(portfolio, benchmark, riskFree, asOf, opts.Periods)
}

func (analyzer *Analyzer) fetchMarket(ctx context.Context, begin, end time.Time) (benchmark, riskFree timeseries.Series, err error) {
	begin = begin.Add(-fetchPad)

	benchmark, err = analyzer.market.Benchmark(ctx, begin, end)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch benchmark: %w", err)
	}

	riskFree, err = analyzer.market.RiskFree(ctx, begin, end)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch risk-free rate: %w", err)
	}

	return benchmark, riskFree, nil
}

// analyzeAligned is the single-portfolio pipeline once market data is in
// hand; AnalyzeMany reuses it so the benchmark is only fetched once.
func analyzeAligned(portfolio, benchmark, riskFree timeseries.Series, asOf time.Time, periods []PeriodDefinition) (*Result, error) {
	df, err := Align(portfolio, benchmark, riskFree)
	if err != nil {
		return nil, err
	}

	if len(periods) == 0 {
		periods = generatePeriods(df.Dates, asOf)
	}

	result := &Result{
		Periods:  make([]*PeriodMetrics, 0, len(periods)),
		Warnings: []string{},
	}

	for _, def := range periods {
		window := df.Trim(def.Begin, def.End)
		metrics, err := computeMetrics(def, window, Monthly(window))
		if err != nil {
			log.Info().Err(err).Str("Period", def.Name).Msg("skipping period")
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Could not calculate - %s", def.Name, err.Error()))
			continue
		}

		switch {
		case metrics.Months < thinSampleMonths:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: only %d months of data - results may be unreliable", def.Name, metrics.Months))
		case metrics.Months < recommendedSampleMonths:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %d months of data is below recommended 36 months", def.Name, metrics.Months))
		}

		result.Periods = append(result.Periods, metrics)
	}

	result.Chart = buildChart(df, asOf)
	return result, nil
}

// generatePeriods builds the default period list: YTD anchored at the last
// trading day of the prior year, up to 4 prior full calendar years, and a
// trailing 3 year cumulative window. Period bounds are always trading days
// present in dates.
func generatePeriods(dates []time.Time, asOf time.Time) []PeriodDefinition {
	periods := make([]PeriodDefinition, 0, maxPriorYears+2)

	end, ok := lastOnOrBefore(dates, asOf)
	if !ok {
		return periods
	}

	// YTD runs from the final trading day of the prior year so the first
	// daily return lands on the year's first trading day
	priorYearEnd := time.Date(asOf.Year()-1, time.December, 31, 23, 59, 59, 0, asOf.Location())
	if anchor, ok := lastOnOrBefore(dates, priorYearEnd); ok && end.After(anchor) {
		periods = append(periods, PeriodDefinition{Name: "YTD", Begin: anchor, End: end})
	}

	// prior full calendar years, most recent first
	for year := asOf.Year() - 1; year >= asOf.Year()-maxPriorYears; year-- {
		anchorTarget := time.Date(year-1, time.December, 31, 23, 59, 59, 0, asOf.Location())
		anchor, ok := lastOnOrBefore(dates, anchorTarget)
		if !ok || anchor.Year() != year-1 {
			continue
		}

		yearEndTarget := time.Date(year, time.December, 31, 23, 59, 59, 0, asOf.Location())
		yearEnd, ok := lastOnOrBefore(dates, yearEndTarget)
		if !ok || yearEnd.Year() != year {
			continue
		}

		// a year is only reported as a full year when data continues
		// past it; otherwise the window is a truncated partial year
		if dates[len(dates)-1].Year() <= year {
			continue
		}

		periods = append(periods, PeriodDefinition{Name: fmt.Sprintf("%d", year), Begin: anchor, End: yearEnd})
	}

	threeYearsAgo := asOf.AddDate(-chartWindowYears, 0, 0)
	if !dates[0].After(threeYearsAgo) {
		if begin, ok := lastOnOrBefore(dates, threeYearsAgo); ok && end.After(begin) {
			periods = append(periods, PeriodDefinition{Name: "3Y Cumulative", Begin: begin, End: end})
		}
	}

	return periods
}

// lastOnOrBefore returns the latest member of dates that is not after t.
func lastOnOrBefore(dates []time.Time, t time.Time) (time.Time, bool) {
	idx := sort.Search(len(dates), func(i int) bool {
		return dates[i].After(t)
	})
	if idx == 0 {
		return time.Time{}, false
	}
	return dates[idx-1], true
}

// buildChart rebases both value columns to cumulative return 0.0 at the
// chart window's first trading day. The window is the trailing 3 years, or
// the full data range when it is shorter than that.
func buildChart(df *dataframe.DataFrame, asOf time.Time) *ChartSeries {
	begin := df.Start()
	if horizon := asOf.AddDate(-chartWindowYears, 0, 0); horizon.After(begin) {
		begin = horizon
	}

	window := df.Trim(begin, asOf)
	if window.Len() == 0 {
		return nil
	}

	portVals := window.Col(ColPortfolio)
	benchVals := window.Col(ColBenchmark)

	chart := &ChartSeries{
		Dates:     window.Dates,
		Portfolio: make([]float64, window.Len()),
		Benchmark: make([]float64, window.Len()),
	}

	port0 := portVals[0]
	bench0 := benchVals[0]
	for idx := range window.Dates {
		chart.Portfolio[idx] = portVals[idx]/port0 - 1.0
		chart.Benchmark[idx] = benchVals[idx]/bench0 - 1.0
	}

	return chart
}
