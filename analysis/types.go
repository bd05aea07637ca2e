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

// Package analysis computes performance and risk measurements for a
// portfolio value series against a benchmark and a risk-free rate.
//
// All intermediate math is carried out on float64 values where NaN marks
// a measurement that could not be computed. NaN never escapes the package
// boundary; exported results use *float64 pointers where nil means the
// statistic is undefined for the requested period.
package analysis

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/foliolens/folio-api/timeseries"
)

// DataFrame column names produced by Align
const (
	ColPortfolio       = "portfolio"
	ColBenchmark       = "benchmark"
	ColRiskFree        = "riskfree"
	ColPortfolioReturn = "portfolioReturn"
	ColBenchmarkReturn = "benchmarkReturn"
)

var (
	ErrDataUnavailable  = errors.New("market data unavailable")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoPortfolios     = errors.New("no portfolios to analyze")
)

// MarketData supplies the reference series an analysis runs against.
// data.Manager satisfies this interface.
type MarketData interface {
	Benchmark(ctx context.Context, begin, end time.Time) (timeseries.Series, error)
	RiskFree(ctx context.Context, begin, end time.Time) (timeseries.Series, error)
}

// PeriodDefinition identifies a date window to measure. Begin and End are
// trading days present in the aligned data.
type PeriodDefinition struct {
	Name  string    `json:"name"`
	Begin time.Time `json:"begin"`
	End   time.Time `json:"end"`
}

// MonthlyObservation is a single row of the month-end resample. Values are
// the last trading day close within the month, RiskFreeRate is the mean of
// the annualized percent rate over the month's trading days. Returns are
// month-over-month percent changes; NaN for the first observation.
type MonthlyObservation struct {
	Month           time.Time
	PortfolioValue  float64
	BenchmarkValue  float64
	RiskFreeRate    float64
	PortfolioReturn float64
	BenchmarkReturn float64
}

// RiskStats holds the risk measurements for one series over a period. A nil
// field means the statistic is undefined for the period, e.g. beta with
// fewer than 3 paired months.
type RiskStats struct {
	StdDev      *float64 `json:"stdDev"`
	Alpha       *float64 `json:"alpha"`
	Beta        *float64 `json:"beta"`
	SharpeRatio *float64 `json:"sharpeRatio"`
	MaxDrawdown *float64 `json:"maxDrawdown"`
	UpCapture   *float64 `json:"upCapture"`
	DownCapture *float64 `json:"downCapture"`
}

// PeriodMetrics is the complete measurement set for one period.
type PeriodMetrics struct {
	Name            string    `json:"name"`
	Begin           time.Time `json:"begin"`
	End             time.Time `json:"end"`
	Months          int       `json:"months"`
	RiskFreeRate    *float64  `json:"riskFreeRate"`
	PortfolioReturn *float64  `json:"portfolioReturn"`
	BenchmarkReturn *float64  `json:"benchmarkReturn"`
	ExcessReturn    *float64  `json:"excessReturn"`
	Portfolio       RiskStats `json:"portfolio"`
	Benchmark       RiskStats `json:"benchmark"`
}

// ChartSeries is cumulative growth rebased to 0.0 at the window start, for
// at most the trailing 3 years of data.
type ChartSeries struct {
	Dates     []time.Time `json:"dates"`
	Portfolio []float64   `json:"portfolio"`
	Benchmark []float64   `json:"benchmark"`
}

// Result is the full output of analyzing a single portfolio.
type Result struct {
	Periods  []*PeriodMetrics `json:"periods"`
	Chart    *ChartSeries     `json:"chart"`
	Warnings []string         `json:"warnings"`
}

// NamedSeries pairs a portfolio label with its value series for
// multi-portfolio analysis.
type NamedSeries struct {
	Name   string            `json:"name"`
	Series timeseries.Series `json:"series"`
}

// CombinedChart overlays every portfolio and the benchmark on a shared set
// of dates, each rebased to 0.0 at the first shared date.
type CombinedChart struct {
	Dates      []time.Time          `json:"dates"`
	Portfolios map[string][]float64 `json:"portfolios"`
	Benchmark  []float64            `json:"benchmark"`
}

// MultiResult is the output of analyzing several portfolios against a
// single benchmark fetch. Comparison is keyed metric -> period -> portfolio.
type MultiResult struct {
	Portfolios map[string]*Result                       `json:"portfolios"`
	Comparison map[string]map[string]map[string]*float64 `json:"comparison"`
	Chart      *CombinedChart                           `json:"chart"`
	Warnings   []string                                 `json:"warnings"`
}

// roundPtr rounds x to the requested number of decimal places and returns a
// pointer, or nil when x is NaN or infinite.
func roundPtr(x float64, places int) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}

	pow := math.Pow(10, float64(places))
	r := math.Round(x*pow) / pow
	return &r
}
