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
	"fmt"
	"math"
	"time"

	"github.com/foliolens/folio-api/dataframe"
	"github.com/foliolens/folio-api/timeseries"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Align joins the benchmark and risk-free series onto the portfolio's
// trading days and returns a dataframe with value and return columns. The
// portfolio calendar wins: benchmark and risk-free observations on days the
// portfolio did not trade are dropped, and gaps on portfolio days are
// forward-filled from the most recent prior observation. The benchmark
// value column is rescaled so its first value equals the portfolio's first
// value; returns are computed before rescaling so they are unaffected.
func Align(portfolio, benchmark, riskFree timeseries.Series) (*dataframe.DataFrame, error) {
	portfolio = portfolio.Normalize()
	if err := portfolio.Validate(); err != nil {
		return nil, fmt.Errorf("invalid portfolio series: %w", err)
	}

	if len(benchmark) == 0 || len(riskFree) == 0 {
		return nil, ErrDataUnavailable
	}

	benchmark = benchmark.Normalize()
	riskFree = riskFree.Normalize()

	dates := portfolio.Dates()
	n := len(dates)

	benchVals, benchPrior := fillForward(dates, benchmark)
	rfVals, _ := fillForward(dates, riskFree)

	// risk-free rates carry no scale; a leading gap is back-filled from
	// the first known rate
	backfill(rfVals)

	// a leading benchmark gap is back-filled too so the rescale anchor is
	// always defined; the corresponding returns stay at zero
	backfill(benchVals)

	portVals := portfolio.Values()
	portRets := make([]float64, n)
	benchRets := make([]float64, n)

	portRets[0] = math.NaN()
	if !math.IsNaN(benchPrior) && benchPrior != 0 {
		benchRets[0] = benchVals[0]/benchPrior - 1.0
	} else {
		benchRets[0] = 0
	}

	for idx := 1; idx < n; idx++ {
		portRets[idx] = portVals[idx]/portVals[idx-1] - 1.0
		benchRets[idx] = benchVals[idx]/benchVals[idx-1] - 1.0
	}

	// rescale the benchmark to the portfolio's starting value so the two
	// growth curves are directly comparable
	if benchVals[0] == 0 {
		log.Warn().Time("Date", dates[0]).Msg("benchmark value is zero on first portfolio date; skipping rescale")
	} else {
		floats.Scale(portVals[0]/benchVals[0], benchVals)
	}

	df := dataframe.New(dates)
	df.Insert(ColPortfolio, portVals)
	df.Insert(ColBenchmark, benchVals)
	df.Insert(ColRiskFree, rfVals)
	df.Insert(ColPortfolioReturn, portRets)
	df.Insert(ColBenchmarkReturn, benchRets)

	return df, nil
}

// fillForward samples other onto dates, carrying the most recent prior
// value across gaps. It also returns the last value of other strictly
// before dates[0], or NaN when none exists.
func fillForward(dates []time.Time, other timeseries.Series) ([]float64, float64) {
	vals := make([]float64, len(dates))
	prior := math.NaN()

	oi := 0
	last := math.NaN()

	for idx, dt := range dates {
		for oi < len(other) && !other[oi].Date.After(dt) {
			if other[oi].Date.Before(dates[0]) {
				prior = other[oi].Value
			}
			last = other[oi].Value
			oi++
		}
		vals[idx] = last
	}

	return vals, prior
}

// backfill replaces a leading run of NaN with the first defined value.
func backfill(vals []float64) {
	first := math.NaN()
	for _, v := range vals {
		if !math.IsNaN(v) {
			first = v
			break
		}
	}

	for idx := range vals {
		if math.IsNaN(vals[idx]) {
			vals[idx] = first
		} else {
			break
		}
	}
}
