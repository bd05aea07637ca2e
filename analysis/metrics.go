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

	"github.com/foliolens/folio-api/dataframe"
	"gonum.org/v1/gonum/stat"
)

const monthsPerYear = 12

// computeMetrics measures one period. The frame must already be trimmed to
// the period's date window. Statistics that cannot be computed for the
// period come back nil; only a frame too short to measure at all is an
// error.
func computeMetrics(def PeriodDefinition, period *dataframe.DataFrame, monthly []MonthlyObservation) (*PeriodMetrics, error) {
	if period.Len() < 2 {
		return nil, fmt.Errorf("%w: %d daily observations in period", ErrInsufficientData, period.Len())
	}

	portVals := period.Col(ColPortfolio)
	benchVals := period.Col(ColBenchmark)
	rfVals := period.Col(ColRiskFree)

	if portVals[0] == 0 || benchVals[0] == 0 {
		return nil, fmt.Errorf("%w: period begins with a zero value", ErrInsufficientData)
	}

	portReturn := portVals[len(portVals)-1]/portVals[0] - 1.0
	benchReturn := benchVals[len(benchVals)-1]/benchVals[0] - 1.0

	// mean annualized risk-free rate over the period, as a decimal
	rfAnnualAvg := stat.Mean(rfVals, nil) / 100.0

	metrics := &PeriodMetrics{
		Name:            def.Name,
		Begin:           period.Start(),
		End:             period.End(),
		Months:          countReturns(monthly, portfolioReturnOf),
		RiskFreeRate:    roundPtr(rfAnnualAvg, 4),
		PortfolioReturn: roundPtr(portReturn, 4),
		BenchmarkReturn: roundPtr(benchReturn, 4),
		ExcessReturn:    roundPtr(portReturn-benchReturn, 4),
		Portfolio:       riskStats(portReturn, rfAnnualAvg, portVals, monthly, portfolioReturnOf, false),
		Benchmark:       riskStats(benchReturn, rfAnnualAvg, benchVals, monthly, benchmarkReturnOf, true),
	}

	return metrics, nil
}

func portfolioReturnOf(obs MonthlyObservation) float64 { return obs.PortfolioReturn }
func benchmarkReturnOf(obs MonthlyObservation) float64 { return obs.BenchmarkReturn }

func countReturns(monthly []MonthlyObservation, returnOf func(MonthlyObservation) float64) int {
	cnt := 0
	for _, obs := range monthly {
		if !math.IsNaN(returnOf(obs)) {
			cnt++
		}
	}
	return cnt
}

// riskStats computes the risk block for one series of the period. isBenchmark
// short-circuits the relative statistics: the benchmark measured against
// itself has beta 1, alpha 0 and both captures 1 by construction, and they
// are reported as those exact constants rather than run through the
// regression.
func riskStats(totalReturn, rfAnnualAvg float64, daily []float64, monthly []MonthlyObservation, returnOf func(MonthlyObservation) float64, isBenchmark bool) RiskStats {
	stdDev := annualizedStdDev(monthly, returnOf)

	var alpha, beta, upCapture, downCapture float64
	if isBenchmark {
		beta = 1.0
		alpha = 0.0
		upCapture = 1.0
		downCapture = 1.0
	} else {
		beta, alpha = capm(monthly, returnOf)
		upCapture = captureRatio(monthly, returnOf, true)
		downCapture = captureRatio(monthly, returnOf, false)
	}

	sharpe := math.NaN()
	if !math.IsNaN(stdDev) && stdDev != 0 {
		sharpe = (totalReturn - rfAnnualAvg) / stdDev
	}

	return RiskStats{
		StdDev:      roundPtr(stdDev, 4),
		Alpha:       roundPtr(alpha, 4),
		Beta:        roundPtr(beta, 2),
		SharpeRatio: roundPtr(sharpe, 2),
		MaxDrawdown: roundPtr(maxDrawdown(daily), 4),
		UpCapture:   roundPtr(upCapture, 2),
		DownCapture: roundPtr(downCapture, 2),
	}
}

// annualizedStdDev is the sample standard deviation of monthly returns
// scaled by the square root of 12. NaN with fewer than 2 months.
func annualizedStdDev(monthly []MonthlyObservation, returnOf func(MonthlyObservation) float64) float64 {
	rets := make([]float64, 0, len(monthly))
	for _, obs := range monthly {
		if r := returnOf(obs); !math.IsNaN(r) {
			rets = append(rets, r)
		}
	}

	if len(rets) < 2 {
		return math.NaN()
	}

	return stat.StdDev(rets, nil) * math.Sqrt(monthsPerYear)
}

// capm regresses monthly excess returns of the subject against the
// benchmark. It needs at least 3 paired months; a benchmark with zero
// excess-return variance has no defined beta. Alpha is the annualized
// regression intercept.
func capm(monthly []MonthlyObservation, returnOf func(MonthlyObservation) float64) (beta, alpha float64) {
	subjExcess := make([]float64, 0, len(monthly))
	benchExcess := make([]float64, 0, len(monthly))

	for _, obs := range monthly {
		rs := returnOf(obs)
		rb := obs.BenchmarkReturn
		if math.IsNaN(rs) || math.IsNaN(rb) {
			continue
		}

		monthlyRf := obs.RiskFreeRate / 100.0 / monthsPerYear
		subjExcess = append(subjExcess, rs-monthlyRf)
		benchExcess = append(benchExcess, rb-monthlyRf)
	}

	if len(subjExcess) < 3 {
		return math.NaN(), math.NaN()
	}

	benchVariance := stat.Variance(benchExcess, nil)
	if benchVariance == 0 {
		return math.NaN(), math.NaN()
	}

	beta = stat.Covariance(subjExcess, benchExcess, nil) / benchVariance
	alpha = (stat.Mean(subjExcess, nil) - beta*stat.Mean(benchExcess, nil)) * monthsPerYear
	return beta, alpha
}

// maxDrawdown is the largest peak-to-trough decline over the daily values,
// reported as a negative fraction (0 when the series never declines).
func maxDrawdown(daily []float64) float64 {
	if len(daily) == 0 {
		return math.NaN()
	}

	peak := daily[0]
	maxDD := 0.0

	for _, v := range daily {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := v/peak - 1.0; dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// captureRatio is the subject's cumulative return over months when the
// benchmark rose (up) or fell (down), divided by the benchmark's cumulative
// return over the same months. NaN when no qualifying months exist or the
// benchmark's cumulative return is zero.
func captureRatio(monthly []MonthlyObservation, returnOf func(MonthlyObservation) float64, up bool) float64 {
	subjCum := 1.0
	benchCum := 1.0
	qualifying := 0

	for _, obs := range monthly {
		rs := returnOf(obs)
		rb := obs.BenchmarkReturn
		if math.IsNaN(rs) || math.IsNaN(rb) {
			continue
		}

		if (up && rb > 0) || (!up && rb < 0) {
			subjCum *= 1.0 + rs
			benchCum *= 1.0 + rb
			qualifying++
		}
	}

	if qualifying == 0 {
		return math.NaN()
	}

	subjCum -= 1.0
	benchCum -= 1.0

	if benchCum == 0 {
		return math.NaN()
	}

	return subjCum / benchCum
}
