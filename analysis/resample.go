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
	"math"

	"github.com/foliolens/folio-api/dataframe"
	"gonum.org/v1/gonum/stat"
)

// Monthly collapses an aligned daily frame to month-end observations.
// Portfolio and benchmark take the value of the last trading day within
// each calendar month; the risk-free rate is the mean of the month's daily
// annualized rates. An anchor row whose month contains only that single
// trading day still yields an observation, which is how a period anchored
// at the last trading day of the prior year contributes its starting value.
func Monthly(df *dataframe.DataFrame) []MonthlyObservation {
	if df.Len() == 0 {
		return nil
	}

	portVals := df.Col(ColPortfolio)
	benchVals := df.Col(ColBenchmark)
	rfVals := df.Col(ColRiskFree)

	obs := make([]MonthlyObservation, 0, df.Len()/20+2)

	monthStart := 0
	for idx := 1; idx <= df.Len(); idx++ {
		if idx < df.Len() &&
			df.Dates[idx].Year() == df.Dates[monthStart].Year() &&
			df.Dates[idx].Month() == df.Dates[monthStart].Month() {
			continue
		}

		last := idx - 1
		obs = append(obs, MonthlyObservation{
			Month:          df.Dates[last],
			PortfolioValue: portVals[last],
			BenchmarkValue: benchVals[last],
			RiskFreeRate:   stat.Mean(rfVals[monthStart:idx], nil),
		})

		monthStart = idx
	}

	pctChange(obs)
	return obs
}

// pctChange fills in month-over-month returns; the first observation has no
// prior month and is left NaN.
func pctChange(obs []MonthlyObservation) {
	for idx := range obs {
		if idx == 0 {
			obs[idx].PortfolioReturn = math.NaN()
			obs[idx].BenchmarkReturn = math.NaN()
			continue
		}

		obs[idx].PortfolioReturn = obs[idx].PortfolioValue/obs[idx-1].PortfolioValue - 1.0
		obs[idx].BenchmarkReturn = obs[idx].BenchmarkValue/obs[idx-1].BenchmarkValue - 1.0
	}
}
