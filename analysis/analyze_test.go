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

package analysis_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliolens/folio-api/analysis"
	"github.com/foliolens/folio-api/timeseries"
)

func runAnalysis(portfolio, bench, rf timeseries.Series, opts *analysis.Options) *analysis.Result {
	analyzer := analysis.NewAnalyzer(&stubMarket{bench: bench, rf: rf})
	result, err := analyzer.Analyze(context.Background(), portfolio, opts)
	Expect(err).To(BeNil())
	return result
}

func fullPeriod(dates []time.Time) *analysis.Options {
	return &analysis.Options{
		Periods: []analysis.PeriodDefinition{
			{Name: "FULL", Begin: dates[0], End: dates[len(dates)-1]},
		},
	}
}

var _ = Describe("Analyze", func() {
	Context("with a flat portfolio against a rising benchmark", func() {
		var metrics *analysis.PeriodMetrics

		BeforeEach(func() {
			dates := monthEnds(2023, time.January, 13)
			portfolio := constSeries(dates, 100)
			bench := growthSeries(dates, 400, .01)
			rf := constSeries(dates, 2)

			result := runAnalysis(portfolio, bench, rf, fullPeriod(dates))
			Expect(result.Periods).To(HaveLen(1))
			metrics = result.Periods[0]
		})

		It("reports zero total return", func() {
			Expect(metrics.PortfolioReturn).NotTo(BeNil())
			Expect(*metrics.PortfolioReturn).To(Equal(0.0))
		})

		It("reports zero standard deviation", func() {
			Expect(metrics.Portfolio.StdDev).NotTo(BeNil())
			Expect(*metrics.Portfolio.StdDev).To(Equal(0.0))
		})

		It("reports beta of zero", func() {
			Expect(metrics.Portfolio.Beta).NotTo(BeNil())
			Expect(*metrics.Portfolio.Beta).To(BeNumerically("~", 0, .01))
		})

		It("leaves sharpe undefined when volatility is zero", func() {
			Expect(metrics.Portfolio.SharpeRatio).To(BeNil())
		})

		It("reports zero max drawdown", func() {
			Expect(metrics.Portfolio.MaxDrawdown).NotTo(BeNil())
			Expect(*metrics.Portfolio.MaxDrawdown).To(Equal(0.0))
		})

		It("counts 12 resolved months", func() {
			Expect(metrics.Months).To(Equal(12))
		})
	})

	Context("with a portfolio identical to its benchmark", func() {
		var metrics *analysis.PeriodMetrics

		BeforeEach(func() {
			dates := monthEnds(2021, time.January, 37)
			portfolio := returnsSeries(dates, 100, wavyReturns(36))
			bench := returnsSeries(dates, 100, wavyReturns(36))
			rf := constSeries(dates, 2)

			result := runAnalysis(portfolio, bench, rf, fullPeriod(dates))
			Expect(result.Periods).To(HaveLen(1))
			Expect(result.Warnings).To(BeEmpty())
			metrics = result.Periods[0]
		})

		It("reports beta of exactly one", func() {
			Expect(metrics.Portfolio.Beta).NotTo(BeNil())
			Expect(*metrics.Portfolio.Beta).To(Equal(1.0))
		})

		It("reports alpha of zero", func() {
			Expect(metrics.Portfolio.Alpha).NotTo(BeNil())
			Expect(*metrics.Portfolio.Alpha).To(BeNumerically("~", 0, .0001))
		})

		It("reports both capture ratios as one", func() {
			Expect(metrics.Portfolio.UpCapture).NotTo(BeNil())
			Expect(*metrics.Portfolio.UpCapture).To(Equal(1.0))
			Expect(metrics.Portfolio.DownCapture).NotTo(BeNil())
			Expect(*metrics.Portfolio.DownCapture).To(Equal(1.0))
		})

		It("reports the benchmark's own relative statistics as constants", func() {
			Expect(*metrics.Benchmark.Beta).To(Equal(1.0))
			Expect(*metrics.Benchmark.Alpha).To(Equal(0.0))
			Expect(*metrics.Benchmark.UpCapture).To(Equal(1.0))
			Expect(*metrics.Benchmark.DownCapture).To(Equal(1.0))
		})

		It("reports zero excess return", func() {
			Expect(metrics.ExcessReturn).NotTo(BeNil())
			Expect(*metrics.ExcessReturn).To(BeNumerically("~", 0, .0001))
		})
	})

	Context("sample size warnings", func() {
		warningsFor := func(points int) []string {
			dates := monthEnds(2020, time.January, points)
			portfolio := returnsSeries(dates, 100, wavyReturns(points-1))
			bench := growthSeries(dates, 400, .01)
			rf := constSeries(dates, 2)

			result := runAnalysis(portfolio, bench, rf, fullPeriod(dates))
			return result.Warnings
		}

		It("warns that 11 months may be unreliable", func() {
			Expect(warningsFor(12)).To(ContainElement(ContainSubstring("may be unreliable")))
		})

		It("does not call 12 months unreliable", func() {
			warnings := warningsFor(13)
			Expect(warnings).NotTo(ContainElement(ContainSubstring("may be unreliable")))
			Expect(warnings).To(ContainElement(ContainSubstring("below recommended 36 months")))
		})

		It("warns that 35 months is below the recommended sample", func() {
			Expect(warningsFor(36)).To(ContainElement(ContainSubstring("below recommended 36 months")))
		})

		It("is silent at 36 months", func() {
			Expect(warningsFor(37)).To(BeEmpty())
		})
	})

	Context("period failures", func() {
		It("converts a failed period into a warning and omits it", func() {
			dates := monthEnds(2024, time.January, 6)
			portfolio := constSeries(dates, 100)
			bench := growthSeries(dates, 400, .01)
			rf := constSeries(dates, 2)

			opts := &analysis.Options{
				Periods: []analysis.PeriodDefinition{
					{Name: "EMPTY", Begin: dates[0], End: dates[0]},
				},
			}

			result := runAnalysis(portfolio, bench, rf, opts)
			Expect(result.Periods).To(BeEmpty())
			Expect(result.Warnings).To(ContainElement(ContainSubstring("EMPTY: Could not calculate - ")))
		})
	})

	Context("chart generation", func() {
		It("starts both series at zero regardless of absolute values", func() {
			dates := monthEnds(2023, time.January, 18)
			portfolio := growthSeries(dates, 250000, .005)
			bench := growthSeries(dates, 4800, .01)
			rf := constSeries(dates, 2)

			result := runAnalysis(portfolio, bench, rf, fullPeriod(dates))
			Expect(result.Chart).NotTo(BeNil())
			Expect(result.Chart.Portfolio[0]).To(Equal(0.0))
			Expect(result.Chart.Benchmark[0]).To(Equal(0.0))
		})

		It("limits the window to the trailing three years", func() {
			dates := monthEnds(2020, time.January, 66) // Jan 2020 - Jun 2025
			portfolio := growthSeries(dates, 100, .005)
			bench := growthSeries(dates, 400, .005)
			rf := constSeries(dates, 2)

			result := runAnalysis(portfolio, bench, rf, nil)
			Expect(result.Chart).NotTo(BeNil())

			asOf := dates[len(dates)-1]
			horizon := asOf.AddDate(-3, 0, 0)
			Expect(result.Chart.Dates[0].Before(horizon)).To(BeFalse())
		})
	})

	Context("automatic period generation", func() {
		var result *analysis.Result

		BeforeEach(func() {
			dates := monthEnds(2020, time.January, 66) // Jan 2020 - Jun 2025
			portfolio := returnsSeries(dates, 100, wavyReturns(65))
			bench := growthSeries(dates, 400, .008)
			rf := constSeries(dates, 2)

			result = runAnalysis(portfolio, bench, rf, nil)
		})

		It("produces YTD, four prior years and a 3 year cumulative period", func() {
			names := make([]string, 0, len(result.Periods))
			for _, period := range result.Periods {
				names = append(names, period.Name)
			}
			Expect(names).To(Equal([]string{"YTD", "2024", "2023", "2022", "2021", "3Y Cumulative"}))
		})

		It("anchors YTD at the last trading day of the prior year", func() {
			Expect(result.Periods[0].Begin).To(Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, tz())))
		})

		It("spans full calendar years for year periods", func() {
			year2023 := result.Periods[2]
			Expect(year2023.Begin).To(Equal(time.Date(2022, 12, 31, 0, 0, 0, 0, tz())))
			Expect(year2023.End).To(Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, tz())))
			Expect(year2023.Months).To(Equal(12))
		})
	})

	Context("statistical properties", func() {
		It("keeps standard deviation invariant under a constant return shift", func() {
			dates := monthEnds(2022, time.January, 24)
			base := wavyReturns(23)
			shifted := make([]float64, len(base))
			for idx := range base {
				shifted[idx] = base[idx] + .004
			}

			bench := growthSeries(dates, 400, .01)
			rf := constSeries(dates, 2)

			resultA := runAnalysis(returnsSeries(dates, 100, base), bench, rf, fullPeriod(dates))
			resultB := runAnalysis(returnsSeries(dates, 100, shifted), bench, rf, fullPeriod(dates))

			stdDevA := resultA.Periods[0].Portfolio.StdDev
			stdDevB := resultB.Periods[0].Portfolio.StdDev
			Expect(stdDevA).NotTo(BeNil())
			Expect(stdDevB).NotTo(BeNil())
			Expect(*stdDevB).To(BeNumerically("~", *stdDevA, .0002))
		})

		It("bounds max drawdown between -1 and 0", func() {
			dates := monthEnds(2022, time.January, 24)
			portfolio := returnsSeries(dates, 100, wavyReturns(23))
			bench := growthSeries(dates, 400, .01)
			rf := constSeries(dates, 2)

			result := runAnalysis(portfolio, bench, rf, fullPeriod(dates))
			maxDD := result.Periods[0].Portfolio.MaxDrawdown
			Expect(maxDD).NotTo(BeNil())
			Expect(*maxDD).To(BeNumerically("<=", 0))
			Expect(*maxDD).To(BeNumerically(">=", -1))
		})
	})
})
