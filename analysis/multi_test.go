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

var _ = Describe("AnalyzeMany", func() {
	var (
		analyzer *analysis.Analyzer
		dates    []time.Time
		opts     *analysis.Options
	)

	BeforeEach(func() {
		dates = monthEnds(2021, time.January, 37)
		analyzer = analysis.NewAnalyzer(&stubMarket{
			bench: growthSeries(dates, 400, .008),
			rf:    constSeries(dates, 2),
		})
		opts = fullPeriod(dates)
	})

	It("analyzes every portfolio", func() {
		result, err := analyzer.AnalyzeMany(context.Background(), []analysis.NamedSeries{
			{Name: "Aggressive", Series: returnsSeries(dates, 100, wavyReturns(36))},
			{Name: "Conservative", Series: growthSeries(dates, 100, .004)},
		}, opts)
		Expect(err).To(BeNil())

		Expect(result.Portfolios).To(HaveLen(2))
		Expect(result.Portfolios).To(HaveKey("Aggressive"))
		Expect(result.Portfolios).To(HaveKey("Conservative"))
	})

	It("pivots metrics into a comparison structure", func() {
		result, err := analyzer.AnalyzeMany(context.Background(), []analysis.NamedSeries{
			{Name: "Aggressive", Series: returnsSeries(dates, 100, wavyReturns(36))},
			{Name: "Conservative", Series: growthSeries(dates, 100, .004)},
		}, opts)
		Expect(err).To(BeNil())

		totalReturn := result.Comparison["totalReturn"]["FULL"]
		Expect(totalReturn).To(HaveLen(2))
		Expect(totalReturn["Aggressive"]).NotTo(BeNil())
		Expect(totalReturn["Conservative"]).NotTo(BeNil())

		beta := result.Comparison["beta"]["FULL"]
		Expect(beta["Conservative"]).NotTo(BeNil())
	})

	It("builds a combined chart starting at zero for every series", func() {
		result, err := analyzer.AnalyzeMany(context.Background(), []analysis.NamedSeries{
			{Name: "Aggressive", Series: returnsSeries(dates, 100, wavyReturns(36))},
			{Name: "Conservative", Series: growthSeries(dates, 100, .004)},
		}, opts)
		Expect(err).To(BeNil())

		Expect(result.Chart).NotTo(BeNil())
		Expect(result.Chart.Portfolios["Aggressive"][0]).To(Equal(0.0))
		Expect(result.Chart.Portfolios["Conservative"][0]).To(Equal(0.0))
		Expect(result.Chart.Benchmark[0]).To(Equal(0.0))
	})

	It("turns a bad portfolio into a warning instead of failing the batch", func() {
		badSeries := timeseries.Series{
			{Date: dates[0], Value: 100},
			{Date: dates[1], Value: -5},
		}

		result, err := analyzer.AnalyzeMany(context.Background(), []analysis.NamedSeries{
			{Name: "Good", Series: returnsSeries(dates, 100, wavyReturns(36))},
			{Name: "Bad", Series: badSeries},
		}, opts)
		Expect(err).To(BeNil())

		Expect(result.Portfolios).To(HaveKey("Good"))
		Expect(result.Portfolios).NotTo(HaveKey("Bad"))
		Expect(result.Warnings).To(ContainElement(ContainSubstring("Bad: Could not calculate - ")))
	})

	It("rejects an empty portfolio list", func() {
		_, err := analyzer.AnalyzeMany(context.Background(), []analysis.NamedSeries{}, opts)
		Expect(err).To(MatchError(analysis.ErrNoPortfolios))
	})
})
