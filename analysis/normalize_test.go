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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliolens/folio-api/analysis"
	"github.com/foliolens/folio-api/timeseries"
)

var _ = Describe("Align", func() {
	var (
		dates     []time.Time
		portfolio timeseries.Series
	)

	BeforeEach(func() {
		dates = []time.Time{
			time.Date(2024, 1, 2, 0, 0, 0, 0, tz()),
			time.Date(2024, 1, 3, 0, 0, 0, 0, tz()),
			time.Date(2024, 1, 4, 0, 0, 0, 0, tz()),
			time.Date(2024, 1, 5, 0, 0, 0, 0, tz()),
		}
		portfolio = seriesOf(dates, []float64{200, 202, 204, 206})
	})

	Context("with complete benchmark coverage", func() {
		It("keeps the portfolio trading calendar", func() {
			benchmark := constSeries(dates, 400)
			riskFree := constSeries(dates, 2)

			df, err := analysis.Align(portfolio, benchmark, riskFree)
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(4))
			Expect(df.Dates).To(Equal(dates))
		})

		It("rescales the benchmark to the portfolio's first value", func() {
			benchmark := growthSeries(dates, 400, .02)
			riskFree := constSeries(dates, 2)

			df, err := analysis.Align(portfolio, benchmark, riskFree)
			Expect(err).To(BeNil())

			benchVals := df.Col(analysis.ColBenchmark)
			Expect(benchVals[0]).To(BeNumerically("~", 200, 1e-9))
			Expect(benchVals[1]).To(BeNumerically("~", 204, 1e-9))
		})

		It("computes returns before rescaling", func() {
			benchmark := growthSeries(dates, 400, .02)
			riskFree := constSeries(dates, 2)

			df, err := analysis.Align(portfolio, benchmark, riskFree)
			Expect(err).To(BeNil())

			benchRets := df.Col(analysis.ColBenchmarkReturn)
			Expect(benchRets[0]).To(Equal(0.0))
			Expect(benchRets[1]).To(BeNumerically("~", .02, 1e-9))
		})
	})

	Context("with benchmark gaps", func() {
		It("forward fills missing benchmark days", func() {
			// benchmark missing Jan 4
			benchmark := seriesOf([]time.Time{dates[0], dates[1], dates[3]}, []float64{400, 410, 430})
			riskFree := constSeries(dates, 2)

			df, err := analysis.Align(portfolio, benchmark, riskFree)
			Expect(err).To(BeNil())

			benchRets := df.Col(analysis.ColBenchmarkReturn)
			Expect(benchRets[2]).To(Equal(0.0))
			Expect(benchRets[3]).To(BeNumerically("~", 430.0/410.0-1.0, 1e-9))
		})

		It("uses a prior benchmark observation for the first return", func() {
			prior := time.Date(2023, 12, 29, 0, 0, 0, 0, tz())
			benchmark := seriesOf(append([]time.Time{prior}, dates...), []float64{390, 400, 410, 420, 430})
			riskFree := constSeries(dates, 2)

			df, err := analysis.Align(portfolio, benchmark, riskFree)
			Expect(err).To(BeNil())

			benchRets := df.Col(analysis.ColBenchmarkReturn)
			Expect(benchRets[0]).To(BeNumerically("~", 400.0/390.0-1.0, 1e-9))
		})
	})

	Context("with missing market data", func() {
		It("errors when the benchmark is empty", func() {
			_, err := analysis.Align(portfolio, timeseries.Series{}, constSeries(dates, 2))
			Expect(err).To(MatchError(analysis.ErrDataUnavailable))
		})

		It("errors when the risk-free series is empty", func() {
			_, err := analysis.Align(portfolio, constSeries(dates, 400), timeseries.Series{})
			Expect(err).To(MatchError(analysis.ErrDataUnavailable))
		})
	})

	Context("with an invalid portfolio", func() {
		It("rejects negative values", func() {
			bad := seriesOf(dates[:2], []float64{100, -5})
			_, err := analysis.Align(bad, constSeries(dates, 400), constSeries(dates, 2))
			Expect(err).To(HaveOccurred())
		})
	})
})
