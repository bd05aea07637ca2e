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
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliolens/folio-api/analysis"
)

var _ = Describe("Monthly", func() {
	It("keeps the last trading day of each month", func() {
		dates := []time.Time{
			time.Date(2024, 1, 2, 0, 0, 0, 0, tz()),
			time.Date(2024, 1, 16, 0, 0, 0, 0, tz()),
			time.Date(2024, 1, 31, 0, 0, 0, 0, tz()),
			time.Date(2024, 2, 1, 0, 0, 0, 0, tz()),
			time.Date(2024, 2, 29, 0, 0, 0, 0, tz()),
		}
		portfolio := seriesOf(dates, []float64{100, 101, 102, 103, 104})

		df, err := analysis.Align(portfolio, constSeries(dates, 400), constSeries(dates, 2))
		Expect(err).To(BeNil())

		obs := analysis.Monthly(df)
		Expect(obs).To(HaveLen(2))
		Expect(obs[0].Month).To(Equal(dates[2]))
		Expect(obs[0].PortfolioValue).To(Equal(102.0))
		Expect(obs[1].Month).To(Equal(dates[4]))
		Expect(obs[1].PortfolioValue).To(Equal(104.0))
	})

	It("averages the risk-free rate within each month", func() {
		dates := []time.Time{
			time.Date(2024, 3, 1, 0, 0, 0, 0, tz()),
			time.Date(2024, 3, 15, 0, 0, 0, 0, tz()),
			time.Date(2024, 3, 28, 0, 0, 0, 0, tz()),
		}
		portfolio := constSeries(dates, 100)
		riskFree := seriesOf(dates, []float64{2.0, 3.0, 4.0})

		df, err := analysis.Align(portfolio, constSeries(dates, 400), riskFree)
		Expect(err).To(BeNil())

		obs := analysis.Monthly(df)
		Expect(obs).To(HaveLen(1))
		Expect(obs[0].RiskFreeRate).To(BeNumerically("~", 3.0, 1e-9))
	})

	It("leaves the first month's return undefined", func() {
		dates := monthEnds(2024, time.January, 3)
		portfolio := seriesOf(dates, []float64{100, 110, 121})

		df, err := analysis.Align(portfolio, constSeries(dates, 400), constSeries(dates, 2))
		Expect(err).To(BeNil())

		obs := analysis.Monthly(df)
		Expect(obs).To(HaveLen(3))
		Expect(math.IsNaN(obs[0].PortfolioReturn)).To(BeTrue())
		Expect(obs[1].PortfolioReturn).To(BeNumerically("~", .10, 1e-9))
		Expect(obs[2].PortfolioReturn).To(BeNumerically("~", .10, 1e-9))
	})
})
