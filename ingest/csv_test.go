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

package ingest_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliolens/folio-api/ingest"
)

var _ = Describe("ReadSeries", func() {
	Context("with comma separated input", func() {
		It("parses a file with a header row", func() {
			series, err := ingest.ReadSeries(strings.NewReader("date,value\n2024-01-02,100.50\n2024-01-03,101.25\n"))
			Expect(err).To(BeNil())
			Expect(series).To(HaveLen(2))
			Expect(series[0].Value).To(Equal(100.50))
			Expect(series[0].Date.Format("2006-01-02")).To(Equal("2024-01-02"))
		})

		It("parses a file without a header row", func() {
			series, err := ingest.ReadSeries(strings.NewReader("2024-01-02,100\n2024-01-03,101\n"))
			Expect(err).To(BeNil())
			Expect(series).To(HaveLen(2))
		})

		It("strips currency symbols and thousands separators", func() {
			series, err := ingest.ReadSeries(strings.NewReader("date,value\n2024-01-02,\"$1,234.56\"\n2024-01-03,\"$1,240.00\"\n"))
			Expect(err).To(BeNil())
			Expect(series[0].Value).To(Equal(1234.56))
		})
	})

	Context("with other delimiters", func() {
		It("detects semicolons", func() {
			series, err := ingest.ReadSeries(strings.NewReader("date;value\n2024-01-02;100\n2024-01-03;101\n"))
			Expect(err).To(BeNil())
			Expect(series).To(HaveLen(2))
		})

		It("detects tabs", func() {
			series, err := ingest.ReadSeries(strings.NewReader("date\tvalue\n2024-01-02\t100\n2024-01-03\t101\n"))
			Expect(err).To(BeNil())
			Expect(series).To(HaveLen(2))
		})
	})

	Context("with alternate date formats", func() {
		It("accepts MM/DD/YYYY", func() {
			series, err := ingest.ReadSeries(strings.NewReader("1/2/2024,100\n1/3/2024,101\n"))
			Expect(err).To(BeNil())
			Expect(series[0].Date.Format("2006-01-02")).To(Equal("2024-01-02"))
		})

		It("accepts MM/DD/YY", func() {
			series, err := ingest.ReadSeries(strings.NewReader("1/2/24,100\n1/3/24,101\n"))
			Expect(err).To(BeNil())
			Expect(series[0].Date.Format("2006-01-02")).To(Equal("2024-01-02"))
		})
	})

	Context("with out of order rows", func() {
		It("sorts the result by date", func() {
			series, err := ingest.ReadSeries(strings.NewReader("2024-01-03,101\n2024-01-02,100\n"))
			Expect(err).To(BeNil())
			Expect(series[0].Date.Before(series[1].Date)).To(BeTrue())
		})
	})

	Context("with malformed input", func() {
		It("rejects an unparseable date", func() {
			_, err := ingest.ReadSeries(strings.NewReader("date,value\nnot-a-date,100\n"))
			Expect(err).To(MatchError(ingest.ErrMalformedInput))
		})

		It("rejects an unparseable value", func() {
			_, err := ingest.ReadSeries(strings.NewReader("date,value\n2024-01-02,banana\n"))
			Expect(err).To(MatchError(ingest.ErrMalformedInput))
		})

		It("rejects negative values", func() {
			_, err := ingest.ReadSeries(strings.NewReader("date,value\n2024-01-02,-100\n"))
			Expect(err).To(MatchError(ingest.ErrMalformedInput))
		})

		It("rejects a file with only a header", func() {
			_, err := ingest.ReadSeries(strings.NewReader("date,value\n"))
			Expect(err).To(MatchError(ingest.ErrMalformedInput))
		})

		It("rejects a single column file", func() {
			_, err := ingest.ReadSeries(strings.NewReader("2024-01-02\n2024-01-03\n"))
			Expect(err).To(MatchError(ingest.ErrMalformedInput))
		})
	})
})
