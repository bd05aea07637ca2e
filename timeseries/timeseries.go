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

// Package timeseries holds the value types exchanged between the ingestion
// boundary, the market-data providers, and the analytics engine: an ordered
// sequence of dated market-value observations.
package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrEmpty         = errors.New("series contains no observations")
	ErrUnordered     = errors.New("series dates are not strictly increasing")
	ErrDuplicateDate = errors.New("series contains duplicate dates")
	ErrNegativeValue = errors.New("series contains a negative value")
)

// Point is a single observation of a portfolio's or index's market value on
// a trading day. Points are never mutated once produced.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of points, strictly increasing by date.
type Series []Point

// Normalize sorts the series ascending by date and removes duplicate dates,
// keeping the last observation recorded for each date. The receiver is not
// modified.
func (s Series) Normalize() Series {
	if len(s) == 0 {
		return Series{}
	}

	sorted := make(Series, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make(Series, 0, len(sorted))
	for _, pt := range sorted {
		if len(out) > 0 && sameDay(out[len(out)-1].Date, pt.Date) {
			// keep the last observation for the day
			out[len(out)-1] = pt
			continue
		}
		out = append(out, pt)
	}

	return out
}

// Validate checks the invariants every series must satisfy before it enters
// a computation: non-empty, strictly increasing dates, no negative values.
func (s Series) Validate() error {
	if len(s) == 0 {
		return ErrEmpty
	}

	for idx, pt := range s {
		if pt.Value < 0 {
			return fmt.Errorf("%w: %.4f on %s", ErrNegativeValue, pt.Value, pt.Date.Format("2006-01-02"))
		}

		if idx == 0 {
			continue
		}

		prev := s[idx-1].Date
		switch {
		case sameDay(prev, pt.Date):
			return fmt.Errorf("%w: %s", ErrDuplicateDate, pt.Date.Format("2006-01-02"))
		case pt.Date.Before(prev):
			return fmt.Errorf("%w: %s after %s", ErrUnordered, prev.Format("2006-01-02"), pt.Date.Format("2006-01-02"))
		}
	}

	return nil
}

// Between returns the sub-series with dates in [begin, end], inclusive.
func (s Series) Between(begin, end time.Time) Series {
	startIdx := sort.Search(len(s), func(i int) bool {
		return !s[i].Date.Before(begin)
	})
	endIdx := sort.Search(len(s), func(i int) bool {
		return s[i].Date.After(end)
	})

	return s[startIdx:endIdx]
}

// First returns the earliest point in the series; the zero Point when empty.
func (s Series) First() Point {
	if len(s) == 0 {
		return Point{}
	}
	return s[0]
}

// Last returns the latest point in the series; the zero Point when empty.
func (s Series) Last() Point {
	if len(s) == 0 {
		return Point{}
	}
	return s[len(s)-1]
}

// Dates returns the date column of the series.
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for idx, pt := range s {
		dates[idx] = pt.Date
	}
	return dates
}

// Values returns the value column of the series.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for idx, pt := range s {
		vals[idx] = pt.Value
	}
	return vals
}

// MarshalZerologObject implements the log marshaller interface for zerolog
func (s Series) MarshalZerologObject(e *zerolog.Event) {
	e.Int("NumObservations", len(s))
	if len(s) > 0 {
		e.Time("Begin", s.First().Date).Time("End", s.Last().Date)
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
