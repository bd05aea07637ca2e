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

// Package goalsim estimates the probability of reaching a savings goal by
// running repeated monthly random-walk simulations of portfolio growth.
package goalsim

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

const (
	DefaultSimulations = 10_000

	monthsPerYear = 12

	downsidePercentile = 0.05
	upsidePercentile   = 0.95
)

// Per-asset-class annualized volatility assumptions used to blend a
// portfolio level figure from an asset mix.
const (
	stockVolatility = 0.18
	bondVolatility  = 0.06
	cashVolatility  = 0.01
	otherVolatility = 0.12
)

var (
	ErrInvalidHorizon    = errors.New("horizon must be at least 1 year")
	ErrInvalidVolatility = errors.New("volatility must be non-negative")
	ErrInvalidAmount     = errors.New("amounts must be non-negative")
)

// Input describes a simulation request. Returns and volatility are decimal
// fractions, e.g. .07 for 7% per year. Simulations defaults to
// DefaultSimulations when zero.
type Input struct {
	CurrentAmount       float64 `json:"currentAmount"`
	GoalAmount          float64 `json:"goalAmount"`
	HorizonYears        int     `json:"horizonYears"`
	MonthlyContribution float64 `json:"monthlyContribution"`
	Year1Return         float64 `json:"year1Return"`
	LongTermReturn      float64 `json:"longTermReturn"`
	Volatility          float64 `json:"volatility"`
	Simulations         int     `json:"simulations"`
}

// Outcome summarizes the distribution of terminal portfolio values.
// Downside and Upside are the 5th and 95th percentile paths.
type Outcome struct {
	Median      float64 `json:"median"`
	Upside      float64 `json:"upside"`
	Downside    float64 `json:"downside"`
	Probability float64 `json:"probabilityOfSuccess"`
}

// AssetMix holds portfolio weights by asset class; weights should sum to 1.
type AssetMix struct {
	Stocks float64 `json:"stocks"`
	Bonds  float64 `json:"bonds"`
	Cash   float64 `json:"cash"`
	Other  float64 `json:"other"`
}

// Volatility blends the per-class volatility assumptions by weight. The
// scale multiplier adjusts for market regime; pass 1 for no adjustment.
func (mix AssetMix) Volatility(scale float64) float64 {
	blended := mix.Stocks*stockVolatility +
		mix.Bonds*bondVolatility +
		mix.Cash*cashVolatility +
		mix.Other*otherVolatility
	return blended * scale
}

// Simulate runs the Monte Carlo walk. Each path steps monthly: the
// contribution is deposited first, then the month's randomly drawn return
// is applied. The first 12 months draw from the year-1 expected return,
// later months from the steady-state return. Pass a seeded rng for
// reproducible results; a nil rng uses the shared unseeded source.
func Simulate(input *Input, rng *rand.Rand) (*Outcome, error) {
	if input.HorizonYears < 1 {
		return nil, ErrInvalidHorizon
	}
	if input.Volatility < 0 {
		return nil, ErrInvalidVolatility
	}
	if input.CurrentAmount < 0 || input.GoalAmount < 0 {
		return nil, ErrInvalidAmount
	}

	simulations := input.Simulations
	if simulations <= 0 {
		simulations = DefaultSimulations
	}

	months := input.HorizonYears * monthsPerYear
	year1Monthly := input.Year1Return / monthsPerYear
	steadyMonthly := input.LongTermReturn / monthsPerYear
	monthlyVol := input.Volatility / math.Sqrt(monthsPerYear)

	normal := gaussianSource(rng)

	finalValues := make([]float64, simulations)
	succeeded := 0

	for sim := 0; sim < simulations; sim++ {
		value := input.CurrentAmount

		for month := 0; month < months; month++ {
			mean := steadyMonthly
			if month < monthsPerYear {
				mean = year1Monthly
			}

			value += input.MonthlyContribution
			value *= 1.0 + mean + monthlyVol*normal()
		}

		finalValues[sim] = value
		if value >= input.GoalAmount {
			succeeded++
		}
	}

	sort.Float64s(finalValues)

	return &Outcome{
		Median:      percentile(finalValues, 0.5),
		Upside:      percentile(finalValues, upsidePercentile),
		Downside:    percentile(finalValues, downsidePercentile),
		Probability: float64(succeeded) / float64(simulations),
	}, nil
}

// percentile indexes the sorted values at floor(N * p).
func percentile(sorted []float64, p float64) float64 {
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// gaussianSource returns a standard normal sampler built on the Box-Muller
// transform. Draws come in pairs; the second draw of each pair is cached.
func gaussianSource(rng *rand.Rand) func() float64 {
	uniform := rand.Float64
	if rng != nil {
		uniform = rng.Float64
	}

	var cached float64
	haveCached := false

	return func() float64 {
		if haveCached {
			haveCached = false
			return cached
		}

		u1 := uniform()
		for u1 == 0 {
			u1 = uniform()
		}
		u2 := uniform()

		r := math.Sqrt(-2.0 * math.Log(u1))
		cached = r * math.Sin(2.0*math.Pi*u2)
		haveCached = true

		return r * math.Cos(2.0*math.Pi*u2)
	}
}
