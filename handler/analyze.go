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

package handler

import (
	"errors"
	"time"

	"github.com/foliolens/folio-api/analysis"
	"github.com/foliolens/folio-api/timeseries"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type AnalyzeRequest struct {
	Series timeseries.Series `json:"series"`
	AsOf   string            `json:"asOf"`
}

type AnalyzeMultiRequest struct {
	Portfolios []analysis.NamedSeries `json:"portfolios"`
	AsOf       string                 `json:"asOf"`
}

// Analyze measures a single portfolio value series against the configured
// benchmark and risk-free rate.
func (h *Handler) Analyze(c *fiber.Ctx) error {
	var request AnalyzeRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn().Err(err).Msg("cannot parse analyze request")
		return fiber.NewError(fiber.StatusBadRequest, "cannot parse request body")
	}

	opts, err := optionsFromRequest(request.AsOf)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := h.analyzer.Analyze(c.Context(), request.Series, opts)
	if err != nil {
		return analysisError(err)
	}

	return c.JSON(result)
}

// AnalyzeMulti measures several named portfolios side by side with a
// single benchmark fetch.
func (h *Handler) AnalyzeMulti(c *fiber.Ctx) error {
	var request AnalyzeMultiRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn().Err(err).Msg("cannot parse multi analyze request")
		return fiber.NewError(fiber.StatusBadRequest, "cannot parse request body")
	}

	opts, err := optionsFromRequest(request.AsOf)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := h.analyzer.AnalyzeMany(c.Context(), request.Portfolios, opts)
	if err != nil {
		return analysisError(err)
	}

	return c.JSON(result)
}

func optionsFromRequest(asOf string) (*analysis.Options, error) {
	opts := &analysis.Options{}
	if asOf != "" {
		dt, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return nil, errors.New("asOf must be formatted YYYY-MM-DD")
		}
		opts.AsOf = dt
	}
	return opts, nil
}

func analysisError(err error) error {
	switch {
	case errors.Is(err, analysis.ErrDataUnavailable):
		log.Error().Err(err).Msg("market data unavailable")
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, analysis.ErrInsufficientData),
		errors.Is(err, analysis.ErrNoPortfolios),
		errors.Is(err, timeseries.ErrEmpty),
		errors.Is(err, timeseries.ErrUnordered),
		errors.Is(err, timeseries.ErrDuplicateDate),
		errors.Is(err, timeseries.ErrNegativeValue):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	log.Error().Err(err).Msg("analysis failed")
	return fiber.ErrInternalServerError
}
