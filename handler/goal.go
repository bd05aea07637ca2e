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

	"github.com/foliolens/folio-api/goalsim"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type GoalRequest struct {
	goalsim.Input
	// AssetMix, when present, derives volatility from the portfolio's
	// asset weights instead of the explicit Volatility field.
	AssetMix        *goalsim.AssetMix `json:"assetMix"`
	VolatilityScale float64           `json:"volatilityScale"`
}

// Goal runs the goal-probability Monte Carlo simulation.
func (h *Handler) Goal(c *fiber.Ctx) error {
	var request GoalRequest
	if err := c.BodyParser(&request); err != nil {
		log.Warn().Err(err).Msg("cannot parse goal request")
		return fiber.NewError(fiber.StatusBadRequest, "cannot parse request body")
	}

	input := request.Input
	if request.AssetMix != nil {
		scale := request.VolatilityScale
		if scale == 0 {
			scale = 1
		}
		input.Volatility = request.AssetMix.Volatility(scale)
	}

	outcome, err := goalsim.Simulate(&input, nil)
	if err != nil {
		if errors.Is(err, goalsim.ErrInvalidHorizon) ||
			errors.Is(err, goalsim.ErrInvalidVolatility) ||
			errors.Is(err, goalsim.ErrInvalidAmount) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		log.Error().Err(err).Msg("goal simulation failed")
		return fiber.ErrInternalServerError
	}

	return c.JSON(outcome)
}
