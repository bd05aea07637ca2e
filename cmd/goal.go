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

package cmd

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/foliolens/folio-api/common"
	"github.com/foliolens/folio-api/goalsim"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var goalInput goalsim.Input
var goalSeed int64

func init() {
	goalCmd.Flags().Float64Var(&goalInput.CurrentAmount, "current", 0, "Current portfolio value")
	goalCmd.Flags().Float64Var(&goalInput.GoalAmount, "goal", 0, "Target portfolio value")
	goalCmd.Flags().IntVar(&goalInput.HorizonYears, "years", 10, "Years until the goal date")
	goalCmd.Flags().Float64Var(&goalInput.MonthlyContribution, "contribution", 0, "Monthly contribution")
	goalCmd.Flags().Float64Var(&goalInput.Year1Return, "year1-return", .07, "Expected return for the first year (decimal)")
	goalCmd.Flags().Float64Var(&goalInput.LongTermReturn, "long-term-return", .07, "Expected steady-state annual return (decimal)")
	goalCmd.Flags().Float64Var(&goalInput.Volatility, "volatility", .12, "Annualized volatility (decimal)")
	goalCmd.Flags().IntVar(&goalInput.Simulations, "simulations", goalsim.DefaultSimulations, "Number of Monte Carlo paths")
	goalCmd.Flags().Int64Var(&goalSeed, "seed", 0, "Random seed for reproducible runs (0 = unseeded)")

	rootCmd.AddCommand(goalCmd)
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Estimate the probability of reaching a savings goal",
	Long:  `Run a Monte Carlo simulation of monthly contributions and market returns over the goal horizon.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		var rng *rand.Rand
		if goalSeed != 0 {
			rng = rand.New(rand.NewSource(goalSeed))
		}

		outcome, err := goalsim.Simulate(&goalInput, rng)
		if err != nil {
			log.Fatal().Err(err).Msg("simulation failed")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Probability", "Downside (5th)", "Median", "Upside (95th)"})
		table.Append([]string{
			fmt.Sprintf("%.1f%%", outcome.Probability*100),
			fmt.Sprintf("%.2f", outcome.Downside),
			fmt.Sprintf("%.2f", outcome.Median),
			fmt.Sprintf("%.2f", outcome.Upside),
		})
		table.Render()
	},
}
