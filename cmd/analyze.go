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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/foliolens/folio-api/analysis"
	"github.com/foliolens/folio-api/common"
	"github.com/foliolens/folio-api/data"
	"github.com/foliolens/folio-api/ingest"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	analyzeAsOf  string
	analyzeChart bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "Analyze as of this date (YYYY-MM-DD); defaults to the last trading day in the file")
	analyzeCmd.Flags().BoolVar(&analyzeChart, "chart", false, "Draw the cumulative return chart in the terminal")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Args:  cobra.ExactArgs(1),
	Short: "Analyze a portfolio value file",
	Long:  `Read a date,value file and report performance and risk statistics against the configured benchmark.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		fh, err := os.Open(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("cannot open input file")
		}
		defer fh.Close()

		series, err := ingest.ReadSeries(fh)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("cannot parse input file")
		}

		opts := &analysis.Options{}
		if analyzeAsOf != "" {
			opts.AsOf, err = time.ParseInLocation("2006-01-02", analyzeAsOf, common.GetTimezone())
			if err != nil {
				log.Fatal().Err(err).Str("AsOf", analyzeAsOf).Msg("cannot parse as-of date")
			}
		}

		analyzer := analysis.NewAnalyzer(data.NewManager())
		result, err := analyzer.Analyze(context.Background(), series, opts)
		if err != nil {
			log.Fatal().Err(err).Msg("analysis failed")
		}

		printReport(result)

		if analyzeChart && result.Chart != nil {
			fmt.Println()
			fmt.Println(asciigraph.Plot(result.Chart.Portfolio,
				asciigraph.Height(15),
				asciigraph.Caption("cumulative return (portfolio)")))
		}
	},
}

func printReport(result *analysis.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Period", "Months", "Return", "Benchmark", "Excess", "Std Dev", "Alpha", "Beta", "Sharpe", "Max DD", "Up Cap", "Down Cap"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")

	for _, period := range result.Periods {
		table.Append([]string{
			period.Name,
			fmt.Sprintf("%d", period.Months),
			fmtPct(period.PortfolioReturn),
			fmtPct(period.BenchmarkReturn),
			fmtPct(period.ExcessReturn),
			fmtPct(period.Portfolio.StdDev),
			fmtPct(period.Portfolio.Alpha),
			fmtVal(period.Portfolio.Beta),
			fmtVal(period.Portfolio.SharpeRatio),
			fmtPct(period.Portfolio.MaxDrawdown),
			fmtVal(period.Portfolio.UpCapture),
			fmtVal(period.Portfolio.DownCapture),
		})
	}

	table.Render()

	for _, warning := range result.Warnings {
		fmt.Printf("WARNING: %s\n", warning)
	}
}

func fmtPct(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func fmtVal(v *float64) string {
	if v == nil {
		return "--"
	}
	return fmt.Sprintf("%.2f", *v)
}
