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
	"os"

	"github.com/foliolens/folio-api/common"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Logging configuration
	viper.BindEnv("log.level", "FOLIO_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "FOLIO_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "FOLIO_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "FOLIO_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable form")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Market data
	viper.BindEnv("market.benchmark", "FOLIO_BENCHMARK")
	rootCmd.PersistentFlags().String("benchmark", "SPY", "Benchmark ticker to measure against")
	viper.BindPFlag("market.benchmark", rootCmd.PersistentFlags().Lookup("benchmark"))

	viper.BindEnv("market.riskfree", "FOLIO_RISKFREE")
	rootCmd.PersistentFlags().String("riskfree", "DTB3", "FRED series used as the risk-free rate")
	viper.BindPFlag("market.riskfree", rootCmd.PersistentFlags().Lookup("riskfree"))

	viper.BindEnv("market.tiingo_token", "TIINGO_TOKEN")
	rootCmd.PersistentFlags().String("tiingo-token", "", "Tiingo API token")
	viper.BindPFlag("market.tiingo_token", rootCmd.PersistentFlags().Lookup("tiingo-token"))

	// Cache
	viper.BindEnv("cache.local_size", "FOLIO_CACHE_SIZE")
	rootCmd.PersistentFlags().Int("cache-size", 128, "Maximum number of symbols held in the local cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-size"))

	viper.BindEnv("cache.ttl", "FOLIO_CACHE_TTL")
	rootCmd.PersistentFlags().Duration("cache-ttl", 0, "Expire cached market data after this duration (0 = never)")
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	viper.BindEnv("cache.redis", "FOLIO_CACHE_REDIS")
	rootCmd.PersistentFlags().Bool("cache-redis", false, "Use redis as a shared second-level cache")
	viper.BindPFlag("cache.redis", rootCmd.PersistentFlags().Lookup("cache-redis"))

	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("redis-url", "redis://localhost:6379", "Redis connection url")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("redis-url"))

	// OpenTelemetry
	viper.BindEnv("otlp.enabled", "FOLIO_OTLP_ENABLED")
	rootCmd.PersistentFlags().Bool("otlp-enabled", false, "Export traces over OTLP")
	viper.BindPFlag("otlp.enabled", rootCmd.PersistentFlags().Lookup("otlp-enabled"))

	viper.BindEnv("otlp.endpoint", "FOLIO_OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "localhost:4317", "OTLP collector endpoint")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	viper.BindEnv("otlp.http", "FOLIO_OTLP_HTTP")
	rootCmd.PersistentFlags().Bool("otlp-http", false, "Use HTTP instead of gRPC for the OTLP connection")
	viper.BindPFlag("otlp.http", rootCmd.PersistentFlags().Lookup("otlp-http"))
}

var rootCmd = &cobra.Command{
	Use:     "folio",
	Version: common.CurrentVersion.String(),
	Short:   "Folio computes portfolio performance and risk analytics",
	Long:    `Measure a portfolio value series against a benchmark: returns, risk statistics, period reports, and goal-probability simulation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
