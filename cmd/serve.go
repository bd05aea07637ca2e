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
	"os/signal"
	"time"

	"github.com/foliolens/folio-api/analysis"
	"github.com/foliolens/folio-api/common"
	"github.com/foliolens/folio-api/data"
	"github.com/foliolens/folio-api/handler"
	"github.com/foliolens/folio-api/observability/opentelemetry"
	"github.com/foliolens/folio-api/router"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the folio API server",
	Long:  `Run HTTP server that implements the folio analysis API`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		log.Info().Msg("initialized logging")

		if viper.GetBool("otlp.enabled") {
			shutdown, err := opentelemetry.Setup()
			if err != nil {
				log.Error().Err(err).Msg("could not initialize opentelemetry")
			} else {
				defer func() {
					if err := shutdown(context.Background()); err != nil {
						log.Error().Err(err).Msg("opentelemetry shutdown failed")
					}
				}()
			}
		}

		// Initialize market data
		manager := data.NewManager()
		analyzer := analysis.NewAnalyzer(manager)
		log.Info().Str("Benchmark", manager.BenchmarkSymbol()).Msg("initialized market data manager")

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("error on app shutdown")
			}
		}()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD",
		}
		app.Use(cors.New(corsConfig))

		// Setup routes
		router.SetupRoutes(app, handler.New(analyzer))

		// Refresh the market data cache nightly; prime it now
		scheduler := gocron.NewScheduler(common.GetTimezone())
		scheduler.Every(1).Day().At("01:00").Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			manager.Warmup(ctx)
		})
		scheduler.StartAsync()

		// Start server
		if err := app.Listen(fmt.Sprintf(":%d", viper.GetInt("server.port"))); err != nil {
			log.Fatal().Err(err).Msg("could not start server")
		}
	},
}
