// Copyright 2021-2023
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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/horizon/common"
	"github.com/penny-vault/horizon/observability/opentelemetry"
	"github.com/penny-vault/horizon/returns"
	"github.com/penny-vault/horizon/simulate"
	"github.com/penny-vault/horizon/survival"
	"github.com/penny-vault/horizon/sweep"
)

var shutdownTracing func(context.Context) error

// bindFlag registers a persistent flag's viper key and environment variable
func bindFlag(key, env, flag string) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind environment variable")
	}
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind flag")
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	defaults := simulate.DefaultOptions()

	// Simulation
	flags.Uint64("seed", 0, "Random seed; 0 draws a seed from the clock")
	bindFlag("simulation.seed", "HORIZON_SEED", "seed")

	flags.Int("workers", 0, "Number of concurrent simulation workers; 0 uses one per CPU")
	bindFlag("simulation.workers", "HORIZON_WORKERS", "workers")

	flags.StringSlice("methods", []string{"IID", "Block", "Stationary", "Normal", "StudentT"}, "Simulation methods to run")
	bindFlag("simulation.methods", "HORIZON_METHODS", "methods")

	flags.Int("block-size", defaults.BlockSize, "Block length of the block bootstrap")
	bindFlag("simulation.block_size", "HORIZON_BLOCK_SIZE", "block-size")

	flags.Float64("restart-probability", defaults.RestartProbability, "Restart probability of the stationary bootstrap")
	bindFlag("simulation.restart_probability", "HORIZON_RESTART_PROBABILITY", "restart-probability")

	// Horizon sweep
	flags.IntSlice("horizons", sweep.DefaultHorizons(), "Holding horizons in months")
	bindFlag("sweep.horizons", "HORIZON_HORIZONS", "horizons")

	flags.Int("trials", sweep.DefaultTrials, "Simulated paths per horizon")
	bindFlag("sweep.trials", "HORIZON_TRIALS", "trials")

	// Survival
	flags.Int("survival-trials", survival.DefaultTrials, "Simulated paths for the survival curve")
	bindFlag("survival.trials", "HORIZON_SURVIVAL_TRIALS", "survival-trials")

	flags.Int("survival-max-horizon", survival.DefaultMaxHorizon, "Length of survival paths in months")
	bindFlag("survival.max_horizon", "HORIZON_SURVIVAL_MAX_HORIZON", "survival-max-horizon")

	flags.Int("survival-threshold", survival.DefaultThreshold, "Months before recovery is checked")
	bindFlag("survival.threshold", "HORIZON_SURVIVAL_THRESHOLD", "survival-threshold")

	flags.Float64("confidence", survival.DefaultConfidence, "Confidence level of the survival band")
	bindFlag("survival.confidence", "HORIZON_SURVIVAL_CONFIDENCE", "confidence")

	// Input
	flags.String("input", "", "Return panel: CSV file path, http(s) URL, or `database`")
	bindFlag("input.source", "HORIZON_INPUT", "input")

	flags.String("input-table", returns.DefaultTable, "Database table holding monthly returns")
	bindFlag("input.table", "HORIZON_INPUT_TABLE", "input-table")

	flags.StringSlice("labels", []string{}, "Series to read from the database")
	bindFlag("input.labels", "HORIZON_INPUT_LABELS", "labels")

	flags.String("date-column", "date", "Name of the date column in CSV input")
	bindFlag("input.date_column", "HORIZON_DATE_COLUMN", "date-column")

	flags.Bool("percent", false, "Input returns are quoted in percent")
	bindFlag("input.percent", "HORIZON_PERCENT", "percent")

	// Output
	flags.String("output-dir", "", "Directory to write result files to; blank writes nothing")
	bindFlag("output.dir", "HORIZON_OUTPUT_DIR", "output-dir")

	flags.StringSlice("formats", []string{"csv", "json"}, "Result file formats: csv, json, xlsx")
	bindFlag("output.formats", "HORIZON_OUTPUT_FORMATS", "formats")

	// Cache
	flags.Bool("cache", false, "Cache results of seeded runs")
	bindFlag("cache.enabled", "HORIZON_CACHE", "cache")

	flags.String("redis-url", "", "Share the result cache through Redis")
	bindFlag("cache.redis_url", "REDIS_URL", "redis-url")
	viper.SetDefault("cache.local_size", common.DefaultLocalCacheSize)
	viper.SetDefault("cache.ttl", 7*24*60*60)

	// Database
	flags.String("database-url", "", "PostgreSQL connection string")
	bindFlag("database.url", "DATABASE_URL", "database-url")

	// Tracing
	flags.String("otlp-endpoint", "", "OTLP endpoint to export traces to; blank disables tracing")
	bindFlag("otlp.endpoint", "HORIZON_OTLP_ENDPOINT", "otlp-endpoint")

	// Logging configuration
	flags.String("log-level", "info", "Logging level")
	bindFlag("log.level", "HORIZON_LOG_LEVEL", "log-level")

	flags.Bool("log-report-caller", false, "Log function name that called log statement")
	bindFlag("log.report_caller", "HORIZON_LOG_REPORT_CALLER", "log-report-caller")

	flags.String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	bindFlag("log.output", "HORIZON_LOG_OUTPUT", "log-output")

	flags.Bool("log-pretty", true, "Format logs for humans instead of as JSON")
	bindFlag("log.pretty", "HORIZON_LOG_PRETTY", "log-pretty")
}

var rootCmd = &cobra.Command{
	Use:     "horizon",
	Version: common.CurrentVersion.String(),
	Short:   "Simulate the odds and duration of underperformance",
	Long: `horizon estimates how likely a portfolio, or its excess return over a
benchmark, is to lose money over holding periods of 1 to 15 years, and how long
it takes to recover, using bootstrap and parametric return simulations.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		common.SetupLogging()

		var err error
		shutdownTracing, err = opentelemetry.Setup()
		if err != nil {
			log.Warn().Err(err).Msg("could not set up tracing")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdownTracing == nil {
			return
		}
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("could not flush traces")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
