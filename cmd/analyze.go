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

	"github.com/penny-vault/horizon/analysis"
	"github.com/penny-vault/horizon/common"
	"github.com/penny-vault/horizon/report"
	"github.com/penny-vault/horizon/returns"
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [label...]",
	Short: "Estimate underperformance probabilities and recovery times",
	Long: `Run every configured simulation method over the horizon grid and estimate the
time to recovery survival curve for each series. Without arguments every
portfolio and excess series is analyzed.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := buildConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}

		series, err := loadSeries(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load return series")
		}
		series, err = selectSeries(series, args)
		if err != nil {
			log.Fatal().Err(err).Msg("could not select series")
		}

		var cache analysis.Cache
		localCache, err := common.SetupCache()
		if err != nil {
			log.Fatal().Err(err).Msg("could not set up cache")
		}
		if localCache != nil {
			cache = localCache
		}

		err = analyze(ctx, series, cfg, cache)
		if localCache != nil {
			if cerr := localCache.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("could not close cache")
			}
		}
		if err != nil {
			log.Fatal().Err(err).Msg("analysis failed")
		}
	},
}

// analyze runs the analysis, prints it and writes any configured result files
func analyze(ctx context.Context, series []*returns.Series, cfg analysis.Config, cache analysis.Cache) error {
	result, err := analysis.Run(ctx, series, cfg, cache)
	if err != nil {
		return err
	}

	if err := report.Console(os.Stdout, result); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	if dir := viper.GetString("output.dir"); dir != "" {
		if _, err := report.Write(ctx, dir, stringSlice("output.formats"), result); err != nil {
			return fmt.Errorf("could not write results to %s: %w", dir, err)
		}
	}
	return nil
}
