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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/horizon/simulate"
	"github.com/penny-vault/horizon/sweep"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep [flags] label",
	Short: "Print the underperformance probability table of a single series",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := buildConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
		if cfg.Seed == 0 {
			cfg.Seed = simulate.NewSeed()
			log.Info().Uint64("Seed", cfg.Seed).Msg("no seed configured; seeding from the clock")
		}

		series, err := loadSeries(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load return series")
		}
		selected, err := selectSeries(series, args)
		if err != nil {
			log.Fatal().Err(err).Msg("could not select series")
		}
		s := selected[0]

		columns := make(map[simulate.Method][]float64, len(cfg.Methods))
		for _, m := range cfg.Methods {
			sim, err := simulate.New(m, s.Values, cfg.Options)
			if err != nil {
				log.Fatal().Err(err).Str("Series", s.Label).Str("Method", m.String()).Msg("could not create simulator")
			}
			col, err := sweep.Run(ctx, sim, cfg.Seed, s.Label, cfg.Sweep)
			if err != nil {
				log.Fatal().Err(err).Str("Series", s.Label).Str("Method", m.String()).Msg("sweep failed")
			}
			columns[m] = col
		}

		table, err := sweep.Table(cfg.Sweep.Horizons, cfg.Methods, columns)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build table")
		}

		fmt.Printf("%s: probability of a negative cumulative return (%d trials, seed %d)\n\n", s.Label, cfg.Sweep.Trials, cfg.Seed)
		fmt.Println(table.TableWithHeader(sweep.HorizonColumn))
	},
}
