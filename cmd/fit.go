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
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/horizon/distribution"
	"github.com/penny-vault/horizon/report"
)

func init() {
	rootCmd.AddCommand(fitCmd)
}

var fitCmd = &cobra.Command{
	Use:   "fit [flags] [label...]",
	Short: "Print descriptive statistics and fitted Student-t parameters",
	Run: func(cmd *cobra.Command, args []string) {
		series, err := loadSeries(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("could not load return series")
		}
		series, err = selectSeries(series, args)
		if err != nil {
			log.Fatal().Err(err).Msg("could not select series")
		}

		labels := make([]string, 0, len(series))
		summaries := make(map[string]distribution.Summary, len(series))
		params := make(map[string]distribution.Params, len(series))
		for _, s := range series {
			labels = append(labels, s.Label)
			summaries[s.Label] = distribution.Summarize(s.Values)
			params[s.Label] = distribution.Fit(s.Values)
		}

		report.Summaries(os.Stdout, labels, summaries, params)
	},
}
