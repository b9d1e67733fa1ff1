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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/penny-vault/horizon/analysis"
	"github.com/penny-vault/horizon/database"
	"github.com/penny-vault/horizon/dataframe"
	"github.com/penny-vault/horizon/returns"
	"github.com/penny-vault/horizon/simulate"
	"github.com/penny-vault/horizon/survival"
	"github.com/penny-vault/horizon/sweep"
)

const databaseSource = "database"

var (
	ErrNoInput  = errors.New("no input configured; set input.source or pass --input")
	ErrNoLabels = errors.New("no labels to read from the database; set input.labels or pairs")
)

// listValue splits a comma separated environment or config value; slices
// from flags and config arrays pass through unchanged
func listValue(key string) ([]string, bool) {
	raw, ok := viper.Get(key).(string)
	if !ok {
		return nil, false
	}
	fields := lo.Map(strings.Split(raw, ","), func(f string, _ int) string {
		return strings.TrimSpace(f)
	})
	return lo.Filter(fields, func(f string, _ int) bool { return f != "" }), true
}

// stringSlice reads a list of strings from viper
func stringSlice(key string) []string {
	if fields, ok := listValue(key); ok {
		return fields
	}
	return viper.GetStringSlice(key)
}

// intSlice reads a list of integers from viper
func intSlice(key string) ([]int, error) {
	fields, ok := listValue(key)
	if !ok {
		return viper.GetIntSlice(key), nil
	}
	vals := make([]int, len(fields))
	for ii, f := range fields {
		v, err := cast.ToIntE(f)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, f, err)
		}
		vals[ii] = v
	}
	return vals, nil
}

// buildConfig assembles the analysis configuration from viper
func buildConfig() (analysis.Config, error) {
	cfg := analysis.DefaultConfig()
	cfg.Seed = viper.GetUint64("simulation.seed")
	cfg.Workers = viper.GetInt("simulation.workers")

	if names := stringSlice("simulation.methods"); len(names) != 0 {
		cfg.Methods = make([]simulate.Method, 0, len(names))
		for _, name := range names {
			m, err := simulate.ParseMethod(name)
			if err != nil {
				return cfg, err
			}
			cfg.Methods = append(cfg.Methods, m)
		}
	}

	cfg.Options = simulate.Options{
		BlockSize:          viper.GetInt("simulation.block_size"),
		RestartProbability: viper.GetFloat64("simulation.restart_probability"),
	}

	horizons, err := intSlice("sweep.horizons")
	if err != nil {
		return cfg, err
	}
	cfg.Sweep = sweep.Config{
		Horizons: horizons,
		Trials:   viper.GetInt("sweep.trials"),
	}

	cfg.Survival = survival.Config{
		Trials:     viper.GetInt("survival.trials"),
		MaxHorizon: viper.GetInt("survival.max_horizon"),
		Threshold:  viper.GetInt("survival.threshold"),
		Confidence: viper.GetFloat64("survival.confidence"),
	}

	return cfg, cfg.Validate()
}

// configuredPairs reads the [[pairs]] tables of the config file
func configuredPairs() ([]returns.Pair, error) {
	var pairs []returns.Pair
	if err := viper.UnmarshalKey("pairs", &pairs); err != nil {
		return nil, fmt.Errorf("could not parse pairs: %w", err)
	}
	return pairs, nil
}

// loadPanel reads the monthly return panel named by input.source
func loadPanel(ctx context.Context, pairs []returns.Pair) (*dataframe.DataFrame[time.Time], error) {
	source := strings.TrimSpace(viper.GetString("input.source"))

	switch source {
	case "":
		return nil, ErrNoInput
	case databaseSource:
		labels := stringSlice("input.labels")
		if len(labels) == 0 {
			for _, p := range pairs {
				labels = append(labels, p.Portfolio, p.Benchmark)
			}
			labels = lo.Uniq(labels)
		}
		if len(labels) == 0 {
			return nil, ErrNoLabels
		}

		if err := database.Connect(ctx); err != nil {
			return nil, err
		}
		defer database.Close()

		conn, err := database.Pool()
		if err != nil {
			return nil, err
		}
		return returns.LoadFromDB(ctx, conn, viper.GetString("input.table"), labels)
	default:
		return returns.Open(ctx, source, returns.LoadOptions{
			DateColumn: viper.GetString("input.date_column"),
			Percent:    viper.GetBool("input.percent"),
		})
	}
}

// loadSeries reads the panel and builds the series to analyze
func loadSeries(ctx context.Context) ([]*returns.Series, error) {
	pairs, err := configuredPairs()
	if err != nil {
		return nil, err
	}

	panel, err := loadPanel(ctx, pairs)
	if err != nil {
		return nil, err
	}

	log.Info().Int("Periods", panel.Len()).Int("Columns", panel.ColCount()).
		Time("Start", dataframe.Start(panel)).Time("End", dataframe.End(panel)).Msg("loaded return panel")

	return returns.Build(panel, pairs)
}

// selectSeries restricts series to the requested labels, keeping their order
func selectSeries(series []*returns.Series, labels []string) ([]*returns.Series, error) {
	if len(labels) == 0 {
		return series, nil
	}

	byLabel := lo.KeyBy(series, func(s *returns.Series) string { return s.Label })
	selected := make([]*returns.Series, 0, len(labels))
	for _, label := range labels {
		s, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("%w: %s", returns.ErrUnknownLabel, label)
		}
		selected = append(selected, s)
	}
	return selected, nil
}
