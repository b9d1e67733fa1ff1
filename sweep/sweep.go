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

// Package sweep estimates the probability of a negative cumulative return
// over a grid of holding horizons.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/penny-vault/horizon/dataframe"
	"github.com/penny-vault/horizon/simulate"
)

const (
	AverageColumn = "Average"
	HorizonColumn = "Horizon"

	DefaultTrials = 10000
)

var (
	ErrNoHorizons       = errors.New("at least one horizon is required")
	ErrDuplicateHorizon = errors.New("horizon listed more than once")
	ErrNoColumns        = errors.New("no method columns to tabulate")
)

// Config controls the horizon grid and the number of trials per horizon
type Config struct {
	Horizons []int `mapstructure:"horizons" json:"horizons" toml:"horizons"`
	Trials   int   `mapstructure:"trials" json:"trials" toml:"trials"`
}

// DefaultHorizons returns 12, 24, ..., 180 months
func DefaultHorizons() []int {
	horizons := make([]int, 0, 15)
	for h := 12; h <= 180; h += 12 {
		horizons = append(horizons, h)
	}
	return horizons
}

func DefaultConfig() Config {
	return Config{
		Horizons: DefaultHorizons(),
		Trials:   DefaultTrials,
	}
}

func (c Config) Validate() error {
	if len(c.Horizons) == 0 {
		return ErrNoHorizons
	}
	seen := make(map[int]bool, len(c.Horizons))
	for _, h := range c.Horizons {
		if err := simulate.ValidateRun(h, c.Trials); err != nil {
			return err
		}
		if seen[h] {
			return fmt.Errorf("%w: %d", ErrDuplicateHorizon, h)
		}
		seen[h] = true
	}
	return nil
}

// Probability runs trials fresh paths of length horizon and returns the
// fraction whose cumulative return is strictly negative. Only one path is held
// in memory at a time.
func Probability(sim simulate.Simulator, rng *rand.Rand, horizon, trials int) (float64, error) {
	if err := simulate.ValidateRun(horizon, trials); err != nil {
		return 0, err
	}

	path := make([]float64, horizon)
	negative := 0
	for ii := 0; ii < trials; ii++ {
		sim.Path(rng, path)
		if simulate.CumulativeReturn(path) < 0 {
			negative++
		}
	}
	return float64(negative) / float64(trials), nil
}

// StandardError is the Monte Carlo standard error of a probability estimated
// from n trials
func StandardError(p float64, n int) float64 {
	if n <= 0 {
		return math.NaN()
	}
	return math.Sqrt(p * (1 - p) / float64(n))
}

// Stream returns the generator used for one (series, method, horizon) cell
func Stream(seed uint64, label string, method simulate.Method, horizon int) *rand.Rand {
	return simulate.Stream(seed, label, method.String(), strconv.Itoa(horizon))
}

// Run computes one table column: the underperformance probability of sim at
// every configured horizon. Each horizon draws from its own stream so
// horizons share no simulated state.
func Run(ctx context.Context, sim simulate.Simulator, seed uint64, label string, cfg Config) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	subLog := log.With().Str("Series", label).Str("Method", sim.Method().String()).Logger()
	col := make([]float64, len(cfg.Horizons))
	for ii, h := range cfg.Horizons {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := Probability(sim, Stream(seed, label, sim.Method(), h), h, cfg.Trials)
		if err != nil {
			return nil, err
		}
		col[ii] = p
		subLog.Trace().Int("Horizon", h).Float64("Probability", p).Msg("horizon complete")
	}
	return col, nil
}

// Table assembles the underperformance probability table: one row per horizon,
// one column per method in the given order, and an Average column holding the
// row mean across methods
func Table(horizons []int, methods []simulate.Method, columns map[simulate.Method][]float64) (*dataframe.DataFrame[int], error) {
	if len(methods) == 0 {
		return nil, ErrNoColumns
	}

	idx := make([]int, len(horizons))
	copy(idx, horizons)
	df := dataframe.New(idx)

	names := make([]string, 0, len(methods))
	for _, m := range methods {
		col, ok := columns[m]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoColumns, m)
		}
		if err := df.Insert(m.String(), col); err != nil {
			return nil, err
		}
		names = append(names, m.String())
	}

	avg, err := df.RowMean(names...)
	if err != nil {
		return nil, err
	}
	if err := df.Insert(AverageColumn, avg); err != nil {
		return nil, err
	}
	return df, nil
}
