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

// Package survival estimates the distribution of time to recovery: the first
// month after a threshold month at which a simulated cumulative return turns
// positive. Paths that never recover are right-censored and the survival
// curve is estimated with Kaplan-Meier.
package survival

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/penny-vault/horizon/simulate"
)

const (
	DefaultTrials     = 1000
	DefaultMaxHorizon = 192
	DefaultThreshold  = 12
	DefaultConfidence = 0.95
)

var (
	ErrInvalidThreshold  = errors.New("threshold must be non-negative and less than the max horizon")
	ErrInvalidConfidence = errors.New("confidence must be in (0, 1)")
	ErrNoRecords         = errors.New("no survival records")
)

type Config struct {
	Trials     int     `mapstructure:"trials" json:"trials" toml:"trials"`
	MaxHorizon int     `mapstructure:"max_horizon" json:"maxHorizon" toml:"max_horizon"`
	Threshold  int     `mapstructure:"threshold" json:"threshold" toml:"threshold"`
	Confidence float64 `mapstructure:"confidence" json:"confidence" toml:"confidence"`
}

// Record is the outcome of one simulated path. Duration is the recovery month
// when Observed is true, otherwise the month the path was censored at.
type Record struct {
	Duration int  `json:"duration"`
	Observed bool `json:"observed"`
}

func DefaultConfig() Config {
	return Config{
		Trials:     DefaultTrials,
		MaxHorizon: DefaultMaxHorizon,
		Threshold:  DefaultThreshold,
		Confidence: DefaultConfidence,
	}
}

func (c Config) Validate() error {
	if err := simulate.ValidateRun(c.MaxHorizon, c.Trials); err != nil {
		return err
	}
	if c.Threshold < 0 || c.Threshold >= c.MaxHorizon {
		return fmt.Errorf("%w: threshold %d, max horizon %d", ErrInvalidThreshold, c.Threshold, c.MaxHorizon)
	}
	if !(c.Confidence > 0 && c.Confidence < 1) {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, c.Confidence)
	}
	return nil
}

// RecoveryTime compounds path month by month and returns the first month
// after threshold with a strictly positive cumulative return. Months are
// 1-based. A path that never recovers is censored at len(path).
func RecoveryTime(path []float64, threshold int) Record {
	growth := 1.0
	for ii, r := range path {
		growth *= 1.0 + r
		month := ii + 1
		if month > threshold && growth > 1.0 {
			return Record{Duration: month, Observed: true}
		}
	}
	return Record{Duration: len(path), Observed: false}
}

// Simulate draws cfg.Trials paths of cfg.MaxHorizon months and records the
// recovery time of each
func Simulate(ctx context.Context, sim simulate.Simulator, rng *rand.Rand, cfg Config) ([]Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path := make([]float64, cfg.MaxHorizon)
	records := make([]Record, cfg.Trials)
	for ii := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sim.Path(rng, path)
		records[ii] = RecoveryTime(path, cfg.Threshold)
	}
	return records, nil
}

// Estimate runs the survival simulation for one series with the IID bootstrap
// and fits the Kaplan-Meier curve
func Estimate(ctx context.Context, values []float64, seed uint64, label string, cfg Config) (*Curve, error) {
	sim, err := simulate.NewIID(values)
	if err != nil {
		return nil, err
	}

	records, err := Simulate(ctx, sim, simulate.Stream(seed, label, "survival"), cfg)
	if err != nil {
		return nil, err
	}

	curve, err := KaplanMeier(records, cfg)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("Series", label).Int("Events", curve.TotalEvents()).Int("Censored", curve.TotalCensored()).Msg("survival curve estimated")
	return curve, nil
}
