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

package analysis

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/samber/lo"

	"github.com/penny-vault/horizon/simulate"
	"github.com/penny-vault/horizon/survival"
	"github.com/penny-vault/horizon/sweep"
)

var (
	ErrNoMethods        = errors.New("at least one simulation method is required")
	ErrDuplicateMethod  = errors.New("simulation method listed more than once")
	ErrNoSeries         = errors.New("no series to analyze")
	ErrDuplicateSeries  = errors.New("series label listed more than once")
	ErrInvalidWorkerCnt = errors.New("worker count must be non-negative")
)

// Config holds every tunable of an analysis run. A zero Seed draws a seed from
// the clock; a zero Workers uses one worker per CPU. TOML cannot hold seeds
// above MaxInt64, so manifests record the seed as a string beside the config.
type Config struct {
	Seed     uint64            `json:"seed" toml:"-"`
	Workers  int               `json:"workers" toml:"workers"`
	Methods  []simulate.Method `json:"methods" toml:"methods"`
	Options  simulate.Options  `json:"options" toml:"options"`
	Sweep    sweep.Config      `json:"sweep" toml:"sweep"`
	Survival survival.Config   `json:"survival" toml:"survival"`
}

func DefaultConfig() Config {
	methods := make([]simulate.Method, len(simulate.Methods))
	copy(methods, simulate.Methods)
	return Config{
		Methods:  methods,
		Options:  simulate.DefaultOptions(),
		Sweep:    sweep.DefaultConfig(),
		Survival: survival.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if len(c.Methods) == 0 {
		return ErrNoMethods
	}
	seen := make(map[simulate.Method]bool, len(c.Methods))
	for _, m := range c.Methods {
		if !lo.Contains(simulate.Methods, m) {
			return &simulate.ConfigurationError{Param: "method", Value: m, Err: simulate.ErrUnknownMethod}
		}
		if seen[m] {
			return fmt.Errorf("%w: %s", ErrDuplicateMethod, m)
		}
		seen[m] = true
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkerCnt, c.Workers)
	}
	if err := c.Sweep.Validate(); err != nil {
		return err
	}
	return c.Survival.Validate()
}

func (c Config) workers() int {
	if c.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
