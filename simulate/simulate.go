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

// Package simulate generates synthetic monthly return paths from a
// historical series. Each method encodes a different assumption about serial
// dependence and the shape of the marginal distribution.
package simulate

import (
	"strings"

	"golang.org/x/exp/rand"
)

type Method string

const (
	IID        Method = "IID"
	Block      Method = "Block"
	Stationary Method = "Stationary"
	Normal     Method = "Normal"
	StudentT   Method = "StudentT"
)

// Methods lists every simulation method in report order
var Methods = []Method{IID, Block, Stationary, Normal, StudentT}

// ParseMethod converts a case-insensitive method name
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if strings.EqualFold(string(m), strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return "", &ConfigurationError{Param: "method", Value: name, Err: ErrUnknownMethod}
}

// Simulator produces synthetic monthly returns. Implementations never modify
// the historical series and keep no state between calls, so one simulator
// may be shared by goroutines that each own their generator.
type Simulator interface {
	Method() Method

	// Path fills path with len(path) synthetic monthly returns
	Path(rng *rand.Rand, path []float64)
}

// Options parameterizes the block based resamplers
type Options struct {
	// BlockSize is the fixed block length of the Block method
	BlockSize int `mapstructure:"block_size" json:"blockSize" toml:"block_size"`

	// RestartProbability is the per-step probability that the Stationary
	// method starts a new block; the mean block length is its inverse
	RestartProbability float64 `mapstructure:"restart_probability" json:"restartProbability" toml:"restart_probability"`
}

// DefaultOptions returns a block size of 3 months and restart probability of 1/3
func DefaultOptions() Options {
	return Options{
		BlockSize:          3,
		RestartProbability: 1.0 / 3.0,
	}
}

// New creates the simulator for method from a historical series. The
// Student-t simulator is parameterized by distribution.Fit of the series;
// the Normal simulator uses the raw sample mean and standard deviation.
func New(method Method, values []float64, opts Options) (Simulator, error) {
	switch method {
	case IID:
		return NewIID(values)
	case Block:
		return NewBlock(values, opts.BlockSize)
	case Stationary:
		return NewStationary(values, opts.RestartProbability)
	case Normal:
		return NewNormal(values)
	case StudentT:
		return NewStudentTFromSeries(values)
	default:
		return nil, &ConfigurationError{Param: "method", Value: method, Err: ErrUnknownMethod}
	}
}

// CumulativeReturn compounds a path of monthly returns: ∏(1+r) - 1
func CumulativeReturn(path []float64) float64 {
	growth := 1.0
	for _, r := range path {
		growth *= 1.0 + r
	}
	return growth - 1.0
}

// Trials runs n independent paths of the given horizon and returns the
// cumulative return of each
func Trials(sim Simulator, rng *rand.Rand, horizon, n int) ([]float64, error) {
	if err := ValidateRun(horizon, n); err != nil {
		return nil, err
	}

	path := make([]float64, horizon)
	res := make([]float64, n)
	for ii := range res {
		sim.Path(rng, path)
		res[ii] = CumulativeReturn(path)
	}
	return res, nil
}

// ValidateRun checks the horizon and trial count of a simulation batch
func ValidateRun(horizon, trials int) error {
	if horizon < 1 {
		return &ConfigurationError{Param: "horizon", Value: horizon, Err: ErrInvalidHorizon}
	}
	if trials < 1 {
		return &ConfigurationError{Param: "trials", Value: trials, Err: ErrInvalidTrials}
	}
	return nil
}

func (m Method) String() string {
	return string(m)
}

func checkSeries(values []float64) error {
	if len(values) == 0 {
		return &ConfigurationError{Param: "series length", Value: 0, Err: ErrEmptySeries}
	}
	return nil
}
