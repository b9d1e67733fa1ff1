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

package simulate

import (
	"golang.org/x/exp/rand"
)

// IIDSimulator draws every month independently and uniformly, with
// replacement, from the historical series
type IIDSimulator struct {
	values []float64
}

func NewIID(values []float64) (*IIDSimulator, error) {
	if err := checkSeries(values); err != nil {
		return nil, err
	}
	return &IIDSimulator{values: values}, nil
}

func (s *IIDSimulator) Method() Method {
	return IID
}

func (s *IIDSimulator) Path(rng *rand.Rand, path []float64) {
	n := len(s.values)
	for ii := range path {
		path[ii] = s.values[rng.Intn(n)]
	}
}

// BlockSimulator concatenates contiguous blocks of a fixed length and
// truncates the result to the horizon. Block starts are drawn uniformly from
// [0, n-blockSize), so the final possible start position is never used; this
// matches the published results and is kept deliberately.
type BlockSimulator struct {
	values    []float64
	blockSize int
}

func NewBlock(values []float64, blockSize int) (*BlockSimulator, error) {
	if err := checkSeries(values); err != nil {
		return nil, err
	}
	if blockSize < 1 {
		return nil, &ConfigurationError{Param: "block size", Value: blockSize, Err: ErrInvalidBlockSize}
	}
	if blockSize >= len(values) {
		return nil, &ConfigurationError{Param: "block size", Value: blockSize, Err: ErrBlockTooLarge}
	}
	return &BlockSimulator{values: values, blockSize: blockSize}, nil
}

func (s *BlockSimulator) Method() Method {
	return Block
}

// BlockSize returns the fixed block length
func (s *BlockSimulator) BlockSize() int {
	return s.blockSize
}

func (s *BlockSimulator) Path(rng *rand.Rand, path []float64) {
	starts := len(s.values) - s.blockSize
	filled := 0
	for filled < len(path) {
		start := rng.Intn(starts)
		filled += copy(path[filled:], s.values[start:start+s.blockSize])
	}
}

// StationarySimulator implements the stationary bootstrap: at each step a new
// block starts with probability p at a uniformly drawn position, otherwise the
// path continues with the next observation, wrapping around the end of the
// series. Block lengths are geometric with mean 1/p.
type StationarySimulator struct {
	values []float64
	p      float64
}

func NewStationary(values []float64, p float64) (*StationarySimulator, error) {
	if err := checkSeries(values); err != nil {
		return nil, err
	}
	if !(p > 0 && p <= 1) {
		return nil, &ConfigurationError{Param: "restart probability", Value: p, Err: ErrInvalidProbability}
	}
	if 1.0/p >= float64(len(values)) {
		return nil, &ConfigurationError{Param: "mean block length", Value: 1.0 / p, Err: ErrBlockTooLarge}
	}
	return &StationarySimulator{values: values, p: p}, nil
}

func (s *StationarySimulator) Method() Method {
	return Stationary
}

// RestartProbability returns the per-step probability of starting a new block
func (s *StationarySimulator) RestartProbability() float64 {
	return s.p
}

func (s *StationarySimulator) Path(rng *rand.Rand, path []float64) {
	n := len(s.values)
	idx := rng.Intn(n)
	for ii := range path {
		if ii > 0 {
			if rng.Float64() < s.p {
				idx = rng.Intn(n)
			} else {
				idx = (idx + 1) % n
			}
		}
		path[ii] = s.values[idx]
	}
}
