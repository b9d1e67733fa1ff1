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
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/penny-vault/horizon/distribution"
)

// NormalSimulator draws monthly returns from a normal distribution with the
// raw sample mean and standard deviation of the series
type NormalSimulator struct {
	mu    float64
	sigma float64
}

func NewNormal(values []float64) (*NormalSimulator, error) {
	if err := checkSeries(values); err != nil {
		return nil, err
	}
	mu, sigma := stat.MeanStdDev(values, nil)
	return &NormalSimulator{mu: mu, sigma: sigma}, nil
}

// NewNormalWithParams creates a normal simulator with explicit moments
func NewNormalWithParams(mu, sigma float64) *NormalSimulator {
	return &NormalSimulator{mu: mu, sigma: sigma}
}

func (s *NormalSimulator) Method() Method {
	return Normal
}

func (s *NormalSimulator) Path(rng *rand.Rand, path []float64) {
	dist := distuv.Normal{
		Mu:    s.mu,
		Sigma: s.sigma,
		Src:   rng,
	}
	for ii := range path {
		path[ii] = dist.Rand()
	}
}

// StudentTSimulator draws monthly returns from a location-scale Student-t
// distribution. Sigma is used as the scale parameter, so the simulated
// variance is Sigma² · Nu/(Nu-2).
type StudentTSimulator struct {
	params distribution.Params
}

// NewStudentT creates a Student-t simulator from fitted parameters
func NewStudentT(params distribution.Params) *StudentTSimulator {
	return &StudentTSimulator{params: params}
}

// NewStudentTFromSeries fits the series and creates a Student-t simulator
func NewStudentTFromSeries(values []float64) (*StudentTSimulator, error) {
	if err := checkSeries(values); err != nil {
		return nil, err
	}
	return NewStudentT(distribution.Fit(values)), nil
}

func (s *StudentTSimulator) Method() Method {
	return StudentT
}

// Params returns the distribution the simulator draws from
func (s *StudentTSimulator) Params() distribution.Params {
	return s.params
}

func (s *StudentTSimulator) Path(rng *rand.Rand, path []float64) {
	dist := distuv.StudentsT{
		Mu:    s.params.Mu,
		Sigma: s.params.Sigma,
		Nu:    s.params.Nu,
		Src:   rng,
	}
	for ii := range path {
		path[ii] = dist.Rand()
	}
}
