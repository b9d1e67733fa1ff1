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

// Package distribution fits the marginal distribution parameters used by the
// parametric return simulators.
package distribution

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// GaussianDegreesOfFreedom is used for series whose tails are no heavier
	// than a normal distribution's
	GaussianDegreesOfFreedom = 30.0

	// MinDegreesOfFreedom keeps the fitted t distribution's fourth moment finite
	MinDegreesOfFreedom = 5.0
)

// Params describes a location-scale Student-t distribution
type Params struct {
	Mu    float64 `json:"mu" toml:"mu"`
	Sigma float64 `json:"sigma" toml:"sigma"`
	Nu    float64 `json:"nu" toml:"nu"`
}

// Summary holds descriptive statistics of a monthly return series
type Summary struct {
	N                int     `json:"n"`
	Mean             float64 `json:"mean"`
	StdDev           float64 `json:"stdDev"`
	Skew             float64 `json:"skew"`
	ExcessKurtosis   float64 `json:"excessKurtosis"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	FractionNegative float64 `json:"fractionNegative"`
}

// Fit estimates Student-t parameters for the series. Mu is the arithmetic
// mean and Sigma the sample standard deviation (n-1 divisor). Nu is not a
// maximum likelihood estimate; it is matched to the excess kurtosis k of
// the series using the t distribution's kurtosis 6/(nu-4):
//
//	k <= 0: nu = 30
//	k > 0:  nu = max(6/k + 4, 5)
//
// values must contain at least 2 observations.
func Fit(values []float64) Params {
	mu, sigma := stat.MeanStdDev(values, nil)
	return Params{
		Mu:    mu,
		Sigma: sigma,
		Nu:    DegreesOfFreedom(ExcessKurtosis(values)),
	}
}

// DegreesOfFreedom maps excess kurtosis onto the t distribution's degrees of
// freedom. An undefined kurtosis (NaN) is treated as Gaussian-tailed.
func DegreesOfFreedom(exKurtosis float64) float64 {
	if math.IsNaN(exKurtosis) || exKurtosis <= 0 {
		return GaussianDegreesOfFreedom
	}
	return math.Max(6.0/exKurtosis+4.0, MinDegreesOfFreedom)
}

// ExcessKurtosis returns the bias-corrected sample excess kurtosis of values,
// or NaN when fewer than 4 observations are available
func ExcessKurtosis(values []float64) float64 {
	if len(values) < 4 {
		return math.NaN()
	}
	k := stat.ExKurtosis(values, nil)
	if math.IsInf(k, 0) {
		return math.NaN()
	}
	return k
}

// Summarize computes descriptive statistics for a return series
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	mean, stdDev := stat.MeanStdDev(values, nil)
	negative := 0
	for _, v := range values {
		if v < 0 {
			negative++
		}
	}

	// undefined moments are reported as 0 so the summary stays serializable
	var skew, kurt float64
	if len(values) > 2 {
		skew = stat.Skew(values, nil)
	}
	if math.IsNaN(skew) {
		skew = 0
	}
	if k := ExcessKurtosis(values); !math.IsNaN(k) {
		kurt = k
	}

	return Summary{
		N:                len(values),
		Mean:             mean,
		StdDev:           stdDev,
		Skew:             skew,
		ExcessKurtosis:   kurt,
		Min:              floats.Min(values),
		Max:              floats.Max(values),
		FractionNegative: float64(negative) / float64(len(values)),
	}
}
