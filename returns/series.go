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

// Package returns loads monthly return panels and turns them into the
// validated series consumed by the simulators.
package returns

import (
	"math"
	"time"
)

type Kind string

const (
	Portfolio Kind = "portfolio"
	Benchmark Kind = "benchmark"
	Excess    Kind = "excess"
)

// MinObservations is the shortest series with a defined sample standard deviation
const MinObservations = 2

// Series is an immutable sequence of monthly fractional returns. Values must
// be finite and greater than -1 so that compounding stays defined.
type Series struct {
	Label  string      `json:"label"`
	Kind   Kind        `json:"kind"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// NewSeries validates values and returns a new series
func NewSeries(label string, kind Kind, dates []time.Time, values []float64) (*Series, error) {
	if err := Validate(label, values); err != nil {
		return nil, err
	}
	return &Series{
		Label:  label,
		Kind:   kind,
		Dates:  dates,
		Values: values,
	}, nil
}

// Len returns the number of observations in the series
func (s *Series) Len() int {
	return len(s.Values)
}

// Validate checks that a series can be resampled and compounded
func Validate(label string, values []float64) error {
	switch {
	case len(values) == 0:
		return &InputError{Label: label, Index: -1, Err: ErrEmptySeries}
	case len(values) < MinObservations:
		return &InputError{Label: label, Index: -1, Err: ErrTooShort}
	}

	for idx, val := range values {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return &InputError{Label: label, Index: idx, Err: ErrNotFinite}
		}
		if val <= -1.0 {
			return &InputError{Label: label, Index: idx, Err: ErrNotCompoundable}
		}
	}

	return nil
}
