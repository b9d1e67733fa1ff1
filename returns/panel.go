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

package returns

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/penny-vault/horizon/dataframe"
)

// Pair names a portfolio column and the benchmark column its excess return
// is measured against
type Pair struct {
	Portfolio string `mapstructure:"portfolio" json:"portfolio" toml:"portfolio"`
	Benchmark string `mapstructure:"benchmark" json:"benchmark" toml:"benchmark"`
	Name      string `mapstructure:"name" json:"name,omitempty" toml:"name,omitempty"`
}

// Label returns the name of the excess series
func (p Pair) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%s-%s", p.Portfolio, p.Benchmark)
}

// Column returns a validated series for a single panel column. Periods with
// a missing observation are dropped.
func Column(panel *dataframe.DataFrame[time.Time], label string, kind Kind) (*Series, error) {
	dates, vals, err := panel.DropNaN(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, label)
	}
	return NewSeries(label, kind, dates, vals)
}

// ExcessSeries subtracts the benchmark from the portfolio on every period
// where both are observed
func ExcessSeries(panel *dataframe.DataFrame[time.Time], pair Pair) (*Series, error) {
	port, err := panel.Column(pair.Portfolio)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, pair.Portfolio)
	}
	bench, err := panel.Column(pair.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, pair.Benchmark)
	}

	dates := make([]time.Time, 0, len(port))
	vals := make([]float64, 0, len(port))
	for idx := range port {
		if math.IsNaN(port[idx]) || math.IsNaN(bench[idx]) {
			continue
		}
		dates = append(dates, panel.Index[idx])
		vals = append(vals, port[idx]-bench[idx])
	}

	return NewSeries(pair.Label(), Excess, dates, vals)
}

// Build selects the series to analyze from a monthly panel. With pairs, the
// result is every distinct portfolio followed by each pair's excess series;
// benchmarks are only used to derive the excess returns. Without pairs every
// column of the panel is analyzed.
func Build(panel *dataframe.DataFrame[time.Time], pairs []Pair) ([]*Series, error) {
	series := make([]*Series, 0, len(pairs)*2)

	if len(pairs) == 0 {
		for _, label := range panel.ColNames {
			s, err := Column(panel, label, Portfolio)
			if err != nil {
				return nil, err
			}
			series = append(series, s)
		}
		return series, nil
	}

	seen := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		if seen[pair.Portfolio] {
			continue
		}
		seen[pair.Portfolio] = true
		s, err := Column(panel, pair.Portfolio, Portfolio)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}

	for _, pair := range pairs {
		s, err := ExcessSeries(panel, pair)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}

	log.Debug().Int("NumSeries", len(series)).Int("NumPairs", len(pairs)).Msg("built return series")
	return series, nil
}
