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

package dataframe

import (
	"math"
	"sort"
	"time"
)

// Start returns the first date of a time indexed dataframe
func Start(df *DataFrame[time.Time]) time.Time {
	if len(df.Index) == 0 {
		return time.Time{}
	}
	return df.Index[0]
}

// End returns the last date of a time indexed dataframe
func End(df *DataFrame[time.Time]) time.Time {
	if len(df.Index) == 0 {
		return time.Time{}
	}
	return df.Index[len(df.Index)-1]
}

// MonthStart truncates t to midnight UTC on the first day of its month
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Monthly compounds the periodic returns of every column into calendar month
// returns, ∏(1+r) - 1 within each month. The resulting index holds the first
// day of each month. NaN observations are skipped; a month with no valid
// observation for a column is NaN in that column. The input must be sorted by
// date. Months with a single observation keep that value exactly.
func Monthly(df *DataFrame[time.Time]) *DataFrame[time.Time] {
	res := &DataFrame[time.Time]{
		Index:    make([]time.Time, 0, len(df.Index)/20+1),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.ColNames)),
	}
	copy(res.ColNames, df.ColNames)

	growth := make([]float64, len(df.ColNames))
	last := make([]float64, len(df.ColNames))
	seen := make([]int, len(df.ColNames))

	flush := func() {
		for colIdx := range growth {
			var val float64
			switch seen[colIdx] {
			case 0:
				val = math.NaN()
			case 1:
				val = last[colIdx]
			default:
				val = growth[colIdx] - 1.0
			}
			res.Vals[colIdx] = append(res.Vals[colIdx], val)
			growth[colIdx] = 1.0
			seen[colIdx] = 0
		}
	}

	for colIdx := range growth {
		growth[colIdx] = 1.0
	}

	var month time.Time
	for rowIdx, dt := range df.Index {
		m := MonthStart(dt)
		if rowIdx == 0 || !m.Equal(month) {
			if rowIdx != 0 {
				flush()
			}
			month = m
			res.Index = append(res.Index, m)
		}

		for colIdx, col := range df.Vals {
			r := col[rowIdx]
			if math.IsNaN(r) {
				continue
			}
			growth[colIdx] *= 1.0 + r
			last[colIdx] = r
			seen[colIdx]++
		}
	}

	if len(df.Index) != 0 {
		flush()
	}

	return res
}

// FromSeries builds a time indexed dataframe from independently dated columns.
// The index is the sorted union of all dates; missing observations are NaN.
func FromSeries(dates map[string][]time.Time, vals map[string][]float64, order []string) (*DataFrame[time.Time], error) {
	union := make(map[time.Time]struct{})
	for _, name := range order {
		if len(dates[name]) != len(vals[name]) {
			return nil, ErrLengthMismatch
		}
		for _, dt := range dates[name] {
			union[dt] = struct{}{}
		}
	}

	index := make([]time.Time, 0, len(union))
	for dt := range union {
		index = append(index, dt)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	position := make(map[time.Time]int, len(index))
	for idx, dt := range index {
		position[dt] = idx
	}

	df := New(index)
	for _, name := range order {
		col := make([]float64, len(index))
		for idx := range col {
			col[idx] = math.NaN()
		}
		for idx, dt := range dates[name] {
			col[position[dt]] = vals[name][idx]
		}
		if err := df.Insert(name, col); err != nil {
			return nil, err
		}
	}

	return df, nil
}
