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
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	rdf "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/horizon/dataframe"
)

// LoadOptions control how a return panel is parsed
type LoadOptions struct {
	// DateColumn is the header of the column holding the period
	DateColumn string

	// Percent indicates returns are quoted in percent (1.5 == 1.5%)
	Percent bool
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"200601",
	"01/02/2006",
	time.RFC3339,
}

// ParseDate accepts a day, a month (2006-01) or a compact month (200601)
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Open loads a panel from a file path or an http(s) URL and compounds it to
// monthly returns
func Open(ctx context.Context, location string, opts LoadOptions) (*dataframe.DataFrame[time.Time], error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return Fetch(ctx, location, opts)
	}

	fh, err := os.Open(location)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return LoadCSV(ctx, fh, opts)
}

// Fetch downloads a CSV return panel
func Fetch(ctx context.Context, url string, opts LoadOptions) (*dataframe.DataFrame[time.Time], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("URL", url).Int("Bytes", len(body)).Msg("downloaded return panel")
	return LoadCSV(ctx, bytes.NewReader(body), opts)
}

// LoadCSV parses a wide CSV panel: one date column plus one column of
// periodic returns per instrument. Empty or unparsable cells are missing
// observations. Rows are sorted by date and compounded to calendar months.
func LoadCSV(ctx context.Context, r io.ReadSeeker, opts LoadOptions) (*dataframe.DataFrame[time.Time], error) {
	if opts.DateColumn == "" {
		opts.DateColumn = "date"
	}

	nilValue := ""
	raw, err := imports.LoadFromCSV(ctx, r, imports.CSVLoadOptions{
		TrimLeadingSpace: true,
		NilValue:         &nilValue,
		DictateDataType: map[string]interface{}{
			opts.DateColumn: imports.Converter{
				ConcreteType: time.Time{},
				ConverterFunc: func(in interface{}) (interface{}, error) {
					return ParseDate(in.(string))
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	dateIdx, err := raw.NameToColumn(opts.DateColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDateColumn, opts.DateColumn)
	}

	nrows := raw.NRows()
	dates := make([]time.Time, nrows)
	dateSeries := raw.Series[dateIdx]
	for row := 0; row < nrows; row++ {
		switch v := dateSeries.Value(row).(type) {
		case time.Time:
			dates[row] = v
		case *time.Time:
			dates[row] = *v
		default:
			return nil, fmt.Errorf("%w: row %d", ErrInvalidDate, row)
		}
	}

	order := sortedOrder(dates)
	index := make([]time.Time, nrows)
	for idx, row := range order {
		index[idx] = dates[row]
	}

	df := dataframe.New(index)
	for colIdx, series := range raw.Series {
		if colIdx == dateIdx {
			continue
		}

		col := make([]float64, nrows)
		for idx, row := range order {
			col[idx] = cellValue(series, row)
			if opts.Percent {
				col[idx] /= 100.0
			}
		}

		if err := df.Insert(series.Name(), col); err != nil {
			return nil, err
		}
	}

	log.Debug().Int("NumRows", nrows).Int("NumCols", df.ColCount()).Msg("parsed return panel")
	return dataframe.Monthly(df), nil
}

func cellValue(series rdf.Series, row int) float64 {
	var s string
	switch v := series.Value(row).(type) {
	case nil:
		return math.NaN()
	case float64:
		return v
	case string:
		s = v
	case *string:
		s = *v
	default:
		s = fmt.Sprintf("%v", v)
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return val
}

func sortedOrder(dates []time.Time) []int {
	order := make([]int, len(dates))
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dates[order[i]].Before(dates[order[j]])
	})
	return order
}
