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
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/horizon/database"
	"github.com/penny-vault/horizon/dataframe"
)

// DefaultTable is the long-format table read by LoadFromDB
const DefaultTable = "monthly_returns"

// LoadFromDB reads the requested labels from a long table with columns
// (label text, period date, ret double precision) and pivots them into a
// monthly panel. Columns appear in the order of labels.
func LoadFromDB(ctx context.Context, conn database.PgxIface, table string, labels []string) (*dataframe.DataFrame[time.Time], error) {
	if table == "" {
		table = DefaultTable
	}

	subLog := log.With().Str("Table", table).Strs("Labels", labels).Logger()

	// NOTE: identifiers cannot be passed as query parameters so sanitize the table name
	ident := pgx.Identifier{table}
	sql := fmt.Sprintf("SELECT label, period, ret FROM %s WHERE label = ANY($1) ORDER BY label, period", ident.Sanitize())

	rows, err := conn.Query(ctx, sql, labels)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query monthly returns")
		return nil, err
	}
	defer rows.Close()

	dates := make(map[string][]time.Time, len(labels))
	vals := make(map[string][]float64, len(labels))
	for rows.Next() {
		var (
			label  string
			period time.Time
			ret    float64
		)
		if err := rows.Scan(&label, &period, &ret); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan monthly return")
			return nil, err
		}
		dates[label] = append(dates[label], dataframe.MonthStart(period))
		vals[label] = append(vals[label], ret)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, label := range labels {
		if len(vals[label]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, label)
		}
	}

	return dataframe.FromSeries(dates, vals, labels)
}
