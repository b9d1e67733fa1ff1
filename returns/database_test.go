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

package returns_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"

	"github.com/penny-vault/horizon/pgxmockhelper"
	"github.com/penny-vault/horizon/returns"
)

var _ = Describe("Database loader", func() {
	var (
		dbPool pgxmock.PgxConnIface
		ctx    context.Context
		jan    time.Time
		feb    time.Time
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		ctx = context.Background()
		jan = time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC)
		feb = time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		Expect(dbPool.ExpectationsWereMet()).To(Succeed())
	})

	It("pivots long rows into a monthly panel", func() {
		rows := pgxmock.NewRows([]string{"label", "period", "ret"}).
			AddRow("B1", jan, 0.005).
			AddRow("P1", jan, 0.01).
			AddRow("P1", feb, -0.02)
		dbPool.ExpectQuery(`SELECT label, period, ret FROM "monthly_returns"`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(rows)

		df, err := returns.LoadFromDB(ctx, dbPool, "", []string{"P1", "B1"})
		Expect(err).To(BeNil())
		Expect(df.ColNames).To(Equal([]string{"P1", "B1"}))
		Expect(df.Index).To(Equal([]time.Time{
			time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
		}))
		Expect(df.Vals[0]).To(Equal([]float64{0.01, -0.02}))
		Expect(df.Vals[1][0]).To(Equal(0.005))
		Expect(math.IsNaN(df.Vals[1][1])).To(BeTrue())
	})

	It("fails when a label has no rows", func() {
		rows := pgxmock.NewRows([]string{"label", "period", "ret"}).
			AddRow("P1", jan, 0.01)
		dbPool.ExpectQuery(`SELECT label, period, ret FROM "custom"`).
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(rows)

		_, err := returns.LoadFromDB(ctx, dbPool, "custom", []string{"P1", "B1"})
		Expect(errors.Is(err, returns.ErrUnknownLabel)).To(BeTrue())
	})

	It("passes through query errors", func() {
		boom := errors.New("connection reset")
		dbPool.ExpectQuery("SELECT label, period, ret FROM").
			WithArgs(pgxmock.AnyArg()).
			WillReturnError(boom)

		_, err := returns.LoadFromDB(ctx, dbPool, "", []string{"P1"})
		Expect(errors.Is(err, boom)).To(BeTrue())
	})

	It("loads a year of fixture returns", func() {
		pgxmockhelper.MockReturnsQuery(dbPool, "../testdata/monthly_returns.csv", "P1", "B1")

		df, err := returns.LoadFromDB(ctx, dbPool, "", []string{"P1", "B1"})
		Expect(err).To(BeNil())
		Expect(df.Len()).To(Equal(12))
		Expect(df.Index[0]).To(Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))

		series, err := returns.Build(df, []returns.Pair{{Portfolio: "P1", Benchmark: "B1"}})
		Expect(err).To(BeNil())
		Expect(series).To(HaveLen(2))
		Expect(series[1].Label).To(Equal("P1-B1"))
		Expect(series[1].Len()).To(Equal(12))
	})
})
