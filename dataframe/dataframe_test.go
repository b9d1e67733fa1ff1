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

package dataframe_test

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/horizon/dataframe"
)

var _ = Describe("DataFrame", func() {
	Context("with no values", func() {
		var df *dataframe.DataFrame[int]

		BeforeEach(func() {
			df = dataframe.New([]int{})
		})

		It("has zero length", func() {
			Expect(df.Len()).To(Equal(0))
			Expect(df.ColCount()).To(Equal(0))
		})

		It("renders a placeholder table", func() {
			Expect(df.Table()).To(Equal("<NO DATA>"))
		})
	})

	Context("with a horizon index", func() {
		var df *dataframe.DataFrame[int]

		BeforeEach(func() {
			df = dataframe.New([]int{12, 24, 36})
			Expect(df.Insert("IID", []float64{0.2, 0.1, 0.05})).To(Succeed())
			Expect(df.Insert("Block", []float64{0.4, 0.3, 0.15})).To(Succeed())
		})

		It("rejects a column with the wrong length", func() {
			err := df.Insert("Normal", []float64{0.1})
			Expect(errors.Is(err, dataframe.ErrLengthMismatch)).To(BeTrue())
		})

		It("rejects a duplicate column", func() {
			err := df.Insert("IID", []float64{0.1, 0.1, 0.1})
			Expect(errors.Is(err, dataframe.ErrDuplicateColumn)).To(BeTrue())
		})

		It("returns an error for a missing column", func() {
			_, err := df.Column("StudentT")
			Expect(errors.Is(err, dataframe.ErrColumnNotFound)).To(BeTrue())
		})

		It("averages columns row by row", func() {
			avg, err := df.RowMean("IID", "Block")
			Expect(err).To(BeNil())
			Expect(avg).To(HaveLen(3))
			Expect(avg[0]).Should(BeNumerically("~", 0.3, 1e-12))
			Expect(avg[1]).Should(BeNumerically("~", 0.2, 1e-12))
			Expect(avg[2]).Should(BeNumerically("~", 0.1, 1e-12))
		})

		It("copies without sharing values", func() {
			df2 := df.Copy()
			df2.Vals[0][0] = 1.0
			Expect(df.Vals[0][0]).To(Equal(0.2))
		})

		It("selects a subset of columns", func() {
			sub, err := df.Select("Block")
			Expect(err).To(BeNil())
			Expect(sub.ColNames).To(Equal([]string{"Block"}))
			Expect(sub.Row(1)).To(Equal([]float64{0.3}))
		})

		It("renders a table with every horizon", func() {
			table := df.TableWithHeader("Horizon")
			Expect(table).To(ContainSubstring("Horizon"))
			Expect(table).To(ContainSubstring("36"))
			Expect(table).To(ContainSubstring("0.1500"))
		})
	})

	Context("with daily returns", func() {
		var df *dataframe.DataFrame[time.Time]

		BeforeEach(func() {
			df = dataframe.New([]time.Time{
				time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 29, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 2, 26, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
			})
			Expect(df.Insert("SPY", []float64{0.01, 0.02, -0.01, 0.05, math.NaN(), math.NaN()})).To(Succeed())
		})

		It("compounds returns within each calendar month", func() {
			monthly := dataframe.Monthly(df)
			Expect(monthly.Index).To(Equal([]time.Time{
				time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
			}))
			Expect(monthly.Vals[0][0]).Should(BeNumerically("~", 1.01*1.02*0.99-1.0, 1e-12))
			Expect(monthly.Vals[0][1]).Should(BeNumerically("~", 0.05, 1e-12))
			Expect(math.IsNaN(monthly.Vals[0][2])).To(BeTrue())
		})

		It("drops missing observations", func() {
			dates, vals, err := df.DropNaN("SPY")
			Expect(err).To(BeNil())
			Expect(dates).To(HaveLen(4))
			Expect(vals).To(Equal([]float64{0.01, 0.02, -0.01, 0.05}))
		})

		It("reports the start and end dates", func() {
			Expect(dataframe.Start(df)).To(Equal(time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)))
			Expect(dataframe.End(df)).To(Equal(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)))
		})
	})

	Describe("when merging independently dated series", func() {
		It("aligns on the union of dates", func() {
			jan := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
			feb := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
			mar := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

			df, err := dataframe.FromSeries(
				map[string][]time.Time{"A": {feb, jan}, "B": {mar}},
				map[string][]float64{"A": {0.02, 0.01}, "B": {0.03}},
				[]string{"A", "B"},
			)
			Expect(err).To(BeNil())
			Expect(df.Index).To(Equal([]time.Time{jan, feb, mar}))
			Expect(df.Vals[0][:2]).To(Equal([]float64{0.01, 0.02}))
			Expect(math.IsNaN(df.Vals[0][2])).To(BeTrue())
			Expect(math.IsNaN(df.Vals[1][0])).To(BeTrue())
			Expect(df.Vals[1][2]).To(Equal(0.03))
		})
	})
})
