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
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
)

// New creates an empty dataframe with the given index and no columns
func New[T Index](index []T) *DataFrame[T] {
	return &DataFrame[T]{
		Index:    index,
		ColNames: []string{},
		Vals:     [][]float64{},
	}
}

// ColIndex returns the index of the named column or -1 if it does not exist
func (df *DataFrame[T]) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame[T]) ColCount() int {
	return len(df.ColNames)
}

// Column returns the values of the named column. The returned slice is shared
// with the dataframe.
func (df *DataFrame[T]) Column(colName string) ([]float64, error) {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, colName)
	}
	return df.Vals[idx], nil
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame[T]) Copy() *DataFrame[T] {
	df2 := &DataFrame[T]{
		ColNames: make([]string, len(df.ColNames)),
		Index:    make([]T, len(df.Index)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Index, df.Index)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Insert adds a new column to the end of the dataframe
func (df *DataFrame[T]) Insert(name string, col []float64) error {
	if len(col) != len(df.Index) {
		return fmt.Errorf("%w: %s has %d rows, index has %d", ErrLengthMismatch, name, len(col), len(df.Index))
	}
	if df.ColIndex(name) != -1 {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return nil
}

// Len returns the number of rows in the dataframe
func (df *DataFrame[T]) Len() int {
	return len(df.Index)
}

// Row returns the value of every column at row idx
func (df *DataFrame[T]) Row(idx int) []float64 {
	row := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		row[colIdx] = col[idx]
	}
	return row
}

// RowMean computes the mean of the requested columns for each row. Rows with
// a NaN in any requested column are NaN.
func (df *DataFrame[T]) RowMean(columns ...string) ([]float64, error) {
	cols := make([][]float64, 0, len(columns))
	for _, name := range columns {
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	res := make([]float64, df.Len())
	if len(cols) == 0 {
		for idx := range res {
			res[idx] = math.NaN()
		}
		return res, nil
	}

	row := make([]float64, len(cols))
	for rowIdx := range res {
		for colIdx, col := range cols {
			row[colIdx] = col[rowIdx]
		}
		res[rowIdx] = floats.Sum(row) / float64(len(row))
	}

	return res, nil
}

// Select returns a dataframe restricted to the named columns. Values are shared.
func (df *DataFrame[T]) Select(columns ...string) (*DataFrame[T], error) {
	res := New(df.Index)
	for _, name := range columns {
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		res.ColNames = append(res.ColNames, name)
		res.Vals = append(res.Vals, col)
	}
	return res, nil
}

// DropNaN returns the index entries and values of a single column with NaN
// rows removed
func (df *DataFrame[T]) DropNaN(colName string) ([]T, []float64, error) {
	col, err := df.Column(colName)
	if err != nil {
		return nil, nil, err
	}

	index := make([]T, 0, len(col))
	vals := make([]float64, 0, len(col))
	for rowIdx, val := range col {
		if math.IsNaN(val) {
			continue
		}
		index = append(index, df.Index[rowIdx])
		vals = append(vals, val)
	}
	return index, vals, nil
}

// Table renders the dataframe as an ASCII table
func (df *DataFrame[T]) Table() string {
	return df.TableWithHeader("Index")
}

// TableWithHeader renders the dataframe as an ASCII table using indexName as
// the title of the index column
func (df *DataFrame[T]) TableWithHeader(indexName string) string {
	if len(df.Index) == 0 {
		return "<NO DATA>"
	}

	tableCols := append([]string{indexName}, df.ColNames...)

	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)

	for idx, rowIdx := range df.Index {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, FormatIndex(rowIdx))

		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[idx]))
		}

		table.Append(row)
	}

	table.Render()
	return s.String()
}

// FormatIndex converts an index value to its display string
func FormatIndex[T Index](idx T) string {
	switch v := any(idx).(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case int:
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%v", idx)
}
