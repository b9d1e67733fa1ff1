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
	"errors"
	"time"
)

// Index types supported by DataFrame; time.Time for period-indexed panels and
// int for horizon or month indexed result tables
type Index interface {
	time.Time | int
}

// DataFrame is a column-oriented table of float64 values sharing one index
type DataFrame[T Index] struct {
	Index    []T         `json:"index"`
	ColNames []string    `json:"colNames"`
	Vals     [][]float64 `json:"vals"`
}

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrLengthMismatch  = errors.New("column length does not match index length")
	ErrDuplicateColumn = errors.New("column already exists")
)
