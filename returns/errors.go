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
	"errors"
	"fmt"
)

var (
	ErrEmptySeries     = errors.New("series is empty")
	ErrTooShort        = errors.New("series needs at least 2 observations")
	ErrNotFinite       = errors.New("series contains a non-finite value")
	ErrNotCompoundable = errors.New("series contains a return of -100% or less")
	ErrUnknownLabel    = errors.New("label not found in return panel")
	ErrNoDateColumn    = errors.New("date column not found")
	ErrInvalidDate     = errors.New("could not parse date")
	ErrHTTPStatus      = errors.New("HTTP request returned invalid status code")
)

// InputError reports an invalid return series. Index is the offending
// observation or -1 when the problem is not tied to one value.
type InputError struct {
	Label string
	Index int
	Err   error
}

func (e *InputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid series %q at observation %d: %v", e.Label, e.Index, e.Err)
	}
	return fmt.Sprintf("invalid series %q: %v", e.Label, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
