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

package simulate

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod      = errors.New("unknown simulation method")
	ErrInvalidBlockSize   = errors.New("block size must be positive")
	ErrBlockTooLarge      = errors.New("block size must be smaller than the series length")
	ErrInvalidProbability = errors.New("restart probability must be in (0, 1]")
	ErrInvalidHorizon     = errors.New("horizon must be positive")
	ErrInvalidTrials      = errors.New("trial count must be positive")
	ErrEmptySeries        = errors.New("series is empty")
)

// ConfigurationError reports a simulation parameter that cannot produce a
// valid draw
type ConfigurationError struct {
	Param string
	Value interface{}
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %v", e.Param, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
