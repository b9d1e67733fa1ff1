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

package survival

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/penny-vault/horizon/dataframe"
)

const (
	MonthColumn    = "Month"
	SurvivalColumn = "Survival"
	LowerColumn    = "Lower"
	UpperColumn    = "Upper"
	AtRiskColumn   = "AtRisk"
	EventsColumn   = "Events"
	CensoredColumn = "Censored"
)

var (
	ErrRecordOutOfRange = errors.New("record duration outside the observation window")
)

// Curve is a Kaplan-Meier survival curve over months threshold..max horizon.
// Survival is non-increasing and equals 1 at the threshold month. Lower and
// Upper are pointwise exponential Greenwood confidence bounds.
type Curve struct {
	Months     []int     `json:"months"`
	Survival   []float64 `json:"survival"`
	Lower      []float64 `json:"lower"`
	Upper      []float64 `json:"upper"`
	AtRisk     []int     `json:"atRisk"`
	Events     []int     `json:"events"`
	Censored   []int     `json:"censored"`
	Confidence float64   `json:"confidence"`
}

// KaplanMeier estimates the survival curve from censored records. At each
// month t with d events among n records still at risk the survival drops by a
// factor (1 - d/n). Censored records leave the risk set after their censoring
// month without a drop. If every record is censored the curve stays at 1.
func KaplanMeier(records []Record, cfg Config) (*Curve, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	size := cfg.MaxHorizon - cfg.Threshold + 1
	events := make([]int, size)
	censored := make([]int, size)
	for _, rec := range records {
		if rec.Duration <= cfg.Threshold || rec.Duration > cfg.MaxHorizon {
			return nil, fmt.Errorf("%w: %d not in (%d, %d]", ErrRecordOutOfRange, rec.Duration, cfg.Threshold, cfg.MaxHorizon)
		}
		if rec.Observed {
			events[rec.Duration-cfg.Threshold]++
		} else {
			censored[rec.Duration-cfg.Threshold]++
		}
	}

	z := distuv.UnitNormal.Quantile(1 - (1-cfg.Confidence)/2)

	curve := &Curve{
		Months:     make([]int, size),
		Survival:   make([]float64, size),
		Lower:      make([]float64, size),
		Upper:      make([]float64, size),
		AtRisk:     make([]int, size),
		Events:     events,
		Censored:   censored,
		Confidence: cfg.Confidence,
	}

	atRisk := len(records)
	surv := 1.0
	greenwood := 0.0
	for ii := 0; ii < size; ii++ {
		curve.Months[ii] = cfg.Threshold + ii
		curve.AtRisk[ii] = atRisk

		d := events[ii]
		if d > 0 {
			surv *= 1.0 - float64(d)/float64(atRisk)
			if d < atRisk {
				greenwood += float64(d) / (float64(atRisk) * float64(atRisk-d))
			}
		}

		curve.Survival[ii] = surv
		curve.Lower[ii], curve.Upper[ii] = exponentialGreenwood(surv, greenwood, z)

		atRisk -= d + censored[ii]
	}

	return curve, nil
}

// exponentialGreenwood computes the confidence interval of log(-log S), which
// keeps both bounds inside [0, 1]
func exponentialGreenwood(surv, greenwood, z float64) (lower, upper float64) {
	if surv >= 1 {
		return 1, 1
	}
	if surv <= 0 {
		return 0, 0
	}

	logS := math.Log(surv)
	se := math.Sqrt(greenwood / (logS * logS))
	center := math.Log(-logS)
	lower = math.Exp(-math.Exp(center + z*se))
	upper = math.Exp(-math.Exp(center - z*se))
	return lower, upper
}

// At returns the survival probability at month. Months before the curve
// starts survive with probability 1; months after it ends keep the last value.
func (c *Curve) At(month int) float64 {
	if len(c.Months) == 0 || month <= c.Months[0] {
		return 1
	}
	idx := month - c.Months[0]
	if idx >= len(c.Survival) {
		return c.Survival[len(c.Survival)-1]
	}
	return c.Survival[idx]
}

// Median returns the first month at which survival falls to 0.5 or below. ok
// is false when more than half of the paths never recover.
func (c *Curve) Median() (month int, ok bool) {
	for ii, s := range c.Survival {
		if s <= 0.5 {
			return c.Months[ii], true
		}
	}
	return 0, false
}

func (c *Curve) TotalEvents() int {
	total := 0
	for _, d := range c.Events {
		total += d
	}
	return total
}

func (c *Curve) TotalCensored() int {
	total := 0
	for _, cnt := range c.Censored {
		total += cnt
	}
	return total
}

// Frame returns the curve and its event table as a month indexed dataframe
func (c *Curve) Frame() *dataframe.DataFrame[int] {
	df := dataframe.New(c.Months)
	df.ColNames = []string{SurvivalColumn, LowerColumn, UpperColumn, AtRiskColumn, EventsColumn, CensoredColumn}
	df.Vals = [][]float64{
		c.Survival,
		c.Lower,
		c.Upper,
		toFloat(c.AtRisk),
		toFloat(c.Events),
		toFloat(c.Censored),
	}
	return df
}

func toFloat(vals []int) []float64 {
	res := make([]float64, len(vals))
	for ii, v := range vals {
		res[ii] = float64(v)
	}
	return res
}
