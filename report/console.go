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

// Package report renders analysis results to the console and writes them to
// disk as CSV, JSON or Excel files along with a run manifest.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"

	"github.com/penny-vault/horizon/analysis"
	"github.com/penny-vault/horizon/distribution"
	"github.com/penny-vault/horizon/survival"
	"github.com/penny-vault/horizon/sweep"
)

const (
	chartHeight = 12
	chartWidth  = 72
)

// Console writes the underperformance table and survival chart of every series
func Console(w io.Writer, a *analysis.Analysis) error {
	for _, label := range a.Labels {
		r, ok := a.Results[label]
		if !ok {
			continue
		}

		if _, err := fmt.Fprintf(w, "\n%s (%s)\n\nProbability of a negative cumulative return\n\n", label, r.Kind); err != nil {
			return err
		}
		if _, err := io.WriteString(w, r.Table.TableWithHeader(sweep.HorizonColumn)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", Chart(label, r.Curve)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", MedianText(r.Curve)); err != nil {
			return err
		}
	}
	return nil
}

// Chart plots a survival curve as ASCII art
func Chart(label string, curve *survival.Curve) string {
	if curve == nil || len(curve.Survival) == 0 {
		return ""
	}
	caption := fmt.Sprintf("%s: probability of no recovery, months %d to %d", label, curve.Months[0], curve.Months[len(curve.Months)-1])
	return asciigraph.Plot(curve.Survival,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
	)
}

// MedianText describes the median recovery month of a curve
func MedianText(curve *survival.Curve) string {
	month, ok := curve.Median()
	if !ok {
		return fmt.Sprintf("Median recovery: not reached within %d months (%d of %d paths censored)",
			curve.Months[len(curve.Months)-1], curve.TotalCensored(), curve.TotalCensored()+curve.TotalEvents())
	}
	return fmt.Sprintf("Median recovery: month %d", month)
}

// Summaries writes a table of descriptive statistics and fitted Student-t
// parameters, one row per series
func Summaries(w io.Writer, labels []string, summaries map[string]distribution.Summary, params map[string]distribution.Params) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Series", "N", "Mean", "StdDev", "Skew", "ExKurt", "Min", "Max", "Neg", "Nu"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)

	for _, label := range labels {
		s := summaries[label]
		p := params[label]
		table.Append([]string{
			label,
			fmt.Sprintf("%d", s.N),
			fmt.Sprintf("%.4f", s.Mean),
			fmt.Sprintf("%.4f", s.StdDev),
			fmt.Sprintf("%.3f", s.Skew),
			fmt.Sprintf("%.3f", s.ExcessKurtosis),
			fmt.Sprintf("%.4f", s.Min),
			fmt.Sprintf("%.4f", s.Max),
			fmt.Sprintf("%.3f", s.FractionNegative),
			fmt.Sprintf("%.2f", p.Nu),
		})
	}
	table.Render()
}

// fileStem turns a series label into something safe to use in a file name
func fileStem(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, label)
}
