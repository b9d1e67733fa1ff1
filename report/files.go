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

package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	rdf "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx/v3"

	"github.com/penny-vault/horizon/analysis"
	"github.com/penny-vault/horizon/common"
	"github.com/penny-vault/horizon/dataframe"
	"github.com/penny-vault/horizon/survival"
	"github.com/penny-vault/horizon/sweep"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"

	ManifestName = "manifest.toml"
	JSONName     = "results.json"
	XLSXName     = "results.xlsx"

	// excel limits sheet names to 31 characters
	maxSheetName = 31
)

var (
	ErrUnknownFormat = errors.New("unknown output format")
)

// Manifest records how a set of output files was produced
type Manifest struct {
	RunID    string           `toml:"run_id"`
	Created  time.Time        `toml:"created"`
	Duration string           `toml:"duration"`
	Seed     string           `toml:"seed"`
	Build    common.BuildInfo `toml:"build"`
	Labels   []string         `toml:"labels"`
	Files    []string         `toml:"files"`
	Config   analysis.Config  `toml:"config"`
}

// SeedValue parses the recorded seed
func (m *Manifest) SeedValue() (uint64, error) {
	return strconv.ParseUint(m.Seed, 10, 64)
}

// Write saves the analysis to dir in every requested format followed by a
// manifest. It returns the paths of the files written.
func Write(ctx context.Context, dir string, formats []string, a *analysis.Analysis) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var files []string
	for _, format := range formats {
		var written []string
		var err error

		switch strings.ToLower(strings.TrimSpace(format)) {
		case FormatCSV:
			written, err = WriteCSV(ctx, dir, a)
		case FormatJSON:
			var fn string
			fn, err = WriteJSON(dir, a)
			written = []string{fn}
		case FormatXLSX:
			var fn string
			fn, err = WriteXLSX(dir, a)
			written = []string{fn}
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownFormat, format)
		}

		if err != nil {
			return files, err
		}
		files = append(files, written...)
	}

	manifest, err := WriteManifest(dir, a, files)
	if err != nil {
		return files, err
	}
	files = append(files, manifest)

	log.Info().Str("Dir", dir).Int("Files", len(files)).Msg("wrote results")
	return files, nil
}

// WriteCSV writes one underperformance table and one survival table per series
func WriteCSV(ctx context.Context, dir string, a *analysis.Analysis) ([]string, error) {
	files := make([]string, 0, len(a.Labels)*2)
	for _, label := range a.Labels {
		r, ok := a.Results[label]
		if !ok {
			continue
		}

		stem := fileStem(label)
		tables := []struct {
			name  string
			index string
			df    *dataframe.DataFrame[int]
		}{
			{stem + "_underperformance.csv", sweep.HorizonColumn, r.Table},
			{stem + "_survival.csv", survival.MonthColumn, r.Curve.Frame()},
		}

		for _, t := range tables {
			fn := filepath.Join(dir, t.name)
			if err := exportCSV(ctx, fn, t.index, t.df); err != nil {
				log.Error().Err(err).Str("FileName", fn).Msg("error writing file")
				return files, err
			}
			files = append(files, fn)
		}
	}
	return files, nil
}

func exportCSV(ctx context.Context, fn, indexName string, df *dataframe.DataFrame[int]) error {
	fh, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()

	return exports.ExportToCSV(ctx, fh, toRocket(indexName, df))
}

// toRocket converts an int indexed dataframe into a dataframe-go frame with
// the index as its first column
func toRocket(indexName string, df *dataframe.DataFrame[int]) *rdf.DataFrame {
	idx := make([]interface{}, len(df.Index))
	for ii, v := range df.Index {
		idx[ii] = int64(v)
	}

	series := make([]rdf.Series, 0, df.ColCount()+1)
	series = append(series, rdf.NewSeriesInt64(indexName, nil, idx...))
	for colIdx, name := range df.ColNames {
		vals := make([]interface{}, len(df.Vals[colIdx]))
		for ii, v := range df.Vals[colIdx] {
			vals[ii] = v
		}
		series = append(series, rdf.NewSeriesFloat64(name, nil, vals...))
	}
	return rdf.NewDataFrame(series...)
}

// WriteJSON serializes the complete analysis
func WriteJSON(dir string, a *analysis.Analysis) (string, error) {
	fn := filepath.Join(dir, JSONName)
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", err
	}
	return fn, os.WriteFile(fn, data, 0o644)
}

// WriteXLSX writes a workbook with a summary sheet plus one underperformance
// sheet and one survival sheet per series
func WriteXLSX(dir string, a *analysis.Analysis) (string, error) {
	fn := filepath.Join(dir, XLSXName)
	wb := xlsx.NewFile()

	summary, err := wb.AddSheet("Summary")
	if err != nil {
		return "", err
	}
	addRow(summary, "Series", "Kind", "N", "Mean", "StdDev", "Skew", "ExKurt", "Mu", "Sigma", "Nu", "MedianRecovery")

	used := map[string]bool{"summary": true}
	for _, label := range a.Labels {
		r, ok := a.Results[label]
		if !ok {
			continue
		}

		row := summary.AddRow()
		row.AddCell().SetString(label)
		row.AddCell().SetString(string(r.Kind))
		row.AddCell().SetInt(r.Summary.N)
		for _, v := range []float64{r.Summary.Mean, r.Summary.StdDev, r.Summary.Skew, r.Summary.ExcessKurtosis, r.Params.Mu, r.Params.Sigma, r.Params.Nu} {
			row.AddCell().SetFloat(v)
		}
		if month, ok := r.Curve.Median(); ok {
			row.AddCell().SetInt(month)
		} else {
			row.AddCell().SetString(fmt.Sprintf(">%d", r.Curve.Months[len(r.Curve.Months)-1]))
		}

		if err := addFrameSheet(wb, sheetName(used, label, "P"), sweep.HorizonColumn, r.Table); err != nil {
			return "", err
		}
		if err := addFrameSheet(wb, sheetName(used, label, "S"), survival.MonthColumn, r.Curve.Frame()); err != nil {
			return "", err
		}
	}

	return fn, wb.Save(fn)
}

func addFrameSheet(wb *xlsx.File, name, indexName string, df *dataframe.DataFrame[int]) error {
	sh, err := wb.AddSheet(name)
	if err != nil {
		return err
	}

	addRow(sh, append([]string{indexName}, df.ColNames...)...)
	for rowIdx, idx := range df.Index {
		row := sh.AddRow()
		row.AddCell().SetInt(idx)
		for _, col := range df.Vals {
			row.AddCell().SetFloatWithFormat(col[rowIdx], "0.0000")
		}
	}
	return nil
}

func addRow(sh *xlsx.Sheet, vals ...string) {
	row := sh.AddRow()
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}

// sheetName builds a unique sheet name of at most 31 characters. Excel
// compares sheet names without regard to case.
func sheetName(used map[string]bool, label, suffix string) string {
	base := []rune(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, label))

	name := truncateRunes(base, maxSheetName-len(suffix)-1) + " " + suffix
	for ii := 2; used[strings.ToLower(name)]; ii++ {
		tag := fmt.Sprintf("%s%d", suffix, ii)
		name = truncateRunes(base, maxSheetName-len(tag)-1) + " " + tag
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(r []rune, limit int) string {
	if len(r) > limit {
		r = r[:limit]
	}
	return string(r)
}

// WriteManifest records the run id, build, seed and configuration
func WriteManifest(dir string, a *analysis.Analysis, files []string) (string, error) {
	rel := make([]string, len(files))
	for ii, fn := range files {
		rel[ii] = filepath.Base(fn)
	}

	m := Manifest{
		RunID:    a.RunID,
		Created:  a.Started,
		Duration: a.Duration.String(),
		Seed:     strconv.FormatUint(a.Seed, 10),
		Build:    common.CurrentBuild(),
		Labels:   a.Labels,
		Files:    rel,
		Config:   a.Config,
	}

	data, err := toml.Marshal(m)
	if err != nil {
		return "", err
	}

	fn := filepath.Join(dir, ManifestName)
	return fn, os.WriteFile(fn, data, 0o644)
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(fn string) (*Manifest, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
