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

// Package analysis drives a full study: for every labelled return series it
// fits the return distribution, sweeps the underperformance probability over
// the horizon grid for each simulation method, and estimates the time to
// recovery survival curve.
package analysis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/penny-vault/horizon/dataframe"
	"github.com/penny-vault/horizon/distribution"
	"github.com/penny-vault/horizon/observability/opentelemetry"
	"github.com/penny-vault/horizon/returns"
	"github.com/penny-vault/horizon/simulate"
	"github.com/penny-vault/horizon/survival"
	"github.com/penny-vault/horizon/sweep"
)

// Cache stores serialized results between runs
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Result is everything computed for one labelled series
type Result struct {
	Label   string                    `json:"label"`
	Kind    returns.Kind              `json:"kind"`
	Summary distribution.Summary      `json:"summary"`
	Params  distribution.Params       `json:"params"`
	Table   *dataframe.DataFrame[int] `json:"table"`
	Curve   *survival.Curve           `json:"curve"`
	Cached  bool                      `json:"-"`
}

// Analysis collects the results of a run keyed by series label. Labels keeps
// the order the series were supplied in.
type Analysis struct {
	RunID    string             `json:"runID"`
	Seed     uint64             `json:"seed"`
	Started  time.Time          `json:"started"`
	Duration time.Duration      `json:"duration"`
	Config   Config             `json:"config"`
	Labels   []string           `json:"labels"`
	Results  map[string]*Result `json:"results"`
}

// Tables returns the underperformance probability table of every series
func (a *Analysis) Tables() map[string]*dataframe.DataFrame[int] {
	tables := make(map[string]*dataframe.DataFrame[int], len(a.Results))
	for label, r := range a.Results {
		tables[label] = r.Table
	}
	return tables
}

// Curves returns the survival curve of every series
func (a *Analysis) Curves() map[string]*survival.Curve {
	curves := make(map[string]*survival.Curve, len(a.Results))
	for label, r := range a.Results {
		curves[label] = r.Curve
	}
	return curves
}

// job holds the in-flight state of one series. Every unit writes to its own
// slot so no locking is needed.
type job struct {
	series  *returns.Series
	key     string
	sims    []simulate.Simulator
	columns [][]float64
	curve   *survival.Curve
}

// Run analyzes every series. Each (series, method, horizon) cell and each
// survival estimate is an independent unit executed on a bounded worker pool;
// units draw from streams derived from the seed and their identity, so results
// do not depend on the number of workers. cache may be nil; it is only
// consulted when cfg.Seed is fixed.
func Run(ctx context.Context, series []*returns.Series, cfg Config, cache Cache) (*Analysis, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "analysis.Run")
	defer span.End()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, ErrNoSeries
	}

	labels := make([]string, 0, len(series))
	seen := make(map[string]bool, len(series))
	for _, s := range series {
		if err := returns.Validate(s.Label, s.Values); err != nil {
			return nil, err
		}
		if seen[s.Label] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSeries, s.Label)
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
	}

	useCache := cache != nil && cfg.Seed != 0
	if cfg.Seed == 0 {
		cfg.Seed = simulate.NewSeed()
		log.Info().Uint64("Seed", cfg.Seed).Msg("no seed configured; seeding from the clock")
	}
	span.SetAttributes(opentelemetry.SeedKey.String(strconv.FormatUint(cfg.Seed, 10)))

	analysis := &Analysis{
		RunID:   uuid.New().String(),
		Seed:    cfg.Seed,
		Started: time.Now(),
		Config:  cfg,
		Labels:  labels,
		Results: make(map[string]*Result, len(series)),
	}

	jobs := make([]*job, 0, len(series))
	for _, s := range series {
		key := ""
		if useCache {
			var err error
			key, err = cacheKey(s, cfg)
			if err != nil {
				return nil, err
			}
			if r, ok := lookup(ctx, cache, key); ok {
				log.Info().Str("Series", s.Label).Msg("using cached result")
				analysis.Results[s.Label] = r
				continue
			}
		}

		j, err := newJob(s, key, cfg)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	log.Info().Str("RunID", analysis.RunID).Int("Series", len(jobs)).Int("Workers", cfg.workers()).
		Int("Horizons", len(cfg.Sweep.Horizons)).Int("Trials", cfg.Sweep.Trials).Msg("starting simulations")

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(cfg.workers())
	for _, j := range jobs {
		j := j
		for mIdx := range j.sims {
			for hIdx := range cfg.Sweep.Horizons {
				mIdx, hIdx := mIdx, hIdx
				grp.Go(func() error {
					return j.sweepUnit(grpCtx, cfg, mIdx, hIdx)
				})
			}
		}
		grp.Go(func() error {
			return j.survivalUnit(grpCtx, cfg)
		})
	}

	if err := grp.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "simulation failed")
		return nil, err
	}

	for _, j := range jobs {
		r, err := j.result(cfg)
		if err != nil {
			return nil, err
		}
		analysis.Results[r.Label] = r

		if useCache {
			if err := store(ctx, cache, j.key, r); err != nil {
				log.Warn().Err(err).Str("Series", r.Label).Msg("could not cache result")
			}
		}
	}

	analysis.Duration = time.Since(analysis.Started)
	log.Info().Str("RunID", analysis.RunID).Dur("Elapsed", analysis.Duration).Msg("analysis complete")
	return analysis, nil
}

// newJob builds every simulator up front so configuration errors surface
// before any work is scheduled
func newJob(s *returns.Series, key string, cfg Config) (*job, error) {
	j := &job{
		series:  s,
		key:     key,
		sims:    make([]simulate.Simulator, len(cfg.Methods)),
		columns: make([][]float64, len(cfg.Methods)),
	}
	for ii, m := range cfg.Methods {
		sim, err := simulate.New(m, s.Values, cfg.Options)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Label, err)
		}
		j.sims[ii] = sim
		j.columns[ii] = make([]float64, len(cfg.Sweep.Horizons))
	}
	return j, nil
}

func (j *job) sweepUnit(ctx context.Context, cfg Config, mIdx, hIdx int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sim := j.sims[mIdx]
	horizon := cfg.Sweep.Horizons[hIdx]
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "analysis.sweep",
		trace.WithAttributes(opentelemetry.UnitAttributes(j.series.Label, sim.Method().String(), horizon, cfg.Sweep.Trials)...))
	defer span.End()

	p, err := sweep.Probability(sim, sweep.Stream(cfg.Seed, j.series.Label, sim.Method(), horizon), horizon, cfg.Sweep.Trials)
	if err != nil {
		span.RecordError(err)
		return err
	}
	j.columns[mIdx][hIdx] = p

	log.Trace().Str("Series", j.series.Label).Str("Method", sim.Method().String()).Int("Horizon", horizon).Float64("Probability", p).Msg("horizon complete")
	return nil
}

func (j *job) survivalUnit(ctx context.Context, cfg Config) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "analysis.survival",
		trace.WithAttributes(opentelemetry.UnitAttributes(j.series.Label, simulate.IID.String(), cfg.Survival.MaxHorizon, cfg.Survival.Trials)...))
	defer span.End()

	curve, err := survival.Estimate(ctx, j.series.Values, cfg.Seed, j.series.Label, cfg.Survival)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("series %s: %w", j.series.Label, err)
	}
	j.curve = curve
	return nil
}

func (j *job) result(cfg Config) (*Result, error) {
	columns := make(map[simulate.Method][]float64, len(cfg.Methods))
	for ii, m := range cfg.Methods {
		columns[m] = j.columns[ii]
	}

	table, err := sweep.Table(cfg.Sweep.Horizons, cfg.Methods, columns)
	if err != nil {
		return nil, err
	}

	summary := distribution.Summarize(j.series.Values)
	params := distribution.Fit(j.series.Values)
	log.Debug().Str("Series", j.series.Label).Int("N", summary.N).Float64("Mean", params.Mu).
		Float64("Sigma", params.Sigma).Float64("Nu", params.Nu).Msg("fitted distribution")

	return &Result{
		Label:   j.series.Label,
		Kind:    j.series.Kind,
		Summary: summary,
		Params:  params,
		Table:   table,
		Curve:   j.curve,
	}, nil
}
