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

package sweep_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/horizon/simulate"
	"github.com/penny-vault/horizon/sweep"
)

// driftless returns a series of n normally distributed returns with zero mean
func driftless(n int, sigma float64, seed uint64) []float64 {
	gen := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for ii := range values {
		values[ii] = gen.NormFloat64() * sigma
	}
	mean := stat.Mean(values, nil)
	floats.AddConst(-mean, values)
	return values
}

var _ = Describe("Sweep", func() {
	Describe("configuration", func() {
		It("defaults to 15 horizons from 12 to 180 months", func() {
			cfg := sweep.DefaultConfig()
			Expect(cfg.Horizons).To(HaveLen(15))
			Expect(cfg.Horizons[0]).To(Equal(12))
			Expect(cfg.Horizons[14]).To(Equal(180))
			Expect(cfg.Trials).To(Equal(10000))
			Expect(cfg.Validate()).To(Succeed())
		})

		It("rejects an empty horizon grid", func() {
			Expect(sweep.Config{Trials: 10}.Validate()).To(MatchError(sweep.ErrNoHorizons))
		})

		It("rejects duplicate horizons", func() {
			err := sweep.Config{Horizons: []int{12, 12}, Trials: 10}.Validate()
			Expect(errors.Is(err, sweep.ErrDuplicateHorizon)).To(BeTrue())
		})

		It("rejects non-positive horizons and trials", func() {
			err := sweep.Config{Horizons: []int{0}, Trials: 10}.Validate()
			Expect(errors.Is(err, simulate.ErrInvalidHorizon)).To(BeTrue())

			err = sweep.Config{Horizons: []int{12}, Trials: 0}.Validate()
			Expect(errors.Is(err, simulate.ErrInvalidTrials)).To(BeTrue())
		})
	})

	Describe("probability", func() {
		It("is zero for a series with no negative months", func() {
			sim, err := simulate.NewIID([]float64{0.01, 0.02, 0.005})
			Expect(err).To(BeNil())
			p, err := sweep.Probability(sim, rand.New(rand.NewSource(1)), 24, 1000)
			Expect(err).To(BeNil())
			Expect(p).To(Equal(0.0))
		})

		It("is one for a series with only negative months", func() {
			sim, err := simulate.NewIID([]float64{-0.01, -0.02, -0.005})
			Expect(err).To(BeNil())
			p, err := sweep.Probability(sim, rand.New(rand.NewSource(1)), 24, 1000)
			Expect(err).To(BeNil())
			Expect(p).To(Equal(1.0))
		})

		It("reports the Monte Carlo standard error", func() {
			Expect(sweep.StandardError(0.5, 10000)).To(BeNumerically("~", 0.005, 1e-12))
			Expect(sweep.StandardError(0, 10000)).To(Equal(0.0))
		})

		It("changes slowly between adjacent horizons", func() {
			values := driftless(120, 0.01, 17)
			sim, err := simulate.NewIID(values)
			Expect(err).To(BeNil())

			cfg := sweep.Config{Horizons: []int{12, 24, 36, 48, 60}, Trials: 40000}
			col, err := sweep.Run(context.Background(), sim, 5, "flat", cfg)
			Expect(err).To(BeNil())
			Expect(col).To(HaveLen(5))
			for ii := 1; ii < len(col); ii++ {
				Expect(col[ii]).To(BeNumerically("~", col[ii-1], 0.02))
			}
		})
	})

	Describe("run", func() {
		var sim simulate.Simulator

		BeforeEach(func() {
			var err error
			sim, err = simulate.NewBlock([]float64{0.03, -0.02, 0.01, -0.04, 0.02, 0.015, -0.01}, 3)
			Expect(err).To(BeNil())
		})

		It("is reproducible for a fixed seed", func() {
			cfg := sweep.Config{Horizons: []int{12, 24}, Trials: 500}
			a, err := sweep.Run(context.Background(), sim, 9, "SPY", cfg)
			Expect(err).To(BeNil())
			b, err := sweep.Run(context.Background(), sim, 9, "SPY", cfg)
			Expect(err).To(BeNil())
			Expect(a).To(Equal(b))
		})

		It("does not depend on which other horizons are requested", func() {
			a, err := sweep.Run(context.Background(), sim, 9, "SPY", sweep.Config{Horizons: []int{12, 24}, Trials: 500})
			Expect(err).To(BeNil())
			b, err := sweep.Run(context.Background(), sim, 9, "SPY", sweep.Config{Horizons: []int{24}, Trials: 500})
			Expect(err).To(BeNil())
			Expect(b[0]).To(Equal(a[1]))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := sweep.Run(ctx, sim, 9, "SPY", sweep.Config{Horizons: []int{12}, Trials: 10})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("table", func() {
		It("appends the average of the method columns", func() {
			columns := map[simulate.Method][]float64{
				simulate.IID:    {0.2, 0.1},
				simulate.Normal: {0.4, 0.3},
			}
			df, err := sweep.Table([]int{12, 24}, []simulate.Method{simulate.IID, simulate.Normal}, columns)
			Expect(err).To(BeNil())
			Expect(df.ColNames).To(Equal([]string{"IID", "Normal", sweep.AverageColumn}))
			Expect(df.Index).To(Equal([]int{12, 24}))

			avg, err := df.Column(sweep.AverageColumn)
			Expect(err).To(BeNil())
			Expect(avg[0]).To(BeNumerically("~", 0.3, 1e-12))
			Expect(avg[1]).To(BeNumerically("~", 0.2, 1e-12))
		})

		It("fails when a method column is missing", func() {
			_, err := sweep.Table([]int{12}, []simulate.Method{simulate.IID}, map[simulate.Method][]float64{})
			Expect(errors.Is(err, sweep.ErrNoColumns)).To(BeTrue())
		})
	})
})
