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

package simulate_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/penny-vault/horizon/distribution"
	"github.com/penny-vault/horizon/simulate"
)

func fractionNegative(outcomes []float64) float64 {
	cnt := 0
	for _, v := range outcomes {
		if v < 0 {
			cnt++
		}
	}
	return float64(cnt) / float64(len(outcomes))
}

var _ = Describe("Simulate", func() {
	var (
		values []float64
	)

	BeforeEach(func() {
		values = []float64{0.02, -0.01, 0.03, -0.02, 0.01}
	})

	Describe("method names", func() {
		It("parses names case-insensitively", func() {
			m, err := simulate.ParseMethod(" stationary ")
			Expect(err).To(BeNil())
			Expect(m).To(Equal(simulate.Stationary))
		})

		It("rejects unknown methods", func() {
			_, err := simulate.ParseMethod("garch")
			Expect(errors.Is(err, simulate.ErrUnknownMethod)).To(BeTrue())
		})

		It("builds every method in the catalog", func() {
			for _, m := range simulate.Methods {
				sim, err := simulate.New(m, values, simulate.Options{BlockSize: 2, RestartProbability: 0.5})
				Expect(err).To(BeNil())
				Expect(sim.Method()).To(Equal(m))
			}
		})
	})

	Describe("configuration errors", func() {
		DescribeTable("reports invalid parameters", func(method simulate.Method, series []float64, opts simulate.Options, sentinel error) {
			sim, err := simulate.New(method, series, opts)
			Expect(sim).To(BeNil())
			Expect(errors.Is(err, sentinel)).To(BeTrue(), "expected %v, got %v", sentinel, err)

			var cfgErr *simulate.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		},
			Entry("block size equal to series length", simulate.Block, []float64{0.01, 0.02, 0.03}, simulate.Options{BlockSize: 3}, simulate.ErrBlockTooLarge),
			Entry("block size larger than series", simulate.Block, []float64{0.01, 0.02}, simulate.Options{BlockSize: 3}, simulate.ErrBlockTooLarge),
			Entry("zero block size", simulate.Block, []float64{0.01, 0.02}, simulate.Options{BlockSize: 0}, simulate.ErrInvalidBlockSize),
			Entry("zero restart probability", simulate.Stationary, []float64{0.01, 0.02, 0.03}, simulate.Options{RestartProbability: 0}, simulate.ErrInvalidProbability),
			Entry("restart probability above one", simulate.Stationary, []float64{0.01, 0.02, 0.03}, simulate.Options{RestartProbability: 1.5}, simulate.ErrInvalidProbability),
			Entry("mean block as long as series", simulate.Stationary, []float64{0.01, 0.02, 0.03}, simulate.Options{RestartProbability: 1.0 / 3.0}, simulate.ErrBlockTooLarge),
			Entry("empty series", simulate.IID, []float64{}, simulate.DefaultOptions(), simulate.ErrEmptySeries),
			Entry("unknown method", simulate.Method("garch"), []float64{0.01, 0.02}, simulate.DefaultOptions(), simulate.ErrUnknownMethod),
		)

		It("rejects non-positive horizons and trial counts", func() {
			sim, err := simulate.NewIID(values)
			Expect(err).To(BeNil())

			_, err = simulate.Trials(sim, rand.New(rand.NewSource(1)), 0, 10)
			Expect(errors.Is(err, simulate.ErrInvalidHorizon)).To(BeTrue())

			_, err = simulate.Trials(sim, rand.New(rand.NewSource(1)), 12, 0)
			Expect(errors.Is(err, simulate.ErrInvalidTrials)).To(BeTrue())
		})
	})

	Describe("cumulative return", func() {
		It("compounds monthly returns", func() {
			Expect(simulate.CumulativeReturn([]float64{0.1, 0.1})).To(BeNumerically("~", 0.21, 1e-12))
			Expect(simulate.CumulativeReturn([]float64{0.5, -0.5})).To(BeNumerically("~", -0.25, 1e-12))
			Expect(simulate.CumulativeReturn(nil)).To(Equal(0.0))
		})
	})

	Describe("IID bootstrap", func() {
		It("converges to the fraction of negative months at a one month horizon", func() {
			sim, err := simulate.NewIID(values)
			Expect(err).To(BeNil())

			outcomes, err := simulate.Trials(sim, rand.New(rand.NewSource(42)), 1, 40000)
			Expect(err).To(BeNil())
			Expect(fractionNegative(outcomes)).To(BeNumerically("~", 0.4, 0.01))
		})

		It("only draws observed values", func() {
			sim, err := simulate.NewIID(values)
			Expect(err).To(BeNil())

			path := make([]float64, 200)
			sim.Path(rand.New(rand.NewSource(7)), path)
			for _, v := range path {
				Expect(values).To(ContainElement(v))
			}
		})
	})

	Describe("Block bootstrap", func() {
		It("copies contiguous blocks of the series", func() {
			series := []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08}
			sim, err := simulate.NewBlock(series, 3)
			Expect(err).To(BeNil())

			path := make([]float64, 8)
			sim.Path(rand.New(rand.NewSource(3)), path)
			for start := 0; start < len(path); start += 3 {
				end := start + 3
				if end > len(path) {
					end = len(path)
				}
				for ii := start + 1; ii < end; ii++ {
					Expect(path[ii]).To(BeNumerically("~", path[ii-1]+0.01, 1e-12))
				}
			}
		})

		It("never starts a block at the final n-B positions", func() {
			sim, err := simulate.NewBlock(values, 1)
			Expect(err).To(BeNil())

			outcomes, err := simulate.Trials(sim, rand.New(rand.NewSource(42)), 1, 40000)
			Expect(err).To(BeNil())

			// the last observation (0.01) is never drawn, leaving 2 of 4 negative
			Expect(outcomes).NotTo(ContainElement(BeNumerically("~", 0.01, 1e-12)))
			Expect(fractionNegative(outcomes)).To(BeNumerically("~", 0.5, 0.01))
		})

		It("matches a reference implementation at a 24 month horizon", func() {
			series := make([]float64, 60)
			gen := rand.New(rand.NewSource(99))
			for ii := range series {
				series[ii] = gen.NormFloat64()*0.05 + 0.002
			}

			sim, err := simulate.NewBlock(series, 3)
			Expect(err).To(BeNil())
			actual, err := simulate.Trials(sim, rand.New(rand.NewSource(2024)), 24, 2000)
			Expect(err).To(BeNil())

			ref := rand.New(rand.NewSource(2024))
			expected := make([]float64, 2000)
			for ii := range expected {
				growth := 1.0
				for filled := 0; filled < 24; {
					start := ref.Intn(len(series) - 3)
					for jj := start; jj < start+3 && filled < 24; jj++ {
						growth *= 1 + series[jj]
						filled++
					}
				}
				expected[ii] = growth - 1
			}

			for ii := range expected {
				Expect(actual[ii]).To(BeNumerically("~", expected[ii], 1e-9))
			}
			Expect(fractionNegative(actual)).To(BeNumerically("~", fractionNegative(expected), 1e-12))
		})
		It("agrees with an independent resampler on 24 months of returns at 12 months", func() {
			gen := rand.New(rand.NewSource(24))
			series := make([]float64, 24)
			for ii := range series {
				series[ii] = gen.NormFloat64()
			}
			mean, std := stat.MeanStdDev(series, nil)
			for ii := range series {
				series[ii] = (series[ii]-mean)/std*0.02 + 0.005
			}

			sim, err := simulate.NewBlock(series, 3)
			Expect(err).To(BeNil())
			outcomes, err := simulate.Trials(sim, rand.New(rand.NewSource(11)), 12, 10000)
			Expect(err).To(BeNil())

			ref := rand.New(rand.NewSource(5150))
			negative := 0
			for ii := 0; ii < 10000; ii++ {
				growth := 1.0
				for filled := 0; filled < 12; {
					start := ref.Intn(len(series) - 3)
					for jj := start; jj < start+3 && filled < 12; jj++ {
						growth *= 1 + series[jj]
						filled++
					}
				}
				if growth < 1 {
					negative++
				}
			}

			Expect(fractionNegative(outcomes)).To(BeNumerically("~", float64(negative)/10000, 0.03))
		})
	})

	Describe("Stationary bootstrap", func() {
		It("is an IID bootstrap when every step restarts", func() {
			sim, err := simulate.NewStationary(values, 1.0)
			Expect(err).To(BeNil())
			Expect(sim.RestartProbability()).To(Equal(1.0))

			outcomes, err := simulate.Trials(sim, rand.New(rand.NewSource(42)), 1, 40000)
			Expect(err).To(BeNil())
			Expect(fractionNegative(outcomes)).To(BeNumerically("~", 0.4, 0.01))

			outcomes, err = simulate.Trials(sim, rand.New(rand.NewSource(43)), 3, 40000)
			Expect(err).To(BeNil())
			iid, _ := simulate.NewIID(values)
			reference, err := simulate.Trials(iid, rand.New(rand.NewSource(44)), 3, 40000)
			Expect(err).To(BeNil())
			Expect(fractionNegative(outcomes)).To(BeNumerically("~", fractionNegative(reference), 0.015))
		})

		It("wraps around the end of the series", func() {
			series := []float64{0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08, 0.09, 0.10}
			sim, err := simulate.NewStationary(series, 0.2)
			Expect(err).To(BeNil())

			path := make([]float64, 500)
			sim.Path(rand.New(rand.NewSource(11)), path)

			wrapped := false
			for ii := 1; ii < len(path); ii++ {
				if path[ii-1] == 0.10 && path[ii] == 0.01 {
					wrapped = true
				}
			}
			Expect(wrapped).To(BeTrue())
		})
	})

	Describe("parametric simulators", func() {
		It("draws normal returns with the sample moments", func() {
			sim, err := simulate.NewNormal(values)
			Expect(err).To(BeNil())

			path := make([]float64, 100000)
			sim.Path(rand.New(rand.NewSource(5)), path)
			mean, std := stat.MeanStdDev(path, nil)
			expMean, expStd := stat.MeanStdDev(values, nil)
			Expect(mean).To(BeNumerically("~", expMean, 0.001))
			Expect(std).To(BeNumerically("~", expStd, 0.001))
		})

		It("fits the Student-t parameters from the series", func() {
			sim, err := simulate.NewStudentTFromSeries(values)
			Expect(err).To(BeNil())
			Expect(sim.Params()).To(Equal(distribution.Fit(values)))
		})

		It("approaches the normal simulator for large degrees of freedom", func() {
			mu, sigma := 0.004, 0.04
			normal := simulate.NewNormalWithParams(mu, sigma)
			studentT := simulate.NewStudentT(distribution.Params{Mu: mu, Sigma: sigma, Nu: 1e6})

			n, err := simulate.Trials(normal, rand.New(rand.NewSource(1)), 12, 20000)
			Expect(err).To(BeNil())
			t, err := simulate.Trials(studentT, rand.New(rand.NewSource(2)), 12, 20000)
			Expect(err).To(BeNil())
			Expect(fractionNegative(t)).To(BeNumerically("~", fractionNegative(n), 0.02))
		})
	})

	Describe("probabilities", func() {
		It("stays within [0, 1] for every method", func() {
			for _, m := range simulate.Methods {
				sim, err := simulate.New(m, values, simulate.Options{BlockSize: 2, RestartProbability: 0.5})
				Expect(err).To(BeNil())
				outcomes, err := simulate.Trials(sim, simulate.Stream(1, "test", m.String()), 12, 500)
				Expect(err).To(BeNil())
				p := fractionNegative(outcomes)
				Expect(p).To(BeNumerically(">=", 0))
				Expect(p).To(BeNumerically("<=", 1))
			}
		})
	})

	Describe("streams", func() {
		It("is reproducible for the same seed and unit", func() {
			a := simulate.Stream(42, "SPY", "IID", "12")
			b := simulate.Stream(42, "SPY", "IID", "12")
			for ii := 0; ii < 10; ii++ {
				Expect(a.Uint64()).To(Equal(b.Uint64()))
			}
		})

		It("separates different units", func() {
			a := simulate.Stream(42, "SPY", "IID", "12")
			b := simulate.Stream(42, "SPY", "IID", "24")
			c := simulate.Stream(42, "SPYIID", "12")
			first := a.Uint64()
			Expect(b.Uint64()).NotTo(Equal(first))
			Expect(c.Uint64()).NotTo(Equal(first))
		})
	})
})
