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


package cmd

import (
	"context"
	"errors"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/horizon/analysis"
	"github.com/penny-vault/horizon/simulate"
	"github.com/penny-vault/horizon/sweep"
)

func setEnv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		os.Unsetenv(key)
	})
}

var _ = Describe("Config", func() {
	Context("without overrides", func() {
		It("uses the flag defaults", func() {
			cfg, err := buildConfig()
			Expect(err).To(BeNil())
			Expect(cfg.Sweep.Horizons).To(Equal(sweep.DefaultHorizons()))
			Expect(cfg.Methods).To(Equal(simulate.Methods))
			Expect(stringSlice("output.formats")).To(Equal([]string{"csv", "json"}))
		})
	})

	Context("with environment variables", func() {
		It("splits comma separated horizons", func() {
			setEnv("HORIZON_HORIZONS", "12, 24,36")

			cfg, err := buildConfig()
			Expect(err).To(BeNil())
			Expect(cfg.Sweep.Horizons).To(Equal([]int{12, 24, 36}))
		})

		It("splits comma separated methods", func() {
			setEnv("HORIZON_METHODS", "IID,Block")

			cfg, err := buildConfig()
			Expect(err).To(BeNil())
			Expect(cfg.Methods).To(Equal([]simulate.Method{simulate.IID, simulate.Block}))
		})

		It("splits comma separated labels and formats", func() {
			setEnv("HORIZON_INPUT_LABELS", "SPY,AGG")
			setEnv("HORIZON_OUTPUT_FORMATS", "csv, xlsx")

			Expect(stringSlice("input.labels")).To(Equal([]string{"SPY", "AGG"}))
			Expect(stringSlice("output.formats")).To(Equal([]string{"csv", "xlsx"}))
		})

		It("names the entry that is not a horizon", func() {
			setEnv("HORIZON_HORIZONS", "12,two")

			_, err := buildConfig()
			Expect(err).To(MatchError(ContainSubstring(`"two"`)))
		})
	})

	Context("when the analysis fails", func() {
		It("returns the error so the caller can release the cache", func() {
			cfg, err := buildConfig()
			Expect(err).To(BeNil())

			err = analyze(context.Background(), nil, cfg, nil)
			Expect(errors.Is(err, analysis.ErrNoSeries)).To(BeTrue())
		})
	})
})
