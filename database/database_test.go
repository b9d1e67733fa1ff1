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

package database_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
	"github.com/spf13/viper"

	"github.com/penny-vault/horizon/database"
)

var _ = Describe("Database", func() {
	AfterEach(func() {
		database.SetPool(nil)
		viper.Set("database.url", "")
	})

	It("reports a missing connection", func() {
		database.SetPool(nil)
		_, err := database.Pool()
		Expect(err).To(MatchError(database.ErrNotConnected))
	})

	It("returns the installed connection", func() {
		mock, err := pgxmock.NewConn()
		Expect(err).To(BeNil())

		database.SetPool(mock)
		conn, err := database.Pool()
		Expect(err).To(BeNil())
		Expect(conn).To(BeIdenticalTo(mock))
	})

	It("requires a connection string", func() {
		viper.Set("database.url", "")
		Expect(database.Connect(context.Background())).To(MatchError(database.ErrMissingURL))
	})

	It("forgets the connection on close", func() {
		mock, err := pgxmock.NewConn()
		Expect(err).To(BeNil())

		database.SetPool(mock)
		database.Close()
		_, err = database.Pool()
		Expect(err).To(MatchError(database.ErrNotConnected))
	})
})
