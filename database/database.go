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

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PgxIface is the subset of a pgx connection used to read return panels
type PgxIface interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

var (
	ErrNotConnected = errors.New("database connection has not been established")
	ErrMissingURL   = errors.New("database.url is not configured")
)

var pool PgxIface

// SetPool replaces the package connection; used by tests to install a mock
func SetPool(myPool PgxIface) {
	pool = myPool
}

// Pool returns the current connection or ErrNotConnected
func Pool() (PgxIface, error) {
	if pool == nil {
		return nil, ErrNotConnected
	}
	return pool, nil
}

// Connect opens a connection pool to the PostgreSQL server named by database.url
func Connect(ctx context.Context) error {
	url := viper.GetString("database.url")
	if url == "" {
		return ErrMissingURL
	}

	myPool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to pool")
		return err
	}

	if err = myPool.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database server")
		myPool.Close()
		return err
	}

	SetPool(myPool)
	return nil
}

// Close releases the connection pool if one was opened by Connect
func Close() {
	if p, ok := pool.(*pgxpool.Pool); ok {
		p.Close()
	}
	pool = nil
}
