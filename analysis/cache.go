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

package analysis

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"

	"github.com/penny-vault/horizon/returns"
)

const cachePrefix = "horizon:result:"

// cacheKey digests everything that determines a series' result. The worker
// count is excluded since it does not change the output.
func cacheKey(s *returns.Series, cfg Config) (string, error) {
	cfg.Workers = 0
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	h := blake3.New()
	_, _ = h.Write([]byte(s.Label))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(s.Kind))
	_, _ = h.Write([]byte{0})

	var buf [8]byte
	for _, v := range s.Values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	_, _ = h.Write(cfgJSON)

	return cachePrefix + hex.EncodeToString(h.Sum(nil)), nil
}

func lookup(ctx context.Context, cache Cache, key string) (*Result, bool) {
	data, ok, err := cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("Key", key).Msg("cache lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	r := &Result{}
	if err := json.Unmarshal(data, r); err != nil {
		log.Warn().Err(err).Str("Key", key).Msg("could not decode cached result")
		return nil, false
	}
	r.Cached = true
	return r, true
}

func store(ctx context.Context, cache Cache, key string, r *Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return cache.Set(ctx, key, data)
}
