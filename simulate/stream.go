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

package simulate

import (
	"encoding/binary"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/exp/rand"
)

// Stream returns a generator for one unit of work. The seed is mixed with the
// unit's identity (series label, method, horizon, ...) so every unit draws
// from its own stream and results do not depend on scheduling order.
func Stream(seed uint64, parts ...string) *rand.Rand {
	h := blake3.New()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	_, _ = h.Write(buf[:])

	for _, part := range parts {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}

	sum := h.Sum(nil)
	return rand.New(rand.NewSource(binary.LittleEndian.Uint64(sum[:8])))
}

// NewSeed returns a seed derived from the clock for runs that were not given one
func NewSeed() uint64 {
	return uint64(time.Now().UnixNano())
}
