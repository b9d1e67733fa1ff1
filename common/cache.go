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

package common

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const DefaultLocalCacheSize = 128

// Cache stores lz4 compressed payloads in an in-process LRU and, when
// configured, a shared Redis instance. Local hits are served without a
// network round trip; Redis hits repopulate the local cache.
type Cache struct {
	local *lru.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCache creates a cache with localSize entries. An empty redisURL keeps the
// cache in-process only.
func NewCache(localSize int, redisURL string, ttl time.Duration) (*Cache, error) {
	if localSize <= 0 {
		localSize = DefaultLocalCacheSize
	}

	local, err := lru.New(localSize)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		local: local,
		ttl:   ttl,
	}

	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, err
		}
		c.rdb = redis.NewClient(opt)
	}

	return c, nil
}

// SetupCache creates the cache described by the cache.* configuration keys.
// It returns nil when caching is disabled; a blank cache.redis_url keeps the
// cache in-process.
func SetupCache() (*Cache, error) {
	if !viper.GetBool("cache.enabled") {
		return nil, nil
	}

	c, err := NewCache(viper.GetInt("cache.local_size"), viper.GetString("cache.redis_url"), time.Duration(viper.GetInt("cache.ttl"))*time.Second)
	if err != nil {
		log.Error().Err(err).Msg("could not create cache")
		return nil, err
	}
	return c, nil
}

// Set stores value under key
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	compressed, err := Compress(value)
	if err != nil {
		return err
	}
	c.local.Add(key, compressed)

	if c.rdb != nil {
		return c.rdb.Set(ctx, key, compressed, c.ttl).Err()
	}
	return nil
}

// Get returns the value stored under key. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	if v, found := c.local.Get(key); found {
		value, err = Decompress(v.([]byte))
		return value, err == nil, err
	}

	if c.rdb == nil {
		return nil, false, nil
	}

	compressed, err := c.rdb.GetEx(ctx, key, c.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	c.local.Add(key, compressed)
	value, err = Decompress(compressed)
	return value, err == nil, err
}

// Close releases the Redis connection pool
func (c *Cache) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
