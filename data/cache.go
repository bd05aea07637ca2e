// Copyright 2024-2025
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

package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/foliolens/folio-api/common"
	"github.com/foliolens/folio-api/timeseries"
	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const DefaultCacheSize = 128

// Cache stores provider series by symbol and date interval. An interval
// already covered by a cached fetch is served from the cached payload.
type Cache interface {
	Get(ctx context.Context, symbol string, interval *Interval) (timeseries.Series, bool)
	Set(ctx context.Context, symbol string, interval *Interval, series timeseries.Series)
}

type cacheItem struct {
	Period   *Interval
	Payload  []byte
	StoredAt time.Time
}

// SeriesCache is an in-process lru of compressed series, optionally backed
// by redis as a shared second level. Payloads are lz4-compressed JSON so a
// multi-year daily series stays small enough to keep many symbols resident.
type SeriesCache struct {
	ttl    time.Duration
	local  *lru.Cache
	redis  *redis.Client
	locker sync.Mutex
}

// NewSeriesCache builds a cache sized from cache.local_size, expiring
// entries after cache.ttl. When cache.redis is enabled a redis client is
// connected to cache.redis_url as the second level.
func NewSeriesCache() *SeriesCache {
	size := viper.GetInt("cache.local_size")
	if size <= 0 {
		size = DefaultCacheSize
	}

	local, err := lru.New(size)
	if err != nil {
		log.Panic().Err(err).Int("Size", size).Msg("could not create lru cache")
	}

	cache := &SeriesCache{
		ttl:   viper.GetDuration("cache.ttl"),
		local: local,
	}

	if viper.GetBool("cache.redis") {
		opts, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("invalid redis url; continuing with local cache only")
		} else {
			cache.redis = redis.NewClient(opts)
		}
	}

	return cache
}

func (cache *SeriesCache) Get(ctx context.Context, symbol string, interval *Interval) (timeseries.Series, bool) {
	if err := interval.Valid(); err != nil {
		log.Error().Err(err).Object("Interval", interval).Msg("cannot read cache with invalid interval")
		return nil, false
	}

	if series, ok := cache.getLocal(symbol, interval); ok {
		return series, true
	}

	return cache.getRedis(ctx, symbol, interval)
}

func (cache *SeriesCache) getLocal(symbol string, interval *Interval) (timeseries.Series, bool) {
	cache.locker.Lock()
	defer cache.locker.Unlock()

	val, ok := cache.local.Get(symbol)
	if !ok {
		return nil, false
	}

	items := val.([]*cacheItem)
	for _, item := range items {
		if cache.expired(item) {
			continue
		}

		if item.Period.Contains(interval) {
			series, err := decodeSeries(item.Payload)
			if err != nil {
				log.Error().Err(err).Str("Symbol", symbol).Msg("corrupt cache payload")
				return nil, false
			}
			return series.Between(interval.Begin, interval.End), true
		}
	}

	return nil, false
}

func (cache *SeriesCache) getRedis(ctx context.Context, symbol string, interval *Interval) (timeseries.Series, bool) {
	if cache.redis == nil {
		return nil, false
	}

	payload, err := cache.redis.Get(ctx, redisKey(symbol, interval)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("Symbol", symbol).Msg("redis get failed")
		}
		return nil, false
	}

	series, err := decodeSeries(payload)
	if err != nil {
		log.Error().Err(err).Str("Symbol", symbol).Msg("corrupt redis payload")
		return nil, false
	}

	return series, true
}

func (cache *SeriesCache) Set(ctx context.Context, symbol string, interval *Interval, series timeseries.Series) {
	if err := interval.Valid(); err != nil {
		log.Error().Err(err).Object("Interval", interval).Msg("cannot cache series with invalid interval")
		return
	}

	payload, err := encodeSeries(series)
	if err != nil {
		log.Error().Err(err).Str("Symbol", symbol).Msg("cannot encode series for cache")
		return
	}

	item := &cacheItem{
		Period:   interval,
		Payload:  payload,
		StoredAt: time.Now(),
	}

	cache.locker.Lock()
	var items []*cacheItem
	if val, ok := cache.local.Get(symbol); ok {
		// drop items the new interval supersedes
		for _, existing := range val.([]*cacheItem) {
			if !item.Period.Contains(existing.Period) && !cache.expired(existing) {
				items = append(items, existing)
			}
		}
	}
	items = append(items, item)
	cache.local.Add(symbol, items)
	cache.locker.Unlock()

	if cache.redis != nil {
		if err := cache.redis.Set(ctx, redisKey(symbol, interval), payload, cache.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("Symbol", symbol).Msg("redis set failed")
		}
	}
}

func (cache *SeriesCache) expired(item *cacheItem) bool {
	return cache.ttl > 0 && time.Since(item.StoredAt) > cache.ttl
}

func redisKey(symbol string, interval *Interval) string {
	return fmt.Sprintf("folio:series:%s:%s:%s", symbol, interval.Begin.Format("2006-01-02"), interval.End.Format("2006-01-02"))
}

func encodeSeries(series timeseries.Series) ([]byte, error) {
	raw, err := json.Marshal(series)
	if err != nil {
		return nil, err
	}
	return common.Compress(raw)
}

func decodeSeries(payload []byte) (timeseries.Series, error) {
	raw, err := common.Decompress(payload)
	if err != nil {
		return nil, err
	}

	var series timeseries.Series
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, err
	}
	return series, nil
}
