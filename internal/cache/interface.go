// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package cache provides the in-process caches used for analytics and
// repeated rate lookups.
package cache

import "time"

const (
	defaultTTL      = 5 * time.Minute
	defaultCapacity = 10000
)

// Cacher is implemented by every cache in this package.
type Cacher interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Clear()
	GetStats() Stats
	HitRate() float64
	Close()
}

// Type selects a cache implementation.
type Type string

const (
	// TypeTTL expires entries by age only.
	TypeTTL Type = "ttl"

	// TypeLFU is bounded and evicts the least frequently used entry.
	TypeLFU Type = "lfu"
)

// Config configures a cache.
type Config struct {
	// Name labels the cache in metrics.
	Name string

	Type Type
	TTL  time.Duration

	// Capacity bounds LFU caches; ignored for TTL caches.
	Capacity int
}

// NewCacher creates the cache described by cfg. Unknown types get a TTL
// cache.
func NewCacher(cfg Config) Cacher {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Type == TypeLFU {
		return NewLFUCache(cfg.Name, cfg.Capacity, cfg.TTL)
	}
	return New(cfg.Name, cfg.TTL)
}

var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*LFUCache)(nil)
)
