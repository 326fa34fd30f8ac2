// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"sync"
	"time"
)

// Default cache lifetimes. Detail reads are refreshed quickly so an
// unlock becomes visible within seconds even without skipCache; the
// listing tolerates longer staleness.
const (
	DefaultDetailTTL = 5 * time.Second
	DefaultListTTL   = 5 * time.Minute
)

// =============================================================================
// DETAIL CACHE
// =============================================================================

type detailEntry struct {
	value   Detail
	expires time.Time
}

// detailCache is a TTL cache of normalized report reads, keyed by
// reportId.
type detailCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]detailEntry
}

func newDetailCache(ttl time.Duration) *detailCache {
	if ttl <= 0 {
		ttl = DefaultDetailTTL
	}
	return &detailCache{
		ttl:     ttl,
		entries: make(map[string]detailEntry),
	}
}

func (c *detailCache) get(reportID string) (Detail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[reportID]
	if !ok || time.Now().After(e.expires) {
		delete(c.entries, reportID)
		return Detail{}, false
	}
	return e.value, true
}

func (c *detailCache) put(reportID string, d Detail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[reportID] = detailEntry{value: d, expires: time.Now().Add(c.ttl)}
}

func (c *detailCache) invalidate(reportID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, reportID)
}

// =============================================================================
// LIST CACHE
// =============================================================================

type listEntry struct {
	value   []Detail
	expires time.Time
}

// listCache is a TTL cache of per-user report listings.
type listCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]listEntry
}

func newListCache(ttl time.Duration) *listCache {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}
	return &listCache{
		ttl:     ttl,
		entries: make(map[string]listEntry),
	}
}

func (c *listCache) get(username string) ([]Detail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[username]
	if !ok || time.Now().After(e.expires) {
		delete(c.entries, username)
		return nil, false
	}
	return e.value, true
}

func (c *listCache) put(username string, ds []Detail) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[username] = listEntry{value: ds, expires: time.Now().Add(c.ttl)}
}

// invalidateAll drops every cached listing. Any write may move a report
// between users' views, so the whole cache goes.
func (c *listCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]listEntry)
}
