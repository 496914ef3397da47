// Copyright 2025 Kisan Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides the two cache layers used by the external data
// gateways: a process-local TTL map and an on-disk SQLite store.
package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a process-local string cache with per-entry expiry. Expired
// entries are ignored on read and overwritten on the next Set; there is no
// background eviction.
type Memory struct {
	ttl     time.Duration
	entries map[string]memoryEntry
	mutex   sync.RWMutex

	// now is swappable for tests.
	now func() time.Time
}

// NewMemory creates a memory cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value and true when the key is present and fresh.
func (m *Memory) Get(key string) (string, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	entry, ok := m.entries[key]
	if !ok || m.now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

// Set stores the value under key with the cache's TTL.
func (m *Memory) Set(key, value string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: m.now().Add(m.ttl),
	}
}

// Len returns the number of stored entries, fresh or expired.
func (m *Memory) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries)
}
