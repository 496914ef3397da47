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

package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCreatesSession(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{})

	store.Append("s1", RoleUser, "hello")

	turns := store.Turns("s1")
	require.Len(t, turns, 1)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
}

func TestAppendTrimsToLastTen(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{MaxTurns: 10})

	for i := 1; i <= 11; i++ {
		store.Append("s1", RoleUser, fmt.Sprintf("message %d", i))
	}

	turns := store.Turns("s1")
	require.Len(t, turns, 10)
	// Oldest turn dropped; turns 2 through 11 remain.
	assert.Equal(t, "message 2", turns[0].Content)
	assert.Equal(t, "message 11", turns[9].Content)
}

func TestRecentContextRendersLastSix(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{MaxTurns: 10, ContextTurns: 6})

	for i := 1; i <= 4; i++ {
		store.Append("s1", RoleUser, fmt.Sprintf("q%d", i))
		store.Append("s1", RoleAssistant, fmt.Sprintf("a%d", i))
	}

	context := store.RecentContext("s1")
	expected := "User: q2\nAssistant: a2\nUser: q3\nAssistant: a3\nUser: q4\nAssistant: a4"
	assert.Equal(t, expected, context)
}

func TestRecentContextUnknownSession(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{})
	assert.Equal(t, "", store.RecentContext("nope"))
}

func TestRecentContextSkipsUnknownRoles(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{})

	store.Append("s1", "system", "internal note")
	store.Append("s1", RoleUser, "hello")

	assert.Equal(t, "User: hello", store.RecentContext("s1"))
}

func TestPruneEvictsIdleSessions(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{IdleBound: time.Hour})

	current := time.Now()
	store.now = func() time.Time { return current }

	store.Append("stale", RoleUser, "old")

	current = current.Add(2 * time.Hour)
	store.Append("fresh", RoleUser, "new")

	removed := store.Prune()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
	assert.Empty(t, store.Turns("stale"))
	assert.NotEmpty(t, store.Turns("fresh"))
}

func TestMaxSessionsEvictsOldest(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{MaxSessions: 2})

	current := time.Now()
	store.now = func() time.Time { return current }

	store.Append("a", RoleUser, "1")
	current = current.Add(time.Minute)
	store.Append("b", RoleUser, "2")
	current = current.Add(time.Minute)
	store.Append("c", RoleUser, "3")

	assert.Equal(t, 2, store.Len())
	assert.Empty(t, store.Turns("a"))
	assert.NotEmpty(t, store.Turns("c"))
}

func TestConcurrentAppends(t *testing.T) {
	store := NewMemoryStore(MemoryStoreOptions{MaxTurns: 10})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Append("shared", RoleUser, fmt.Sprintf("m%d", n))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.Turns("shared"), 10)
}

func TestNewID(t *testing.T) {
	first := NewID()
	second := NewID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
