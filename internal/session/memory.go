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
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxTurns     = 10
	defaultContextTurns = 6
	defaultMaxSessions  = 1000
	defaultIdleBound    = 24 * time.Hour
)

type memorySession struct {
	turns      []Turn
	lastActive time.Time
}

// MemoryStore is the in-process Store implementation. A single mutex
// serializes appends; expected volume does not justify sharding.
type MemoryStore struct {
	sessions     map[string]*memorySession
	maxTurns     int
	contextTurns int
	maxSessions  int
	idleBound    time.Duration
	mutex        sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// MemoryStoreOptions tune the store. Zero values fall back to defaults
// (10 turns kept, 6 rendered, 1000 sessions, 24h idle bound).
type MemoryStoreOptions struct {
	MaxTurns     int
	ContextTurns int
	MaxSessions  int
	IdleBound    time.Duration
}

// NewMemoryStore creates an empty conversation store.
func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaultMaxTurns
	}
	if opts.ContextTurns <= 0 {
		opts.ContextTurns = defaultContextTurns
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.IdleBound <= 0 {
		opts.IdleBound = defaultIdleBound
	}

	return &MemoryStore{
		sessions:     make(map[string]*memorySession),
		maxTurns:     opts.MaxTurns,
		contextTurns: opts.ContextTurns,
		maxSessions:  opts.MaxSessions,
		idleBound:    opts.IdleBound,
		now:          time.Now,
	}
}

// Append records a turn and trims the session to the last maxTurns turns.
func (m *MemoryStore) Append(sessionID, role, content string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		if len(m.sessions) >= m.maxSessions {
			m.evictOldestLocked()
		}
		sess = &memorySession{}
		m.sessions[sessionID] = sess
	}

	sess.turns = append(sess.turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: m.now(),
	})
	if len(sess.turns) > m.maxTurns {
		sess.turns = sess.turns[len(sess.turns)-m.maxTurns:]
	}
	sess.lastActive = m.now()
}

// RecentContext renders the last contextTurns turns. Turns with roles
// other than user or assistant are skipped.
func (m *MemoryStore) RecentContext(sessionID string) string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return ""
	}

	turns := sess.turns
	if len(turns) > m.contextTurns {
		turns = turns[len(turns)-m.contextTurns:]
	}

	var parts []string
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			parts = append(parts, "User: "+turn.Content)
		case RoleAssistant:
			parts = append(parts, "Assistant: "+turn.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Turns returns a copy of the session's history.
func (m *MemoryStore) Turns(sessionID string) []Turn {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	turns := make([]Turn, len(sess.turns))
	copy(turns, sess.turns)
	return turns
}

// Prune evicts sessions idle longer than the idle bound.
func (m *MemoryStore) Prune() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cutoff := m.now().Add(-m.idleBound)
	removed := 0
	for id, sess := range m.sessions {
		if sess.lastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sessions)
}

// evictOldestLocked drops the least recently active session. Caller holds
// the mutex.
func (m *MemoryStore) evictOldestLocked() {
	var oldestID string
	var oldestTime time.Time
	for id, sess := range m.sessions {
		if oldestID == "" || sess.lastActive.Before(oldestTime) {
			oldestID = id
			oldestTime = sess.lastActive
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
	}
}
