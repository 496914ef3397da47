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

// Package session keeps short-lived per-conversation memory. History is
// bounded to the most recent turns and lives only in process memory; a
// restart forgets everything, by design of the serving layer.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// Store is the conversation memory contract used by the HTTP layer.
type Store interface {
	// Append records a turn, creating the session when it does not exist
	// and trimming history to the configured bound.
	Append(sessionID, role, content string)

	// RecentContext renders the most recent turns as "User:"/"Assistant:"
	// lines for prompt inclusion. Unknown sessions render as "".
	RecentContext(sessionID string) string

	// Turns returns a copy of the stored turns for the session.
	Turns(sessionID string) []Turn

	// Prune evicts sessions idle longer than the store's idle bound and
	// returns how many were removed.
	Prune() int
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}
