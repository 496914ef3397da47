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

// Package llm talks to the language model. The server depends only on the
// Completer interface so request handling can be tested without a live
// model.
package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey marks the one configuration failure that becomes a
// user-visible error instead of a degraded answer.
var ErrMissingAPIKey = errors.New("LLM API key is required")

// Completer produces model responses for assembled prompts.
type Completer interface {
	// Complete answers a text-only prompt.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithImage answers a prompt about a base64-encoded image.
	CompleteWithImage(ctx context.Context, prompt, imageB64, mimeType string) (string, error)
}
