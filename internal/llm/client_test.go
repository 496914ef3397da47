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

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/kisan-assistant/internal/config"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(config.LLMConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func newStubCompletionServer(t *testing.T, content string, requests *[]map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if requests != nil {
			*requests = append(*requests, body)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"message":       map[string]interface{}{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	client, err := NewClient(config.LLMConfig{
		APIKey:      "sk-test",
		Endpoint:    endpoint + "/v1",
		Model:       "gpt-4o-mini",
		VisionModel: "gpt-4o",
		MaxTokens:   1024,
		Temperature: 0.4,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestComplete(t *testing.T) {
	var requests []map[string]interface{}
	server := newStubCompletionServer(t, "Sow wheat in October.", &requests)
	defer server.Close()

	client := newTestClient(t, server.URL)

	answer, err := client.Complete(context.Background(), "when to sow wheat?")
	require.NoError(t, err)
	assert.Equal(t, "Sow wheat in October.", answer)

	require.Len(t, requests, 1)
	assert.Equal(t, "gpt-4o-mini", requests[0]["model"])
	messages := requests[0]["messages"].([]interface{})
	require.Len(t, messages, 1)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "when to sow wheat?", first["content"])
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	client := newTestClient(t, "http://localhost:0")
	_, err := client.Complete(context.Background(), "")
	assert.Error(t, err)
}

func TestCompleteWithImage(t *testing.T) {
	var requests []map[string]interface{}
	server := newStubCompletionServer(t, "Leaf rust detected.", &requests)
	defer server.Close()

	client := newTestClient(t, server.URL)

	answer, err := client.CompleteWithImage(context.Background(), "what is wrong with this leaf?", "aGVsbG8=", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "Leaf rust detected.", answer)

	require.Len(t, requests, 1)
	assert.Equal(t, "gpt-4o", requests[0]["model"])

	messages := requests[0]["messages"].([]interface{})
	first := messages[0].(map[string]interface{})
	parts := first["content"].([]interface{})
	require.Len(t, parts, 2)

	text := parts[0].(map[string]interface{})
	assert.Equal(t, "text", text["type"])
	assert.Equal(t, "what is wrong with this leaf?", text["text"])

	image := parts[1].(map[string]interface{})
	assert.Equal(t, "image_url", image["type"])
	url := image["image_url"].(map[string]interface{})["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.True(t, strings.HasSuffix(url, "aGVsbG8="))
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"recovered"},"finish_reason":"stop"}],"usage":{}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	start := time.Now()
	answer, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), BaseRetryDelay)
}

func TestCompleteStopsOnNonRetryableError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestHandleAPIErrorClassification(t *testing.T) {
	client := &Client{logger: zap.NewNop()}

	rateLimited := client.handleAPIError(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"})
	var retryable *RetryableError
	require.ErrorAs(t, rateLimited, &retryable)
	assert.Equal(t, http.StatusTooManyRequests, retryable.StatusCode)
	assert.Equal(t, BaseRetryDelay, retryable.RetryAfter)

	serverErr := client.handleAPIError(&openai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "bad gateway"})
	require.ErrorAs(t, serverErr, &retryable)
	assert.Equal(t, time.Duration(0), retryable.RetryAfter)

	badRequest := client.handleAPIError(&openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "bad input"})
	assert.False(t, errors.As(badRequest, &retryable))

	plain := client.handleAPIError(errors.New("connection refused"))
	assert.Contains(t, plain.Error(), "model client error")
}
