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

package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanRemovesLanguageAnnouncements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"announcement on its own line",
			"I will answer in English.\nWheat sowing starts in October.",
			"Wheat sowing starts in October.",
		},
		{
			"announcement inline",
			"I shall respond in Hindi. गेहूं की बुवाई अक्टूबर में होती है।",
			"गेहूं की बुवाई अक्टूबर में होती है।",
		},
		{
			"self identification",
			"As an AI, I cannot visit your farm.\nUse drip irrigation for tomatoes.",
			"Use drip irrigation for tomatoes.",
		},
		{
			"signature",
			"Sow before the rains.\n— KisanGPT",
			"Sow before the rains.",
		},
		{
			"persona line",
			"I will respond as KisanGPT, your assistant.\nApply 50 kg/ha urea.",
			"Apply 50 kg/ha urea.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestCleanRemovesDataAccessDisclaimers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"no real-time access line",
			"I do not have real-time access to prices.\nWheat trades near ₹2250/quintal.",
			"Wheat trades near ₹2250/quintal.",
		},
		{
			"retrieval issues line",
			"Due to current issues retrieving real-time data, numbers may vary.\nOnion: ₹1450/quintal.",
			"Onion: ₹1450/quintal.",
		},
		{
			// The line pattern claims the whole line, even when advice
			// shares it with the disclaimer.
			"check local mandi takes the line",
			"Prices vary by region. Please check your local mandi for exact rates.\nStore grain in dry sheds.",
			"Store grain in dry sheds.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestCleanCollapsesBlankRuns(t *testing.T) {
	input := "Title\n\n\n\nBody"
	assert.Equal(t, "Title\n\nBody", Clean(input))
}

func TestCleanKeepsCleanText(t *testing.T) {
	input := "## गेहूं की खेती\n\n- अक्टूबर में बुवाई करें\n- 5-6 सिंचाई दें"
	assert.Equal(t, input, Clean(input))
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"I will answer in English.\n\nWheat needs well-drained loamy soil.\n— KisanGPT",
		"As an AI, I cannot say.\nPlease check your local market for rates.\nUse certified seed.",
		"plain advice with no boilerplate",
	}

	for _, input := range inputs {
		once := Clean(input)
		assert.Equal(t, once, Clean(once))
	}
}

func TestCleanEmpty(t *testing.T) {
	assert.Equal(t, "", Clean(""))
}
