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

// Package sanitize strips self-referential and disclaimer boilerplate from
// model responses while keeping the core content intact.
package sanitize

import (
	"regexp"
	"strings"
)

// linePatterns remove whole offending lines. They run before the inline
// patterns so a line that is pure boilerplate disappears entirely instead
// of leaving an empty shell behind.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*I\s+(will|shall)\s+(answer|respond)\s+(in|using)\s+[^\n\.]+[\.!]?\s*$`),
	regexp.MustCompile(`(?im)^\s*I\s+(will|shall)\s+(answer|respond)\s+as\s+KisanGPT[^\n]*$`),
	regexp.MustCompile(`(?im)^\s*As\s+(an\s+AI|KisanGPT)[^\n]*$`),
	regexp.MustCompile(`(?im)^\s*(I|We)\s+(will|shall)\s+(provide|give)\s+[^\n]*$`),
	regexp.MustCompile(`(?im)^\s*—\s*KisanGPT\s*$`),
	// Inaccurate data-access disclaimers; the prompt supplies live context
	// blocks, so these claims are simply wrong.
	regexp.MustCompile(`(?im)^.*(due to current issues retrieving real[- ]?time|I (do not|don't) have real[- ]?time access|cannot retrieve real[- ]?time|no real[- ]?time access).*$`),
	regexp.MustCompile(`(?im)^.*(please check (your|the) local (market|mandi)|check your local agricultural market).*$`),
}

// inlinePatterns remove boilerplate sentences embedded inside paragraphs.
var inlinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bI\s+(will|shall)\s+(answer|respond)\s+(in|using)\s+[^\.\n]+\.\s*`),
	regexp.MustCompile(`(?i)(due to current issues retrieving real[- ]?time|I (do not|don't) have real[- ]?time access|cannot retrieve real[- ]?time|no real[- ]?time access)[^\.\n]*\.\s*`),
	regexp.MustCompile(`(?i)please check (your|the) local (market|mandi)[^\.\n]*\.\s*`),
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Clean removes self-referential announcements, signatures, and data-access
// disclaimers from a model response, then collapses leftover blank runs.
// Cleaning an already clean string is a no-op.
func Clean(text string) string {
	if text == "" {
		return text
	}

	for _, p := range linePatterns {
		text = p.ReplaceAllString(text, "")
	}
	for _, p := range inlinePatterns {
		text = p.ReplaceAllString(text, "")
	}

	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n\n"))
}
