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

package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchLimitsItems(t *testing.T) {
	c := NewClient(2*time.Hour, zap.NewNop())

	all := c.Fetch(0)
	assert.Len(t, all, 5)

	three := c.Fetch(3)
	require.Len(t, three, 3)
	assert.Equal(t, all[0].Title, three[0].Title)

	// Items are ordered newest first.
	assert.True(t, three[0].PublishedAt.After(three[1].PublishedAt))
}

func TestPesticideNewsFiltersByKeyword(t *testing.T) {
	c := NewClient(2*time.Hour, zap.NewNop())

	items := c.PesticideNews(5)
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Contains(t, item.Title+item.Content, "कीटनाशक")
	}
}

func TestPesticideNewsCaches(t *testing.T) {
	c := NewClient(2*time.Hour, zap.NewNop())
	fixed := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	first := c.PesticideNews(5)

	// A shifted clock would change fixture timestamps, but the cached
	// filtered set is reused within the TTL.
	c.now = func() time.Time { return fixed.Add(time.Hour) }
	second := c.PesticideNews(5)

	require.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].PublishedAt.Unix(), second[0].PublishedAt.Unix())
}

func TestAdvisories(t *testing.T) {
	c := NewClient(2*time.Hour, zap.NewNop())

	advisories := c.Advisories()
	require.Len(t, advisories, 3)
	assert.Equal(t, "ban", advisories[0].Type)
	assert.Equal(t, "Government of India", advisories[0].Source)
}

func TestSummary(t *testing.T) {
	c := NewClient(2*time.Hour, zap.NewNop())

	summary := c.Summary(c.Fetch(5))
	assert.Contains(t, summary, "ताज़ा कृषि समाचार:")
	// Top three only.
	assert.Equal(t, 3, countRune(summary, '•'))

	assert.Equal(t, "कोई समाचार उपलब्ध नहीं है।", c.Summary(nil))
}

func countRune(s string, r rune) int {
	n := 0
	for _, c := range s {
		if c == r {
			n++
		}
	}
	return n
}
