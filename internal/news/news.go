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

// Package news serves agricultural news items and pesticide advisories.
// The items are fixture data standing in for the krishijagran/PIB/ICAR RSS
// feeds; the filtering and caching behavior matches what a live feed
// integration would need.
package news

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/kisan-assistant/internal/cache"
)

// Item is a single news entry.
type Item struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
}

// Advisory is a pesticide regulatory advisory.
type Advisory struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Type          string `json:"type"`
	EffectiveDate string `json:"effective_date"`
	Source        string `json:"source"`
}

// pesticideKeywords select pest-protection items out of the general feed,
// in both English and Hindi.
var pesticideKeywords = []string{"pesticide", "pest", "insecticide", "disease", "protection", "कीटनाशक"}

// Client serves news and advisories with a shared TTL cache on filtered
// results.
type Client struct {
	cache  *cache.Memory
	logger *zap.Logger

	// now anchors the fixture publication times; swappable for tests.
	now func() time.Time
}

// NewClient builds a news client. ttl bounds how long filtered results are
// reused.
func NewClient(ttl time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Client{
		cache:  cache.NewMemory(ttl),
		logger: logger,
		now:    time.Now,
	}
}

// Fetch returns up to limit of the latest agricultural news items.
func (c *Client) Fetch(limit int) []Item {
	items := c.allNews()
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// PesticideNews returns news items whose title or content mentions pest
// protection topics, capped at limit. Filtered results are cached.
func (c *Client) PesticideNews(limit int) []Item {
	const key = "news:pesticide"

	if cached, ok := c.cache.Get(key); ok {
		var items []Item
		if err := json.Unmarshal([]byte(cached), &items); err == nil {
			c.logger.Debug("pesticide news cache hit")
			return capItems(items, limit)
		}
	}

	var filtered []Item
	for _, item := range c.allNews() {
		haystack := strings.ToLower(item.Title + " " + item.Content)
		for _, kw := range pesticideKeywords {
			if strings.Contains(haystack, kw) {
				filtered = append(filtered, item)
				break
			}
		}
	}

	if encoded, err := json.Marshal(filtered); err == nil {
		c.cache.Set(key, string(encoded))
	}
	return capItems(filtered, limit)
}

// Advisories returns the current pesticide regulatory advisories.
func (c *Client) Advisories() []Advisory {
	return []Advisory{
		{
			Title:         "Monocrotophos पर प्रतिबंध",
			Content:       "Monocrotophos के उपयोग पर 1 दिसंबर 2024 से प्रतिबंध लगाया गया है।",
			Type:          "ban",
			EffectiveDate: "2024-12-01",
			Source:        "Government of India",
		},
		{
			Title:         "नई कीटनाशक दवा की अनुमति",
			Content:       "Neem-based कीटनाशक को सभी फसलों के लिए अनुमति दी गई है।",
			Type:          "approval",
			EffectiveDate: "2024-11-15",
			Source:        "ICAR",
		},
		{
			Title:         "कीटनाशक उपयोग के नए दिशानिर्देश",
			Content:       "कीटनाशक के सुरक्षित उपयोग के लिए नए दिशानिर्देश जारी किए गए हैं।",
			Type:          "guidelines",
			EffectiveDate: "2024-11-01",
			Source:        "Ministry of Agriculture",
		},
	}
}

// Summary renders the top three items as a short bullet list.
func (c *Client) Summary(items []Item) string {
	if len(items) == 0 {
		return "कोई समाचार उपलब्ध नहीं है।"
	}

	var b strings.Builder
	b.WriteString("ताज़ा कृषि समाचार:\n")
	for i, item := range items {
		if i >= 3 {
			break
		}
		b.WriteString("• " + item.Title + " (" + item.Source + ")\n")
	}
	return b.String()
}

func (c *Client) allNews() []Item {
	now := c.now()
	return []Item{
		{
			Title:       "नई कीटनाशक नीति जारी - किसानों के लिए राहत",
			Content:     "सरकार ने नई कीटनाशक नीति जारी की है जो किसानों को बेहतर सुरक्षा प्रदान करेगी।",
			Source:      "Krishi Jagran",
			PublishedAt: now.Add(-2 * time.Hour),
			URL:         "https://krishijagran.com/news1",
		},
		{
			Title:       "मौसम विभाग ने बारिश का पूर्वानुमान जारी किया",
			Content:     "अगले सप्ताह देश के कई हिस्सों में बारिश की संभावना है।",
			Source:      "PIB",
			PublishedAt: now.Add(-4 * time.Hour),
			URL:         "https://pib.gov.in/news2",
		},
		{
			Title:       "गेहूं की नई किस्म विकसित - उत्पादन में 20% वृद्धि",
			Content:     "ICAR ने गेहूं की नई किस्म विकसित की है जो उत्पादन में 20% वृद्धि करेगी।",
			Source:      "ICAR",
			PublishedAt: now.Add(-6 * time.Hour),
			URL:         "https://icar.org.in/news3",
		},
		{
			Title:       "किसान क्रेडिट कार्ड योजना में बदलाव",
			Content:     "किसान क्रेडिट कार्ड योजना में नए नियम लागू किए गए हैं।",
			Source:      "Krishi Jagran",
			PublishedAt: now.Add(-8 * time.Hour),
			URL:         "https://krishijagran.com/news4",
		},
		{
			Title:       "जैविक खेती को बढ़ावा - सरकारी योजना",
			Content:     "सरकार ने जैविक खेती को बढ़ावा देने के लिए नई योजना शुरू की है।",
			Source:      "PIB",
			PublishedAt: now.Add(-10 * time.Hour),
			URL:         "https://pib.gov.in/news5",
		},
	}
}

func capItems(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
