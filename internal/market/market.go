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

// Package market fetches mandi commodity prices from the data.gov.in
// tabular resource API and renders them as a markdown context block with
// profit-band grouping. Lookups degrade through three fallback tiers
// before reporting no data.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/your-org/kisan-assistant/internal/cache"
	"github.com/your-org/kisan-assistant/internal/config"
	"github.com/your-org/kisan-assistant/internal/resilience"
)

// Result is the outcome of a price lookup. NoData distinguishes the fixed
// "no records" block from real price data so callers never have to match
// on the rendered text.
type Result struct {
	Text   string
	NoData bool
}

// flexString tolerates the API returning modal_price as either a JSON
// string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type record struct {
	Commodity   string     `json:"commodity"`
	Market      string     `json:"market"`
	State       string     `json:"state"`
	ModalPrice  flexString `json:"modal_price"`
	ArrivalDate string     `json:"arrival_date"`
}

type apiResponse struct {
	Records []record `json:"records"`
}

// Client queries the data.gov.in mandi price resource.
type Client struct {
	apiKey      string
	baseURL     string
	resourceID  string
	recordLimit int
	timeout     time.Duration
	httpClient  *http.Client
	memCache    *cache.Memory
	diskCache   *cache.SQLite
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewClient builds a market client. diskCache is optional; when present it
// acts as a second-level cache surviving restarts.
func NewClient(cfg config.MarketConfig, diskCache *cache.SQLite, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = resilience.DefaultTimeout
	}
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	limit := cfg.RecordLimit
	if limit <= 0 {
		limit = 10
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		resourceID:  cfg.ResourceID,
		recordLimit: limit,
		timeout:     timeout,
		httpClient:  &http.Client{},
		memCache:    cache.NewMemory(ttl),
		diskCache:   diskCache,
		cacheTTL:    ttl,
		logger:      logger,
	}
}

// Prices looks up mandi prices for the given location and crop, either of
// which may be empty. The fallback order is: state plus commodity, then
// commodity pan-India with an explanatory note, then state only. When
// every tier comes back empty the result carries the fixed no-data block
// with NoData set.
func (c *Client) Prices(ctx context.Context, location, crop string) Result {
	cacheKey := "market:" + strings.ToLower(strings.TrimSpace(location)) +
		":" + strings.ToLower(strings.TrimSpace(crop))

	if text, ok := c.memCache.Get(cacheKey); ok {
		c.logger.Debug("market cache hit", zap.String("key", cacheKey))
		return Result{Text: text}
	}
	if c.diskCache != nil {
		if text, ok, err := c.diskCache.Get(cacheKey); err == nil && ok {
			c.memCache.Set(cacheKey, text)
			return Result{Text: text}
		}
	}

	records, note := c.fetchWithFallback(ctx, location, crop)
	if len(records) == 0 {
		return Result{Text: renderNoData(location, crop), NoData: true}
	}

	text := c.render(location, crop, note, records)
	c.memCache.Set(cacheKey, text)
	if c.diskCache != nil {
		if err := c.diskCache.Set(cacheKey, text, c.cacheTTL); err != nil {
			c.logger.Warn("market disk cache write failed", zap.Error(err))
		}
	}
	return Result{Text: text}
}

func (c *Client) fetchWithFallback(ctx context.Context, location, crop string) ([]record, string) {
	var records []record

	// Tier 1: strict state plus commodity.
	if location != "" && crop != "" {
		c.logger.Debug("market lookup: state+commodity",
			zap.String("state", location), zap.String("commodity", crop))
		records = c.query(ctx, map[string]string{
			"filters[state]":     titleCase(location),
			"filters[commodity]": titleCase(crop),
		})
	}

	// Tier 2: commodity pan-India.
	if crop != "" && len(records) == 0 {
		c.logger.Debug("market lookup: pan-india commodity", zap.String("commodity", crop))
		records = c.query(ctx, map[string]string{
			"filters[commodity]": titleCase(crop),
		})
		if len(records) > 0 && location != "" {
			note := fmt.Sprintf(
				"No recent records found for '%s' in '%s'. Showing recent pan-India prices instead.",
				crop, location)
			return records, note
		}
	}

	// Tier 3: state only, when no commodity was given.
	if location != "" && crop == "" && len(records) == 0 {
		c.logger.Debug("market lookup: state only", zap.String("state", location))
		records = c.query(ctx, map[string]string{
			"filters[state]": titleCase(location),
		})
	}

	return records, ""
}

func (c *Client) query(ctx context.Context, filters map[string]string) []record {
	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Set("format", "json")
	params.Set("offset", "0")
	params.Set("limit", strconv.Itoa(c.recordLimit))
	for k, v := range filters {
		params.Set(k, v)
	}

	var response apiResponse
	err := resilience.WithTimeout(ctx, c.timeout, c.logger, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/resource/"+c.resourceID+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&response)
	})
	if err != nil {
		c.logger.Warn("market query failed",
			zap.Error(resilience.NewFetchError("datagov", "resource query", err)))
		return nil
	}
	return response.Records
}

// render groups records into profit bands and assembles the context block.
func (c *Client) render(location, crop, note string, records []record) string {
	lines := []string{
		"## Current Market Prices (Latest Records)",
		"**Location Filter:** " + orDefault(location, "All India"),
		"**Crop Filter:** " + orDefault(crop, "All Crops"),
	}
	if note != "" {
		lines = append(lines, "_Note: "+note+"_")
	}
	lines = append(lines, "")

	var high, medium, other []string
	limit := len(records)
	if limit > c.recordLimit {
		limit = c.recordLimit
	}
	for _, rec := range records[:limit] {
		raw := string(rec.ModalPrice)
		display := raw
		if display == "" {
			display = "N/A"
		}
		date := rec.ArrivalDate
		if date == "" {
			date = "N/A"
		}
		line := fmt.Sprintf("• %s at %s, %s: ₹%s/quintal (Date: %s)",
			rec.Commodity, rec.Market, rec.State, display, date)

		if raw == "" || raw == "N/A" {
			other = append(other, line)
			continue
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			// Unparsable prices drop the record entirely.
			continue
		}
		switch {
		case price > 5000:
			high = append(high, line)
		case price > 2000:
			medium = append(medium, line)
		default:
			other = append(other, line)
		}
	}

	lines = append(lines, other...)
	if len(high) > 0 {
		lines = append(lines, "", "### High Profit Potential (>₹5000/quintal):")
		lines = append(lines, high...)
	}
	if len(medium) > 0 {
		lines = append(lines, "", "### Medium Profit Potential (₹2000-5000/quintal):")
		lines = append(lines, medium...)
	}

	lines = append(lines, "", "**Data Source:** Government of India data.gov.in portal")
	return strings.Join(lines, "\n")
}

// renderNoData produces the fixed block the prompt uses to explain missing
// records to the model.
func renderNoData(location, crop string) string {
	lines := []string{
		"## Current Market Prices",
		"**Location Filter:** " + orDefault(location, "All India"),
		"**Crop Filter:** " + orDefault(crop, "All Crops"),
		"",
		"_Note: No recent market records were found for the specified filters. Please try specifying a state and a commodity for more precise results._",
		"",
		"**Data Source:** Government of India data.gov.in portal",
	}
	return strings.Join(lines, "\n")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// titleCase capitalizes the first letter of each space-separated word, the
// way the upstream API expects its state and commodity filters.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
