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

// Package weather renders live OpenWeather conditions and a short forecast
// into a markdown context block. The client owns its cache and never
// surfaces upstream failures to callers; a failed lookup is an empty block.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/kisan-assistant/internal/cache"
	"github.com/your-org/kisan-assistant/internal/config"
	"github.com/your-org/kisan-assistant/internal/resilience"
)

// geoResult is one entry of the OpenWeather geocoding response.
type geoResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type weatherDesc struct {
	Description string `json:"description"`
}

// currentWeather is the subset of /data/2.5/weather the summary needs.
// Optional fields are pointers so absent values suppress their lines.
type currentWeather struct {
	Name    string        `json:"name"`
	Weather []weatherDesc `json:"weather"`
	Main    struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// forecastResponse is the subset of /data/2.5/forecast the summary needs.
type forecastResponse struct {
	List []struct {
		DtTxt   string        `json:"dt_txt"`
		Weather []weatherDesc `json:"weather"`
		Main    struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
}

// Client fetches and formats OpenWeather data.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	cache      *cache.Memory
	logger     *zap.Logger

	// now supplies the summary's timestamp line; swappable for tests.
	now func() time.Time
}

// NewClient builds a weather client from configuration.
func NewClient(cfg config.WeatherConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = resilience.DefaultTimeout
	}
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		cache:      cache.NewMemory(ttl),
		logger:     logger,
		now:        time.Now,
	}
}

// Summary returns a concise markdown block with current conditions and the
// next 24 hours of 3-hourly forecast for the location. It returns "" when
// the location is empty, the API key is missing, or any lookup fails.
func (c *Client) Summary(ctx context.Context, location string) string {
	if location == "" || c.apiKey == "" {
		return ""
	}

	cacheKey := strings.ToLower(strings.TrimSpace(location))
	if cached, ok := c.cache.Get(cacheKey); ok {
		c.logger.Debug("weather cache hit", zap.String("location", cacheKey))
		return cached
	}

	geo, err := c.geocode(ctx, location)
	if err != nil {
		c.logger.Warn("weather geocode failed",
			zap.String("location", location), zap.Error(err))
		return ""
	}
	if geo == nil {
		return ""
	}

	current := c.current(ctx, geo.Lat, geo.Lon)
	forecast := c.forecast(ctx, geo.Lat, geo.Lon)

	summary := c.render(location, current, forecast)
	if summary != "" {
		c.cache.Set(cacheKey, summary)
	}
	return summary
}

func (c *Client) geocode(ctx context.Context, location string) (*geoResult, error) {
	params := url.Values{}
	params.Set("q", location+",India")
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var results []geoResult
	if err := c.getJSON(ctx, "/geo/1.0/direct", params, &results); err != nil {
		return nil, resilience.NewFetchError("openweather", "geocode", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (c *Client) current(ctx context.Context, lat, lon float64) *currentWeather {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var cw currentWeather
	if err := c.getJSON(ctx, "/data/2.5/weather", params, &cw); err != nil {
		c.logger.Warn("current weather fetch failed", zap.Error(err))
		return nil
	}
	return &cw
}

func (c *Client) forecast(ctx context.Context, lat, lon float64) *forecastResponse {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("cnt", "8")

	var fr forecastResponse
	if err := c.getJSON(ctx, "/data/2.5/forecast", params, &fr); err != nil {
		c.logger.Warn("forecast fetch failed", zap.Error(err))
		return nil
	}
	return &fr
}

// render builds the markdown block from whichever responses succeeded.
func (c *Client) render(location string, current *currentWeather, forecast *forecastResponse) string {
	var parts []string

	if current != nil {
		name := current.Name
		if name == "" {
			name = location
		}
		desc := "-"
		if len(current.Weather) > 0 && current.Weather[0].Description != "" {
			desc = current.Weather[0].Description
		}

		parts = append(parts,
			"### Live Weather (OpenWeather)",
			fmt.Sprintf("**Location:** %s  |  **Time:** %s",
				name, c.now().UTC().Format("2006-01-02 15:04 UTC")),
			fmt.Sprintf("- Condition: %s", desc))

		if current.Main.Temp != nil {
			parts = append(parts, fmt.Sprintf("- Temperature: %s°C (feels like %s°C)",
				formatNum(*current.Main.Temp), formatOptNum(current.Main.FeelsLike)))
		}
		if current.Main.Humidity != nil {
			parts = append(parts, fmt.Sprintf("- Humidity: %d%%", *current.Main.Humidity))
		}
		if current.Wind.Speed != nil {
			parts = append(parts, fmt.Sprintf("- Wind: %s m/s", formatNum(*current.Wind.Speed)))
		}
		parts = append(parts, "")
	}

	if forecast != nil && len(forecast.List) > 0 {
		parts = append(parts, "### Next 24h Forecast (3-hourly)")
		items := forecast.List
		if len(items) > 6 {
			items = items[:6]
		}
		for _, item := range items {
			desc := "-"
			if len(item.Weather) > 0 && item.Weather[0].Description != "" {
				desc = item.Weather[0].Description
			}
			parts = append(parts, fmt.Sprintf("- %s: %s, %s°C",
				item.DtTxt, desc, formatOptNum(item.Main.Temp)))
		}
		parts = append(parts, "")
	}

	return strings.Join(parts, "\n")
}

// getJSON performs a bounded GET against the OpenWeather API and decodes
// the JSON body into target.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, target interface{}) error {
	return resilience.WithTimeout(ctx, c.timeout, c.logger, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(target)
	})
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptNum(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatNum(*v)
}
