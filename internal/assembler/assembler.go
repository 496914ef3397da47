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

// Package assembler turns a farmer's message into the context blocks and
// prompt handed to the language model. Gateway failures surface here only
// as empty blocks, never as errors.
package assembler

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/your-org/kisan-assistant/internal/entities"
	"github.com/your-org/kisan-assistant/internal/intent"
	"github.com/your-org/kisan-assistant/internal/market"
)

// marketKeywords trigger a market data fetch by plain substring presence
// in the lowered message.
var marketKeywords = []string{
	"crop", "grow", "market", "price", "profit",
	"cultivation", "farming", "बेचना", "कीमत",
}

// WeatherSource yields a rendered weather block, or "" when unavailable.
type WeatherSource interface {
	Summary(ctx context.Context, location string) string
}

// MarketSource yields rendered market prices with a no-data marker.
type MarketSource interface {
	Prices(ctx context.Context, location, crop string) market.Result
}

// Input is one turn's raw material. Explicit Location and Crop override
// whatever the entity extractor infers from the message.
type Input struct {
	Message      string
	Location     string
	Crop         string
	Conversation string
}

// Output is the assembled context for one turn.
//
// ContextData is what the prompt embeds; a no-data market block is
// suppressed there because the prompt's fallback rule handles the case
// better than the marker text. DebugContext keeps the marker visible so
// the pipeline can be inspected without a model call.
type Output struct {
	Location       string
	Crop           string
	TargetLanguage string
	MarketQuery    bool
	ContextData    string
	DebugContext   string
	Conversation   string
}

// Assembler coordinates the data gateways for a single turn.
type Assembler struct {
	weather WeatherSource
	market  MarketSource
	intents *intent.Analyzer
	logger  *zap.Logger
}

// New creates an Assembler over the given gateways. The analyzer may be
// nil; the keyword trigger then decides market fetches on its own.
func New(weather WeatherSource, marketSource MarketSource, analyzer *intent.Analyzer, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		weather: weather,
		market:  marketSource,
		intents: analyzer,
		logger:  logger,
	}
}

// Assemble resolves entities, fetches weather and market data concurrently,
// and joins the resulting blocks with blank lines in fixed priority order:
// weather, market, regional recommendations.
//
// Prior conversation is carried only when no location resolved this turn;
// a fresh location means earlier turns may concern a different region and
// must not bleed into the answer.
func (a *Assembler) Assemble(ctx context.Context, in Input) Output {
	inferredLocation, inferredCrop := entities.Extract(in.Message)

	location := in.Location
	if location == "" {
		location = inferredLocation
	}
	crop := in.Crop
	if crop == "" {
		crop = inferredCrop
	}

	// An explicit crop or a market-like query triggers the market fetch.
	// The classifier widens the trigger beyond the plain keyword list.
	marketQuery := in.Crop != "" || hasMarketKeyword(in.Message)
	if !marketQuery && a.intents != nil {
		analysis := a.intents.Analyze(in.Message)
		marketQuery = a.intents.ShouldFetch(analysis, intent.MarketData)
	}

	a.logger.Info("assembling context",
		zap.Bool("market_query", marketQuery),
		zap.String("location", location),
		zap.String("crop", crop),
	)

	var (
		weatherBlock string
		marketResult market.Result
		wg           sync.WaitGroup
	)
	if location != "" && a.weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			weatherBlock = a.weather.Summary(ctx, location)
		}()
	}
	if marketQuery && a.market != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			marketResult = a.market.Prices(ctx, location, crop)
		}()
	}
	wg.Wait()

	var parts, debugParts []string
	if weatherBlock != "" {
		parts = append(parts, weatherBlock)
		debugParts = append(debugParts, weatherBlock)
		a.logger.Debug("added weather context", zap.Int("chars", len(weatherBlock)))
	}
	if marketQuery && marketResult.Text != "" {
		debugParts = append(debugParts, marketResult.Text)
		if !marketResult.NoData {
			parts = append(parts, marketResult.Text)
			a.logger.Debug("added market context", zap.Int("chars", len(marketResult.Text)))
		}
	}
	if location != "" && marketQuery {
		regional := RegionalRecommendations(location)
		parts = append(parts, regional)
		debugParts = append(debugParts, regional)
		a.logger.Debug("added regional recommendations", zap.Int("chars", len(regional)))
	}

	out := Output{
		Location:       location,
		Crop:           crop,
		TargetLanguage: TargetLanguage(in.Message),
		MarketQuery:    marketQuery,
		ContextData:    strings.Join(parts, "\n\n"),
		DebugContext:   strings.Join(debugParts, "\n\n"),
	}
	if location == "" {
		out.Conversation = in.Conversation
	}
	return out
}

func hasMarketKeyword(message string) bool {
	lowered := strings.ToLower(message)
	for _, k := range marketKeywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}
