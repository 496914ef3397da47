// Package intent analyzes farmer queries: it buckets them into agricultural
// intents, spots crop and location mentions, scores how agricultural the
// query is, and decides which external data sources are worth fetching.
package intent

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DataKind identifies a class of external data the assembler can fetch.
type DataKind string

const (
	MarketData   DataKind = "market_data"
	WeatherData  DataKind = "weather_data"
	CropData     DataKind = "crop_data"
	NewsData     DataKind = "news_data"
	RegionalData DataKind = "regional_data"
)

// Requirements flags which data sources the query calls for. The flags are
// independent; a single query can set several.
type Requirements struct {
	Market   bool `json:"market_data"`
	Weather  bool `json:"weather_data"`
	Crop     bool `json:"crop_data"`
	News     bool `json:"news_data"`
	Regional bool `json:"regional_data"`
}

// Analysis is the result of analyzing a single query.
type Analysis struct {
	OriginalQuery string       `json:"original_query"`
	Intents       []string     `json:"intents"`
	Crops         []string     `json:"crops"`
	Locations     []string     `json:"locations"`
	Relevance     float64      `json:"relevance"`
	Requirements  Requirements `json:"requirements"`
	Confidence    float64      `json:"confidence"`
}

// intentPattern associates an intent category with its trigger phrases.
type intentPattern struct {
	name     string
	patterns []string
}

// keywordGroup associates a canonical entity with its surface keywords.
type keywordGroup struct {
	canonical string
	keywords  []string
}

var intentPatterns = []intentPattern{
	{"crop_recommendation", []string{
		"what crop", "which crop", "best crop", "recommend crop", "grow crop",
		"suitable crop", "profitable crop", "crop for", "farming advice",
		"cultivation", "sowing", "planting", "agriculture",
	}},
	{"market_prices", []string{
		"price", "rate", "market", "mandi", "cost", "selling price",
		"current price", "market rate", "commodity price", "trading",
	}},
	{"weather_info", []string{
		"weather", "climate", "rain", "monsoon", "temperature",
		"humidity", "forecast", "seasonal", "drought", "flood",
	}},
	{"farming_practices", []string{
		"how to grow", "cultivation method", "farming technique",
		"best practice", "fertilizer", "pesticide", "irrigation",
		"soil preparation", "harvesting", "storage",
	}},
	{"disease_pest", []string{
		"disease", "pest", "insect", "fungus", "virus", "infection",
		"treatment", "control", "management", "protection",
	}},
	{"government_schemes", []string{
		"scheme", "subsidy", "government", "policy", "support",
		"loan", "insurance", "msp", "procurement", "kisan",
	}},
}

var cropKeywords = []keywordGroup{
	{"wheat", []string{"wheat", "gehun", "गेहूं", "triticum", "rabi"}},
	{"rice", []string{"rice", "chawal", "चावल", "paddy", "basmati", "kharif"}},
	{"cotton", []string{"cotton", "kapas", "कपास", "bt cotton", "fiber"}},
	{"maize", []string{"maize", "corn", "makka", "मक्का", "bhutta"}},
	{"sugarcane", []string{"sugarcane", "ganna", "गन्ना", "sugar"}},
	{"potato", []string{"potato", "aloo", "आलू", "tuber"}},
	{"onion", []string{"onion", "pyaz", "प्याज"}},
	{"tomato", []string{"tomato", "tamatar", "टमाटर"}},
	{"pulses", []string{"dal", "दाल", "arhar", "moong", "chana", "lentil", "pulse"}},
	{"soybean", []string{"soybean", "soya", "सोयाबीन"}},
}

var locationKeywords = []keywordGroup{
	{"punjab", []string{"punjab", "पंजाब", "chandigarh", "ludhiana", "amritsar"}},
	{"haryana", []string{"haryana", "हरियाणा", "gurgaon", "faridabad", "hisar"}},
	{"uttar pradesh", []string{"uttar pradesh", "उत्तर प्रदेश", "lucknow", "kanpur"}},
	{"maharashtra", []string{"maharashtra", "महाराष्ट्र", "mumbai", "pune", "nashik"}},
	{"gujarat", []string{"gujarat", "गुजरात", "ahmedabad", "surat", "vadodara"}},
	{"rajasthan", []string{"rajasthan", "राजस्थान", "jaipur", "jodhpur", "udaipur"}},
	{"madhya pradesh", []string{"madhya pradesh", "मध्य प्रदेश", "bhopal", "indore"}},
	{"karnataka", []string{"karnataka", "कर्नाटक", "bangalore", "mysore", "hubli"}},
	{"andhra pradesh", []string{"andhra pradesh", "आंध्र प्रदेश", "vijayawada"}},
	{"telangana", []string{"telangana", "तेलंगाना", "hyderabad", "warangal"}},
	{"tamil nadu", []string{"tamil nadu", "तमिल नाडु", "chennai", "coimbatore", "madurai"}},
	{"west bengal", []string{"west bengal", "पश्चिम बंगाल", "kolkata", "howrah"}},
	{"bihar", []string{"bihar", "बिहार", "patna", "gaya", "muzaffarpur"}},
	{"odisha", []string{"odisha", "ओडिशा", "bhubaneswar", "cuttack"}},
}

var requirementKeywords = map[DataKind][]string{
	MarketData:  {"price", "rate", "market", "mandi", "cost", "sell"},
	WeatherData: {"weather", "rain", "climate", "monsoon", "temperature"},
	CropData:    {"crop", "grow", "plant", "cultivate", "farming"},
	NewsData:    {"news", "update", "scheme", "policy", "government"},
}

// Analyzer performs query analysis. It is safe for concurrent use after
// construction.
type Analyzer struct {
	vectorizer *vectorizer
	logger     *zap.Logger
}

// NewAnalyzer builds an analyzer with its relevance corpus fitted from the
// crop, location, and intent tables.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}

	var corpus []string
	for _, cg := range cropKeywords {
		corpus = append(corpus,
			"grow "+cg.canonical,
			"cultivate "+cg.canonical,
			"plant "+cg.canonical,
		)
	}
	for _, lg := range locationKeywords {
		corpus = append(corpus,
			"farming in "+lg.canonical,
			"agriculture "+lg.canonical,
		)
	}
	for _, ip := range intentPatterns {
		corpus = append(corpus, ip.patterns...)
	}

	return &Analyzer{
		vectorizer: newVectorizer(corpus),
		logger:     logger,
	}
}

// Analyze extracts intents, entities, relevance, data requirements, and an
// overall confidence for the query.
func (a *Analyzer) Analyze(query string) Analysis {
	lowered := strings.ToLower(query)

	analysis := Analysis{
		OriginalQuery: query,
		Intents:       extractIntents(lowered),
		Crops:         extractKeywordGroups(lowered, cropKeywords),
		Locations:     extractKeywordGroups(lowered, locationKeywords),
		Relevance:     a.vectorizer.maxSimilarity(lowered),
		Requirements:  determineRequirements(lowered),
	}
	analysis.Confidence = calculateConfidence(analysis)

	a.logger.Debug("query analyzed",
		zap.Strings("intents", analysis.Intents),
		zap.Strings("crops", analysis.Crops),
		zap.Strings("locations", analysis.Locations),
		zap.Float64("relevance", analysis.Relevance),
		zap.Float64("confidence", analysis.Confidence))

	return analysis
}

// ShouldFetch reports whether the given data kind should be fetched: the
// requirement flag must be set and overall confidence must clear 0.3.
func (a *Analyzer) ShouldFetch(analysis Analysis, kind DataKind) bool {
	if analysis.Confidence <= 0.3 {
		return false
	}
	switch kind {
	case MarketData:
		return analysis.Requirements.Market
	case WeatherData:
		return analysis.Requirements.Weather
	case CropData:
		return analysis.Requirements.Crop
	case NewsData:
		return analysis.Requirements.News
	case RegionalData:
		return analysis.Requirements.Regional
	default:
		return false
	}
}

// extractIntents scores each intent category against the query. An exact
// phrase occurrence scores 1; a pattern with any of its words present as a
// whole query token scores 0.5. The top three categories are returned in
// descending score order, ties broken by declaration order.
func extractIntents(query string) []string {
	queryTokens := strings.Fields(query)

	type scored struct {
		name  string
		score float64
	}
	var intents []scored

	for _, ip := range intentPatterns {
		score := 0.0
		for _, pattern := range ip.patterns {
			if strings.Contains(query, pattern) {
				score += 1
			} else if anyWordPresent(pattern, queryTokens) {
				score += 0.5
			}
		}
		if score > 0 {
			intents = append(intents, scored{ip.name, score})
		}
	}

	sort.SliceStable(intents, func(i, j int) bool {
		return intents[i].score > intents[j].score
	})

	if len(intents) > 3 {
		intents = intents[:3]
	}
	names := make([]string, 0, len(intents))
	for _, s := range intents {
		names = append(names, s.name)
	}
	return names
}

func anyWordPresent(pattern string, queryTokens []string) bool {
	for _, word := range strings.Fields(pattern) {
		for _, token := range queryTokens {
			if word == token {
				return true
			}
		}
	}
	return false
}

// extractKeywordGroups returns the canonical names whose keyword lists have
// a substring hit in the query, in table declaration order.
func extractKeywordGroups(query string, groups []keywordGroup) []string {
	var detected []string
	for _, g := range groups {
		for _, keyword := range g.keywords {
			if strings.Contains(query, keyword) {
				detected = append(detected, g.canonical)
				break
			}
		}
	}
	return detected
}

func determineRequirements(query string) Requirements {
	req := Requirements{
		Market:  anySubstring(query, requirementKeywords[MarketData]),
		Weather: anySubstring(query, requirementKeywords[WeatherData]),
		Crop:    anySubstring(query, requirementKeywords[CropData]),
		News:    anySubstring(query, requirementKeywords[NewsData]),
	}
	for _, lg := range locationKeywords {
		if strings.Contains(query, lg.canonical) {
			req.Regional = true
			break
		}
	}
	return req
}

func anySubstring(query string, words []string) bool {
	for _, w := range words {
		if strings.Contains(query, w) {
			return true
		}
	}
	return false
}

// calculateConfidence averages three signals: whether any intent was
// recognized, whether any entity was recognized, and the relevance score.
func calculateConfidence(analysis Analysis) float64 {
	intentFactor := 0.3
	if len(analysis.Intents) > 0 {
		intentFactor = 0.8
	}
	entityFactor := 0.4
	if len(analysis.Crops) > 0 || len(analysis.Locations) > 0 {
		entityFactor = 0.9
	}
	return (intentFactor + entityFactor + analysis.Relevance) / 3
}
