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

package assembler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// regionalCrops lists the staple crops promoted for each major farming
// state. Keys are title-cased state names.
var regionalCrops = map[string][]string{
	"Punjab":         {"Wheat", "Rice", "Cotton", "Maize", "Sugarcane"},
	"Haryana":        {"Wheat", "Rice", "Sugarcane", "Cotton", "Oilseeds"},
	"Uttar Pradesh":  {"Wheat", "Rice", "Sugarcane", "Potato", "Pulses"},
	"Bihar":          {"Rice", "Wheat", "Maize", "Pulses", "Oilseeds"},
	"West Bengal":    {"Rice", "Jute", "Tea", "Potato", "Vegetables"},
	"Madhya Pradesh": {"Soybean", "Wheat", "Rice", "Pulses", "Cotton"},
	"Gujarat":        {"Cotton", "Groundnut", "Wheat", "Rice", "Bajra"},
	"Maharashtra":    {"Cotton", "Jowar", "Sugarcane", "Rice", "Pulses"},
	"Karnataka":      {"Rice", "Ragi", "Jowar", "Cotton", "Sugarcane"},
	"Andhra Pradesh": {"Rice", "Cotton", "Sugarcane", "Chillies", "Turmeric"},
	"Telangana":      {"Rice", "Cotton", "Maize", "Pulses", "Chillies"},
	"Tamil Nadu":     {"Rice", "Sugarcane", "Coconut", "Cotton", "Groundnut"},
	"Kerala":         {"Rice", "Coconut", "Rubber", "Spices", "Tea"},
	"Rajasthan":      {"Wheat", "Bajra", "Pulses", "Oilseeds", "Cotton"},
	"Odisha":         {"Rice", "Pulses", "Oilseeds", "Jute", "Sugarcane"},
}

const indiaFallback = "**Common crops grown in India:**\n" +
	"- Rice (Kharif season)\n" +
	"- Wheat (Rabi season)\n" +
	"- Pulses (Year-round)\n" +
	"- Oilseeds (Season varies)\n" +
	"- Cotton (Kharif season)"

// RegionalRecommendations renders the recommended-crops block for a state.
// Unrecognized locations fall back to an all-India list so the block is
// never empty.
func RegionalRecommendations(location string) string {
	crops, ok := regionalCrops[titleWords(location)]
	if !ok {
		return indiaFallback
	}

	var b strings.Builder
	b.WriteString("**Recommended crops for this region:**")
	for _, crop := range crops {
		b.WriteString("\n- ")
		b.WriteString(crop)
	}
	return b.String()
}

// CropGuide bundles the static agronomy reference data for one crop.
type CropGuide struct {
	Crop         string `json:"crop"`
	SowingSeason string `json:"sowing_season"`
	Soil         string `json:"soil_requirements"`
	Water        string `json:"water_needs"`
	Diseases     string `json:"common_diseases"`
}

var sowingSeasons = map[string]string{
	"rice":       "June-July (Kharif season)",
	"wheat":      "October-November (Rabi season)",
	"cotton":     "April-May (Summer season)",
	"sugarcane":  "February-March",
	"maize":      "June-July (Kharif) or October-November (Rabi)",
	"pulses":     "June-July (Kharif) or October-November (Rabi)",
	"oilseeds":   "June-July (Kharif) or October-November (Rabi)",
	"vegetables": "Year-round depending on variety",
	"fruits":     "Varies by fruit type and region",
}

var soilRequirements = map[string]string{
	"rice":       "Clay or clay loam soil with good water retention",
	"wheat":      "Well-drained loamy soil",
	"cotton":     "Deep, well-drained black cotton soil or alluvial soil",
	"sugarcane":  "Deep, well-drained loam or clay loam soil",
	"maize":      "Well-drained loamy soil rich in organic matter",
	"pulses":     "Well-drained loamy soil",
	"oilseeds":   "Well-drained sandy loam to clay loam soil",
	"vegetables": "Rich, well-drained loamy soil",
	"fruits":     "Well-drained soil with good organic matter",
}

var waterNeeds = map[string]string{
	"rice":       "Continuous flooding or regular irrigation",
	"wheat":      "5-6 irrigations during the growing season",
	"cotton":     "Regular irrigation every 15-20 days",
	"sugarcane":  "Regular irrigation with proper drainage",
	"maize":      "Regular irrigation, especially during tasseling",
	"pulses":     "Moderate irrigation, drought-tolerant varieties available",
	"oilseeds":   "Moderate irrigation, avoid waterlogging",
	"vegetables": "Regular irrigation, varies by vegetable type",
	"fruits":     "Regular irrigation, avoid waterlogging",
}

var commonDiseases = map[string]string{
	"rice":       "Blast, Bacterial leaf blight, Sheath blight",
	"wheat":      "Rust, Loose smut, Powdery mildew",
	"cotton":     "Wilt, Root rot, Leaf curl virus",
	"sugarcane":  "Red rot, Smut, Wilt",
	"maize":      "Leaf blight, Stalk rot, Rust",
	"pulses":     "Wilt, Root rot, Powdery mildew",
	"oilseeds":   "Alternaria blight, Sclerotinia rot",
	"vegetables": "Varies by vegetable, common: blight, wilt, rot",
	"fruits":     "Varies by fruit, common: scab, rot, powdery mildew",
}

// GuideFor looks up the reference tables for a crop. Unknown crops get
// advisory fallback text per field rather than an error.
func GuideFor(crop string) CropGuide {
	key := strings.ToLower(strings.TrimSpace(crop))
	return CropGuide{
		Crop:         key,
		SowingSeason: orFallback(sowingSeasons[key], "Please consult local agricultural office for specific sowing times"),
		Soil:         orFallback(soilRequirements[key], "Consult local agricultural experts for soil recommendations"),
		Water:        orFallback(waterNeeds[key], "Water needs vary by season and local conditions"),
		Diseases:     orFallback(commonDiseases[key], "Monitor crop regularly and consult experts if you notice any issues"),
	}
}

func orFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
