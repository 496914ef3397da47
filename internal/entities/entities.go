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

// Package entities extracts agricultural entities (location, crop) from
// free-form farmer queries in Hindi and English.
package entities

import (
	"regexp"
	"strings"
)

// stateAlias maps a canonical Indian state name to the alias patterns that
// resolve to it. Declaration order matters: the first matching entry wins.
type stateAlias struct {
	canonical string
	patterns  []*regexp.Regexp
}

// stateAliases covers the states with active mandi reporting plus their
// major cities and Devanagari spellings.
var stateAliases = []stateAlias{
	{"maharashtra", compileAliases("maharashtra", "महाराष्ट्र", "mumbai", "pune", "nagpur")},
	{"punjab", compileAliases("punjab", "पंजाब", "ludhiana", "amritsar", "jalandhar", "patiala")},
	{"haryana", compileAliases("haryana", "हरियाणा", "gurgaon", "gurugram", "faridabad", "hisar", "karnal", "panipat", "rohtak", "ambala")},
	// The short "up" alias is deliberately absent: it collides with the
	// English preposition.
	{"uttar pradesh", compileAliases(`uttar\s+pradesh`, `उत्तर\s+प्रदेश`, "lucknow")},
	{"gujarat", compileAliases("gujarat", "गुजरात", "ahmedabad", "surat")},
	{"rajasthan", compileAliases("rajasthan", "राजस्थान", "jaipur", "jodhpur")},
	{"karnataka", compileAliases("karnataka", "कर्नाटक", "bangalore", "mysore")},
	{"telangana", compileAliases("telangana", "तेलंगाना", "hyderabad", "warangal")},
	{"tamil nadu", compileAliases(`tamil\s+nadu`, `तमिल\s+नाडु`, "chennai", "coimbatore")},
}

// cropAlias maps a query token to a canonical English crop name.
type cropAlias struct {
	token     string
	canonical string
}

// cropAliases lists the crops the market gateway can filter on, with their
// Devanagari spellings. First matching token in the query wins.
var cropAliases = []cropAlias{
	{"गेहूं", "wheat"}, {"wheat", "wheat"},
	{"चावल", "rice"}, {"rice", "rice"},
	{"मक्का", "maize"}, {"maize", "maize"},
	{"बाजरा", "bajra"}, {"bajra", "bajra"},
	{"ज्वार", "jowar"}, {"jowar", "jowar"},
	{"तिल", "sesame"}, {"sesame", "sesame"},
	{"सरसों", "mustard"}, {"mustard", "mustard"},
	{"मूंगफली", "groundnut"}, {"groundnut", "groundnut"},
	{"कपास", "cotton"}, {"cotton", "cotton"},
	{"गन्ना", "sugarcane"}, {"sugarcane", "sugarcane"},
	{"टमाटर", "tomato"}, {"tomato", "tomato"},
	{"आलू", "potato"}, {"potato", "potato"},
	{"प्याज", "onion"}, {"onion", "onion"},
}

// locationKeywords are tokens that introduce a location phrase when no
// state alias matched directly ("में" and "से" are the Hindi postpositions
// for "in" and "from").
var locationKeywords = map[string]bool{
	"में": true, "in": true, "at": true, "near": true, "around": true, "से": true,
}

// stopTokens terminate a location phrase in the fallback parse.
var stopTokens = map[string]bool{
	"and": true, "but": true, "or": true, "what": true, "are": true,
	"their": true, "prices": true, "price": true, "?": true, ",": true, ".": true,
}

// punctPattern strips everything except letters, digits, underscores,
// hyphens, and whitespace from a fallback token.
var punctPattern = regexp.MustCompile(`[^\p{L}\p{N}_\-\s]`)

// compileAliases compiles alias fragments into matchers. ASCII aliases get
// word boundaries; Go's \b is ASCII-only, so Devanagari aliases match as
// plain substrings, which is safe because Devanagari queries do not embed
// state names inside longer words the way Latin text can.
func compileAliases(fragments ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(fragments))
	for _, frag := range fragments {
		if isASCII(frag) {
			frag = `\b` + frag + `\b`
		}
		patterns = append(patterns, regexp.MustCompile(frag))
	}
	return patterns
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// matchState resolves lowercased text against the state alias table,
// returning the canonical state name or "".
func matchState(lowered string) string {
	for _, sa := range stateAliases {
		for _, pat := range sa.patterns {
			if pat.MatchString(lowered) {
				return sa.canonical
			}
		}
	}
	return ""
}

// ExtractLocation extracts a location from the query. It prefers precise
// state alias detection; failing that it parses the tokens following a
// location keyword, stopping at conjunctions and price-talk. The returned
// string is a canonical state name or the raw trimmed phrase; "" means no
// location was found.
func ExtractLocation(text string) string {
	lowered := strings.ToLower(text)
	if state := matchState(lowered); state != "" {
		return state
	}

	words := strings.Fields(text)
	for i, word := range words {
		if !locationKeywords[strings.ToLower(word)] || i+1 >= len(words) {
			continue
		}

		end := i + 6
		if end > len(words) {
			end = len(words)
		}
		var cleaned []string
		for _, w := range words[i+1 : end] {
			pure := punctPattern.ReplaceAllString(w, "")
			if stopTokens[strings.ToLower(pure)] {
				break
			}
			cleaned = append(cleaned, pure)
		}

		loc := strings.TrimSpace(strings.Join(cleaned, " "))
		if state := matchState(strings.ToLower(loc)); state != "" {
			return state
		}
		return loc
	}

	return ""
}

// ExtractCrop extracts a canonical crop name from the query by exact token
// lookup, or "" when no known crop is mentioned.
func ExtractCrop(text string) string {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		for _, ca := range cropAliases {
			if word == ca.token {
				return ca.canonical
			}
		}
	}
	return ""
}

// Extract extracts both location and crop from the query.
func Extract(text string) (location, crop string) {
	return ExtractLocation(text), ExtractCrop(text)
}
