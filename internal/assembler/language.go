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

// scriptRanges maps Unicode blocks of major Indian scripts to the language
// name used in the prompt's target-language rule. Checked in order.
var scriptRanges = []struct {
	lo, hi   rune
	language string
}{
	{0x0900, 0x097F, "Hindi"}, // Devanagari
	{0x0A80, 0x0AFF, "Gujarati"},
	{0x0A00, 0x0A7F, "Punjabi"}, // Gurmukhi
	{0x0980, 0x09FF, "Bengali"},
	{0x0C80, 0x0CFF, "Kannada"},
	{0x0C00, 0x0C7F, "Telugu"},
	{0x0B80, 0x0BFF, "Tamil"},
}

// TargetLanguage gives a lightweight language hint from the scripts present
// in the farmer's message. ASCII and mixed text default to English.
func TargetLanguage(text string) string {
	for _, sr := range scriptRanges {
		for _, r := range text {
			if r >= sr.lo && r <= sr.hi {
				return sr.language
			}
		}
	}
	return "English"
}
