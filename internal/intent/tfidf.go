package intent

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches word tokens of two or more letters, digits, or
// underscores, mirroring the usual text-vectorizer default.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_]+`)

// englishStopWords is the stop list applied before n-gram construction.
var englishStopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"against": true, "all": true, "am": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true,
	"because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true,
	"doing": true, "down": true, "during": true, "each": true, "few": true,
	"for": true, "from": true, "further": true, "had": true, "has": true,
	"have": true, "having": true, "he": true, "her": true, "here": true,
	"hers": true, "him": true, "his": true, "how": true, "i": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "itself": true, "just": true, "me": true, "more": true,
	"most": true, "my": true, "no": true, "nor": true, "not": true,
	"now": true, "of": true, "off": true, "on": true, "once": true,
	"only": true, "or": true, "other": true, "our": true, "ours": true,
	"out": true, "over": true, "own": true, "same": true, "she": true,
	"should": true, "so": true, "some": true, "such": true, "than": true,
	"that": true, "the": true, "their": true, "theirs": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "to": true, "too": true, "under": true,
	"until": true, "up": true, "very": true, "was": true, "we": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "who": true, "whom": true, "why": true, "will": true,
	"with": true, "would": true, "you": true, "your": true, "yours": true,
}

const maxVocabulary = 1000

// vectorizer is a TF-IDF vectorizer over unigrams and bigrams with a fixed
// vocabulary, fitted once over the agricultural corpus. It exists because
// the relevance scorer must work without any external embedding service.
type vectorizer struct {
	vocabulary map[string]int
	idf        []float64
	corpus     [][]float64
}

// newVectorizer fits the vocabulary and IDF weights over the corpus and
// pre-computes the normalized corpus vectors.
func newVectorizer(docs []string) *vectorizer {
	tokenized := make([][]string, len(docs))
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		grams := ngrams(doc)
		tokenized[i] = grams

		seen := make(map[string]bool)
		for _, g := range grams {
			termFreq[g]++
			if !seen[g] {
				docFreq[g]++
				seen[g] = true
			}
		}
	}

	// Cap the vocabulary at the most frequent terms, alphabetical within
	// equal frequency so the selection is deterministic.
	terms := make([]string, 0, len(termFreq))
	for t := range termFreq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxVocabulary {
		terms = terms[:maxVocabulary]
	}
	sort.Strings(terms)

	v := &vectorizer{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, t := range terms {
		v.vocabulary[t] = i
		// Smoothed IDF so no term divides by zero.
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}

	v.corpus = make([][]float64, len(docs))
	for i, grams := range tokenized {
		v.corpus[i] = v.vectorize(grams)
	}

	return v
}

// maxSimilarity returns the highest cosine similarity between the query and
// any corpus document. A query with no in-vocabulary terms scores the
// moderate default of 0.5 rather than zero, so unusual phrasing does not
// suppress data fetching outright.
func (v *vectorizer) maxSimilarity(query string) float64 {
	qv := v.vectorize(ngrams(query))
	if qv == nil {
		return 0.5
	}

	best := 0.0
	for _, dv := range v.corpus {
		if dv == nil {
			continue
		}
		if sim := dot(qv, dv); sim > best {
			best = sim
		}
	}
	return best
}

// vectorize builds an L2-normalized TF-IDF vector, or nil when no gram is
// in the vocabulary.
func (v *vectorizer) vectorize(grams []string) []float64 {
	vec := make([]float64, len(v.idf))
	hit := false
	for _, g := range grams {
		if idx, ok := v.vocabulary[g]; ok {
			vec[idx]++
			hit = true
		}
	}
	if !hit {
		return nil
	}

	norm := 0.0
	for i := range vec {
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// ngrams tokenizes a lowercased document, drops English stop words, and
// emits unigrams plus adjacent bigrams.
func ngrams(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if !englishStopWords[t] {
			tokens = append(tokens, t)
		}
	}

	grams := make([]string, 0, 2*len(tokens))
	grams = append(grams, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		grams = append(grams, tokens[i]+" "+tokens[i+1])
	}
	return grams
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
