package chunker

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "that": true,
	"this": true, "with": true, "from": true, "shall": true, "will": true,
	"have": true, "has": true, "not": true, "any": true, "all": true,
	"may": true, "such": true, "which": true, "been": true, "their": true,
	"its": true, "was": true, "were": true, "being": true, "other": true,
	"than": true, "into": true, "upon": true, "under": true, "per": true,
}

// ExtractKeywords returns the most frequent non-stopword tokens of the text,
// ties broken alphabetically so output is deterministic.
func ExtractKeywords(text string, limit int) []string {
	counts := make(map[string]int)
	for _, token := range Tokenize(text) {
		if len(token) < 3 || stopwords[token] {
			continue
		}
		counts[token]++
	}

	if len(counts) == 0 {
		return nil
	}

	keywords := make([]string, 0, len(counts))
	for token := range counts {
		keywords = append(keywords, token)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}

// Tokenize lowercases and splits on non-alphanumeric boundaries
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
