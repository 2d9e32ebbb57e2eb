package aggregate

import (
	"sort"
	"strings"
	"unicode"
)

// stopwords are skipped when counting commit message vocabulary. The
// list covers filler words common in commit subjects.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "into": {},
	"this": {}, "that": {}, "are": {}, "was": {}, "not": {}, "when": {},
	"all": {}, "now": {}, "use": {}, "more": {}, "some": {}, "also": {},
}

func countWords(counts map[string]int, message string) {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range fields {
		if len(word) < 3 {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		counts[word]++
	}
}

func topWordCounts(counts map[string]int, limit int) []WordCount {
	out := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		out = append(out, WordCount{Word: word, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
