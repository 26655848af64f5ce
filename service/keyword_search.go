package service

import (
	"sort"
	"strings"
	"unicode"

	"github.com/chali-ug/chali-be/types"
)

const (
	keywordMaxResults = 5

	scoreNameMatch     = 100
	scoreOverviewMatch = 50
	scoreFeatureMatch  = 30
	scoreKeywordMatch  = 10
	scoreSubstantial   = 5

	// Entries with this much searchable text count as substantial even
	// without an overview.
	substantialTextLength = 100
)

// KeywordSearcher is the in-process fallback search strategy: weighted
// literal matching over a company's knowledge entries. It never fails;
// the worst case is an empty result.
type KeywordSearcher struct{}

func NewKeywordSearcher() *KeywordSearcher {
	return &KeywordSearcher{}
}

type scoredEntry struct {
	entry types.Entry
	score int
}

// Search ranks entries against the query and returns at most five, best
// first. Entries scoring zero are excluded. Scoring is deterministic: ties
// keep document order (stable sort).
func (s *KeywordSearcher) Search(doc *types.KnowledgeDocument, query string) []types.Entry {
	if doc == nil || len(doc.Entries) == 0 {
		return nil
	}

	fullQuery := strings.ToLower(strings.TrimSpace(query))
	if fullQuery == "" {
		return nil
	}
	keywords := extractKeywords(fullQuery)

	scored := make([]scoredEntry, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		if score := scoreEntry(&entry, fullQuery, keywords); score > 0 {
			scored = append(scored, scoredEntry{entry: entry, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > keywordMaxResults {
		scored = scored[:keywordMaxResults]
	}
	results := make([]types.Entry, len(scored))
	for i, se := range scored {
		results[i] = se.entry
	}
	return results
}

func scoreEntry(entry *types.Entry, fullQuery string, keywords []string) int {
	score := 0
	searchable := entry.SearchableText()

	if strings.Contains(strings.ToLower(entry.Name), fullQuery) {
		score += scoreNameMatch
	}
	if entry.Overview != "" && strings.Contains(strings.ToLower(entry.Overview), fullQuery) {
		score += scoreOverviewMatch
	}
	for _, feature := range entry.Features {
		if strings.Contains(strings.ToLower(feature), fullQuery) {
			score += scoreFeatureMatch
		}
	}

	// Each keyword contributes at most once per entry, regardless of how
	// often it repeats in the text.
	for _, kw := range keywords {
		if strings.Contains(searchable, kw) {
			score += scoreKeywordMatch
		}
	}

	if score > 0 {
		if entry.Overview != "" || len(searchable) > substantialTextLength {
			score += scoreSubstantial
		}
	}
	return score
}

// extractKeywords lowercases the query and keeps distinct words longer
// than two characters.
func extractKeywords(query string) []string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 2 || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
	}
	return keywords
}
