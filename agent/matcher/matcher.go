// Package matcher scores free-text queries against catalog entries.
//
// Two retrieval modes live here and are kept apart on purpose: Search returns
// the single best entry by keyword score, Browse lists entries that satisfy a
// boolean filter in catalog order.
package matcher

import (
	"strings"
	"unicode/utf8"
)

const (
	// Tokens shorter than this are dropped before scoring.
	minTokenRunes = 4

	primaryWeight   = 2
	secondaryWeight = 1

	DefaultBrowseLimit = 5
)

// Fields is the text of one entry as seen by the scorer.
type Fields struct {
	Primary   string
	Secondary []string
}

type Match[T any] struct {
	Item  T
	Index int
	Score int
}

// Tokens lowercases query, splits it on whitespace and keeps tokens of four or
// more characters. Duplicates are kept and scored once per occurrence.
func Tokens(query string) []string {
	raw := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < minTokenRunes {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Score adds primaryWeight for each token contained in the primary field and
// secondaryWeight for each token contained in any secondary field.
func Score(tokens []string, f Fields) int {
	if len(tokens) == 0 {
		return 0
	}
	primary := strings.ToLower(f.Primary)
	secondary := make([]string, 0, len(f.Secondary))
	for _, s := range f.Secondary {
		if s != "" {
			secondary = append(secondary, strings.ToLower(s))
		}
	}

	score := 0
	for _, tok := range tokens {
		if strings.Contains(primary, tok) {
			score += primaryWeight
		}
		for _, s := range secondary {
			if strings.Contains(s, tok) {
				score += secondaryWeight
				break
			}
		}
	}
	return score
}

// Search returns the highest scoring item. Ties keep the earlier item. It
// reports false when items is empty or nothing scores above zero.
func Search[T any](query string, items []T, fields func(T) Fields) (Match[T], bool) {
	var best Match[T]
	tokens := Tokens(query)
	if len(tokens) == 0 || len(items) == 0 {
		return best, false
	}

	best.Index = -1
	for i, item := range items {
		score := Score(tokens, fields(item))
		if score > best.Score {
			best = Match[T]{Item: item, Index: i, Score: score}
		}
	}
	if best.Index < 0 {
		return Match[T]{}, false
	}
	return best, true
}
