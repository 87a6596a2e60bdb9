package services

import (
	"sort"
	"strings"
	"unicode"

	"reddit-insights/models"
)

// Tokenize splits text into lowercase word tokens. A token is a maximal run
// of letters and digits; everything else is a delimiter and is not retained.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	tokens := make([]string, 0, len(lower)/5+1)

	start := -1
	for i, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, lower[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, lower[start:])
	}
	return tokens
}

// Stopwords is a case-insensitive word set used to filter uninformative
// tokens out of frequency tables.
type Stopwords map[string]struct{}

// NewStopwords builds a Stopwords set from a word list, lowercasing each entry.
func NewStopwords(words []string) Stopwords {
	set := make(Stopwords, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the lowercase form of w is a stop word.
func (s Stopwords) Contains(w string) bool {
	_, ok := s[strings.ToLower(w)]
	return ok
}

// TermCounter accumulates per-group word frequencies over post titles.
type TermCounter struct {
	stopwords Stopwords
	counts    map[string]map[string]int
	order     map[string]map[string]int
	next      int
}

// NewTermCounter creates a TermCounter that skips words in the given set.
func NewTermCounter(stopwords Stopwords) *TermCounter {
	return &TermCounter{
		stopwords: stopwords,
		counts:    make(map[string]map[string]int),
		order:     make(map[string]map[string]int),
	}
}

// Add tokenizes text and counts its non-stopword tokens under group.
// Empty text contributes nothing; that is not an error.
func (tc *TermCounter) Add(group, text string) {
	for _, tok := range Tokenize(text) {
		if tc.stopwords.Contains(tok) {
			continue
		}
		byWord := tc.counts[group]
		if byWord == nil {
			byWord = make(map[string]int)
			tc.counts[group] = byWord
			tc.order[group] = make(map[string]int)
		}
		if _, seen := tc.order[group][tok]; !seen {
			tc.order[group][tok] = tc.next
			tc.next++
		}
		byWord[tok]++
	}
}

// Top returns the topN highest-count words for group, descending by count.
// Ties are broken by first appearance in the input, so repeated runs over
// the same data produce identical tables.
func (tc *TermCounter) Top(group string, topN int) []models.TermCount {
	byWord := tc.counts[group]
	if len(byWord) == 0 || topN <= 0 {
		return nil
	}

	terms := make([]models.TermCount, 0, len(byWord))
	for w, n := range byWord {
		terms = append(terms, models.TermCount{Word: w, Count: n})
	}
	firstSeen := tc.order[group]
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return firstSeen[terms[i].Word] < firstSeen[terms[j].Word]
	})

	if topN > len(terms) {
		topN = len(terms)
	}
	return terms[:topN]
}

// Groups returns the group labels present in the counter, sorted.
func (tc *TermCounter) Groups() []string {
	groups := make([]string, 0, len(tc.counts))
	for g := range tc.counts {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// CountTermsByGroup is the one-shot form: it groups posts by groupFn,
// restricted to the labels in groups (posts mapping elsewhere are skipped),
// and returns the topN terms per group.
func CountTermsByGroup(posts []*models.Post, groupFn func(*models.Post) string,
	groups []string, stopwords Stopwords, topN int) map[string][]models.TermCount {

	allowed := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		allowed[g] = struct{}{}
	}

	tc := NewTermCounter(stopwords)
	for _, p := range posts {
		g := groupFn(p)
		if _, ok := allowed[g]; !ok {
			continue
		}
		tc.Add(g, p.Title)
	}

	out := make(map[string][]models.TermCount, len(groups))
	for _, g := range groups {
		if top := tc.Top(g, topN); top != nil {
			out[g] = top
		}
	}
	return out
}
