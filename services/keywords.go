package services

import "strings"

// KeywordNone is the default label for titles matching no group, or more
// than one.
const KeywordNone = "none"

// PatternGroup is one keyword label with its literal match patterns.
// Matching is case-sensitive substring search: callers enumerate every
// case variant they want (e.g. "dog", "Dog", "DOG"). At this scale a
// linear scan beats compiling a matcher.
type PatternGroup struct {
	Label    string
	Patterns []string
}

// KeywordFlagger assigns each title to at most one keyword group.
type KeywordFlagger struct {
	groups []PatternGroup
}

// NewKeywordFlagger creates a flagger over the given groups. Group order is
// irrelevant to the outcome: labels are mutually exclusive, not prioritized.
func NewKeywordFlagger(groups []PatternGroup) *KeywordFlagger {
	return &KeywordFlagger{groups: groups}
}

// Flag returns the label of the single group with a matching pattern, or
// KeywordNone when no group matches — or when two or more do. An ambiguous
// title belongs to neither group rather than to whichever came first.
func (f *KeywordFlagger) Flag(title string) string {
	winner := KeywordNone
	matches := 0
	for _, g := range f.groups {
		if groupMatches(g, title) {
			matches++
			if matches > 1 {
				return KeywordNone
			}
			winner = g.Label
		}
	}
	return winner
}

// Labels returns every group label plus KeywordNone, in declaration order.
func (f *KeywordFlagger) Labels() []string {
	labels := make([]string, 0, len(f.groups)+1)
	for _, g := range f.groups {
		labels = append(labels, g.Label)
	}
	return append(labels, KeywordNone)
}

func groupMatches(g PatternGroup, title string) bool {
	for _, p := range g.Patterns {
		if p != "" && strings.Contains(title, p) {
			return true
		}
	}
	return false
}
