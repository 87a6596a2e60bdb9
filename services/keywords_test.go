package services

import "testing"

func testFlagger() *KeywordFlagger {
	return NewKeywordFlagger([]PatternGroup{
		{Label: "dog", Patterns: []string{"dog", "Dog", "DOG"}},
		{Label: "cat", Patterns: []string{"cat", "Cat", "CAT"}},
	})
}

func TestFlagSingleGroupWins(t *testing.T) {
	f := testFlagger()

	tests := []struct {
		title string
		want  string
	}{
		{"my dog is great", "dog"},
		{"Dog tax!", "dog"},
		{"BIG DOG ENERGY", "dog"},
		{"cat on a keyboard", "cat"},
		{"stock market news", KeywordNone},
		{"", KeywordNone},
	}

	for _, tt := range tests {
		if got := f.Flag(tt.title); got != tt.want {
			t.Errorf("Flag(%q) = %q; want %q", tt.title, got, tt.want)
		}
	}
}

func TestFlagAmbiguousTitleCollapsesToNone(t *testing.T) {
	f := testFlagger()
	if got := f.Flag("my dog chased a cat"); got != KeywordNone {
		t.Errorf("title matching both groups: got %q, want %q", got, KeywordNone)
	}
}

func TestFlagIsCaseSensitivePerPattern(t *testing.T) {
	f := NewKeywordFlagger([]PatternGroup{
		{Label: "dog", Patterns: []string{"dog"}},
	})
	// Only the enumerated variant matches; case folding is never implied.
	if got := f.Flag("DOG DAY"); got != KeywordNone {
		t.Errorf("unenumerated case variant matched: got %q, want %q", got, KeywordNone)
	}
}

func TestFlagGroupOrderIrrelevant(t *testing.T) {
	forward := testFlagger()
	reversed := NewKeywordFlagger([]PatternGroup{
		{Label: "cat", Patterns: []string{"cat", "Cat", "CAT"}},
		{Label: "dog", Patterns: []string{"dog", "Dog", "DOG"}},
	})

	for _, title := range []string{"dog walk", "a cat and a dog", "cat nap", "nothing"} {
		if forward.Flag(title) != reversed.Flag(title) {
			t.Errorf("Flag(%q) depends on group declaration order", title)
		}
	}
}

func TestFlaggerLabels(t *testing.T) {
	labels := testFlagger().Labels()
	want := []string{"dog", "cat", KeywordNone}
	if len(labels) != len(want) {
		t.Fatalf("Labels: got %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("Labels[%d]: got %q, want %q", i, labels[i], want[i])
		}
	}
}
