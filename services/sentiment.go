package services

// Lexicon maps a lowercase word to its polarity score. Scores in published
// word lists typically sit in [-5, +5].
type Lexicon map[string]float64

// SentimentClass labels for classified scores.
const (
	SentimentPositive = "pos"
	SentimentNegative = "neg"
	SentimentNeutral  = "neutral"
)

// SentimentResult holds one title's aggregate sentiment. A score of exactly
// zero is classified neutral whether no token matched the lexicon or the
// matched scores cancelled out; Matched lets callers tell the two apart,
// but the classification deliberately does not.
type SentimentResult struct {
	Score   float64
	Class   string
	Matched int
}

// ScoreSentiment sums the lexicon scores of every token in title.
// Tokenization matches the frequency counter, but stop words are kept:
// the lexicon needs to see all tokens. Tokens absent from the lexicon
// contribute zero and are not counted as matches. Zero tokens is not an
// error; the result is score 0, class neutral.
func ScoreSentiment(title string, lexicon Lexicon) SentimentResult {
	res := SentimentResult{Class: SentimentNeutral}
	for _, tok := range Tokenize(title) {
		score, ok := lexicon[tok]
		if !ok {
			continue
		}
		res.Score += score
		res.Matched++
	}
	res.Class = ClassifySentiment(res.Score)
	return res
}

// ClassifySentiment maps a score to its class: positive above zero,
// negative below, neutral at exactly zero. Total on all finite reals.
func ClassifySentiment(score float64) string {
	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
