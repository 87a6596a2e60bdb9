package services

import (
	"sort"
	"unicode/utf8"

	"reddit-insights/models"
	"reddit-insights/utils"
)

// OtherBucket is the catch-all subreddit bucket and the baseline level for
// modeling.
const OtherBucket = "other"

// BagOfWordsConfig controls the optional binary term-document augmentation.
type BagOfWordsConfig struct {
	Enabled bool
	// SparsityThreshold is the maximum allowed column sparsity: a term
	// survives pruning when it appears in at least a (1 − threshold)
	// fraction of documents. Terms meeting the cutoff exactly are kept.
	SparsityThreshold float64
}

// FeatureBuilder derives the model-ready feature table from cleaned posts.
// Build is a pure function of its input and configuration: identical input
// yields an identical table, row for row.
type FeatureBuilder struct {
	logger    *utils.Logger
	lexicon   Lexicon
	stopwords Stopwords
	flagger   *KeywordFlagger

	TopKSubreddits int
	BagOfWords     BagOfWordsConfig
}

// NewFeatureBuilder wires the text derivations into a builder.
func NewFeatureBuilder(logger *utils.Logger, lexicon Lexicon, stopwords Stopwords,
	flagger *KeywordFlagger, topK int, bow BagOfWordsConfig) *FeatureBuilder {
	return &FeatureBuilder{
		logger:         logger,
		lexicon:        lexicon,
		stopwords:      stopwords,
		flagger:        flagger,
		TopKSubreddits: topK,
		BagOfWords:     bow,
	}
}

// Build joins metadata with derived attributes into feature rows, dropping
// (and counting) records with a missing mandatory field or an undefined
// uptime. Input order is preserved.
func (b *FeatureBuilder) Build(posts []*models.Post) *models.FeatureTable {
	table := &models.FeatureTable{}
	topSet := SubredditBucketSet(posts, b.TopKSubreddits)

	var titles []string
	for _, p := range posts {
		if p.ID == "" || p.Subreddit == "" {
			table.DroppedMissing++
			continue
		}
		if !p.UptimeValid {
			table.DroppedUptime++
			continue
		}

		sent := ScoreSentiment(p.Title, b.lexicon)
		bucket := p.Subreddit
		if _, ok := topSet[bucket]; !ok {
			bucket = OtherBucket
		}

		table.Rows = append(table.Rows, &models.FeatureRow{
			ID:              p.ID,
			Score:           float64(p.Score),
			UptimeHours:     p.UptimeHours,
			TitleLength:     float64(utf8.RuneCountInString(p.Title)),
			Sentiment:       sent.Score,
			SentimentClass:  sent.Class,
			KeywordGroup:    b.flagger.Flag(p.Title),
			SubredditBucket: bucket,
			NumComments:     float64(p.NumComments),
			Gilded:          float64(p.Gilded),
			Stickied:        p.Stickied,
			Over18:          p.Over18,
		})
		titles = append(titles, p.Title)
	}

	if b.BagOfWords.Enabled {
		b.augmentBagOfWords(table, titles)
	}

	if b.logger != nil {
		b.logger.Info("[features] Built %d rows (dropped %d missing, %d undefined uptime), vocabulary %d terms",
			len(table.Rows), table.DroppedMissing, table.DroppedUptime, len(table.Vocabulary))
	}
	return table
}

// augmentBagOfWords attaches a binary term set to every row, over the
// vocabulary of non-stopword title tokens that survive document-frequency
// pruning. Presence is binary: repeated tokens in one title count once.
func (b *FeatureBuilder) augmentBagOfWords(table *models.FeatureTable, titles []string) {
	n := len(table.Rows)
	if n == 0 {
		return
	}

	tokenSets := make([]map[string]bool, n)
	docFreq := make(map[string]int)
	for i := range table.Rows {
		set := make(map[string]bool)
		for _, tok := range Tokenize(titles[i]) {
			if b.stopwords.Contains(tok) {
				continue
			}
			if !set[tok] {
				set[tok] = true
				docFreq[tok]++
			}
		}
		tokenSets[i] = set
	}

	minFrac := 1 - b.BagOfWords.SparsityThreshold
	cutoff := minFrac * float64(n)

	var vocab []string
	for term, df := range docFreq {
		if float64(df) >= cutoff {
			vocab = append(vocab, term)
		}
	}
	sort.Strings(vocab)
	table.Vocabulary = vocab

	keep := make(map[string]struct{}, len(vocab))
	for _, term := range vocab {
		keep[term] = struct{}{}
	}
	for i, row := range table.Rows {
		terms := make(map[string]bool)
		for tok := range tokenSets[i] {
			if _, ok := keep[tok]; ok {
				terms[tok] = true
			}
		}
		row.Terms = terms
	}
}

// SubredditBucketSet returns the top-K subreddits by cumulative score.
// Ties are broken lexicographically so the set is stable across runs.
func SubredditBucketSet(posts []*models.Post, k int) map[string]struct{} {
	top := TopSubreddits(posts, k)
	set := make(map[string]struct{}, len(top))
	for _, s := range top {
		set[s.Subreddit] = struct{}{}
	}
	return set
}

// TopSubreddits ranks subreddits by cumulative score, descending, and
// returns the first k.
func TopSubreddits(posts []*models.Post, k int) []models.SubredditScore {
	if k <= 0 {
		return nil
	}

	byName := make(map[string]*models.SubredditScore)
	for _, p := range posts {
		if p.Subreddit == "" {
			continue
		}
		agg := byName[p.Subreddit]
		if agg == nil {
			agg = &models.SubredditScore{Subreddit: p.Subreddit}
			byName[p.Subreddit] = agg
		}
		agg.Posts++
		agg.TotalScore += p.Score
	}

	ranked := make([]models.SubredditScore, 0, len(byName))
	for _, agg := range byName {
		ranked = append(ranked, *agg)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		return ranked[i].Subreddit < ranked[j].Subreddit
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
