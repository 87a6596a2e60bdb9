package models

import "time"

// RawPost holds unprocessed post data as it arrives from the snapshot CSV
// or the scraper — every field still a string. This is written to CSV
// before any cleaning or transformation.
type RawPost struct {
	ID          string
	Title       string
	Score       string
	Subreddit   string
	Stickied    string
	Over18      string
	HideScore   string
	NumComments string
	Gilded      string
	CreatedUTC  string
	RetrievedOn string
	ScrapedAt   time.Time
	Source      string
}

// Post is the cleaned, typed record ready for storage and analysis.
type Post struct {
	ID          string
	Title       string
	Score       int64
	Subreddit   string
	Stickied    bool
	Over18      bool
	HideScore   bool
	NumComments int64
	Gilded      int64
	CreatedUTC  int64
	RetrievedOn int64
	CreatedAt   time.Time

	// UptimeHours = (RetrievedOn - CreatedUTC) / 3600. Valid only when
	// UptimeValid is true; a negative or unparseable timestamp pair leaves
	// it false and the record is excluded from modeling, never zeroed.
	UptimeHours float64
	UptimeValid bool
}

// TermCount is one (word, count) entry of a ranked term-frequency table.
type TermCount struct {
	Word  string
	Count int
}

// SubredditScore aggregates one subreddit's contribution to the corpus.
type SubredditScore struct {
	Subreddit  string
	Posts      int
	TotalScore int64
}

// FeatureRow is one model-ready record: raw metadata joined with the
// derived per-post attributes. Terms holds the surviving bag-of-words
// vocabulary entries present in this post's title.
type FeatureRow struct {
	ID              string
	Score           float64
	UptimeHours     float64
	TitleLength     float64
	Sentiment       float64
	SentimentClass  string
	KeywordGroup    string
	SubredditBucket string
	NumComments     float64
	Gilded          float64
	Stickied        bool
	Over18          bool
	Terms           map[string]bool
}

// FeatureTable is the output of the feature builder: surviving rows plus
// the pruned bag-of-words vocabulary and per-reason exclusion counts.
type FeatureTable struct {
	Rows       []*FeatureRow
	Vocabulary []string

	DroppedMissing int // records missing a mandatory field
	DroppedUptime  int // records with an undefined uptime derivation
}

// PermutationResult holds the outcome of one randomization test.
type PermutationResult struct {
	GroupA     string
	GroupB     string
	SizeA      int
	SizeB      int
	Observed   float64 // mean(A) - mean(B)
	PValue     float64
	Replicates int
	Null       []float64
}

// Coefficient is one fitted model term.
type Coefficient struct {
	Name     string
	Estimate float64
}

// Model is a fitted linear model: retained terms in selection order,
// coefficient estimates, fit quality, and any columns dropped for
// collinearity before fitting.
type Model struct {
	Response     string
	Terms        []string
	Coefficients []Coefficient
	RSquared     float64
	AIC          float64
	N            int
	Dropped      []string
}

// InsightReport holds the descriptive analytics over the cleaned corpus.
type InsightReport struct {
	TotalPosts    int
	StickiedPosts int
	Over18Posts   int

	MeanScore float64
	MinScore  int64
	MaxScore  int64
	TopPost   *Post

	TopSubreddits    []SubredditScore
	PostsBySubreddit map[string]int

	SentimentCounts map[string]int
	KeywordCounts   map[string]int
	TopTermsByGroup map[string][]TermCount
}
