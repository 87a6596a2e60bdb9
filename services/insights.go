package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"reddit-insights/models"
	"reddit-insights/utils"
)

// topTermsPerGroup is how many words each keyword group's frequency table keeps.
const topTermsPerGroup = 10

// InsightService computes the descriptive aggregates over the cleaned corpus.
type InsightService struct {
	logger    *utils.Logger
	lexicon   Lexicon
	stopwords Stopwords
	flagger   *KeywordFlagger
	topK      int
}

// NewInsightService wires the text derivations into the aggregate pass.
func NewInsightService(logger *utils.Logger, lexicon Lexicon, stopwords Stopwords,
	flagger *KeywordFlagger, topK int) *InsightService {
	return &InsightService{
		logger:    logger,
		lexicon:   lexicon,
		stopwords: stopwords,
		flagger:   flagger,
		topK:      topK,
	}
}

// Generate computes the report over posts. An empty corpus yields an empty
// report, not an error.
func (s *InsightService) Generate(posts []*models.Post) *models.InsightReport {
	report := &models.InsightReport{
		PostsBySubreddit: make(map[string]int),
		SentimentCounts:  make(map[string]int),
		KeywordCounts:    make(map[string]int),
	}

	if len(posts) == 0 {
		return report
	}

	report.TotalPosts = len(posts)
	report.MinScore = posts[0].Score
	report.MaxScore = posts[0].Score
	report.TopPost = posts[0]

	var total int64
	for _, p := range posts {
		if p.Stickied {
			report.StickiedPosts++
		}
		if p.Over18 {
			report.Over18Posts++
		}
		if p.Subreddit != "" {
			report.PostsBySubreddit[p.Subreddit]++
		}

		total += p.Score
		if p.Score < report.MinScore {
			report.MinScore = p.Score
		}
		if p.Score > report.MaxScore {
			report.MaxScore = p.Score
			report.TopPost = p
		}

		report.SentimentCounts[ScoreSentiment(p.Title, s.lexicon).Class]++
		report.KeywordCounts[s.flagger.Flag(p.Title)]++
	}
	report.MeanScore = float64(total) / float64(len(posts))

	report.TopSubreddits = TopSubreddits(posts, s.topK)

	groups := s.flagger.Labels()
	report.TopTermsByGroup = CountTermsByGroup(posts, func(p *models.Post) string {
		return s.flagger.Flag(p.Title)
	}, groups[:len(groups)-1], s.stopwords, topTermsPerGroup)

	return report
}

// Print renders the report to stdout for a human reader.
func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 REDDIT POST INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total posts    : \033[1m%d\033[0m\n", r.TotalPosts)
	fmt.Printf("  Stickied posts : \033[1m%d\033[0m (%.1f%%)\n", r.StickiedPosts, percent(r.StickiedPosts, r.TotalPosts))
	fmt.Printf("  Over-18 posts  : \033[1m%d\033[0m (%.1f%%)\n", r.Over18Posts, percent(r.Over18Posts, r.TotalPosts))
	fmt.Println()

	// Score stats
	fmt.Printf("\033[1;33m  Score Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.TotalPosts > 0 {
		fmt.Printf("  Mean score : \033[1;32m%.2f\033[0m\n", r.MeanScore)
		fmt.Printf("  Min score  : \033[1;32m%d\033[0m\n", r.MinScore)
		fmt.Printf("  Max score  : \033[1;32m%d\033[0m\n", r.MaxScore)
	} else {
		fmt.Printf("  No score data available\n")
	}
	fmt.Println()

	// Top post
	if r.TopPost != nil {
		fmt.Printf("\033[1;33m  Highest Scoring Post\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.TopPost.Title, 50))
		fmt.Printf("  Subreddit : r/%s\n", r.TopPost.Subreddit)
		fmt.Printf("  Score     : \033[1;31m%d\033[0m\n", r.TopPost.Score)
		fmt.Println()
	}

	// Top subreddits by cumulative score
	fmt.Printf("\033[1;33m  Top Subreddits by Cumulative Score\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopSubreddits) == 0 {
		fmt.Printf("  No subreddit data\n")
	} else {
		for i, sub := range r.TopSubreddits {
			fmt.Printf("  \033[1m%d.\033[0m r/%-24s \033[1;32m%8d\033[0m (%d posts)\n",
				i+1, truncate(sub.Subreddit, 24), sub.TotalScore, sub.Posts)
		}
	}
	fmt.Println()

	// Sentiment distribution
	fmt.Printf("\033[1;33m  Title Sentiment\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, class := range []string{SentimentPositive, SentimentNeutral, SentimentNegative} {
		n := r.SentimentCounts[class]
		fmt.Printf("  %-8s %s (%d, %.1f%%)\n", class, strings.Repeat("█", scaleBar(n, r.TotalPosts)), n, percent(n, r.TotalPosts))
	}
	fmt.Println()

	// Keyword groups and their vocabulary
	fmt.Printf("\033[1;33m  Keyword Groups\033[0m\n")
	fmt.Printf("  %s\n", thin)
	labels := make([]string, 0, len(r.KeywordCounts))
	for label := range r.KeywordCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Printf("  %-8s : %d posts\n", label, r.KeywordCounts[label])
		for _, tc := range r.TopTermsByGroup[label] {
			fmt.Printf("      %-16s %d\n", tc.Word, tc.Count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// PrintTest renders a permutation test result next to the significance level.
func (s *InsightService) PrintTest(r *models.PermutationResult, alpha float64) {
	verdict := "not significant"
	if r.PValue < alpha {
		verdict = "significant"
	}
	fmt.Printf("  %s vs %s (n=%d/%d): diff %.3f, p=%.4f → %s at α=%.2f\n",
		r.GroupA, r.GroupB, r.SizeA, r.SizeB, r.Observed, r.PValue, verdict, alpha)
}

// PrintModel renders a fitted model's coefficients and fit quality.
func (s *InsightService) PrintModel(m *models.Model) {
	fmt.Printf("\n\033[1;33m  Model: %s ~ %d terms\033[0m (n=%d, R²=%.4f, AIC=%.1f)\n",
		m.Response, len(m.Terms), m.N, m.RSquared, m.AIC)
	for _, c := range m.Coefficients {
		fmt.Printf("      %-28s %12.4f\n", c.Name, c.Estimate)
	}
	for _, d := range m.Dropped {
		fmt.Printf("      dropped (collinear): %s\n", d)
	}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// scaleBar maps a count to a bar width capped at 40 characters.
func scaleBar(n, total int) int {
	if total == 0 || n == 0 {
		return 0
	}
	w := 40 * n / total
	if w == 0 {
		w = 1
	}
	return w
}

// truncate shortens s to max characters, never splitting a multi-byte rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
