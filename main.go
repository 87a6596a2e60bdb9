package main

import (
	"errors"
	"fmt"
	"os"

	"reddit-insights/config"
	"reddit-insights/models"
	"reddit-insights/scraper/reddit"
	"reddit-insights/services"
	"reddit-insights/storage"
	"reddit-insights/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Reddit Post Analysis starting ===")
	logger.Info("Config — replicates: %d | top-K subreddits: %d | sparsity: %.3f | seed: %d | α: %.2f",
		cfg.NumReplicates, cfg.TopKSubreddits, cfg.SparsityThreshold, cfg.RandomSeed, cfg.SignificanceLevel)

	rawPosts := ingest(cfg, logger)
	if len(rawPosts) == 0 {
		logger.Error("No posts were ingested. Exiting.")
		os.Exit(1)
	}

	logger.Info("Ingested %d raw posts — writing to CSV...", len(rawPosts))
	if csvWriter, err := storage.NewCSVWriter(cfg.RawCSVPath); err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
	} else {
		if err := csvWriter.WriteRaw(rawPosts); err != nil {
			logger.Error("CSV write failed: %v", err)
		} else {
			logger.Info("Raw posts saved to %s", cfg.RawCSVPath)
		}
		csvWriter.Close()
	}

	cleaner := services.NewCleaner(logger)
	posts := cleaner.Clean(rawPosts)
	if len(posts) == 0 {
		logger.Error("All posts were dropped during cleaning. Exiting.")
		os.Exit(1)
	}
	logger.Info("Cleaned dataset: %d posts", len(posts))

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Warn("PostgreSQL unavailable (%v) — analyzing in-memory dataset", err)
	} else {
		defer pgWriter.Close()
		if err := pgWriter.Write(posts); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else {
			logger.Info("Clean posts stored in PostgreSQL (table: posts)")
		}
		if dbPosts, err := pgWriter.FetchAll(); err != nil {
			logger.Error("Failed to fetch posts from DB: %v", err)
		} else {
			posts = dbPosts
		}
	}

	lexicon, err := storage.LoadLexicon(cfg.LexiconPath)
	if err != nil {
		logger.Error("Failed to load sentiment lexicon: %v", err)
		os.Exit(1)
	}
	stopwords, err := storage.LoadStopwords(cfg.StopwordPath)
	if err != nil {
		logger.Error("Failed to load stopwords: %v", err)
		os.Exit(1)
	}
	logger.Info("Loaded lexicon (%d words) and stopwords (%d words)", len(lexicon), len(stopwords))

	flagger := services.NewKeywordFlagger([]services.PatternGroup{
		{Label: "dog", Patterns: []string{"dog", "Dog", "DOG", "dogs", "Dogs", "puppy", "Puppy", "pupper"}},
		{Label: "cat", Patterns: []string{"cat", "Cat", "CAT", "cats", "Cats", "kitten", "Kitten", "kitty"}},
	})

	insightSvc := services.NewInsightService(logger, lexicon, stopwords, flagger, cfg.TopKSubreddits)
	report := insightSvc.Generate(posts)
	insightSvc.Print(report)

	runTests(cfg, logger, insightSvc, posts, flagger, lexicon)

	builder := services.NewFeatureBuilder(logger, lexicon, stopwords, flagger, cfg.TopKSubreddits,
		services.BagOfWordsConfig{Enabled: true, SparsityThreshold: cfg.SparsityThreshold})
	table := builder.Build(posts)
	if len(table.Rows) == 0 {
		logger.Error("No rows survived feature building. Exiting.")
		os.Exit(1)
	}

	if err := storage.WriteFeatureTable(cfg.FeatureCSVPath, table); err != nil {
		logger.Error("Feature table write failed: %v", err)
	} else {
		logger.Info("Feature table (%d rows, %d vocabulary terms) written to %s",
			len(table.Rows), len(table.Vocabulary), cfg.FeatureCSVPath)
	}

	fitModels(logger, insightSvc, table)

	fmt.Printf("  Done. Raw CSV → %s | Feature table → %s | Clean data → PostgreSQL (posts table)\n\n",
		cfg.RawCSVPath, cfg.FeatureCSVPath)
}

// ingest reads the configured snapshot CSV, or falls back to scraping when
// the snapshot is absent.
func ingest(cfg *config.Config, logger *utils.Logger) []*models.RawPost {
	if cfg.SnapshotPath != "" {
		if _, err := os.Stat(cfg.SnapshotPath); err == nil {
			posts, err := storage.ReadSnapshot(cfg.SnapshotPath)
			if err != nil {
				logger.Error("Snapshot read failed: %v", err)
				return nil
			}
			logger.Info("Loaded snapshot %s", cfg.SnapshotPath)
			return posts
		}
		logger.Warn("Snapshot %s not found — scraping instead", cfg.SnapshotPath)
	}

	redditScraper := reddit.New(cfg, logger)
	posts, err := redditScraper.Scrape()
	if err != nil {
		logger.Error("Reddit scrape failed: %v", err)
	}
	return posts
}

// runTests compares mean scores between the keyword groups and between
// positive and negative sentiment classes.
func runTests(cfg *config.Config, logger *utils.Logger, insightSvc *services.InsightService,
	posts []*models.Post, flagger *services.KeywordFlagger, lexicon services.Lexicon) {

	keywordSamples := make([]services.Sample, 0, len(posts))
	sentimentSamples := make([]services.Sample, 0, len(posts))
	for _, p := range posts {
		keywordSamples = append(keywordSamples, services.Sample{
			Value: float64(p.Score),
			Group: flagger.Flag(p.Title),
		})
		sentimentSamples = append(sentimentSamples, services.Sample{
			Value: float64(p.Score),
			Group: services.ScoreSentiment(p.Title, lexicon).Class,
		})
	}

	engine := services.NewPermutationTest(logger, cfg.NumReplicates, cfg.RandomSeed, cfg.MinGroupSize)

	fmt.Printf("\033[1;33m  Permutation Tests\033[0m\n")
	for _, tc := range []struct {
		samples []services.Sample
		a, b    string
	}{
		{keywordSamples, "dog", "cat"},
		{sentimentSamples, services.SentimentPositive, services.SentimentNegative},
	} {
		res, err := engine.Run(tc.samples, tc.a, tc.b, services.Greater)
		if err != nil {
			if errors.Is(err, services.ErrInsufficientSample) {
				logger.Warn("Skipping %s vs %s test: %v", tc.a, tc.b, err)
				continue
			}
			logger.Error("Test %s vs %s failed: %v", tc.a, tc.b, err)
			continue
		}
		insightSvc.PrintTest(res, cfg.SignificanceLevel)
	}
	fmt.Println()
}

// fitModels fits and prints the metadata-only model and the metadata+text
// model, both reduced by backward stepwise selection.
func fitModels(logger *utils.Logger, insightSvc *services.InsightService, table *models.FeatureTable) {
	fitter := services.NewModelFitter(logger)

	metadata := []services.Predictor{
		{Name: "uptime_hours", Kind: services.Numeric},
		{Name: "num_comments", Kind: services.Numeric},
		{Name: "gilded", Kind: services.Numeric},
		{Name: "stickied", Kind: services.Numeric},
		{Name: "over_18", Kind: services.Numeric},
		{Name: "subreddit_bucket", Kind: services.Categorical, Reference: services.OtherBucket},
	}
	text := []services.Predictor{
		{Name: "title_length", Kind: services.Numeric},
		{Name: "sentiment_class", Kind: services.Categorical, Reference: services.SentimentNeutral},
		{Name: "keyword_group", Kind: services.Categorical, Reference: services.KeywordNone},
	}
	text = append(text, services.TermPredictors(table.Vocabulary)...)

	metaModel, err := fitter.FitStepwise(table, "score", metadata, services.Backward)
	if err != nil {
		logger.Error("Metadata model fit failed: %v", err)
	} else {
		insightSvc.PrintModel(metaModel)
	}

	fullModel, err := fitter.FitStepwise(table, "score", append(metadata, text...), services.Backward)
	if err != nil {
		logger.Error("Metadata+text model fit failed: %v", err)
		return
	}
	insightSvc.PrintModel(fullModel)

	if metaModel != nil {
		fmt.Printf("\n  ΔR² from text features: %.4f (%.4f → %.4f)\n\n",
			fullModel.RSquared-metaModel.RSquared, metaModel.RSquared, fullModel.RSquared)
	}
}
