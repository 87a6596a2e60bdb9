package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Analysis parameters.
	SignificanceLevel float64
	NumReplicates     int
	TopKSubreddits    int
	SparsityThreshold float64
	RandomSeed        int64
	MinGroupSize      int

	// Inputs. When SnapshotPath is empty the scraper runs instead.
	SnapshotPath string
	LexiconPath  string
	StopwordPath string

	// Outputs.
	RawCSVPath     string
	FeatureCSVPath string

	// Scraper knobs.
	Subreddits      []string
	PagesToScrape   int
	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int
	ChromeBin       string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "insights"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "insights123"),
		PostgresDB:       getEnv("POSTGRES_DB", "reddit_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SignificanceLevel: getEnvFloat("SIGNIFICANCE_LEVEL", 0.05),
		NumReplicates:     getEnvInt("NUM_REPLICATES", 1000),
		TopKSubreddits:    getEnvInt("TOP_K_SUBREDDITS", 9),
		SparsityThreshold: getEnvFloat("SPARSITY_THRESHOLD", 0.995),
		RandomSeed:        int64(getEnvInt("RANDOM_SEED", 1)),
		MinGroupSize:      getEnvInt("MIN_GROUP_SIZE", 30),

		SnapshotPath: getEnv("SNAPSHOT_PATH", "./data/posts.csv"),
		LexiconPath:  getEnv("LEXICON_PATH", "./data/afinn.txt"),
		StopwordPath: getEnv("STOPWORD_PATH", "./data/stopwords.txt"),

		RawCSVPath:     getEnv("RAW_CSV_PATH", "./output/raw_posts.csv"),
		FeatureCSVPath: getEnv("FEATURE_CSV_PATH", "./output/feature_table.csv"),

		Subreddits:     splitList(getEnv("SUBREDDITS", "funny,pics,videos,aww")),
		PagesToScrape:  getEnvInt("PAGES_TO_SCRAPE", 2),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		ChromeBin:      getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
