package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"reddit-insights/models"
)

// PostgresWriter persists cleaned posts to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id           VARCHAR(16)  PRIMARY KEY,
			title        TEXT         NOT NULL,
			score        BIGINT       NOT NULL DEFAULT 0,
			subreddit    TEXT         NOT NULL DEFAULT '',
			stickied     BOOLEAN      NOT NULL DEFAULT FALSE,
			over_18      BOOLEAN      NOT NULL DEFAULT FALSE,
			hide_score   BOOLEAN      NOT NULL DEFAULT FALSE,
			num_comments BIGINT       NOT NULL DEFAULT 0,
			gilded       BIGINT       NOT NULL DEFAULT 0,
			created_utc  BIGINT       NOT NULL DEFAULT 0,
			retrieved_on BIGINT       NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_posts_score     ON posts(score);
		CREATE INDEX IF NOT EXISTS idx_posts_subreddit ON posts(subreddit);
	`)
	return err
}

// Clear deletes all existing posts from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM posts")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts ALL cleaned posts, clearing old data first.
func (pw *PostgresWriter) Write(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(posts); i += batchSize {
		end := i + batchSize
		if end > len(posts) {
			end = len(posts)
		}
		if err := pw.insertBatch(posts[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Post) error {
	const fields = 11
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*fields)

	for idx, p := range batch {
		base := idx * fields
		placeholders := make([]string, fields)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			p.ID, p.Title, p.Score, p.Subreddit, p.Stickied, p.Over18,
			p.HideScore, p.NumComments, p.Gilded, p.CreatedUTC, p.RetrievedOn)
	}

	query := fmt.Sprintf(`
		INSERT INTO posts (id, title, score, subreddit, stickied, over_18,
			hide_score, num_comments, gilded, created_utc, retrieved_on)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored posts — used by the analysis pass.
func (pw *PostgresWriter) FetchAll() ([]*models.Post, error) {
	rows, err := pw.db.Query(`
		SELECT id, title, score, subreddit, stickied, over_18,
			hide_score, num_comments, gilded, created_utc, retrieved_on, created_at
		FROM posts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p := &models.Post{}
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Score, &p.Subreddit, &p.Stickied, &p.Over18,
			&p.HideScore, &p.NumComments, &p.Gilded, &p.CreatedUTC, &p.RetrievedOn, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if p.RetrievedOn >= p.CreatedUTC && p.CreatedUTC > 0 {
			p.UptimeHours = float64(p.RetrievedOn-p.CreatedUTC) / 3600
			p.UptimeValid = true
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
