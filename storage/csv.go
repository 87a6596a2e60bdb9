package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"reddit-insights/models"
)

// rawHeader is the column order shared by the snapshot reader and the raw writer.
var rawHeader = []string{
	"id", "title", "score", "subreddit", "stickied", "over_18", "hide_score",
	"num_comments", "gilded", "created_utc", "retrieved_on",
}

// ReadSnapshot loads a post snapshot CSV into RawPosts. The file must carry
// the rawHeader columns; column order is taken from the header row, extra
// columns are ignored. Short rows are skipped, not fatal.
func ReadSnapshot(path string) ([]*models.RawPost, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open snapshot %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, required := range rawHeader {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv: snapshot missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i := idx[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var posts []*models.RawPost
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		posts = append(posts, &models.RawPost{
			ID:          field(row, "id"),
			Title:       field(row, "title"),
			Score:       field(row, "score"),
			Subreddit:   field(row, "subreddit"),
			Stickied:    field(row, "stickied"),
			Over18:      field(row, "over_18"),
			HideScore:   field(row, "hide_score"),
			NumComments: field(row, "num_comments"),
			Gilded:      field(row, "gilded"),
			CreatedUTC:  field(row, "created_utc"),
			RetrievedOn: field(row, "retrieved_on"),
			Source:      "snapshot",
		})
	}
	return posts, nil
}

// CSVWriter writes raw (uncleaned) posts to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, w, err := createCSV(path, append(rawHeader, "scraped_at", "source"))
	if err != nil {
		return nil, err
	}
	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends raw posts to the CSV file.
func (c *CSVWriter) WriteRaw(posts []*models.RawPost) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range posts {
		row := []string{
			p.ID, p.Title, p.Score, p.Subreddit, p.Stickied, p.Over18, p.HideScore,
			p.NumComments, p.Gilded, p.CreatedUTC, p.RetrievedOn,
			p.ScrapedAt.Format(time.RFC3339), p.Source,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// WriteFeatureTable materializes the augmented feature table for the
// downstream reporting collaborator: one row per surviving record, derived
// columns first, then one 0/1 column per bag-of-words vocabulary term.
func WriteFeatureTable(path string, table *models.FeatureTable) error {
	header := []string{
		"id", "score", "uptime_hours", "title_length", "sentiment", "sentiment_class",
		"keyword_group", "subreddit_bucket", "num_comments", "gilded", "stickied", "over_18",
	}
	header = append(header, table.Vocabulary...)

	f, w, err := createCSV(path, header)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, row := range table.Rows {
		rec := []string{
			row.ID,
			strconv.FormatFloat(row.Score, 'f', -1, 64),
			strconv.FormatFloat(row.UptimeHours, 'f', 4, 64),
			strconv.FormatFloat(row.TitleLength, 'f', -1, 64),
			strconv.FormatFloat(row.Sentiment, 'f', -1, 64),
			row.SentimentClass,
			row.KeywordGroup,
			row.SubredditBucket,
			strconv.FormatFloat(row.NumComments, 'f', -1, 64),
			strconv.FormatFloat(row.Gilded, 'f', -1, 64),
			boolCell(row.Stickied),
			boolCell(row.Over18),
		}
		for _, term := range table.Vocabulary {
			rec = append(rec, boolCell(row.Terms[term]))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("csv: write feature row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func createCSV(path string, header []string) (*os.File, *csv.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	return f, w, nil
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
