package services

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"reddit-insights/models"
	"reddit-insights/utils"
)

// Cleaner transforms RawPosts into clean, typed Posts.
type Cleaner struct {
	logger *utils.Logger

	// Exclusion counts from the last Clean call.
	MissingValue    int
	UndefinedUptime int
	DuplicateID     int
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses raw posts into typed records. Records without an ID or an
// unparseable score are dropped and counted; a bad timestamp pair only
// invalidates the uptime derivation, the record itself survives for the
// computations that do not need it.
func (c *Cleaner) Clean(raw []*models.RawPost) []*models.Post {
	c.MissingValue, c.UndefinedUptime, c.DuplicateID = 0, 0, 0

	seen := make(map[string]struct{})
	result := make([]*models.Post, 0, len(raw))

	for _, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			c.MissingValue++
			c.logger.Debug("[cleaner] Dropping post with empty id: %q", r.Title)
			continue
		}
		if _, dup := seen[id]; dup {
			c.DuplicateID++
			c.logger.Debug("[cleaner] Duplicate id skipped: %s", id)
			continue
		}

		score, ok := parseInt(r.Score)
		if !ok {
			c.MissingValue++
			c.logger.Debug("[cleaner] Dropping post %s with unparseable score %q", id, r.Score)
			continue
		}
		seen[id] = struct{}{}

		post := &models.Post{
			ID:          id,
			Title:       normaliseText(r.Title),
			Score:       score,
			Subreddit:   strings.TrimSpace(r.Subreddit),
			Stickied:    parseBool(r.Stickied),
			Over18:      parseBool(r.Over18),
			HideScore:   parseBool(r.HideScore),
			NumComments: parseIntDefault(r.NumComments, 0),
			Gilded:      parseIntDefault(r.Gilded, 0),
			CreatedAt:   time.Now(),
		}

		created, okC := parseInt(r.CreatedUTC)
		retrieved, okR := parseInt(r.RetrievedOn)
		post.CreatedUTC = created
		post.RetrievedOn = retrieved
		if okC && okR && retrieved >= created {
			post.UptimeHours = float64(retrieved-created) / 3600
			post.UptimeValid = true
		} else {
			c.UndefinedUptime++
		}

		result = append(result, post)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d posts (dropped %d missing, %d duplicate; %d with undefined uptime)",
		len(raw), len(result), c.MissingValue, c.DuplicateID, c.UndefinedUptime)
	return result
}

// parseInt accepts plain integers and float-formatted integers ("1.45e9"
// style epochs show up in exported snapshots).
func parseInt(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

func parseIntDefault(raw string, fallback int64) int64 {
	if n, ok := parseInt(raw); ok {
		return n
	}
	return fallback
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "1", "yes":
		return true
	}
	return false
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
