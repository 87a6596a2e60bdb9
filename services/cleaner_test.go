package services

import (
	"testing"

	"reddit-insights/models"
	"reddit-insights/utils"
)

func newTestLogger() *utils.Logger { return utils.NewSilentLogger() }

func TestCleanerParseInt(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"42", 42, true},
		{"-7", -7, true},
		{"0", 0, true},
		{" 1450000000 ", 1450000000, true},
		{"1.45e9", 1450000000, true},
		{"", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseInt(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseInt(%q) = (%d, %v); want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCleanerDropsMissingID(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawPost{
		{ID: "", Title: "no id", Score: "10"},
		{ID: "t3_a", Title: "has id", Score: "20"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Errorf("expected 1 post after dropping empty id, got %d", len(cleaned))
	}
	if c.MissingValue != 1 {
		t.Errorf("MissingValue count: got %d, want 1", c.MissingValue)
	}
}

func TestCleanerDropsUnparseableScore(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawPost{
		{ID: "t3_a", Title: "ok", Score: "-3"},
		{ID: "t3_b", Title: "bad score", Score: "hidden"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 post, got %d", len(cleaned))
	}
	if cleaned[0].Score != -3 {
		t.Errorf("Score: got %d, want -3", cleaned[0].Score)
	}
}

func TestCleanerDeduplicatesID(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawPost{
		{ID: "t3_a", Title: "first", Score: "1"},
		{ID: "t3_a", Title: "second", Score: "2"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 1 {
		t.Errorf("expected 1 post after deduplication, got %d", len(cleaned))
	}
	if c.DuplicateID != 1 {
		t.Errorf("DuplicateID count: got %d, want 1", c.DuplicateID)
	}
}

func TestCleanerUptimeDerivation(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawPost{
		{ID: "t3_ok", Title: "x", Score: "1", CreatedUTC: "1000000", RetrievedOn: "1007200"},
		{ID: "t3_neg", Title: "x", Score: "1", CreatedUTC: "1007200", RetrievedOn: "1000000"},
		{ID: "t3_bad", Title: "x", Score: "1", CreatedUTC: "garbage", RetrievedOn: "1000000"},
	}

	cleaned := c.Clean(raw)
	if len(cleaned) != 3 {
		t.Fatalf("expected all 3 posts to survive, got %d", len(cleaned))
	}

	if !cleaned[0].UptimeValid {
		t.Error("valid timestamp pair should yield a valid uptime")
	}
	if got, want := cleaned[0].UptimeHours, 2.0; got != want {
		t.Errorf("UptimeHours: got %v, want %v", got, want)
	}

	for _, p := range cleaned[1:] {
		if p.UptimeValid {
			t.Errorf("post %s: negative/unparseable timestamps must invalidate uptime, not zero it", p.ID)
		}
	}
	if c.UndefinedUptime != 2 {
		t.Errorf("UndefinedUptime count: got %d, want 2", c.UndefinedUptime)
	}
}

func TestCleanerNormalisesTitle(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := []*models.RawPost{
		{ID: "t3_a", Title: "  my   dog \t is\nthe best  ", Score: "5"},
	}

	cleaned := c.Clean(raw)
	if got, want := cleaned[0].Title, "my dog is the best"; got != want {
		t.Errorf("Title: got %q, want %q", got, want)
	}
}
