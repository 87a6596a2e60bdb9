package services

import (
	"errors"
	"math"
	"testing"

	"reddit-insights/models"
)

func tableFromRows(rows ...*models.FeatureRow) *models.FeatureTable {
	return &models.FeatureTable{Rows: rows}
}

func numericRow(uptime, comments, gilded, score float64) *models.FeatureRow {
	return &models.FeatureRow{
		Score:           score,
		UptimeHours:     uptime,
		NumComments:     comments,
		Gilded:          gilded,
		SentimentClass:  SentimentNeutral,
		KeywordGroup:    KeywordNone,
		SubredditBucket: OtherBucket,
	}
}

func coefficient(m *models.Model, name string) (float64, bool) {
	for _, c := range m.Coefficients {
		if c.Name == name {
			return c.Estimate, true
		}
	}
	return 0, false
}

func TestFitRecoversExactLinearRelation(t *testing.T) {
	// score = 2 + 3·uptime, no noise.
	var rows []*models.FeatureRow
	for _, u := range []float64{1, 2, 3, 4, 5, 6} {
		rows = append(rows, numericRow(u, 0, 0, 2+3*u))
	}

	fitter := NewModelFitter(newTestLogger())
	m, err := fitter.Fit(tableFromRows(rows...), "score", []Predictor{{Name: "uptime_hours", Kind: Numeric}})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if got, _ := coefficient(m, "(intercept)"); math.Abs(got-2) > 1e-8 {
		t.Errorf("intercept: got %v, want 2", got)
	}
	if got, _ := coefficient(m, "uptime_hours"); math.Abs(got-3) > 1e-8 {
		t.Errorf("uptime_hours: got %v, want 3", got)
	}
	if math.Abs(m.RSquared-1) > 1e-8 {
		t.Errorf("RSquared: got %v, want 1", m.RSquared)
	}
}

func TestFitDropsDuplicateColumnLoudly(t *testing.T) {
	// title_length duplicates uptime_hours exactly: a rank-deficient design
	// must be reported and reduced, never solved into NaN coefficients.
	var rows []*models.FeatureRow
	for i, u := range []float64{1, 2, 3, 5, 8, 13} {
		r := numericRow(u, float64(i), 0, 10+2*u)
		r.TitleLength = u
		rows = append(rows, r)
	}

	fitter := NewModelFitter(newTestLogger())
	m, err := fitter.Fit(tableFromRows(rows...), "score", []Predictor{
		{Name: "uptime_hours", Kind: Numeric},
		{Name: "num_comments", Kind: Numeric},
		{Name: "title_length", Kind: Numeric},
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if len(m.Dropped) != 1 || m.Dropped[0] != "title_length" {
		t.Errorf("Dropped: got %v, want [title_length]", m.Dropped)
	}
	for _, term := range m.Terms {
		if term == "title_length" {
			t.Error("a fully dropped predictor must not appear in Terms")
		}
	}
	for _, c := range m.Coefficients {
		if math.IsNaN(c.Estimate) || math.IsInf(c.Estimate, 0) {
			t.Errorf("coefficient %s is not finite: %v", c.Name, c.Estimate)
		}
	}
}

func TestFitDropsConstantColumn(t *testing.T) {
	var rows []*models.FeatureRow
	for _, u := range []float64{1, 2, 3, 4} {
		rows = append(rows, numericRow(u, 0, 7, 2*u)) // gilded constant at 7
	}

	fitter := NewModelFitter(newTestLogger())
	m, err := fitter.Fit(tableFromRows(rows...), "score", []Predictor{
		{Name: "uptime_hours", Kind: Numeric},
		{Name: "gilded", Kind: Numeric},
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if len(m.Dropped) != 1 || m.Dropped[0] != "gilded" {
		t.Errorf("Dropped: got %v, want [gilded]", m.Dropped)
	}
	if len(m.Terms) != 1 || m.Terms[0] != "uptime_hours" {
		t.Errorf("Terms must list only retained predictors, got %v", m.Terms)
	}
}

func TestFitCategoricalExpansion(t *testing.T) {
	// Bucket effects relative to the explicit reference: other=1, a=3, b=5.
	bucketRow := func(bucket string, score float64) *models.FeatureRow {
		r := numericRow(0, 0, 0, score)
		r.SubredditBucket = bucket
		return r
	}
	table := tableFromRows(
		bucketRow(OtherBucket, 1), bucketRow(OtherBucket, 1),
		bucketRow("a", 3), bucketRow("a", 3),
		bucketRow("b", 5), bucketRow("b", 5),
	)

	fitter := NewModelFitter(newTestLogger())
	m, err := fitter.Fit(table, "score", []Predictor{
		{Name: "subreddit_bucket", Kind: Categorical, Reference: OtherBucket},
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	wantCoefs := map[string]float64{
		"(intercept)":        1,
		"subreddit_bucket=a": 2,
		"subreddit_bucket=b": 4,
	}
	for name, want := range wantCoefs {
		got, ok := coefficient(m, name)
		if !ok {
			t.Errorf("missing coefficient %q", name)
			continue
		}
		if math.Abs(got-want) > 1e-8 {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}
}

func TestFitCategoricalRequiresReference(t *testing.T) {
	table := tableFromRows(numericRow(1, 0, 0, 1))
	fitter := NewModelFitter(newTestLogger())
	_, err := fitter.Fit(table, "score", []Predictor{{Name: "subreddit_bucket", Kind: Categorical}})
	if err == nil {
		t.Error("expected an error for a categorical predictor without a reference level")
	}
}

func TestFitEmptyTable(t *testing.T) {
	fitter := NewModelFitter(newTestLogger())
	_, err := fitter.Fit(&models.FeatureTable{}, "score", nil)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestStepwiseBackwardRemovesNoiseTerm(t *testing.T) {
	// score depends only on num_comments; gilded is pure noise, so backward
	// selection should discard it.
	var rows []*models.FeatureRow
	comments := []float64{1, 4, 2, 8, 5, 7, 3, 6}
	gilded := []float64{0, 1, 1, 0, 2, 0, 1, 2}
	for i := range comments {
		rows = append(rows, numericRow(float64(i), comments[i], gilded[i], 5+2*comments[i]))
	}
	table := tableFromRows(rows...)

	fitter := NewModelFitter(newTestLogger())
	predictors := []Predictor{
		{Name: "num_comments", Kind: Numeric},
		{Name: "gilded", Kind: Numeric},
	}

	full, err := fitter.Fit(table, "score", predictors)
	if err != nil {
		t.Fatalf("full Fit: %v", err)
	}
	selected, err := fitter.FitStepwise(table, "score", predictors, Backward)
	if err != nil {
		t.Fatalf("FitStepwise: %v", err)
	}

	if selected.AIC > full.AIC {
		t.Errorf("selection worsened AIC: %v > %v", selected.AIC, full.AIC)
	}

	hasComments, hasGilded := false, false
	for _, term := range selected.Terms {
		switch term {
		case "num_comments":
			hasComments = true
		case "gilded":
			hasGilded = true
		}
	}
	if !hasComments {
		t.Error("stepwise removed the true predictor")
	}
	if hasGilded {
		t.Error("stepwise kept the noise predictor")
	}
}

func TestStepwiseForwardNeverWorsensCriterion(t *testing.T) {
	var rows []*models.FeatureRow
	comments := []float64{1, 4, 2, 8, 5, 7, 3, 6}
	for i := range comments {
		rows = append(rows, numericRow(float64(i)*1.5, comments[i], 0, 1+3*comments[i]))
	}
	table := tableFromRows(rows...)

	fitter := NewModelFitter(newTestLogger())
	intercept, err := fitter.Fit(table, "score", nil)
	if err != nil {
		t.Fatalf("intercept Fit: %v", err)
	}
	selected, err := fitter.FitStepwise(table, "score", []Predictor{
		{Name: "num_comments", Kind: Numeric},
		{Name: "uptime_hours", Kind: Numeric},
	}, Forward)
	if err != nil {
		t.Fatalf("FitStepwise: %v", err)
	}

	if selected.AIC > intercept.AIC {
		t.Errorf("forward selection worsened AIC: %v > %v", selected.AIC, intercept.AIC)
	}

	found := false
	for _, term := range selected.Terms {
		if term == "num_comments" {
			found = true
		}
	}
	if !found {
		t.Error("forward selection never added the true predictor")
	}
}

func TestStepwiseWithDuplicateColumnStaysFinite(t *testing.T) {
	var rows []*models.FeatureRow
	for _, u := range []float64{1, 2, 4, 7, 11, 16} {
		r := numericRow(u, 3*u, 0, 1+u) // num_comments = 3·uptime, perfectly collinear
		rows = append(rows, r)
	}
	table := tableFromRows(rows...)

	fitter := NewModelFitter(newTestLogger())
	m, err := fitter.FitStepwise(table, "score", []Predictor{
		{Name: "uptime_hours", Kind: Numeric},
		{Name: "num_comments", Kind: Numeric},
	}, Backward)
	if err != nil {
		t.Fatalf("FitStepwise: %v", err)
	}

	for _, c := range m.Coefficients {
		if math.IsNaN(c.Estimate) || math.IsInf(c.Estimate, 0) {
			t.Errorf("coefficient %s is not finite: %v", c.Name, c.Estimate)
		}
	}
}
