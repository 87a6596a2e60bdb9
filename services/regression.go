package services

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"reddit-insights/models"
	"reddit-insights/utils"
)

// ErrNoData is returned when a fit is requested over an empty table.
var ErrNoData = errors.New("no rows to fit")

// PredictorKind distinguishes how a predictor expands into design columns.
type PredictorKind int

const (
	// Numeric predictors contribute one column as-is.
	Numeric PredictorKind = iota
	// Categorical predictors expand into one indicator column per observed
	// level, minus the caller-supplied reference level.
	Categorical
	// Term predictors are binary bag-of-words columns keyed by vocabulary word.
	Term
)

// Predictor names one model term. Reference is required for Categorical
// predictors; the reference level is never implied.
type Predictor struct {
	Name      string
	Kind      PredictorKind
	Reference string
}

// TermPredictors wraps a bag-of-words vocabulary as model terms.
func TermPredictors(vocab []string) []Predictor {
	preds := make([]Predictor, 0, len(vocab))
	for _, w := range vocab {
		preds = append(preds, Predictor{Name: "term:" + w, Kind: Term})
	}
	return preds
}

// StepDirection selects the stepwise search mode.
type StepDirection int

const (
	// Backward starts from the full model and greedily removes terms.
	Backward StepDirection = iota
	// Forward starts from the intercept-only model and greedily adds terms.
	Forward
)

// ModelFitter fits ordinary least squares models over a feature table and
// performs greedy stepwise term selection by AIC. The search is a local
// heuristic: each accepted step improves the criterion, but the final model
// is not guaranteed to be the global optimum.
type ModelFitter struct {
	logger *utils.Logger
}

// NewModelFitter creates a fitter with the given logger.
func NewModelFitter(logger *utils.Logger) *ModelFitter {
	return &ModelFitter{logger: logger}
}

// Fit estimates response ~ intercept + predictors by QR-decomposed least
// squares. Constant and collinear columns are detected before solving,
// dropped, and reported on the returned model rather than surfacing as NaN
// coefficients.
func (f *ModelFitter) Fit(table *models.FeatureTable, response string, predictors []Predictor) (*models.Model, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, fmt.Errorf("regression: fit %q: %w", response, ErrNoData)
	}

	y := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		v, ok := numericValue(row, response)
		if !ok {
			return nil, fmt.Errorf("regression: unknown response field %q", response)
		}
		y[i] = v
	}

	cols, err := expandColumns(table, predictors)
	if err != nil {
		return nil, err
	}

	cols, dropped := pruneDegenerate(cols, len(table.Rows))
	if f.logger != nil {
		for _, name := range dropped {
			f.logger.Warn("[regression] Dropped collinear/constant column %q from %q fit", name, response)
		}
	}

	coefs, rss, err := solveOLS(y, cols)
	if err != nil {
		return nil, fmt.Errorf("regression: fit %q: %w", response, err)
	}

	n := float64(len(y))
	tss := totalSumSquares(y)
	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}

	model := &models.Model{
		Response: response,
		Terms:    retainedTerms(predictors, cols),
		RSquared: r2,
		AIC:      aic(rss, n, len(cols)+1),
		N:        len(y),
		Dropped:  dropped,
	}
	model.Coefficients = append(model.Coefficients, models.Coefficient{Name: "(intercept)", Estimate: coefs[0]})
	for i, c := range cols {
		model.Coefficients = append(model.Coefficients, models.Coefficient{Name: c.name, Estimate: coefs[i+1]})
	}
	return model, nil
}

// FitStepwise runs greedy stepwise selection: backward removes the single
// term whose removal most improves AIC, forward adds the single term whose
// addition most improves it, until no step helps. The AIC of an accepted
// step is always at or below the previous model's.
func (f *ModelFitter) FitStepwise(table *models.FeatureTable, response string,
	predictors []Predictor, dir StepDirection) (*models.Model, error) {

	var current []Predictor
	remaining := append([]Predictor(nil), predictors...)
	if dir == Backward {
		current, remaining = remaining, nil
	}

	best, err := f.Fit(table, response, current)
	if err != nil {
		return nil, err
	}

	for {
		improved := false
		var bestModel *models.Model
		var bestCurrent, bestRemaining []Predictor

		candidates := remaining
		if dir == Backward {
			candidates = current
		}

		for i := range candidates {
			var trial, rest []Predictor
			if dir == Backward {
				trial = removeAt(current, i)
				rest = nil
			} else {
				trial = append(append([]Predictor(nil), current...), remaining[i])
				rest = removeAt(remaining, i)
			}

			m, err := f.Fit(table, response, trial)
			if err != nil {
				return nil, err
			}
			if m.AIC < best.AIC-1e-9 && (bestModel == nil || m.AIC < bestModel.AIC) {
				bestModel = m
				bestCurrent = trial
				bestRemaining = rest
				improved = true
			}
		}

		if !improved {
			break
		}
		best = bestModel
		current = bestCurrent
		if dir == Forward {
			remaining = bestRemaining
		}
		if f.logger != nil {
			f.logger.Info("[regression] Stepwise kept %d terms, AIC %.2f", len(current), best.AIC)
		}
	}

	return best, nil
}

// column is one expanded design-matrix column.
type column struct {
	name   string
	term   string
	values []float64
}

// expandColumns turns predictors into concrete design columns: numeric and
// term predictors one-to-one, categoricals into indicators for every
// observed non-reference level (levels sorted for stable column order).
func expandColumns(table *models.FeatureTable, predictors []Predictor) ([]column, error) {
	var cols []column
	for _, p := range predictors {
		switch p.Kind {
		case Numeric:
			vals := make([]float64, len(table.Rows))
			for i, row := range table.Rows {
				v, ok := numericValue(row, p.Name)
				if !ok {
					return nil, fmt.Errorf("regression: unknown numeric predictor %q", p.Name)
				}
				vals[i] = v
			}
			cols = append(cols, column{name: p.Name, term: p.Name, values: vals})

		case Categorical:
			if p.Reference == "" {
				return nil, fmt.Errorf("regression: categorical predictor %q has no reference level", p.Name)
			}
			levels := make(map[string]struct{})
			obs := make([]string, len(table.Rows))
			for i, row := range table.Rows {
				v, ok := categoricalValue(row, p.Name)
				if !ok {
					return nil, fmt.Errorf("regression: unknown categorical predictor %q", p.Name)
				}
				obs[i] = v
				levels[v] = struct{}{}
			}
			sorted := make([]string, 0, len(levels))
			for l := range levels {
				if l != p.Reference {
					sorted = append(sorted, l)
				}
			}
			sort.Strings(sorted)
			for _, level := range sorted {
				vals := make([]float64, len(obs))
				for i, v := range obs {
					if v == level {
						vals[i] = 1
					}
				}
				cols = append(cols, column{name: p.Name + "=" + level, term: p.Name, values: vals})
			}

		case Term:
			word := p.Name[len("term:"):]
			vals := make([]float64, len(table.Rows))
			for i, row := range table.Rows {
				if row.Terms[word] {
					vals[i] = 1
				}
			}
			cols = append(cols, column{name: p.Name, term: p.Name, values: vals})
		}
	}
	return cols, nil
}

// pruneDegenerate removes columns that would make the design matrix rank
// deficient: constant columns first, then any column flagged by a
// vanishing QR diagonal (an exact duplicate or linear combination of
// earlier columns). Returns the surviving columns and the dropped names.
func pruneDegenerate(cols []column, n int) ([]column, []string) {
	var dropped []string

	kept := cols[:0:0]
	for _, c := range cols {
		if variance(c.values) == 0 {
			dropped = append(dropped, c.name)
			continue
		}
		kept = append(kept, c)
	}

	for len(kept) > 0 {
		idx := firstDeficientColumn(kept, n)
		if idx < 0 {
			break
		}
		dropped = append(dropped, kept[idx].name)
		kept = append(kept[:idx], kept[idx+1:]...)
	}
	return kept, dropped
}

// firstDeficientColumn QR-factorizes the design matrix (with intercept) and
// returns the index of the first column whose R diagonal is numerically
// zero, or -1 when the matrix has full column rank.
func firstDeficientColumn(cols []column, n int) int {
	p := len(cols) + 1
	if n < p {
		// Fewer rows than columns: the trailing column cannot be identified.
		return len(cols) - 1
	}

	x := designMatrix(cols, n)
	var qr mat.QR
	qr.Factorize(x)
	var r mat.Dense
	qr.RTo(&r)

	maxDiag := 0.0
	for j := 0; j < p; j++ {
		if d := math.Abs(r.At(j, j)); d > maxDiag {
			maxDiag = d
		}
	}
	tol := 1e-10 * math.Max(maxDiag, 1)
	for j := 1; j < p; j++ {
		if math.Abs(r.At(j, j)) <= tol {
			return j - 1 // column j of X is cols[j-1]
		}
	}
	return -1
}

// solveOLS solves min ||y - Xb|| over the intercept-plus-cols design and
// returns the coefficients and residual sum of squares.
func solveOLS(y []float64, cols []column) ([]float64, float64, error) {
	n := len(y)
	p := len(cols) + 1
	if n < p {
		return nil, 0, fmt.Errorf("need at least %d rows for %d coefficients, have %d", p, p, n)
	}

	x := designMatrix(cols, n)
	yv := mat.NewDense(n, 1, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, yv); err != nil {
		return nil, 0, fmt.Errorf("qr solve: %w", err)
	}

	coefs := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.At(j, 0)
	}

	rss := 0.0
	for i := 0; i < n; i++ {
		fitted := coefs[0]
		for j, c := range cols {
			fitted += coefs[j+1] * c.values[i]
		}
		resid := y[i] - fitted
		rss += resid * resid
	}
	return coefs, rss, nil
}

func designMatrix(cols []column, n int) *mat.Dense {
	p := len(cols) + 1
	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, c := range cols {
			x.Set(i, j+1, c.values[i])
		}
	}
	return x
}

// aic computes n·ln(RSS/n) + 2p. Constant offsets are irrelevant for the
// stepwise comparison; RSS is floored to keep perfect fits finite.
func aic(rss, n float64, p int) float64 {
	const floor = 1e-12
	if rss < floor {
		rss = floor
	}
	return n*math.Log(rss/n) + 2*float64(p)
}

func totalSumSquares(y []float64) float64 {
	mean := stat.Mean(y, nil)
	tss := 0.0
	for _, v := range y {
		d := v - mean
		tss += d * d
	}
	return tss
}

func variance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.Variance(vals, nil)
}

// retainedTerms lists the predictors that survived column pruning: a
// predictor whose every expanded column was dropped is not part of the
// fitted model.
func retainedTerms(predictors []Predictor, kept []column) []string {
	live := make(map[string]struct{}, len(kept))
	for _, c := range kept {
		live[c.term] = struct{}{}
	}
	names := make([]string, 0, len(predictors))
	for _, p := range predictors {
		if _, ok := live[p.Name]; ok {
			names = append(names, p.Name)
		}
	}
	return names
}

func removeAt(s []Predictor, i int) []Predictor {
	out := make([]Predictor, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// numericValue resolves a numeric field of the feature row by column name.
// Boolean flags are usable as 0/1 numeric predictors.
func numericValue(row *models.FeatureRow, name string) (float64, bool) {
	switch name {
	case "score":
		return row.Score, true
	case "uptime_hours":
		return row.UptimeHours, true
	case "title_length":
		return row.TitleLength, true
	case "sentiment":
		return row.Sentiment, true
	case "num_comments":
		return row.NumComments, true
	case "gilded":
		return row.Gilded, true
	case "stickied":
		return boolToFloat(row.Stickied), true
	case "over_18":
		return boolToFloat(row.Over18), true
	}
	return 0, false
}

func categoricalValue(row *models.FeatureRow, name string) (string, bool) {
	switch name {
	case "sentiment_class":
		return row.SentimentClass, true
	case "keyword_group":
		return row.KeywordGroup, true
	case "subreddit_bucket":
		return row.SubredditBucket, true
	}
	return "", false
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
