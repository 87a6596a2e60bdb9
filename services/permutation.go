package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"reddit-insights/models"
	"reddit-insights/utils"
)

// ErrInsufficientSample is returned when a test group has fewer records
// than the configured minimum.
var ErrInsufficientSample = errors.New("insufficient sample size")

// TestDirection selects the tail of a permutation test.
type TestDirection int

const (
	// Greater tests one-sided "mean(A) > mean(B)".
	Greater TestDirection = iota
	// TwoSided tests |mean(A) − mean(B)| against the absolute null.
	TwoSided
)

// Sample is one (value, group label) observation.
type Sample struct {
	Value float64
	Group string
}

// PermutationTest compares two group means by label shuffling. The same
// seed over the same input always yields the same null distribution and
// p-value.
type PermutationTest struct {
	logger *utils.Logger

	Replicates   int
	Seed         int64
	MinGroupSize int
}

// NewPermutationTest creates an engine with the given replicate count and seed.
func NewPermutationTest(logger *utils.Logger, replicates int, seed int64, minGroupSize int) *PermutationTest {
	return &PermutationTest{
		logger:       logger,
		Replicates:   replicates,
		Seed:         seed,
		MinGroupSize: minGroupSize,
	}
}

// Run filters samples to groupA and groupB, computes the observed
// difference in means (A minus B), simulates the null by shuffling values
// across the pooled records with group sizes preserved, and returns the
// tail probability for the requested direction.
func (pt *PermutationTest) Run(samples []Sample, groupA, groupB string, dir TestDirection) (*models.PermutationResult, error) {
	// Group A values first, so the unpermuted split is ordered[:sizeA].
	var ordered []float64
	for _, s := range samples {
		if s.Group == groupA {
			ordered = append(ordered, s.Value)
		}
	}
	sizeA := len(ordered)
	for _, s := range samples {
		if s.Group == groupB {
			ordered = append(ordered, s.Value)
		}
	}
	sizeB := len(ordered) - sizeA

	if sizeA < pt.MinGroupSize || sizeB < pt.MinGroupSize {
		return nil, fmt.Errorf("permtest: %q has %d and %q has %d records, need %d each: %w",
			groupA, sizeA, groupB, sizeB, pt.MinGroupSize, ErrInsufficientSample)
	}

	observed := stat.Mean(ordered[:sizeA], nil) - stat.Mean(ordered[sizeA:], nil)

	rng := rand.New(rand.NewSource(pt.Seed))
	null := make([]float64, pt.Replicates)
	extreme := 0
	shuffled := make([]float64, len(ordered))
	copy(shuffled, ordered)

	for i := 0; i < pt.Replicates; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		diff := stat.Mean(shuffled[:sizeA], nil) - stat.Mean(shuffled[sizeA:], nil)
		null[i] = diff

		switch dir {
		case TwoSided:
			if math.Abs(diff) >= math.Abs(observed) {
				extreme++
			}
		default:
			if diff >= observed {
				extreme++
			}
		}
	}

	res := &models.PermutationResult{
		GroupA:     groupA,
		GroupB:     groupB,
		SizeA:      sizeA,
		SizeB:      sizeB,
		Observed:   observed,
		PValue:     float64(extreme) / float64(pt.Replicates),
		Replicates: pt.Replicates,
		Null:       null,
	}

	if pt.logger != nil {
		pt.logger.Info("[permtest] %s (n=%d) vs %s (n=%d): observed diff %.4f, p=%.4f over %d replicates",
			groupA, sizeA, groupB, sizeB, observed, res.PValue, pt.Replicates)
	}
	return res, nil
}
