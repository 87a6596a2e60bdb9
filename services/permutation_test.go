package services

import (
	"errors"
	"math"
	"testing"
)

func samplesFrom(a, b []float64) []Sample {
	var out []Sample
	for _, v := range a {
		out = append(out, Sample{Value: v, Group: "a"})
	}
	for _, v := range b {
		out = append(out, Sample{Value: v, Group: "b"})
	}
	return out
}

func TestPermutationObservedStatistic(t *testing.T) {
	engine := NewPermutationTest(newTestLogger(), 100, 42, 1)
	res, err := engine.Run(samplesFrom([]float64{10, 10, 10}, []float64{0, 0, 0}), "a", "b", Greater)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Observed != 10 {
		t.Errorf("Observed: got %v, want 10", res.Observed)
	}
	if res.SizeA != 3 || res.SizeB != 3 {
		t.Errorf("group sizes: got %d/%d, want 3/3", res.SizeA, res.SizeB)
	}
}

func TestPermutationDisjointBlocksPValue(t *testing.T) {
	// Only a permutation reproducing the original 3-vs-3 split reaches the
	// observed difference, so p should land near 1/C(6,3) = 0.05.
	engine := NewPermutationTest(newTestLogger(), 1000, 42, 1)
	res, err := engine.Run(samplesFrom([]float64{10, 10, 10}, []float64{0, 0, 0}), "a", "b", Greater)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.PValue <= 0 || res.PValue > 0.15 {
		t.Errorf("PValue: got %v, want small but nonzero (≈0.05)", res.PValue)
	}
}

func TestPermutationDeterministicUnderSeed(t *testing.T) {
	samples := samplesFrom([]float64{5, 3, 8, 1, 9, 2}, []float64{4, 4, 7, 0, 6, 3})

	first, err := NewPermutationTest(newTestLogger(), 500, 7, 1).Run(samples, "a", "b", Greater)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := NewPermutationTest(newTestLogger(), 500, 7, 1).Run(samples, "a", "b", Greater)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if first.PValue != second.PValue {
		t.Errorf("same seed produced p=%v then p=%v", first.PValue, second.PValue)
	}
	for i := range first.Null {
		if first.Null[i] != second.Null[i] {
			t.Fatalf("null distributions diverge at replicate %d", i)
		}
	}

	third, err := NewPermutationTest(newTestLogger(), 500, 8, 1).Run(samples, "a", "b", Greater)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	same := true
	for i := range first.Null {
		if first.Null[i] != third.Null[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical null distributions")
	}
}

func TestPermutationInsufficientSample(t *testing.T) {
	engine := NewPermutationTest(newTestLogger(), 100, 1, 30)
	_, err := engine.Run(samplesFrom([]float64{1, 2}, []float64{3, 4}), "a", "b", Greater)
	if !errors.Is(err, ErrInsufficientSample) {
		t.Errorf("expected ErrInsufficientSample, got %v", err)
	}
}

func TestPermutationIgnoresOtherGroups(t *testing.T) {
	samples := samplesFrom([]float64{10, 10, 10}, []float64{0, 0, 0})
	samples = append(samples, Sample{Value: 1000, Group: "c"})

	engine := NewPermutationTest(newTestLogger(), 100, 42, 1)
	res, err := engine.Run(samples, "a", "b", Greater)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.SizeA+res.SizeB != 6 {
		t.Errorf("filtered size: got %d, want 6", res.SizeA+res.SizeB)
	}
	if res.Observed != 10 {
		t.Errorf("Observed: got %v, want 10", res.Observed)
	}
}

func TestPermutationTwoSidedUsesAbsoluteValues(t *testing.T) {
	// Reversed groups: observed is -10, so the one-sided "greater" p is
	// near 1 while the two-sided p stays small.
	samples := samplesFrom([]float64{0, 0, 0}, []float64{10, 10, 10})

	oneSided, err := NewPermutationTest(newTestLogger(), 1000, 42, 1).Run(samples, "a", "b", Greater)
	if err != nil {
		t.Fatalf("one-sided Run: %v", err)
	}
	twoSided, err := NewPermutationTest(newTestLogger(), 1000, 42, 1).Run(samples, "a", "b", TwoSided)
	if err != nil {
		t.Fatalf("two-sided Run: %v", err)
	}

	if oneSided.PValue < 0.5 {
		t.Errorf("one-sided p for a reversed effect: got %v, want large", oneSided.PValue)
	}
	if twoSided.PValue <= 0 || twoSided.PValue > 0.25 {
		t.Errorf("two-sided p: got %v, want small but nonzero", twoSided.PValue)
	}
	if math.Abs(twoSided.Observed) != 10 {
		t.Errorf("two-sided observed: got %v, want ±10", twoSided.Observed)
	}
}
