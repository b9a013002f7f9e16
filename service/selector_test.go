package service

import (
	"math/rand"
	"testing"
)

func TestSelectorCoversAllSixOperators(t *testing.T) {
	selector := NewOperatorSelector(NewPerturbationSet(testTamperConfig()))
	if selector.Count() != 6 {
		t.Fatalf("expected 6 operators, got %d", selector.Count())
	}
}

func TestSelectorUniformity(t *testing.T) {
	selector := NewOperatorSelector(NewPerturbationSet(testTamperConfig()))
	rng := rand.New(rand.NewSource(99))

	const draws = 6000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		counts[selector.Pick(rng).Name]++
	}

	if len(counts) != 6 {
		t.Fatalf("expected all 6 operators to be drawn, got %d", len(counts))
	}

	// 期望频次 1000，容忍 ±20%（约 ±7 个标准差）
	for name, n := range counts {
		if n < 800 || n > 1200 {
			t.Errorf("operator %s drawn %d times, outside [800,1200]", name, n)
		}
	}
}
