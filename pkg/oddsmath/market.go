package oddsmath

import "fmt"

// Overround returns the bookmaker margin of a market as a fraction:
// sum of implied probabilities minus one. Negative values mean the
// market can be arbitraged.
//
// Example:
// 1.91 / 1.91 → 0.0471 (4.71% vig)
// 2.10 / 2.05 → -0.0360
func Overround(decimals []float64) (float64, error) {
	if len(decimals) < 2 {
		return 0, fmt.Errorf("need at least 2 outcomes, got %d", len(decimals))
	}

	total := 0.0
	for _, d := range decimals {
		p, err := ImpliedProbability(d)
		if err != nil {
			return 0, err
		}
		total += p
	}

	return total - 1.0, nil
}

// RemoveVig normalises implied probabilities so they sum to 1.0
// (multiplicative method)
//
// Example:
// 1.91 / 1.91 (52.36% each) → 50% / 50%
func RemoveVig(decimals []float64) ([]float64, error) {
	if len(decimals) < 2 {
		return nil, fmt.Errorf("need at least 2 outcomes, got %d", len(decimals))
	}

	implied := make([]float64, len(decimals))
	total := 0.0
	for i, d := range decimals {
		p, err := ImpliedProbability(d)
		if err != nil {
			return nil, err
		}
		implied[i] = p
		total += p
	}

	fair := make([]float64, len(implied))
	for i, p := range implied {
		fair[i] = p / total
	}

	return fair, nil
}

// ExpectedValuePercent returns the EV of a unit stake as a percentage
// given an estimated true win probability
// EV% = (p × decimal − 1) × 100
//
// Example:
// p = 0.50 at 2.10 → +5%
func ExpectedValuePercent(trueProbability, decimal float64) (float64, error) {
	if !isFinite(trueProbability) || trueProbability <= 0 || trueProbability >= 1 {
		return 0, fmt.Errorf("true probability must be between 0 and 1, got %v", trueProbability)
	}
	if !isFinite(decimal) || decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %v: must be > 1.0", decimal)
	}

	ev := (trueProbability*decimal - 1.0) * 100.0
	if !isFinite(ev) {
		return 0, fmt.Errorf("expected value overflows for decimal odds %v", decimal)
	}
	return ev, nil
}
