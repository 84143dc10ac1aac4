package oddsmath

import (
	"fmt"
	"math"
)

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 || (american > -100 && american < 100) {
		return 0, fmt.Errorf("invalid American odds %d: magnitude must be at least 100", american)
	}

	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}

	return (100.0 / float64(-american)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -149
func DecimalToAmerican(decimal float64) (int, error) {
	if !isFinite(decimal) || decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %v: must be > 1.0", decimal)
	}

	var american float64
	if decimal >= 2.0 {
		american = math.Round((decimal - 1.0) * 100.0)
	} else {
		american = math.Round(-100.0 / (decimal - 1.0))
	}

	if math.Abs(american) > math.MaxInt32 {
		return 0, fmt.Errorf("decimal odds %v out of range for American odds", decimal)
	}
	return int(american), nil
}

// FractionalToDecimal converts fractional odds to decimal odds
// 5/2 → 3.50
// 1/4 → 1.25
func FractionalToDecimal(numerator, denominator int) (float64, error) {
	if numerator <= 0 || denominator <= 0 {
		return 0, fmt.Errorf("invalid fractional odds %d/%d: both parts must be positive", numerator, denominator)
	}

	return float64(numerator)/float64(denominator) + 1.0, nil
}

// ImpliedProbability converts decimal odds to the break-even probability
// Decimal 2.00 → 0.50
// Decimal 1.50 → 0.667
func ImpliedProbability(decimal float64) (float64, error) {
	if !isFinite(decimal) || decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %v: must be > 1.0", decimal)
	}

	return 1.0 / decimal, nil
}

// ProbabilityToDecimal converts a probability to fair decimal odds
func ProbabilityToDecimal(probability float64) (float64, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("invalid probability %v: must be between 0 and 1", probability)
	}

	return 1.0 / probability, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
