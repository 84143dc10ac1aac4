package calculator

// ComputeArbitrage determines whether the legs form an arbitrage and, if so,
// splits TotalStake so every outcome returns the same profit.
//
// Invalid input yields a zeroed non-arbitrage result rather than an error;
// callers that need to reject malformed input use CalculationInput.Validate.
func ComputeArbitrage(input CalculationInput) CalculationResult {
	if input.Validate() != nil {
		return zeroResult(len(input.Legs))
	}
	return splitStakes(input)
}

// splitStakes sizes each leg so every outcome pays the same amount. Input is
// assumed to have passed the basic leg and stake checks.
func splitStakes(input CalculationInput) CalculationResult {
	implied := ImpliedProbabilities(input.Legs)

	// Inverse sum below 1.0 means the book is overround in our favour
	inverseSum := 0.0
	for _, p := range implied {
		inverseSum += p
	}

	// Equality is treated as no edge
	if inverseSum >= 1.0 {
		return zeroResult(len(input.Legs))
	}

	stakes := make([]float64, len(input.Legs))
	profits := make([]float64, len(input.Legs))
	profitSum := 0.0

	for i, leg := range input.Legs {
		stakes[i] = input.TotalStake * implied[i] / inverseSum
		profits[i] = stakes[i]*leg.DecimalOdds - input.TotalStake
		profitSum += profits[i]
	}

	// Profits are algebraically equal; averaging absorbs floating noise
	totalProfit := profitSum / float64(len(profits))

	return CalculationResult{
		IsArbitrage:         true,
		PerLegStake:         stakes,
		PerLegProfit:        profits,
		ProfitMarginPercent: totalProfit / input.TotalStake * 100.0,
		TotalProfit:         totalProfit,
	}
}

// ImpliedProbabilities returns 1/odds for each leg
func ImpliedProbabilities(legs []OddsQuote) []float64 {
	implied := make([]float64, len(legs))
	for i, leg := range legs {
		implied[i] = 1.0 / leg.DecimalOdds
	}
	return implied
}

// TotalImpliedProbability returns the sum of implied probabilities across legs
func TotalImpliedProbability(legs []OddsQuote) float64 {
	total := 0.0
	for _, p := range ImpliedProbabilities(legs) {
		total += p
	}
	return total
}
