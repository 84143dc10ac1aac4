package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput marks malformed calculator input (a caller bug, not a market condition)
var ErrInvalidInput = errors.New("invalid input")

// OddsQuote is one bookmaker's decimal price for one outcome
type OddsQuote struct {
	BookmakerName string  `json:"bookmakerName"`
	DecimalOdds   float64 `json:"decimalOdds"`
}

// CalculationInput is a stake budget split across the mutually exclusive
// outcomes of one event, one quote per outcome
type CalculationInput struct {
	TotalStake float64     `json:"totalStake"`
	Legs       []OddsQuote `json:"legs"`
}

// CalculationResult is the outcome of an arbitrage calculation.
// PerLegStake and PerLegProfit are parallel to CalculationInput.Legs.
type CalculationResult struct {
	IsArbitrage         bool      `json:"isArbitrage"`
	PerLegStake         []float64 `json:"perLegStake"`
	PerLegProfit        []float64 `json:"perLegProfit"`
	ProfitMarginPercent float64   `json:"profitMarginPercent"`
	TotalProfit         float64   `json:"totalProfit"`
}

// Validate reports malformed input wrapped in ErrInvalidInput
func (in CalculationInput) Validate() error {
	if !isFinite(in.TotalStake) {
		return fmt.Errorf("%w: total stake must be a finite number", ErrInvalidInput)
	}
	if in.TotalStake <= 0 {
		return fmt.Errorf("%w: total stake must be positive, got %v", ErrInvalidInput, in.TotalStake)
	}
	if len(in.Legs) < 2 {
		return fmt.Errorf("%w: at least 2 legs required, got %d", ErrInvalidInput, len(in.Legs))
	}

	for i, leg := range in.Legs {
		if !isFinite(leg.DecimalOdds) {
			return fmt.Errorf("%w: leg %d odds must be a finite number", ErrInvalidInput, i+1)
		}
		if leg.DecimalOdds <= 1.0 {
			return fmt.Errorf("%w: leg %d odds must be greater than 1.0, got %v", ErrInvalidInput, i+1, leg.DecimalOdds)
		}
	}

	if !splitStakes(in).finite() {
		return fmt.Errorf("%w: total stake is too large for these odds", ErrInvalidInput)
	}

	return nil
}

// finite reports whether every figure in the result is a finite number
func (r CalculationResult) finite() bool {
	if !isFinite(r.ProfitMarginPercent) || !isFinite(r.TotalProfit) {
		return false
	}
	for i := range r.PerLegStake {
		if !isFinite(r.PerLegStake[i]) || !isFinite(r.PerLegProfit[i]) {
			return false
		}
	}
	return true
}

// zeroResult returns a non-arbitrage result sized to n legs
func zeroResult(n int) CalculationResult {
	return CalculationResult{
		IsArbitrage:  false,
		PerLegStake:  make([]float64, n),
		PerLegProfit: make([]float64, n),
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
