package calculator

import "github.com/shopspring/decimal"

// Presentation precision for currency amounts and percentages
const (
	CurrencyPlaces = 2
	PercentPlaces  = 2
)

// PresentedLeg is one leg of a result rounded for display
type PresentedLeg struct {
	BookmakerName string          `json:"bookmakerName"`
	DecimalOdds   decimal.Decimal `json:"decimalOdds"`
	Stake         decimal.Decimal `json:"stake"`
	Payout        decimal.Decimal `json:"payout"`
	Profit        decimal.Decimal `json:"profit"`
}

// PresentedResult is a CalculationResult rounded for display
type PresentedResult struct {
	IsArbitrage         bool            `json:"isArbitrage"`
	Legs                []PresentedLeg  `json:"legs"`
	TotalProfit         decimal.Decimal `json:"totalProfit"`
	ProfitMarginPercent decimal.Decimal `json:"profitMarginPercent"`
	RiskTier            RiskTier        `json:"riskTier"`
	RiskLabel           string          `json:"riskLabel"`
}

// Present rounds a result for display. The computation itself never sees
// rounded values.
func Present(input CalculationInput, result CalculationResult) PresentedResult {
	tier := ClassifyRisk(result.ProfitMarginPercent)

	legs := make([]PresentedLeg, len(input.Legs))
	for i, leg := range input.Legs {
		var stake, profit float64
		if i < len(result.PerLegStake) {
			stake = result.PerLegStake[i]
		}
		if i < len(result.PerLegProfit) {
			profit = result.PerLegProfit[i]
		}

		legs[i] = PresentedLeg{
			BookmakerName: leg.BookmakerName,
			DecimalOdds:   toDecimal(leg.DecimalOdds),
			Stake:         RoundCurrency(stake),
			Payout:        RoundCurrency(stake * leg.DecimalOdds),
			Profit:        RoundCurrency(profit),
		}
	}

	return PresentedResult{
		IsArbitrage:         result.IsArbitrage,
		Legs:                legs,
		TotalProfit:         RoundCurrency(result.TotalProfit),
		ProfitMarginPercent: RoundPercent(result.ProfitMarginPercent),
		RiskTier:            tier,
		RiskLabel:           tier.Label(),
	}
}

// RoundCurrency rounds an amount half away from zero to 2 decimal places
func RoundCurrency(v float64) decimal.Decimal {
	return toDecimal(v).Round(CurrencyPlaces)
}

// RoundPercent rounds a percentage half away from zero to 2 decimal places
func RoundPercent(v float64) decimal.Decimal {
	return toDecimal(v).Round(PercentPlaces)
}

// toDecimal converts v, mapping NaN and infinities to zero
func toDecimal(v float64) decimal.Decimal {
	if !isFinite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
