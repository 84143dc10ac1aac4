package calculator

// RiskTier is a presentation bucket for an EV or profit-margin percentage
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskNegative RiskTier = "negative"
)

// ClassifyRisk maps a percentage to its tier. Thresholds are strict lower
// bounds: exactly 10% is medium, exactly 0% is negative. NaN is negative.
func ClassifyRisk(percent float64) RiskTier {
	switch {
	case percent > 10:
		return RiskLow
	case percent > 5:
		return RiskMedium
	case percent > 0:
		return RiskHigh
	default:
		return RiskNegative
	}
}

// Label returns the badge text shown next to an opportunity
func (t RiskTier) Label() string {
	switch t {
	case RiskLow:
		return "Low Risk"
	case RiskMedium:
		return "Medium Risk"
	case RiskHigh:
		return "High Risk"
	default:
		return "Negative EV"
	}
}

// Actionable reports whether the tier is worth betting
func (t RiskTier) Actionable() bool {
	return t == RiskLow || t == RiskMedium || t == RiskHigh
}
