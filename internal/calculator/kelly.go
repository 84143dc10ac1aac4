package calculator

import (
	"fmt"
	"math"
)

// DefaultMaxBankrollFraction caps a Kelly stake at 10% of bankroll
const DefaultMaxBankrollFraction = 0.1

// ComputeKellyStake sizes a single +EV bet with the Kelly criterion, capped at
// maxFractionOfBankroll of the bankroll. A zero maxFractionOfBankroll selects
// DefaultMaxBankrollFraction; a negative one allows no stake.
//
// The win probability is reconstructed as ev/100 + 1/odds: the stated EV is
// taken to already encode the deviation from the bookmaker's break-even
// probability. Degenerate input produces a zero stake.
func ComputeKellyStake(decimalOdds, expectedValuePercent, bankroll, maxFractionOfBankroll float64) float64 {
	if !isFinite(decimalOdds) || !isFinite(expectedValuePercent) || !isFinite(bankroll) || !isFinite(maxFractionOfBankroll) {
		return 0
	}
	if decimalOdds <= 1.0 || bankroll <= 0 {
		return 0
	}

	// No edge, no bet
	if expectedValuePercent <= 0 {
		return 0
	}

	if maxFractionOfBankroll == 0 {
		maxFractionOfBankroll = DefaultMaxBankrollFraction
	}

	fraction := KellyFraction(decimalOdds, EstimatedProbability(decimalOdds, expectedValuePercent))

	stake := math.Min(fraction*bankroll, bankroll*maxFractionOfBankroll)
	return math.Max(0, stake)
}

// ValidateKelly reports Kelly input that cannot be sized, wrapped in
// ErrInvalidInput. It also rejects input whose recommendation figures would
// overflow.
func ValidateKelly(decimalOdds, expectedValuePercent, bankroll, maxFractionOfBankroll float64) error {
	if !isFinite(decimalOdds) || !isFinite(expectedValuePercent) || !isFinite(bankroll) || !isFinite(maxFractionOfBankroll) {
		return fmt.Errorf("%w: kelly inputs must be finite numbers", ErrInvalidInput)
	}
	if decimalOdds <= 1.0 {
		return fmt.Errorf("%w: decimal odds must be greater than 1.0, got %v", ErrInvalidInput, decimalOdds)
	}
	if bankroll <= 0 {
		return fmt.Errorf("%w: bankroll must be positive, got %v", ErrInvalidInput, bankroll)
	}
	if maxFractionOfBankroll < 0 || maxFractionOfBankroll > 1 {
		return fmt.Errorf("%w: maxFractionOfBankroll must be in [0, 1], got %v", ErrInvalidInput, maxFractionOfBankroll)
	}

	if !SizeEdgeBet(decimalOdds, expectedValuePercent, bankroll, maxFractionOfBankroll).finite() {
		return fmt.Errorf("%w: bankroll or expected value is too large", ErrInvalidInput)
	}
	return nil
}

func (r KellyRecommendation) finite() bool {
	for _, v := range []float64{r.Stake, r.FullKellyFraction, r.FullKellyStake, r.MaxStake, r.ImpliedProbability, r.EstimatedProbability} {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// EstimatedProbability derives the believed win probability from the
// bookmaker's break-even probability and a stated EV percentage
func EstimatedProbability(decimalOdds, expectedValuePercent float64) float64 {
	return expectedValuePercent/100.0 + 1.0/decimalOdds
}

// KellyFraction returns the full Kelly bankroll fraction (b*p - q) / b
// expressed in decimal odds
func KellyFraction(decimalOdds, probability float64) float64 {
	return (probability*decimalOdds - 1.0) / (decimalOdds - 1.0)
}

// KellyRecommendation explains a capped Kelly stake
type KellyRecommendation struct {
	Stake                float64  `json:"stake"`
	FullKellyFraction    float64  `json:"fullKellyFraction"`
	FullKellyStake       float64  `json:"fullKellyStake"`
	MaxStake             float64  `json:"maxStake"`
	Capped               bool     `json:"capped"`
	ImpliedProbability   float64  `json:"impliedProbability"`
	EstimatedProbability float64  `json:"estimatedProbability"`
	RiskTier             RiskTier `json:"riskTier"`
	Warnings             []string `json:"warnings"`
}

// SizeEdgeBet wraps ComputeKellyStake with the figures a bettor needs to
// judge the recommendation. Input must already be validated.
func SizeEdgeBet(decimalOdds, expectedValuePercent, bankroll, maxFractionOfBankroll float64) KellyRecommendation {
	if maxFractionOfBankroll == 0 {
		maxFractionOfBankroll = DefaultMaxBankrollFraction
	}

	stake := ComputeKellyStake(decimalOdds, expectedValuePercent, bankroll, maxFractionOfBankroll)

	impliedProb := 1.0 / decimalOdds
	estimatedProb := EstimatedProbability(decimalOdds, expectedValuePercent)
	fullKelly := KellyFraction(decimalOdds, estimatedProb)
	maxStake := math.Max(0, bankroll*maxFractionOfBankroll)

	rec := KellyRecommendation{
		Stake:                stake,
		FullKellyFraction:    fullKelly,
		FullKellyStake:       math.Max(0, fullKelly*bankroll),
		MaxStake:             maxStake,
		Capped:               expectedValuePercent > 0 && fullKelly*bankroll > maxStake,
		ImpliedProbability:   impliedProb,
		EstimatedProbability: estimatedProb,
		RiskTier:             ClassifyRisk(expectedValuePercent),
		Warnings:             []string{},
	}

	if expectedValuePercent <= 0 {
		rec.Warnings = append(rec.Warnings, "No positive edge - no stake recommended")
		return rec
	}

	if expectedValuePercent < 2.0 {
		rec.Warnings = append(rec.Warnings, "Edge is below 2% - consider passing")
	}
	if rec.Capped {
		rec.Warnings = append(rec.Warnings, "Full Kelly exceeds bankroll cap - stake limited")
	}
	if stake > bankroll*0.05 {
		rec.Warnings = append(rec.Warnings, "Recommended bet is >5% of bankroll - high variance")
	}
	if estimatedProb >= 1.0 {
		rec.Warnings = append(rec.Warnings, "Estimated probability is not below 1 - check the EV figure")
	}

	return rec
}
