package models

import (
	"encoding/json"
	"time"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// LegQuote is a leg as submitted by a client. Exactly one of DecimalOdds
// and AmericanOdds is expected.
type LegQuote struct {
	BookmakerName string   `json:"bookmakerName"`
	DecimalOdds   *float64 `json:"decimalOdds,omitempty"`
	AmericanOdds  *int     `json:"americanOdds,omitempty"`
	OutcomeName   string   `json:"outcomeName,omitempty"`
}

// ArbitrageRequest is the body of POST /calculate/arbitrage
type ArbitrageRequest struct {
	TotalStake float64    `json:"totalStake"`
	Legs       []LegQuote `json:"legs"`
	EventName  string     `json:"eventName,omitempty"`
	Sport      string     `json:"sport,omitempty"`
}

// ArbitrageResponse is the calculator result plus display fields
type ArbitrageResponse struct {
	ID string `json:"id,omitempty"`
	calculator.CalculationResult
	TotalImpliedProbability float64                    `json:"totalImpliedProbability"`
	RiskTier                calculator.RiskTier        `json:"riskTier"`
	Presented               calculator.PresentedResult `json:"presented"`
}

// KellyRequest is the body of POST /calculate/kelly
type KellyRequest struct {
	DecimalOdds           float64  `json:"decimalOdds"`
	ExpectedValuePercent  float64  `json:"expectedValuePercent"`
	Bankroll              float64  `json:"bankroll"`
	MaxFractionOfBankroll *float64 `json:"maxFractionOfBankroll,omitempty"`
	BookmakerName         string   `json:"bookmakerName,omitempty"`
	EventName             string   `json:"eventName,omitempty"`
	Sport                 string   `json:"sport,omitempty"`
}

// KellyResponse carries the capped stake and how it was derived
type KellyResponse struct {
	ID             string                         `json:"id,omitempty"`
	Stake          float64                        `json:"stake"`
	Recommendation calculator.KellyRecommendation `json:"recommendation"`
}

// EVRequest is the body of POST /calculate/ev
type EVRequest struct {
	DecimalOdds     float64 `json:"decimalOdds"`
	TrueProbability float64 `json:"trueProbability"`
}

// EVResponse reports the edge of a price against an estimated probability
type EVResponse struct {
	ExpectedValuePercent float64             `json:"expectedValuePercent"`
	ImpliedProbability   float64             `json:"impliedProbability"`
	RiskTier             calculator.RiskTier `json:"riskTier"`
	RiskLabel            string              `json:"riskLabel"`
}

// RiskTierResponse is the body of GET /risk-tier
type RiskTierResponse struct {
	Percent    float64             `json:"percent"`
	Tier       calculator.RiskTier `json:"tier"`
	Label      string              `json:"label"`
	Actionable bool                `json:"actionable"`
}

// OddsConversion is one price in every supported format
type OddsConversion struct {
	DecimalOdds        float64 `json:"decimalOdds"`
	AmericanOdds       int     `json:"americanOdds"`
	ImpliedProbability float64 `json:"impliedProbability"`
}

// MarketRequest is the body of POST /odds/market: one price per outcome
type MarketRequest struct {
	DecimalOdds []float64 `json:"decimalOdds"`
}

// MarketResponse reports a market's margin and its no-vig prices
type MarketResponse struct {
	OverroundPercent  float64   `json:"overroundPercent"`
	IsArbitrage       bool      `json:"isArbitrage"`
	FairProbabilities []float64 `json:"fairProbabilities"`
	FairDecimalOdds   []float64 `json:"fairDecimalOdds"`
}

// Calculation kinds
const (
	CalculationArbitrage = "arbitrage"
	CalculationKelly     = "kelly"
)

// Calculation is a persisted calculator run
type Calculation struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	Input     json.RawMessage     `json:"input"`
	Result    json.RawMessage     `json:"result"`
	RiskTier  calculator.RiskTier `json:"riskTier"`
	CreatedAt time.Time           `json:"createdAt"`
}
