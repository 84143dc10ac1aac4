package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/oddsmath"
)

// CalculateArbitrage splits a stake across the legs of one event
// POST /api/v1/calculate/arbitrage
func (h *Handler) CalculateArbitrage(w http.ResponseWriter, r *http.Request) {
	var req models.ArbitrageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	legs, err := toOddsQuotes(req.Legs)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	input := calculator.CalculationInput{TotalStake: req.TotalStake, Legs: legs}
	if err := input.Validate(); err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	result := calculator.ComputeArbitrage(input)
	resp := models.ArbitrageResponse{
		CalculationResult:       result,
		TotalImpliedProbability: calculator.TotalImpliedProbability(legs),
		RiskTier:                calculator.ClassifyRisk(result.ProfitMarginPercent),
		Presented:               calculator.Present(input, result),
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp.ID = h.saveCalculation(ctx, models.CalculationArbitrage, req, resp, resp.RiskTier)

	if result.IsArbitrage && h.alerts != nil {
		h.alerts.Submit(models.Opportunity{
			ID:            opportunityID(resp.ID),
			Kind:          models.OpportunityArbitrage,
			EventName:     req.EventName,
			Sport:         req.Sport,
			MarginPercent: result.ProfitMarginPercent,
			RiskTier:      resp.RiskTier,
			Legs:          legs,
			Stakes:        result.PerLegStake,
			DetectedAt:    time.Now().UTC(),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// CalculateKelly sizes a single positive-EV bet
// POST /api/v1/calculate/kelly
func (h *Handler) CalculateKelly(w http.ResponseWriter, r *http.Request) {
	var req models.KellyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	maxFraction, err := h.validateKelly(req)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	rec := calculator.SizeEdgeBet(req.DecimalOdds, req.ExpectedValuePercent, req.Bankroll, maxFraction)
	resp := models.KellyResponse{Stake: rec.Stake, Recommendation: rec}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp.ID = h.saveCalculation(ctx, models.CalculationKelly, req, resp, rec.RiskTier)

	if rec.Stake > 0 && h.alerts != nil {
		h.alerts.Submit(models.Opportunity{
			ID:            opportunityID(resp.ID),
			Kind:          models.OpportunityValue,
			EventName:     req.EventName,
			Sport:         req.Sport,
			MarginPercent: req.ExpectedValuePercent,
			RiskTier:      rec.RiskTier,
			Legs:          []calculator.OddsQuote{{BookmakerName: req.BookmakerName, DecimalOdds: req.DecimalOdds}},
			Stakes:        []float64{rec.Stake},
			DetectedAt:    time.Now().UTC(),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// CalculateEV returns the edge of a price against an estimated probability
// POST /api/v1/calculate/ev
func (h *Handler) CalculateEV(w http.ResponseWriter, r *http.Request) {
	var req models.EVRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	ev, err := oddsmath.ExpectedValuePercent(req.TrueProbability, req.DecimalOdds)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	implied, err := oddsmath.ImpliedProbability(req.DecimalOdds)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	tier := calculator.ClassifyRisk(ev)
	respondJSON(w, http.StatusOK, models.EVResponse{
		ExpectedValuePercent: ev,
		ImpliedProbability:   implied,
		RiskTier:             tier,
		RiskLabel:            tier.Label(),
	})
}

// GetRiskTier classifies a percentage
// GET /api/v1/risk-tier?percent=x
func (h *Handler) GetRiskTier(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("percent")
	if raw == "" {
		h.respondError(w, r, http.StatusBadRequest, "percent is required", nil)
		return
	}

	percent, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(percent) || math.IsInf(percent, 0) {
		h.respondError(w, r, http.StatusBadRequest, "percent must be a finite number", err)
		return
	}

	tier := calculator.ClassifyRisk(percent)
	respondJSON(w, http.StatusOK, models.RiskTierResponse{
		Percent:    percent,
		Tier:       tier,
		Label:      tier.Label(),
		Actionable: tier.Actionable(),
	})
}

// validateKelly checks a Kelly request and resolves the bankroll cap
func (h *Handler) validateKelly(req models.KellyRequest) (float64, error) {
	maxFraction := h.defaultMaxFraction
	if req.MaxFractionOfBankroll != nil {
		maxFraction = *req.MaxFractionOfBankroll
		if maxFraction <= 0 || maxFraction > 1 {
			return 0, fmt.Errorf("%w: maxFractionOfBankroll must be in (0, 1], got %v", calculator.ErrInvalidInput, maxFraction)
		}
	}

	if err := calculator.ValidateKelly(req.DecimalOdds, req.ExpectedValuePercent, req.Bankroll, maxFraction); err != nil {
		return 0, err
	}
	return maxFraction, nil
}

// toOddsQuotes resolves each leg to decimal odds. Exactly one of
// decimalOdds and americanOdds must be set.
func toOddsQuotes(legs []models.LegQuote) ([]calculator.OddsQuote, error) {
	quotes := make([]calculator.OddsQuote, len(legs))
	for i, leg := range legs {
		switch {
		case leg.DecimalOdds != nil && leg.AmericanOdds != nil:
			return nil, fmt.Errorf("%w: leg %d sets both decimalOdds and americanOdds", calculator.ErrInvalidInput, i+1)
		case leg.DecimalOdds != nil:
			quotes[i] = calculator.OddsQuote{BookmakerName: leg.BookmakerName, DecimalOdds: *leg.DecimalOdds}
		case leg.AmericanOdds != nil:
			decimal, err := oddsmath.AmericanToDecimal(*leg.AmericanOdds)
			if err != nil {
				return nil, fmt.Errorf("%w: leg %d: %v", calculator.ErrInvalidInput, i+1, err)
			}
			quotes[i] = calculator.OddsQuote{BookmakerName: leg.BookmakerName, DecimalOdds: decimal}
		default:
			return nil, fmt.Errorf("%w: leg %d has no odds", calculator.ErrInvalidInput, i+1)
		}
	}
	return quotes, nil
}

// saveCalculation persists a run when a store is configured. Failures are
// logged and the calculation is still returned, without an ID.
func (h *Handler) saveCalculation(ctx context.Context, kind string, input, result interface{}, tier calculator.RiskTier) string {
	if h.store == nil {
		return ""
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		h.logger.WithError(err).WithField("kind", kind).Warn("failed to encode calculation input")
		return ""
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		h.logger.WithError(err).WithField("kind", kind).Warn("failed to encode calculation result")
		return ""
	}

	id, err := h.store.SaveCalculation(ctx, &models.Calculation{
		Kind:     kind,
		Input:    inputJSON,
		Result:   resultJSON,
		RiskTier: tier,
	})
	if err != nil {
		h.logger.WithError(err).WithField("kind", kind).Warn("failed to persist calculation")
		return ""
	}
	return id
}

// opportunityID reuses the calculation ID so alerts link back to history
func opportunityID(calculationID string) string {
	if calculationID != "" {
		return calculationID
	}
	return uuid.New().String()
}
