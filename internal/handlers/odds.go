package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/oddsmath"
)

// ConvertOdds converts one price into every supported format
// GET /api/v1/odds/convert?decimal=2.5 | american=150 | fractional=3/2
func (h *Handler) ConvertOdds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	set := 0
	for _, name := range []string{"decimal", "american", "fractional"} {
		if q.Get(name) != "" {
			set++
		}
	}
	if set != 1 {
		h.respondError(w, r, http.StatusBadRequest, "exactly one of decimal, american or fractional is required", nil)
		return
	}

	decimal, err := parseOddsQuery(q.Get("decimal"), q.Get("american"), q.Get("fractional"))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	american, err := oddsmath.DecimalToAmerican(decimal)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	implied, err := oddsmath.ImpliedProbability(decimal)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	respondJSON(w, http.StatusOK, models.OddsConversion{
		DecimalOdds:        decimal,
		AmericanOdds:       american,
		ImpliedProbability: implied,
	})
}

// AnalyzeMarket reports the bookmaker margin and no-vig probabilities of a
// complete market
// POST /api/v1/odds/market
func (h *Handler) AnalyzeMarket(w http.ResponseWriter, r *http.Request) {
	var req models.MarketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	overround, err := oddsmath.Overround(req.DecimalOdds)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	fair, err := oddsmath.RemoveVig(req.DecimalOdds)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	fairOdds := make([]float64, len(fair))
	for i, p := range fair {
		if fairOdds[i], err = oddsmath.ProbabilityToDecimal(p); err != nil {
			h.respondError(w, r, http.StatusBadRequest, err.Error(), err)
			return
		}
	}

	respondJSON(w, http.StatusOK, models.MarketResponse{
		OverroundPercent:  overround * 100,
		IsArbitrage:       overround < 0,
		FairProbabilities: fair,
		FairDecimalOdds:   fairOdds,
	})
}

func parseOddsQuery(decimal, american, fractional string) (float64, error) {
	switch {
	case decimal != "":
		d, err := strconv.ParseFloat(decimal, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: decimal must be a number", calculator.ErrInvalidInput)
		}
		return d, nil

	case american != "":
		a, err := strconv.Atoi(american)
		if err != nil {
			return 0, fmt.Errorf("%w: american must be an integer", calculator.ErrInvalidInput)
		}
		return oddsmath.AmericanToDecimal(a)

	default:
		num, den, ok := strings.Cut(fractional, "/")
		if !ok {
			return 0, fmt.Errorf("%w: fractional must look like 5/2", calculator.ErrInvalidInput)
		}
		n, errN := strconv.Atoi(num)
		d, errD := strconv.Atoi(den)
		if errN != nil || errD != nil {
			return 0, fmt.Errorf("%w: fractional must look like 5/2", calculator.ErrInvalidInput)
		}
		return oddsmath.FractionalToDecimal(n, d)
	}
}
