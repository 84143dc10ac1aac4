// Package notifier delivers opportunity alerts to external chat channels.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/calculator"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// Notifier sends an opportunity to one channel
type Notifier interface {
	Name() string
	Send(ctx context.Context, opp models.Opportunity) error
}

// Title is the one-line headline of an opportunity alert
func Title(opp models.Opportunity) string {
	kind := "Value bet"
	if opp.Kind == models.OpportunityArbitrage {
		kind = "Arbitrage"
	}
	event := opp.EventName
	if event == "" {
		event = "unnamed event"
	}
	return fmt.Sprintf("%s %.2f%% on %s", kind, opp.MarginPercent, event)
}

// Body is the plain text description of the legs, one per line
func Body(opp models.Opportunity) string {
	var sb strings.Builder
	sb.WriteString(opp.RiskTier.Label())
	for i, leg := range opp.Legs {
		sb.WriteString(fmt.Sprintf("\nLeg %d: %s @ %.2f", i+1, leg.BookmakerName, leg.DecimalOdds))
		if i < len(opp.Stakes) && opp.Stakes[i] > 0 {
			sb.WriteString(fmt.Sprintf(" stake %s", calculator.RoundCurrency(opp.Stakes[i]).StringFixed(calculator.CurrencyPlaces)))
		}
	}
	return sb.String()
}

func tierEmoji(tier calculator.RiskTier) string {
	switch tier {
	case calculator.RiskLow:
		return "🟢"
	case calculator.RiskMedium:
		return "🟡"
	case calculator.RiskHigh:
		return "🔴"
	default:
		return "⚪"
	}
}
