package alerts

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

// ShouldAlert checks an opportunity against a user's thresholds. The reason
// is empty when the opportunity passes.
func ShouldAlert(settings models.NotificationSettings, opp models.Opportunity) (bool, string) {
	if !settings.Enabled {
		return false, "notifications disabled"
	}

	if !opp.RiskTier.Actionable() {
		return false, fmt.Sprintf("risk tier %s is not actionable", opp.RiskTier)
	}

	threshold := settings.MinEVPercent
	if opp.Kind == models.OpportunityArbitrage {
		threshold = settings.MinMarginPercent
	}
	if opp.MarginPercent < threshold {
		return false, fmt.Sprintf("%s %.2f%% below threshold %.2f%%", opp.Kind, opp.MarginPercent, threshold)
	}

	return true, ""
}
