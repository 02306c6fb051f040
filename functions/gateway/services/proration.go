package services

import (
	"math"
	"time"

	"github.com/eventpass/api/functions/gateway/constants"
	"github.com/eventpass/api/functions/gateway/helpers"
	"github.com/eventpass/api/functions/gateway/types"
)

const hoursPerDay = 24

// CalculateProration works out the net cost of switching plans for the rest
// of the current billing period. Positive net means the user owes the
// difference now (upgrade), negative means a credit (downgrade). A zero or
// inverted period means there is nothing to prorate and the change belongs
// to the next cycle.
func CalculateProration(currentPlan, newPlan *types.Plan, periodStart, periodEnd, now time.Time) types.ProrationResult {
	result := types.ProrationResult{
		Kind:             constants.ProrationKind.NoProration,
		NetAmountDisplay: helpers.FormatAmount(0),
	}

	if periodStart.IsZero() || periodEnd.IsZero() || !periodEnd.After(periodStart) {
		return result
	}

	totalDays := int(periodEnd.Sub(periodStart).Hours() / hoursPerDay)
	if totalDays <= 0 {
		return result
	}

	elapsedDays := int(now.Sub(periodStart).Hours() / hoursPerDay)
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	if elapsedDays > totalDays {
		elapsedDays = totalDays
	}
	remainingDays := totalDays - elapsedDays

	currentDaily := float64(currentPlan.PriceCents) / float64(totalDays)
	newDaily := float64(newPlan.PriceCents) / float64(totalDays)
	netAmountCents := int64(math.Round(float64(remainingDays) * (newDaily - currentDaily)))

	result.TotalDays = totalDays
	result.ElapsedDays = elapsedDays
	result.RemainingDays = remainingDays
	result.CurrentDailyRateCents = currentDaily
	result.NewDailyRateCents = newDaily
	result.NetAmountCents = netAmountCents

	switch {
	case remainingDays == 0 || netAmountCents == 0:
		result.Kind = constants.ProrationKind.NoProration
	case netAmountCents > 0:
		result.Kind = constants.ProrationKind.UpgradeCharge
	default:
		result.Kind = constants.ProrationKind.DowngradeCredit
	}

	if netAmountCents < 0 {
		result.NetAmountDisplay = helpers.FormatAmount(-netAmountCents)
	} else {
		result.NetAmountDisplay = helpers.FormatAmount(netAmountCents)
	}

	return result
}
