package planner

import "math"

// Macro weights for the deviation cost. Deviations in macro composition are
// penalized far more heavily per unit than deviations in raw calories.
const (
	weightCalories = 1.0
	weightProtein  = 8.0
	weightCarbs    = 6.0
	weightFat      = 6.0
)

// overshootDiscount makes a surplus cheaper than the same-sized deficit.
const overshootDiscount = 0.5

// Cost measures how far totals are from demand. Undershoot is penalized at
// full macro weight, overshoot at half weight. Lower is better; 0 is a
// perfect match.
func Cost(totals, demand Vector) float64 {
	return macroCost(totals.Calories, demand.Calories, weightCalories) +
		macroCost(totals.ProteinG, demand.ProteinG, weightProtein) +
		macroCost(totals.CarbsG, demand.CarbsG, weightCarbs) +
		macroCost(totals.FatG, demand.FatG, weightFat)
}

func macroCost(total, demand, weight float64) float64 {
	delta := total - demand
	return weight * (math.Max(0, -delta) + overshootDiscount*math.Max(0, delta))
}

// IsFeasible reports whether every macro total stays within tolerancePct
// above its demand. Only the upper bound is checked: undershoot never fails
// feasibility, it only raises cost.
func IsFeasible(totals, demand Vector, tolerancePct float64) bool {
	limit := 1 + tolerancePct
	return totals.Calories <= demand.Calories*limit &&
		totals.ProteinG <= demand.ProteinG*limit &&
		totals.CarbsG <= demand.CarbsG*limit &&
		totals.FatG <= demand.FatG*limit
}
