package planner

import "math"

// MaxFactor computes the largest sensible portion factor for an item against
// a remaining demand. For each macro where both the item profile and the
// remaining demand are positive it takes remaining/profile, keeps the
// maximum of those ratios (the macro that would need the most of this item
// to be fully closed), and clamps the result to [step, cap]. If no macro
// yields a usable ratio the step size is returned.
func MaxFactor(profile, remaining Vector, step, cap float64) float64 {
	best := 0.0
	found := false
	for _, pair := range [...][2]float64{
		{profile.Calories, remaining.Calories},
		{profile.ProteinG, remaining.ProteinG},
		{profile.CarbsG, remaining.CarbsG},
		{profile.FatG, remaining.FatG},
	} {
		if pair[0] <= 0 || pair[1] <= 0 {
			continue
		}
		ratio := pair[1] / pair[0]
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			continue
		}
		if !found || ratio > best {
			best = ratio
			found = true
		}
	}
	if !found {
		return step
	}
	if best < step {
		return step
	}
	if best > cap {
		return cap
	}
	return best
}

// Choices enumerates the discrete portion factors step, 2*step, ... up to
// MaxFactor, each rounded to 2 decimals. The result is empty only when the
// step itself exceeds the cap.
func Choices(profile, remaining Vector, step, cap float64) []float64 {
	if step <= 0 || step > cap {
		return nil
	}
	max := MaxFactor(profile, remaining, step, cap)
	choices := make([]float64, 0, int(max/step)+1)
	for f := step; f <= max+1e-9; f += step {
		choices = append(choices, round2(f))
	}
	return choices
}
