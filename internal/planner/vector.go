package planner

import (
	"math"

	"github.com/mealforge/mealforge/internal/storage"
)

// Vector holds the four tracked macros. Values are kcal for calories and
// grams for the rest. Every vector that leaves this package is rounded to
// 2 decimals so downstream comparisons don't suffer floating-point drift.
type Vector struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		Calories: v.Calories + o.Calories,
		ProteinG: v.ProteinG + o.ProteinG,
		CarbsG:   v.CarbsG + o.CarbsG,
		FatG:     v.FatG + o.FatG,
	}
}

// Scale returns v multiplied by factor.
func (v Vector) Scale(factor float64) Vector {
	return Vector{
		Calories: v.Calories * factor,
		ProteinG: v.ProteinG * factor,
		CarbsG:   v.CarbsG * factor,
		FatG:     v.FatG * factor,
	}
}

// Round returns v with every macro rounded to 2 decimals.
func (v Vector) Round() Vector {
	return Vector{
		Calories: round2(v.Calories),
		ProteinG: round2(v.ProteinG),
		CarbsG:   round2(v.CarbsG),
		FatG:     round2(v.FatG),
	}
}

// IsZero reports whether every macro is zero.
func (v Vector) IsZero() bool {
	return v.Calories == 0 && v.ProteinG == 0 && v.CarbsG == 0 && v.FatG == 0
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ItemVector extracts the per-portion macro profile of a catalog item.
func ItemVector(item storage.CatalogItem) Vector {
	return Vector{
		Calories: item.Calories,
		ProteinG: item.ProteinG,
		CarbsG:   item.CarbsG,
		FatG:     item.FatG,
	}
}

// SlotDemand scales the total daily requirement by the slot's fractional
// shares. Negative results are floored at zero.
func SlotDemand(total Vector, cfg storage.SlotConfig) Vector {
	return Vector{
		Calories: math.Max(0, total.Calories*cfg.CaloriesShare),
		ProteinG: math.Max(0, total.ProteinG*cfg.ProteinShare),
		CarbsG:   math.Max(0, total.CarbsG*cfg.CarbsShare),
		FatG:     math.Max(0, total.FatG*cfg.FatShare),
	}.Round()
}
