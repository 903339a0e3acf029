package planner

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

// maxQuantityRows bounds the quantity proposal table to keep payloads small.
const maxQuantityRows = 40

// RegenerateSlot recomputes a single slot's candidate set from the current
// requirement and slot config. It intentionally does not consult any weekly
// frequency state: that state is scoped to one assembly run and does not
// survive it, so a regenerated slot may re-pick items the original run had
// capped out. The bool is false when the slot has nothing to offer (empty
// catalog or degenerate demand).
func (a *Assembler) RegenerateSlot(requirement Vector, cfg storage.SlotConfig, items []storage.CatalogItem, preferred map[uuid.UUID]bool) (SlotPlan, bool) {
	opts := a.gen.Options()
	demand := SlotDemand(requirement, cfg)
	if demand.Calories < opts.MinSlotCalories {
		return SlotPlan{}, false
	}
	combos := a.gen.Candidates(items, demand, preferred)
	if len(combos) == 0 {
		return SlotPlan{}, false
	}
	return SlotPlan{
		SlotConfigID: cfg.ID,
		Name:         cfg.Name,
		SlotType:     cfg.SlotType,
		OrderIndex:   cfg.OrderIndex,
		Demand:       demand,
		Chosen:       combos[0],
		Alternatives: combos,
	}, true
}

// QuantityOption is one row of a quantity proposal table.
type QuantityOption struct {
	Quantity float64 `json:"quantity"`
	Totals   Vector  `json:"totals"`
	Cost     float64 `json:"cost"`
	Feasible bool    `json:"feasible"`
}

// QuantityProposal is the result of validating a manually added item
// against a slot's remaining demand.
type QuantityProposal struct {
	MinQuantity float64          `json:"min_quantity"`
	MaxQuantity float64          `json:"max_quantity"`
	Step        float64          `json:"step"`
	Remaining   Vector           `json:"remaining_demand"`
	Options     []QuantityOption `json:"table"`
	Best        QuantityOption   `json:"best"`
	Message     string           `json:"message,omitempty"`
}

// ProposeQuantity derives the discrete quantity choices for adding candidate
// (a per-portion profile) to a slot whose chosen combo currently sums to
// current, against the slot's demand. The path is fully deterministic: the
// same slot state and candidate always produce the same table. When no
// positive quantity improves any macro still in deficit, a minimal-quantity
// result with an explanatory message is returned instead of an error.
func ProposeQuantity(current, demand, candidate Vector, opts Options) QuantityProposal {
	remaining := Vector{
		Calories: math.Max(0, demand.Calories-current.Calories),
		ProteinG: math.Max(0, demand.ProteinG-current.ProteinG),
		CarbsG:   math.Max(0, demand.CarbsG-current.CarbsG),
		FatG:     math.Max(0, demand.FatG-current.FatG),
	}.Round()

	rowFor := func(q float64) QuantityOption {
		totals := current.Add(candidate.Scale(q)).Round()
		return QuantityOption{
			Quantity: q,
			Totals:   totals,
			Cost:     round2(Cost(totals, demand)),
			Feasible: IsFeasible(totals, demand, opts.TolerancePct),
		}
	}

	if !contributes(candidate, remaining) {
		minimal := rowFor(opts.Step)
		return QuantityProposal{
			MinQuantity: opts.Step,
			MaxQuantity: opts.Step,
			Step:        opts.Step,
			Remaining:   remaining,
			Options:     []QuantityOption{minimal},
			Best:        minimal,
			Message:     "no remaining demand this item can improve; minimal portion suggested",
		}
	}

	choices := Choices(candidate, remaining, opts.Step, opts.MaxPortionFactor)
	if len(choices) > maxQuantityRows {
		choices = choices[:maxQuantityRows]
	}

	options := make([]QuantityOption, len(choices))
	for i, q := range choices {
		options[i] = rowFor(q)
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Feasible != options[j].Feasible {
			return options[i].Feasible
		}
		return options[i].Cost < options[j].Cost
	})

	return QuantityProposal{
		MinQuantity: choices[0],
		MaxQuantity: choices[len(choices)-1],
		Step:        opts.Step,
		Remaining:   remaining,
		Options:     options,
		Best:        options[0],
	}
}

// contributes reports whether the candidate adds anything to a macro that
// still has remaining demand.
func contributes(candidate, remaining Vector) bool {
	return (candidate.Calories > 0 && remaining.Calories > 0) ||
		(candidate.ProteinG > 0 && remaining.ProteinG > 0) ||
		(candidate.CarbsG > 0 && remaining.CarbsG > 0) ||
		(candidate.FatG > 0 && remaining.FatG > 0)
}
