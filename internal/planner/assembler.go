package planner

import (
	"sort"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

// DaysPerWeek is the fixed length of an assembled week.
const DaysPerWeek = 7

// FrequencyMap counts, per item id, how many chosen slots of the current
// assembly run include the item. It lives only for the duration of one run
// and is threaded explicitly through selection, never process-wide state.
type FrequencyMap map[uuid.UUID]int

// Observe increments the count of every distinct item in a chosen combo.
func (f FrequencyMap) Observe(c Combo) {
	seen := make(map[uuid.UUID]bool, len(c.Items))
	for _, item := range c.Items {
		if !seen[item.ItemID] {
			f[item.ItemID]++
			seen[item.ItemID] = true
		}
	}
}

// UnderCap reports whether every item of the combo is still below the
// weekly frequency cap.
func (f FrequencyMap) UnderCap(c Combo, cap int) bool {
	for _, item := range c.Items {
		if f[item.ItemID] >= cap {
			return false
		}
	}
	return true
}

// SlotPlan is the assembled result for one slot of one day.
type SlotPlan struct {
	SlotConfigID uuid.UUID
	Name         string
	SlotType     string
	OrderIndex   int
	Demand       Vector
	Chosen       Combo
	Alternatives []Combo // full ranked list from generation, frozen
}

// DayAssembly is one weekday with its slots and rolled-up totals.
type DayAssembly struct {
	DayIndex int
	Slots    []SlotPlan
	Totals   Vector
}

// Assembler drives the combo generator across the week.
type Assembler struct {
	gen *Generator
}

// NewAssembler creates an assembler around a generator.
func NewAssembler(gen *Generator) *Assembler {
	return &Assembler{gen: gen}
}

// AssembleWeek builds 7 days from the ordered slot configs. Selection is
// sequential in day order × slot order: the frequency state produced by
// earlier slots constrains every later choice. catalog maps slot type to the
// slot-tagged item set; preferred marks item ids from the preference history.
// Slots with a degenerate demand or an empty candidate list are simply
// absent from their day.
func (a *Assembler) AssembleWeek(requirement Vector, configs []storage.SlotConfig, catalog map[string][]storage.CatalogItem, preferred map[uuid.UUID]bool) []DayAssembly {
	ordered := make([]storage.SlotConfig, len(configs))
	copy(ordered, configs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	opts := a.gen.Options()
	freq := make(FrequencyMap)

	days := make([]DayAssembly, 0, DaysPerWeek)
	for dayIndex := 0; dayIndex < DaysPerWeek; dayIndex++ {
		day := DayAssembly{DayIndex: dayIndex}
		for _, cfg := range ordered {
			demand := SlotDemand(requirement, cfg)
			if demand.Calories < opts.MinSlotCalories {
				continue
			}
			combos := a.gen.Candidates(catalog[cfg.SlotType], demand, preferred)
			if len(combos) == 0 {
				continue
			}
			chosen := selectWithCap(combos, freq, opts.FrequencyCap)
			freq.Observe(chosen)

			day.Slots = append(day.Slots, SlotPlan{
				SlotConfigID: cfg.ID,
				Name:         cfg.Name,
				SlotType:     cfg.SlotType,
				OrderIndex:   cfg.OrderIndex,
				Demand:       demand,
				Chosen:       chosen,
				Alternatives: combos,
			})
			day.Totals = day.Totals.Add(chosen.Totals)
		}
		day.Totals = day.Totals.Round()
		days = append(days, day)
	}
	return days
}

// selectWithCap picks the first ranked combo whose items are all under the
// frequency cap. When every candidate is over-used the lowest-cost combo
// wins regardless of cap. The cap trades optimality for variety, it never
// empties a slot.
func selectWithCap(combos []Combo, freq FrequencyMap, cap int) Combo {
	for _, c := range combos {
		if freq.UnderCap(c, cap) {
			return c
		}
	}
	return combos[0]
}
