package planner

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

// Category tags the generator partitions a slot's catalog by.
const (
	TagMain  = "main"
	TagSide  = "side"
	TagDrink = "drink"
)

// Source tells whether a combo item references the shared system catalog or
// a user-owned item.
type Source string

const (
	SourceSystem Source = "system"
	SourceUser   Source = "user"
)

// ComboItem is one item of a combo with its multiplicative portion factor.
type ComboItem struct {
	ItemID   uuid.UUID `json:"item_id"`
	Source   Source    `json:"source"`
	Quantity float64   `json:"quantity"`
}

// Combo is a set of items assembled for one slot. Cost is only meaningful
// against the demand it was scored with and must be recomputed if the
// demand changes.
type Combo struct {
	Items  []ComboItem `json:"items"`
	Totals Vector      `json:"totals"`
	Cost   float64     `json:"cost"`
}

// Options are the generation knobs. Zero values are not valid; start from
// DefaultOptions.
type Options struct {
	Step             float64 // discrete portion factor step
	MaxPortionFactor float64 // global cap on a single item's factor
	TolerancePct     float64 // feasibility tolerance above demand
	PreferPct        float64 // probability of drawing from the preference pool
	SideChance       float64 // probability of including a side
	DrinkChance      float64 // probability of including a drink
	ComboCount       int     // desired number of ranked results
	Attempts         int     // random draws per generation run
	FrequencyCap     int     // max chosen-combo uses per item per week
	MinSlotCalories  float64 // below this demand the slot is skipped
	PreferenceLimit  int     // how many recent item ids feed the bias pool
}

// DefaultOptions returns the baked-in defaults.
func DefaultOptions() Options {
	return Options{
		Step:             0.25,
		MaxPortionFactor: 6,
		TolerancePct:     0.10,
		PreferPct:        0.4,
		SideChance:       0.6,
		DrinkChance:      0.5,
		ComboCount:       16,
		Attempts:         350,
		FrequencyCap:     3,
		MinSlotCalories:  50,
		PreferenceLimit:  50,
	}
}

// Generator builds ranked combo candidates via bounded random search.
// The random source is injected so generation is reproducible under a
// fixed seed.
type Generator struct {
	rng  *rand.Rand
	opts Options
}

// NewGenerator creates a generator with the given random source and options.
func NewGenerator(rng *rand.Rand, opts Options) *Generator {
	return &Generator{rng: rng, opts: opts}
}

// Options returns the generator's options.
func (g *Generator) Options() Options {
	return g.opts
}

// pool splits a category's items into preference-biased and general subsets.
type pool struct {
	preferred []storage.CatalogItem
	general   []storage.CatalogItem
}

func splitPool(items []storage.CatalogItem, preferred map[uuid.UUID]bool) pool {
	var p pool
	for _, item := range items {
		if preferred[item.ID] {
			p.preferred = append(p.preferred, item)
		} else {
			p.general = append(p.general, item)
		}
	}
	return p
}

func (p pool) empty() bool {
	return len(p.preferred) == 0 && len(p.general) == 0
}

// draw picks one item: with probability preferPct from the preferred subset
// when it is non-empty, otherwise from the general subset, falling back to
// whichever subset has items. exclude filters out items already in the combo.
func (g *Generator) draw(p pool, exclude map[uuid.UUID]bool) (storage.CatalogItem, bool) {
	pickFrom := func(items []storage.CatalogItem) (storage.CatalogItem, bool) {
		eligible := items
		if len(exclude) > 0 {
			eligible = nil
			for _, item := range items {
				if !exclude[item.ID] {
					eligible = append(eligible, item)
				}
			}
		}
		if len(eligible) == 0 {
			return storage.CatalogItem{}, false
		}
		return eligible[g.rng.Intn(len(eligible))], true
	}

	if g.rng.Float64() < g.opts.PreferPct {
		if item, ok := pickFrom(p.preferred); ok {
			return item, true
		}
	}
	if item, ok := pickFrom(p.general); ok {
		return item, true
	}
	return pickFrom(p.preferred)
}

// quantityFor draws a portion factor for an item uniformly among its
// discrete choices against the slot demand, falling back to the step size.
func (g *Generator) quantityFor(item storage.CatalogItem, demand Vector) float64 {
	choices := Choices(ItemVector(item), demand, g.opts.Step, g.opts.MaxPortionFactor)
	if len(choices) == 0 {
		return g.opts.Step
	}
	return choices[g.rng.Intn(len(choices))]
}

func hasTag(item storage.CatalogItem, tag string) bool {
	for _, t := range item.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Candidates generates ranked combo candidates for one slot. items must
// already be filtered to the slot's type tag; preferred marks item ids from
// the user's preference history. An empty catalog yields an empty list,
// "nothing to offer", not an error.
func (g *Generator) Candidates(items []storage.CatalogItem, demand Vector, preferred map[uuid.UUID]bool) []Combo {
	if len(items) == 0 {
		return []Combo{}
	}

	var mainItems, sideItems, drinkItems []storage.CatalogItem
	for _, item := range items {
		if hasTag(item, TagMain) {
			mainItems = append(mainItems, item)
		}
		if hasTag(item, TagSide) {
			sideItems = append(sideItems, item)
		}
		if hasTag(item, TagDrink) {
			drinkItems = append(drinkItems, item)
		}
	}
	// Without explicit mains the whole slot-tagged set acts as the main pool.
	if len(mainItems) == 0 {
		mainItems = items
	}

	mains := splitPool(mainItems, preferred)
	sides := splitPool(sideItems, preferred)
	drinks := splitPool(drinkItems, preferred)

	seen := make(map[string]bool)
	combos := make([]Combo, 0, g.opts.ComboCount)

attempts:
	for attempt := 0; attempt < g.opts.Attempts && len(combos) < g.opts.ComboCount; attempt++ {
		main, ok := g.draw(mains, nil)
		if !ok {
			break
		}
		picked := []storage.CatalogItem{main}
		quantities := []float64{g.quantityFor(main, demand)}
		used := map[uuid.UUID]bool{main.ID: true}

		if !sides.empty() && g.rng.Float64() < g.opts.SideChance {
			if side, ok := g.draw(sides, used); ok {
				picked = append(picked, side)
				quantities = append(quantities, g.quantityFor(side, demand))
				used[side.ID] = true
			}
		}
		if !drinks.empty() && g.rng.Float64() < g.opts.DrinkChance {
			if drink, ok := g.draw(drinks, used); ok {
				picked = append(picked, drink)
				quantities = append(quantities, g.quantityFor(drink, demand))
			}
		}

		key := comboKey(picked, quantities)
		if seen[key] {
			continue
		}
		seen[key] = true

		combo := Combo{Items: make([]ComboItem, len(picked))}
		totals := Vector{}
		for i, item := range picked {
			combo.Items[i] = ComboItem{
				ItemID:   item.ID,
				Source:   sourceOf(item),
				Quantity: quantities[i],
			}
			totals = totals.Add(ItemVector(item).Scale(quantities[i]))
		}
		combo.Totals = totals.Round()
		combo.Cost = round2(Cost(combo.Totals, demand))
		combos = append(combos, combo)

		if combo.Cost == 0 && IsFeasible(combo.Totals, demand, g.opts.TolerancePct) {
			break attempts
		}
	}

	sort.SliceStable(combos, func(i, j int) bool {
		return combos[i].Cost < combos[j].Cost
	})
	if len(combos) > g.opts.ComboCount {
		combos = combos[:g.opts.ComboCount]
	}
	return combos
}

// comboKey builds a composite key from the sorted (item id, quantity)
// multiset so one generation run never yields the same combo twice.
func comboKey(items []storage.CatalogItem, quantities []float64) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s:%.2f", item.ID, quantities[i])
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func sourceOf(item storage.CatalogItem) Source {
	if item.OwnerUserID == "" {
		return SourceSystem
	}
	return SourceUser
}
