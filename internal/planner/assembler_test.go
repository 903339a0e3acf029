package planner

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
)

func testSlotConfigs() []storage.SlotConfig {
	return []storage.SlotConfig{
		{
			ID: uuid.New(), Name: "Breakfast", SlotType: "breakfast", OrderIndex: 0,
			CaloriesShare: 0.25, ProteinShare: 0.25, CarbsShare: 0.25, FatShare: 0.25,
		},
		{
			ID: uuid.New(), Name: "Lunch", SlotType: "lunch", OrderIndex: 1,
			CaloriesShare: 0.4, ProteinShare: 0.4, CarbsShare: 0.4, FatShare: 0.4,
		},
		{
			ID: uuid.New(), Name: "Dinner", SlotType: "dinner", OrderIndex: 2,
			CaloriesShare: 0.35, ProteinShare: 0.35, CarbsShare: 0.35, FatShare: 0.35,
		},
	}
}

func testWeekCatalog() map[string][]storage.CatalogItem {
	lunch := testCatalog()
	breakfast := []storage.CatalogItem{
		testItem("oatmeal", []string{"main", "breakfast"}, Vector{Calories: 180, ProteinG: 6, CarbsG: 30, FatG: 3}),
		testItem("scrambled eggs", []string{"main", "breakfast"}, Vector{Calories: 200, ProteinG: 14, CarbsG: 2, FatG: 15}),
		testItem("yogurt", []string{"side", "breakfast"}, Vector{Calories: 90, ProteinG: 9, CarbsG: 7, FatG: 2}),
		testItem("coffee", []string{"drink", "breakfast"}, Vector{Calories: 5, ProteinG: 0, CarbsG: 1, FatG: 0}),
	}
	dinner := []storage.CatalogItem{
		testItem("pasta", []string{"main", "dinner"}, Vector{Calories: 350, ProteinG: 12, CarbsG: 60, FatG: 8}),
		testItem("roast turkey", []string{"main", "dinner"}, Vector{Calories: 220, ProteinG: 32, CarbsG: 0, FatG: 9}),
		testItem("steamed veg", []string{"side", "dinner"}, Vector{Calories: 70, ProteinG: 3, CarbsG: 12, FatG: 1}),
	}
	return map[string][]storage.CatalogItem{
		"breakfast": breakfast,
		"lunch":     lunch,
		"dinner":    dinner,
	}
}

var testRequirement = Vector{Calories: 2000, ProteinG: 120, CarbsG: 240, FatG: 70}

func newTestAssembler(seed int64) *Assembler {
	return NewAssembler(NewGenerator(rand.New(rand.NewSource(seed)), DefaultOptions()))
}

func TestAssembleWeek_ShapeAndTotals(t *testing.T) {
	a := newTestAssembler(1)
	days := a.AssembleWeek(testRequirement, testSlotConfigs(), testWeekCatalog(), nil)

	if len(days) != DaysPerWeek {
		t.Fatalf("got %d days, want %d", len(days), DaysPerWeek)
	}
	for _, day := range days {
		if len(day.Slots) > 3 {
			t.Fatalf("day %d has %d slots, want at most 3", day.DayIndex, len(day.Slots))
		}
		sum := Vector{}
		for _, slot := range day.Slots {
			sum = sum.Add(slot.Chosen.Totals)
		}
		sum = sum.Round()
		if diff := Cost(sum, day.Totals); diff > 0.05 {
			t.Fatalf("day %d totals %+v diverge from slot sum %+v", day.DayIndex, day.Totals, sum)
		}
	}
}

func TestAssembleWeek_SlotsInConfiguredOrder(t *testing.T) {
	configs := testSlotConfigs()
	// Shuffle the input order; assembly must still follow OrderIndex.
	configs[0], configs[2] = configs[2], configs[0]

	a := newTestAssembler(2)
	days := a.AssembleWeek(testRequirement, configs, testWeekCatalog(), nil)
	for _, day := range days {
		for i := 1; i < len(day.Slots); i++ {
			if day.Slots[i].OrderIndex < day.Slots[i-1].OrderIndex {
				t.Fatalf("day %d slots out of order: %v", day.DayIndex, day.Slots)
			}
		}
	}
}

func TestAssembleWeek_FrequencyCap(t *testing.T) {
	// Mains only, with plenty of alternatives, so the lowest-cost fallback
	// is never needed and the cap must hold for every chosen item.
	mains := make([]storage.CatalogItem, 0, 6)
	for _, name := range []string{"bowl a", "bowl b", "bowl c", "bowl d", "bowl e", "bowl f"} {
		mains = append(mains, testItem(name, []string{"main", "lunch"},
			Vector{Calories: 300, ProteinG: 20, CarbsG: 30, FatG: 10}))
	}
	catalog := map[string][]storage.CatalogItem{"lunch": mains}
	configs := []storage.SlotConfig{{
		ID: uuid.New(), Name: "Lunch", SlotType: "lunch", OrderIndex: 0,
		CaloriesShare: 0.4, ProteinShare: 0.4, CarbsShare: 0.4, FatShare: 0.4,
	}}

	a := newTestAssembler(3)
	days := a.AssembleWeek(testRequirement, configs, catalog, nil)

	counts := make(map[uuid.UUID]int)
	for _, day := range days {
		for _, slot := range day.Slots {
			seen := make(map[uuid.UUID]bool)
			for _, item := range slot.Chosen.Items {
				if !seen[item.ItemID] {
					counts[item.ItemID]++
					seen[item.ItemID] = true
				}
			}
		}
	}

	cap := DefaultOptions().FrequencyCap
	for id, n := range counts {
		if n > cap {
			t.Errorf("item %s chosen %d times, cap is %d", id, n, cap)
		}
	}
}

func TestAssembleWeek_SkipsDegenerateDemand(t *testing.T) {
	configs := testSlotConfigs()
	// A near-zero share computes a demand below the calorie floor.
	configs = append(configs, storage.SlotConfig{
		ID: uuid.New(), Name: "Nibble", SlotType: "snack", OrderIndex: 3,
		CaloriesShare: 0.01, ProteinShare: 0.01, CarbsShare: 0.01, FatShare: 0.01,
	})
	catalog := testWeekCatalog()
	catalog["snack"] = []storage.CatalogItem{
		testItem("apple", []string{"main", "snack"}, Vector{Calories: 80, ProteinG: 0, CarbsG: 20, FatG: 0}),
	}

	a := newTestAssembler(4)
	days := a.AssembleWeek(testRequirement, configs, catalog, nil)
	for _, day := range days {
		for _, slot := range day.Slots {
			if slot.SlotType == "snack" {
				t.Fatal("slot with degenerate demand must be skipped")
			}
		}
	}
}

func TestAssembleWeek_EmptySlotTypeAbsent(t *testing.T) {
	configs := append(testSlotConfigs(), storage.SlotConfig{
		ID: uuid.New(), Name: "Brunch", SlotType: "brunch", OrderIndex: 9,
		CaloriesShare: 0.2, ProteinShare: 0.2, CarbsShare: 0.2, FatShare: 0.2,
	})

	a := newTestAssembler(5)
	days := a.AssembleWeek(testRequirement, configs, testWeekCatalog(), nil)
	for _, day := range days {
		for _, slot := range day.Slots {
			if slot.SlotType == "brunch" {
				t.Fatal("slot type without catalog items must be absent from the day")
			}
		}
	}
}

func TestSelectWithCap_FallsBackToLowestCost(t *testing.T) {
	id := uuid.New()
	combos := []Combo{
		{Items: []ComboItem{{ItemID: id, Quantity: 1}}, Cost: 1},
		{Items: []ComboItem{{ItemID: id, Quantity: 2}}, Cost: 2},
	}
	freq := FrequencyMap{id: 3}

	got := selectWithCap(combos, freq, 3)
	if got.Cost != 1 {
		t.Errorf("fallback must pick the lowest-cost combo, got cost %v", got.Cost)
	}
}

func TestFrequencyMap_ObserveCountsDistinctItems(t *testing.T) {
	id := uuid.New()
	freq := make(FrequencyMap)
	freq.Observe(Combo{Items: []ComboItem{
		{ItemID: id, Quantity: 1},
		{ItemID: id, Quantity: 2},
	}})
	if freq[id] != 1 {
		t.Errorf("duplicate item ids in one combo must count once, got %d", freq[id])
	}
}
