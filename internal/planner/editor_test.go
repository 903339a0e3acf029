package planner

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestRegenerateSlot(t *testing.T) {
	a := newTestAssembler(10)
	cfg := testSlotConfigs()[1] // lunch

	plan, ok := a.RegenerateSlot(testRequirement, cfg, testCatalog(), nil)
	if !ok {
		t.Fatal("expected a regenerated slot for a populated catalog")
	}
	if plan.SlotType != "lunch" {
		t.Errorf("SlotType = %q, want lunch", plan.SlotType)
	}
	if len(plan.Alternatives) == 0 {
		t.Error("regenerate must refresh the alternatives snapshot")
	}
	if plan.Chosen.Cost != plan.Alternatives[0].Cost {
		t.Error("regenerate picks the top-ranked combo")
	}
}

func TestRegenerateSlot_NothingToOffer(t *testing.T) {
	a := newTestAssembler(10)
	cfg := testSlotConfigs()[1]

	if _, ok := a.RegenerateSlot(testRequirement, cfg, nil, nil); ok {
		t.Error("empty catalog must yield ok=false")
	}

	tiny := cfg
	tiny.CaloriesShare = 0.001
	if _, ok := a.RegenerateSlot(testRequirement, tiny, testCatalog(), nil); ok {
		t.Error("degenerate demand must yield ok=false")
	}
}

func TestProposeQuantity_Deterministic(t *testing.T) {
	current := Vector{Calories: 300, ProteinG: 20, CarbsG: 30, FatG: 10}
	demand := Vector{Calories: 600, ProteinG: 35, CarbsG: 70, FatG: 20}
	candidate := Vector{Calories: 150, ProteinG: 5, CarbsG: 25, FatG: 2}

	first := ProposeQuantity(current, demand, candidate, DefaultOptions())
	second := ProposeQuantity(current, demand, candidate, DefaultOptions())
	if !reflect.DeepEqual(first, second) {
		t.Error("ProposeQuantity must be deterministic for identical inputs")
	}
}

func TestProposeQuantity_BestPrefersFeasible(t *testing.T) {
	current := Vector{Calories: 300, ProteinG: 20, CarbsG: 30, FatG: 10}
	demand := Vector{Calories: 600, ProteinG: 35, CarbsG: 70, FatG: 20}
	candidate := Vector{Calories: 150, ProteinG: 5, CarbsG: 25, FatG: 2}

	p := ProposeQuantity(current, demand, candidate, DefaultOptions())
	if len(p.Options) == 0 {
		t.Fatal("expected a quantity table")
	}
	if p.Message != "" {
		t.Errorf("unexpected message: %q", p.Message)
	}
	if p.Step != 0.25 {
		t.Errorf("Step = %v, want 0.25", p.Step)
	}
	if p.MinQuantity != 0.25 {
		t.Errorf("MinQuantity = %v, want 0.25", p.MinQuantity)
	}

	anyFeasible := false
	for _, row := range p.Options {
		if row.Feasible {
			anyFeasible = true
			break
		}
	}
	if anyFeasible && !p.Best.Feasible {
		t.Error("best must be feasible when any feasible row exists")
	}
	for _, row := range p.Options {
		if row.Feasible == p.Best.Feasible && row.Cost < p.Best.Cost {
			t.Errorf("best cost %v beaten by row with cost %v", p.Best.Cost, row.Cost)
		}
	}
}

func TestProposeQuantity_TableCap(t *testing.T) {
	if got := len(ProposeQuantity(
		Vector{},
		Vector{Calories: 10000, ProteinG: 500, CarbsG: 1200, FatG: 400},
		Vector{Calories: 10, ProteinG: 0.5, CarbsG: 1, FatG: 0.2},
		DefaultOptions(),
	).Options); got > maxQuantityRows {
		t.Errorf("table has %d rows, cap is %d", got, maxQuantityRows)
	}
}

func TestProposeQuantity_NoBeneficialQuantity(t *testing.T) {
	// Demand already covered: remaining is zero on every macro.
	demand := Vector{Calories: 500, ProteinG: 30, CarbsG: 60, FatG: 15}
	current := Vector{Calories: 520, ProteinG: 32, CarbsG: 61, FatG: 16}
	candidate := Vector{Calories: 100, ProteinG: 3, CarbsG: 20, FatG: 1}

	p := ProposeQuantity(current, demand, candidate, DefaultOptions())
	if p.Message == "" {
		t.Fatal("expected an explanatory message when nothing remains to improve")
	}
	if p.Best.Quantity != DefaultOptions().Step {
		t.Errorf("minimal-quantity result should use the step, got %v", p.Best.Quantity)
	}
	if len(p.Options) != 1 {
		t.Errorf("minimal result should carry a single row, got %d", len(p.Options))
	}

	// A candidate contributing nothing to the macros in deficit gets the
	// same minimal-quantity treatment.
	p = ProposeQuantity(
		Vector{Calories: 500, ProteinG: 10, CarbsG: 60, FatG: 15},
		demand,
		Vector{Calories: 0, ProteinG: 0, CarbsG: 0, FatG: 0},
		DefaultOptions(),
	)
	if p.Message == "" {
		t.Error("zero-profile candidate should produce a minimal-quantity message")
	}
}

func TestRegenerateSlot_IgnoresFrequencyState(t *testing.T) {
	// Regenerating after a full assembly must behave exactly like
	// regenerating fresh. The weekly frequency map is scoped to a single
	// assembly run.
	catalog := testWeekCatalog()
	cfg := testSlotConfigs()[1]

	a := newTestAssembler(21)
	_ = a.AssembleWeek(testRequirement, testSlotConfigs(), catalog, nil)

	b := NewAssembler(NewGenerator(rand.New(rand.NewSource(77)), DefaultOptions()))
	c := NewAssembler(NewGenerator(rand.New(rand.NewSource(77)), DefaultOptions()))
	afterAssembly, ok1 := b.RegenerateSlot(testRequirement, cfg, catalog["lunch"], nil)
	fresh, ok2 := c.RegenerateSlot(testRequirement, cfg, catalog["lunch"], nil)
	if !ok1 || !ok2 {
		t.Fatal("expected regeneration to succeed")
	}
	if !reflect.DeepEqual(afterAssembly, fresh) {
		t.Error("regeneration must not depend on prior assembly state")
	}
}
