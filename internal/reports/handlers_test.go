package reports

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mealforge/mealforge/internal/planner"
	"github.com/mealforge/mealforge/internal/plans"
	"github.com/mealforge/mealforge/internal/storage"
	"github.com/mealforge/mealforge/internal/storage/memory"
	"github.com/mealforge/mealforge/internal/userctx"
)

const testUserID = "user-1"

func newTestEnv(t *testing.T) (*Handler, *memory.MemoryStorage) {
	t.Helper()
	store := memory.New()
	return NewHandler(NewGenerator(store.WeekPlans(), store.Catalog())), store
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(userctx.WithUserID(r.Context(), testUserID))
}

func assembleWeek(t *testing.T, store *memory.MemoryStorage) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Nutrition().UpsertRequirement(ctx, testUserID, storage.RequirementUpsert{
		Calories: 2000, ProteinG: 120, CarbsG: 240, FatG: 70,
	})
	if err != nil {
		t.Fatalf("failed to set requirement: %v", err)
	}
	_, err = store.Nutrition().ReplaceSlotConfigs(ctx, testUserID, []storage.SlotConfigUpsert{
		{Name: "Breakfast", SlotType: "breakfast", OrderIndex: 0, CaloriesShare: 0.3, ProteinShare: 0.25, CarbsShare: 0.35, FatShare: 0.3},
		{Name: "Dinner", SlotType: "dinner", OrderIndex: 1, CaloriesShare: 0.45, ProteinShare: 0.5, CarbsShare: 0.4, FatShare: 0.45},
	})
	if err != nil {
		t.Fatalf("failed to set slot configs: %v", err)
	}

	service := plans.NewService(store, planner.DefaultOptions())
	if _, err := service.AssembleWeek(ctx, testUserID); err != nil {
		t.Fatalf("failed to assemble week: %v", err)
	}
}

func TestExportCSV(t *testing.T) {
	h, store := newTestEnv(t)
	assembleWeek(t, store)

	req := withUser(httptest.NewRequest(http.MethodGet, "/v1/plans/week/export?format=csv", nil))
	rec := httptest.NewRecorder()
	h.HandleExportWeek(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %s", ct)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) < 1+planner.DaysPerWeek {
		t.Fatalf("expected header plus at least one row per day, got %d rows", len(records))
	}
	if records[0][0] != "day" || records[0][4] != "item" {
		t.Fatalf("unexpected header: %v", records[0])
	}

	// Every day contributes a totals row.
	totalRows := 0
	for _, r := range records[1:] {
		if r[4] == "day total" {
			totalRows++
		}
	}
	if totalRows != planner.DaysPerWeek {
		t.Fatalf("expected %d day total rows, got %d", planner.DaysPerWeek, totalRows)
	}
}

func TestExportPDF(t *testing.T) {
	h, store := newTestEnv(t)
	assembleWeek(t, store)

	req := withUser(httptest.NewRequest(http.MethodGet, "/v1/plans/week/export?format=pdf", nil))
	rec := httptest.NewRecorder()
	h.HandleExportWeek(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatal("expected PDF magic bytes")
	}
}

func TestExportDefaultsToPDF(t *testing.T) {
	h, store := newTestEnv(t)
	assembleWeek(t, store)

	req := withUser(httptest.NewRequest(http.MethodGet, "/v1/plans/week/export", nil))
	rec := httptest.NewRecorder()
	h.HandleExportWeek(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
}

func TestExportWithoutWeek(t *testing.T) {
	h, _ := newTestEnv(t)

	req := withUser(httptest.NewRequest(http.MethodGet, "/v1/plans/week/export?format=csv", nil))
	rec := httptest.NewRecorder()
	h.HandleExportWeek(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a week, got %d", rec.Code)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	h, store := newTestEnv(t)
	assembleWeek(t, store)

	req := withUser(httptest.NewRequest(http.MethodGet, "/v1/plans/week/export?format=xlsx", nil))
	rec := httptest.NewRecorder()
	h.HandleExportWeek(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
}
