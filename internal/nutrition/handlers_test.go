package nutrition

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mealforge/mealforge/internal/storage/memory"
	"github.com/mealforge/mealforge/internal/userctx"
)

const testUserID = "user-1"

func newTestHandler() *Handler {
	store := memory.New()
	return NewHandler(NewService(store.Nutrition()))
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(userctx.WithUserID(r.Context(), testUserID))
}

func TestRequirementLifecycle(t *testing.T) {
	h := newTestHandler()

	t.Run("missing requirement returns not_configured", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodGet, "/v1/nutrition/requirement", nil))
		rec := httptest.NewRecorder()
		h.HandleGetRequirement(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		body, _ := json.Marshal(RequirementDTO{Calories: 2000, ProteinG: 120, CarbsG: 240, FatG: 70})
		putReq := withUser(httptest.NewRequest(http.MethodPut, "/v1/nutrition/requirement", bytes.NewReader(body)))
		putRec := httptest.NewRecorder()
		h.HandlePutRequirement(putRec, putReq)

		if putRec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", putRec.Code, putRec.Body.String())
		}

		getReq := withUser(httptest.NewRequest(http.MethodGet, "/v1/nutrition/requirement", nil))
		getRec := httptest.NewRecorder()
		h.HandleGetRequirement(getRec, getReq)

		if getRec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", getRec.Code)
		}

		var resp RequirementResponse
		if err := json.Unmarshal(getRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Requirement.Calories != 2000 || resp.Requirement.ProteinG != 120 {
			t.Fatalf("unexpected requirement: %+v", resp.Requirement)
		}
	})

	t.Run("rejects non-positive calories", func(t *testing.T) {
		body, _ := json.Marshal(RequirementDTO{Calories: 0, ProteinG: 120})
		putReq := withUser(httptest.NewRequest(http.MethodPut, "/v1/nutrition/requirement", bytes.NewReader(body)))
		putRec := httptest.NewRecorder()
		h.HandlePutRequirement(putRec, putReq)

		if putRec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", putRec.Code)
		}
	})
}

func TestSlotConfigsReplaceAndList(t *testing.T) {
	h := newTestHandler()

	body, _ := json.Marshal(ReplaceSlotsRequest{Slots: []SlotConfigDTO{
		{Name: "Dinner", SlotType: "dinner", OrderIndex: 2, CaloriesShare: 0.35, ProteinShare: 0.35, CarbsShare: 0.3, FatShare: 0.35},
		{Name: "Breakfast", SlotType: "breakfast", OrderIndex: 0, CaloriesShare: 0.25, ProteinShare: 0.2, CarbsShare: 0.3, FatShare: 0.25},
		{Name: "Lunch", SlotType: "lunch", OrderIndex: 1, CaloriesShare: 0.4, ProteinShare: 0.45, CarbsShare: 0.4, FatShare: 0.4},
	}})
	putReq := withUser(httptest.NewRequest(http.MethodPut, "/v1/nutrition/slots/replace", bytes.NewReader(body)))
	putRec := httptest.NewRecorder()
	h.HandleReplaceSlots(putRec, putReq)

	if putRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", putRec.Code, putRec.Body.String())
	}

	var resp SlotConfigsResponse
	if err := json.Unmarshal(putRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(resp.Slots))
	}
	// Returned ordered by order_index regardless of request order.
	if resp.Slots[0].SlotType != "breakfast" || resp.Slots[2].SlotType != "dinner" {
		t.Fatalf("expected slots ordered by order_index, got %+v", resp.Slots)
	}

	listReq := withUser(httptest.NewRequest(http.MethodGet, "/v1/nutrition/slots", nil))
	listRec := httptest.NewRecorder()
	h.HandleListSlots(listRec, listReq)

	var listResp SlotConfigsResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listResp.Slots) != 3 {
		t.Fatalf("expected 3 slots after replace, got %d", len(listResp.Slots))
	}
}

func TestReplaceSlotsValidation(t *testing.T) {
	h := newTestHandler()

	cases := []ReplaceSlotsRequest{
		{}, // empty
		{Slots: []SlotConfigDTO{{SlotType: "lunch", CaloriesShare: 0.3}}},                       // missing name
		{Slots: []SlotConfigDTO{{Name: "Lunch", CaloriesShare: 0.3}}},                           // missing slot type
		{Slots: []SlotConfigDTO{{Name: "Lunch", SlotType: "lunch", CaloriesShare: 1.5}}},        // share out of range
		{Slots: []SlotConfigDTO{
			{Name: "A", SlotType: "lunch", CaloriesShare: 0.6},
			{Name: "B", SlotType: "dinner", CaloriesShare: 0.6},
		}}, // calorie shares exceed 1.0
	}

	for i, c := range cases {
		body, _ := json.Marshal(c)
		req := withUser(httptest.NewRequest(http.MethodPut, "/v1/nutrition/slots/replace", bytes.NewReader(body)))
		rec := httptest.NewRecorder()
		h.HandleReplaceSlots(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}
