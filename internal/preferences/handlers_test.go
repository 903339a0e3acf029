package preferences

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mealforge/mealforge/internal/storage"
	"github.com/mealforge/mealforge/internal/storage/memory"
	"github.com/mealforge/mealforge/internal/userctx"
)

const testUserID = "user-1"

func newTestEnv(t *testing.T) (*Handler, storage.CatalogStorage) {
	t.Helper()
	store := memory.New()
	service := NewService(store.Preferences(), store.Catalog())
	return NewHandler(service), store.Catalog()
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(userctx.WithUserID(r.Context(), testUserID))
}

func systemItemIDs(t *testing.T, catalog storage.CatalogStorage, n int) []uuid.UUID {
	t.Helper()
	items, _, err := catalog.ListItems(context.Background(), testUserID, "", n, 0)
	if err != nil {
		t.Fatalf("failed to list catalog: %v", err)
	}
	if len(items) < n {
		t.Fatalf("expected at least %d seeded items, got %d", n, len(items))
	}
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		ids[i] = items[i].ID
	}
	return ids
}

func TestRecordAndListRecent(t *testing.T) {
	h, catalog := newTestEnv(t)
	ids := systemItemIDs(t, catalog, 3)

	body, _ := json.Marshal(RecordRequest{ItemIDs: ids})
	recordReq := withUser(httptest.NewRequest(http.MethodPost, "/v1/preferences", bytes.NewReader(body)))
	recordRec := httptest.NewRecorder()
	h.HandleRecord(recordRec, recordReq)

	if recordRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", recordRec.Code, recordRec.Body.String())
	}

	listReq := withUser(httptest.NewRequest(http.MethodGet, "/v1/preferences/recent", nil))
	listRec := httptest.NewRecorder()
	h.HandleListRecent(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}

	var resp RecentResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 recent items, got %d", len(resp.Items))
	}
	// Most recent last matches the record order.
	if resp.Items[2].ID != ids[2] {
		t.Fatalf("expected last recorded item last, got %s", resp.Items[2].ID)
	}
}

func TestRecordRejectsUnknownItem(t *testing.T) {
	h, _ := newTestEnv(t)

	body, _ := json.Marshal(RecordRequest{ItemIDs: []uuid.UUID{uuid.New()}})
	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/preferences", bytes.NewReader(body)))
	rec := httptest.NewRecorder()
	h.HandleRecord(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown item, got %d", rec.Code)
	}
}

func TestRecordRejectsEmptyBatch(t *testing.T) {
	h, _ := newTestEnv(t)

	body, _ := json.Marshal(RecordRequest{})
	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/preferences", bytes.NewReader(body)))
	rec := httptest.NewRecorder()
	h.HandleRecord(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
}

func TestReChosenItemMovesToTail(t *testing.T) {
	h, catalog := newTestEnv(t)
	ids := systemItemIDs(t, catalog, 2)

	for _, batch := range [][]uuid.UUID{{ids[0]}, {ids[1]}, {ids[0]}} {
		body, _ := json.Marshal(RecordRequest{ItemIDs: batch})
		req := withUser(httptest.NewRequest(http.MethodPost, "/v1/preferences", bytes.NewReader(body)))
		rec := httptest.NewRecorder()
		h.HandleRecord(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("record failed: %d", rec.Code)
		}
	}

	listReq := withUser(httptest.NewRequest(http.MethodGet, "/v1/preferences/recent", nil))
	listRec := httptest.NewRecorder()
	h.HandleListRecent(listRec, listReq)

	var resp RecentResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 distinct items, got %d", len(resp.Items))
	}
	if resp.Items[1].ID != ids[0] {
		t.Fatal("expected re-chosen item at the tail")
	}
}
