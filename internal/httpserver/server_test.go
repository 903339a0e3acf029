package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mealforge/mealforge/internal/config"
)

func newTestServer() *Server {
	cfg := &config.Config{
		Port:         8080,
		AuthMode:     "dev",
		AuthRequired: true,
		JWTSecret:    "test-secret",
		JWTIssuer:    "mealforge",
	}
	return New(cfg)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status=ok, got %s", resp["status"])
	}
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestDevAuthRoundtrip(t *testing.T) {
	srv := newTestServer()
	handler := srv.authMiddleware.RequireAuth(srv.mux)

	// Without a token protected routes are rejected.
	listReq := httptest.NewRequest(http.MethodGet, "/v1/catalog/items", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", listRec.Code)
	}

	// /v1/auth/dev stays public and issues a token.
	authReq := httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil)
	authRec := httptest.NewRecorder()
	handler.ServeHTTP(authRec, authReq)
	if authRec.Code != http.StatusOK {
		t.Fatalf("dev auth failed: %d: %s", authRec.Code, authRec.Body.String())
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(authRec.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	if tokenResp.AccessToken == "" {
		t.Fatal("expected a non-empty access token")
	}

	// The issued token opens protected routes.
	authedReq := httptest.NewRequest(http.MethodGet, "/v1/catalog/items", nil)
	authedReq.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)
	authedRec := httptest.NewRecorder()
	handler.ServeHTTP(authedRec, authedReq)
	if authedRec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", authedRec.Code, authedRec.Body.String())
	}
}

func TestWeekPlanFlowOverHTTP(t *testing.T) {
	srv := newTestServer()
	handler := srv.authMiddleware.RequireAuth(srv.mux)

	authRec := httptest.NewRecorder()
	handler.ServeHTTP(authRec, httptest.NewRequest(http.MethodPost, "/v1/auth/dev", nil))
	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(authRec.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Assembly requires configuration first.
	if rec := do(http.MethodPost, "/v1/plans/week/assemble", ""); rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 before configuration, got %d", rec.Code)
	}

	if rec := do(http.MethodPut, "/v1/nutrition/requirement",
		`{"calories":2000,"protein_g":120,"carbs_g":240,"fat_g":70}`); rec.Code != http.StatusOK {
		t.Fatalf("failed to set requirement: %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodPut, "/v1/nutrition/slots/replace",
		`{"slots":[
			{"name":"Breakfast","slot_type":"breakfast","order_index":0,"calories_share":0.3,"protein_share":0.25,"carbs_share":0.35,"fat_share":0.3},
			{"name":"Dinner","slot_type":"dinner","order_index":1,"calories_share":0.45,"protein_share":0.5,"carbs_share":0.4,"fat_share":0.45}
		]}`); rec.Code != http.StatusOK {
		t.Fatalf("failed to set slots: %d: %s", rec.Code, rec.Body.String())
	}

	if rec := do(http.MethodPost, "/v1/plans/week/assemble", ""); rec.Code != http.StatusOK {
		t.Fatalf("assembly failed: %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodGet, "/v1/plans/week", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected assembled week, got %d", rec.Code)
	}
	if rec := do(http.MethodGet, "/v1/plans/week/export?format=csv", ""); rec.Code != http.StatusOK {
		t.Fatalf("CSV export failed: %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodDelete, "/v1/plans/week", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete failed: %d", rec.Code)
	}
}
