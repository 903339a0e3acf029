package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase string
	token   string
	client  = &http.Client{Timeout: 30 * time.Second}

	itemID string // user item created during the run
	slotID string // first slot of the assembled week
)

func main() {
	fmt.Println("=== MealForge E2E Smoke Test ===")
	fmt.Println()

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Auth", testDevAuth},
		{"List Catalog", testListCatalog},
		{"Create Catalog Item", testCreateCatalogItem},
		{"Set Requirement", testSetRequirement},
		{"Replace Slots", testReplaceSlots},
		{"Assemble Week", testAssembleWeek},
		{"Get Week", testGetWeek},
		{"Generate Candidates", testCandidates},
		{"Regenerate Slot", testRegenerateSlot},
		{"Propose Quantity", testProposeQuantity},
		{"Recent Preferences", testRecentPreferences},
		{"Export CSV", testExportCSV},
		{"Export PDF", testExportPDF},
		{"Delete Catalog Item", testDeleteCatalogItem},
		{"Delete Week", testDeleteWeek},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	resp, err := client.Get(apiBase + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func testDevAuth() error {
	// If a token is already set via env, skip
	if token != "" {
		return nil
	}

	resp, err := client.Post(apiBase+"/v1/auth/dev", "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.AccessToken == "" {
		return fmt.Errorf("empty access token")
	}

	token = result.AccessToken
	return nil
}

func testListCatalog() error {
	resp, err := doJSON("GET", "/v1/catalog/items", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Total == 0 {
		return fmt.Errorf("expected seeded system catalog")
	}
	return nil
}

func testCreateCatalogItem() error {
	payload := map[string]interface{}{
		"name":      "Smoke test bowl",
		"tags":      []string{"main", "lunch"},
		"portion_g": 300,
		"calories":  420,
		"protein_g": 25,
		"carbs_g":   45,
		"fat_g":     14,
	}

	resp, err := doJSON("POST", "/v1/catalog/items", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return statusError(resp)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.ID == "" {
		return fmt.Errorf("empty item id")
	}

	itemID = result.ID
	return nil
}

func testSetRequirement() error {
	payload := map[string]interface{}{
		"calories":  2000,
		"protein_g": 120,
		"carbs_g":   240,
		"fat_g":     70,
	}

	resp, err := doJSON("PUT", "/v1/nutrition/requirement", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func testReplaceSlots() error {
	payload := map[string]interface{}{
		"slots": []map[string]interface{}{
			{"name": "Breakfast", "slot_type": "breakfast", "order_index": 0, "calories_share": 0.25, "protein_share": 0.2, "carbs_share": 0.3, "fat_share": 0.25},
			{"name": "Lunch", "slot_type": "lunch", "order_index": 1, "calories_share": 0.4, "protein_share": 0.45, "carbs_share": 0.4, "fat_share": 0.4},
			{"name": "Dinner", "slot_type": "dinner", "order_index": 2, "calories_share": 0.35, "protein_share": 0.35, "carbs_share": 0.3, "fat_share": 0.35},
		},
	}

	resp, err := doJSON("PUT", "/v1/nutrition/slots/replace", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func testAssembleWeek() error {
	resp, err := doJSON("POST", "/v1/plans/week/assemble", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Days []struct {
			Slots []struct {
				ID string `json:"id"`
			} `json:"slots"`
		} `json:"days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if len(result.Days) != 7 {
		return fmt.Errorf("expected 7 days, got %d", len(result.Days))
	}
	if len(result.Days[0].Slots) == 0 {
		return fmt.Errorf("first day has no slots")
	}

	slotID = result.Days[0].Slots[0].ID
	return nil
}

func testGetWeek() error {
	resp, err := doJSON("GET", "/v1/plans/week", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func testCandidates() error {
	payload := map[string]interface{}{
		"slot_type": "lunch",
		"demand": map[string]interface{}{
			"calories":  800,
			"protein_g": 54,
			"carbs_g":   96,
			"fat_g":     28,
		},
	}

	resp, err := doJSON("POST", "/v1/plans/candidates", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Combos []json.RawMessage `json:"combos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if len(result.Combos) == 0 {
		return fmt.Errorf("expected at least one combo")
	}
	return nil
}

func testRegenerateSlot() error {
	resp, err := doJSON("POST", "/v1/plans/slots/"+slotID+"/regenerate", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func testProposeQuantity() error {
	payload := map[string]interface{}{
		"item_id": itemID,
	}

	resp, err := doJSON("POST", "/v1/plans/slots/"+slotID+"/quantity", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Table []json.RawMessage `json:"table"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if len(result.Table) == 0 {
		return fmt.Errorf("expected a quantity table")
	}
	return nil
}

func testRecentPreferences() error {
	resp, err := doJSON("GET", "/v1/preferences/recent", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if len(result.Items) == 0 {
		return fmt.Errorf("expected recorded preferences after assembly")
	}
	return nil
}

func testExportCSV() error {
	return testExport("csv", "text/csv")
}

func testExportPDF() error {
	return testExport("pdf", "application/pdf")
}

func testExport(format, wantType string) error {
	resp, err := doJSON("GET", "/v1/plans/week/export?format="+format, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	ct := resp.Header.Get("Content-Type")
	if len(ct) < len(wantType) || ct[:len(wantType)] != wantType {
		return fmt.Errorf("unexpected content type %q", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty export body")
	}
	return nil
}

func testDeleteCatalogItem() error {
	resp, err := doJSON("DELETE", "/v1/catalog/items/"+itemID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

func testDeleteWeek() error {
	resp, err := doJSON("DELETE", "/v1/plans/week", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

// ---- helpers ----

func doJSON(method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	return client.Do(req)
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
