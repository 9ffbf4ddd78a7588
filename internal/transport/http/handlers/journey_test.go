package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"wfm/internal/app/server"
	"wfm/internal/domain/auth"
	"wfm/internal/platform/config"
	"wfm/internal/platform/db"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		Environment:        "test",
		SeedOrgName:        "Test Organization",
		SeedOwnerEmail:     "owner@test.local",
		SeedOwnerPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
	}
}

func startApp(t *testing.T) (*server.App, config.Config) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, "../../../../migrations"); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	if err := db.Seed(ctx, pool, cfg); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	app, err := server.New(ctx, cfg, pool)
	if err != nil {
		t.Fatalf("failed to wire app: %v", err)
	}
	return app, cfg
}

func TestScheduleClockTimesheetAndPTOJourney(t *testing.T) {
	app, cfg := startApp(t)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	ownerToken := login(t, client, ts.URL, cfg.SeedOwnerEmail, cfg.SeedOwnerPassword)

	locationID := createLocation(t, client, ts.URL, ownerToken)

	employeeEmail := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeePassword := "Employee123!"
	employeeProfileID := createEmployee(t, app, cfg, employeeEmail, employeePassword)

	now := time.Now().UTC()
	shiftID := createShift(t, client, ts.URL, ownerToken, employeeProfileID, locationID, now)

	resp := postJSON(t, client, ts.URL+"/api/v1/shifts/bulk/publish", ownerToken, map[string]any{
		"ids": []string{shiftID},
	})
	var published map[string]any
	if err := json.Unmarshal(resp.Data, &published); err != nil {
		t.Fatalf("failed to decode bulk publish response: %v", err)
	}

	employeeToken := login(t, client, ts.URL, employeeEmail, employeePassword)

	visible := listShifts(t, client, ts.URL, employeeToken)
	if len(visible) != 1 {
		t.Fatalf("expected employee to see 1 published shift, got %d", len(visible))
	}

	postJSON(t, client, ts.URL+"/api/v1/timeclock/clock-in", employeeToken, map[string]any{
		"locationId": locationID,
		"shiftId":    shiftID,
	})
	postJSON(t, client, ts.URL+"/api/v1/timeclock/clock-out", employeeToken, map[string]any{})

	periodStart := now.Truncate(24 * time.Hour).AddDate(0, 0, -1)
	periodEnd := periodStart.AddDate(0, 0, 7)
	sheetID := generateTimesheet(t, client, ts.URL, ownerToken, employeeProfileID, periodStart, periodEnd)

	postJSON(t, client, ts.URL+"/api/v1/timesheets/"+sheetID+"/submit", ownerToken, map[string]any{})
	status := reviewTimesheet(t, client, ts.URL, ownerToken, sheetID, "approve")
	if status != "approved" {
		t.Fatalf("expected timesheet status approved, got %s", status)
	}

	ptoStart := now.AddDate(0, 0, 14)
	if ptoStart.Year() != now.Year() {
		ptoStart = time.Date(now.Year(), 6, 1, 0, 0, 0, 0, time.UTC)
	}

	policyID := createPolicy(t, client, ts.URL, ownerToken)
	postJSON(t, client, ts.URL+"/api/v1/pto/balances/initialize", ownerToken, map[string]any{
		"year": ptoStart.Year(),
	})

	requestID := createPTORequest(t, client, ts.URL, employeeToken, policyID, ptoStart)
	ptoStatus := resolvePTORequest(t, client, ts.URL, ownerToken, requestID, "approve")
	if ptoStatus != "approved" {
		t.Fatalf("expected pto request status approved, got %s", ptoStatus)
	}

	balances := listBalances(t, client, ts.URL, employeeToken, ptoStart.Year())
	if len(balances) == 0 {
		t.Fatal("expected employee balance to exist")
	}
	used, _ := balances[0]["usedDays"].(float64)
	if used != 1 {
		t.Fatalf("expected 1 used day after approval, got %v", used)
	}
}

func TestEmployeeCannotReadOthersTimeEntries(t *testing.T) {
	app, cfg := startApp(t)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	suffix := time.Now().UnixNano()
	firstEmail := fmt.Sprintf("first-%d@example.com", suffix)
	firstPassword := "Employee123!"
	createEmployee(t, app, cfg, firstEmail, firstPassword)

	otherProfileID := createEmployee(t, app, cfg, fmt.Sprintf("other-%d@example.com", suffix), "Employee123!")

	token := login(t, client, ts.URL, firstEmail, firstPassword)
	getJSONStatus(t, client, ts.URL+"/api/v1/timeclock/entries?profileId="+otherProfileID, token, http.StatusForbidden)
}

func createEmployee(t *testing.T, app *server.App, cfg config.Config, email, password string) string {
	t.Helper()
	ctx := context.Background()

	var orgID string
	if err := app.DB.QueryRow(ctx, "SELECT id FROM organizations WHERE name = $1", cfg.SeedOrgName).Scan(&orgID); err != nil {
		t.Fatalf("failed to load organization: %v", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	var userID string
	if err := app.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash)
    VALUES ($1, $2)
    RETURNING id
  `, email, hash).Scan(&userID); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	var profileID string
	if err := app.DB.QueryRow(ctx, `
    INSERT INTO profiles (organization_id, user_id, full_name, role, status)
    VALUES ($1, $2, 'Journey Tester', $3, 'active')
    RETURNING id
  `, orgID, userID, auth.RoleEmployee).Scan(&profileID); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return profileID
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createLocation(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/org/locations", token, map[string]any{
		"name":            "Main Store",
		"geofenceEnabled": false,
		"isActive":        true,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode location response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected location id")
	}
	return id
}

func createShift(t *testing.T, client *http.Client, baseURL, token, profileID, locationID string, now time.Time) string {
	t.Helper()
	start := now.Add(-30 * time.Minute)
	resp := postJSON(t, client, baseURL+"/api/v1/shifts", token, map[string]any{
		"profileId":  profileID,
		"locationId": locationID,
		"position":   "Barista",
		"startTime":  start.Format(time.RFC3339),
		"endTime":    start.Add(8 * time.Hour).Format(time.RFC3339),
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode shift response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected shift id")
	}
	return id
}

func listShifts(t *testing.T, client *http.Client, baseURL, token string) []map[string]any {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/shifts", token)
	var payload []map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode shifts response: %v", err)
	}
	return payload
}

func generateTimesheet(t *testing.T, client *http.Client, baseURL, token, profileID string, start, end time.Time) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/timesheets/generate", token, map[string]any{
		"profileId":   profileID,
		"periodStart": start.Format(time.RFC3339),
		"periodEnd":   end.Format(time.RFC3339),
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode timesheet response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected timesheet id")
	}
	return id
}

func reviewTimesheet(t *testing.T, client *http.Client, baseURL, token, sheetID, action string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/timesheets/"+sheetID+"/"+action, token, map[string]any{})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode timesheet review response: %v", err)
	}
	status, _ := payload["status"].(string)
	return status
}

func createPolicy(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/pto/policies", token, map[string]any{
		"name":          "Annual Leave",
		"daysPerYear":   20,
		"minNoticeDays": 0,
		"isActive":      true,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode policy response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected policy id")
	}
	return id
}

func createPTORequest(t *testing.T, client *http.Client, baseURL, token, policyID string, start time.Time) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/pto/requests", token, map[string]any{
		"policyId":  policyID,
		"startDate": start.Format(time.RFC3339),
		"endDate":   start.Format(time.RFC3339),
		"reason":    "Rest",
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode pto request response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected pto request id")
	}
	return id
}

func resolvePTORequest(t *testing.T, client *http.Client, baseURL, token, requestID, action string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/pto/requests/"+requestID+"/"+action, token, map[string]any{})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode pto resolve response: %v", err)
	}
	status, _ := payload["status"].(string)
	return status
}

func listBalances(t *testing.T, client *http.Client, baseURL, token string, year int) []map[string]any {
	t.Helper()
	resp := getJSON(t, client, fmt.Sprintf("%s/api/v1/pto/balances?year=%d", baseURL, year), token)
	var payload []map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode balances response: %v", err)
	}
	return payload
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
}
