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

	"taskpay/internal/app/server"
	"taskpay/internal/platform/config"
	"taskpay/internal/platform/db"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func startApp(t *testing.T) (*server.App, *httptest.Server) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:    dbURL,
		Environment:    "test",
		MigrationsDir:  "../../../../migrations",
		RunMigrations:  true,
		MaxBodyBytes:   1048576,
		MetricsEnabled: true,
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}

	app := server.New(cfg, pool)
	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return app, ts
}

func TestTaskToPaymentJourney(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	employeeID := fmt.Sprintf("emp-%d", time.Now().UnixNano())
	base := ts.URL + "/api/v1"

	// Two units of approved work plus one rejected submission.
	first := createTask(t, client, base, employeeID, "overtime", "2026-03-02", 4, 10)
	second := createTask(t, client, base, employeeID, "project", "2026-03-04", 5, 20)
	third := createTask(t, client, base, employeeID, "overtime", "2026-03-05", 1, 30)

	approveTask(t, client, base, first)
	approveTask(t, client, base, second)
	postStatus(t, client, base+"/tasks/"+third+"/reject", nil, http.StatusOK)

	available := listTasks(t, client, base+"/employees/"+employeeID+"/tasks/available")
	if len(available) != 2 {
		t.Fatalf("expected 2 available tasks, got %d", len(available))
	}

	balance := getBalance(t, client, base, employeeID)
	if balance != 140 {
		t.Fatalf("expected balance 140 before payment, got %v", balance)
	}

	paymentID, total := createPayment(t, client, base, employeeID, []string{first, second})
	if total != 2500+140+100+50-150-500 {
		t.Fatalf("unexpected payment total %v", total)
	}

	// Draft payments do not discharge anything.
	if balance := getBalance(t, client, base, employeeID); balance != 140 {
		t.Fatalf("expected balance 140 while payment is draft, got %v", balance)
	}

	postStatus(t, client, base+"/payments/"+paymentID+"/submit", nil, http.StatusOK)
	postStatus(t, client, base+"/payments/"+paymentID+"/approve", nil, http.StatusOK)
	postStatus(t, client, base+"/payments/"+paymentID+"/process", nil, http.StatusOK)

	// Processing cascades the linked tasks to paid and settles the book.
	if balance := getBalance(t, client, base, employeeID); balance != 0 {
		t.Fatalf("expected balance 0 after processing, got %v", balance)
	}

	stmt := getStatement(t, client, base, employeeID)
	if len(stmt.Entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(stmt.Entries))
	}
	if stmt.ClosingBalance != 0 {
		t.Fatalf("expected closing balance 0, got %v", stmt.ClosingBalance)
	}

	// Paid work is immutable.
	patchStatus(t, client, base+"/tasks/"+first, map[string]any{"hours": 9.0, "version": 3}, http.StatusConflict)
	deleteStatus(t, client, base+"/payments/"+paymentID, http.StatusConflict)
	postStatus(t, client, base+"/payments/"+paymentID+"/process", nil, http.StatusConflict)
}

func TestStaleVersionRejected(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	employeeID := fmt.Sprintf("emp-%d", time.Now().UnixNano())
	base := ts.URL + "/api/v1"

	taskID := createTask(t, client, base, employeeID, "overtime", "2026-04-01", 2, 15)

	// First writer wins; the second still holds version 1.
	patchStatus(t, client, base+"/tasks/"+taskID, map[string]any{"hours": 3.0, "version": 1}, http.StatusOK)
	patchStatus(t, client, base+"/tasks/"+taskID, map[string]any{"hours": 4.0, "version": 1}, http.StatusConflict)
}

func TestSnapshotRoundtrip(t *testing.T) {
	_, ts := startApp(t)
	client := ts.Client()

	source := fmt.Sprintf("emp-%d", time.Now().UnixNano())
	target := source + "-copy"
	base := ts.URL + "/api/v1"

	taskID := createTask(t, client, base, source, "overtime", "2026-05-02", 3, 20)
	approveTask(t, client, base, taskID)
	paymentID, _ := createPayment(t, client, base, source, []string{taskID})
	postStatus(t, client, base+"/payments/"+paymentID+"/process", nil, http.StatusOK)

	resp, err := client.Get(base + "/employees/" + source + "/snapshot")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	exported, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("export status %d err %v", resp.StatusCode, err)
	}

	resp, err = client.Post(base+"/employees/"+target+"/snapshot", "application/json", bytes.NewReader(exported))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import status %d", resp.StatusCode)
	}

	if balance := getBalance(t, client, base, target); balance != 0 {
		t.Fatalf("imported book should be settled, balance %v", balance)
	}
	tasks := listTasks(t, client, base+"/employees/"+target+"/tasks")
	if len(tasks) != 1 {
		t.Fatalf("expected 1 imported task, got %d", len(tasks))
	}

	// Importing again replaces the book instead of stacking a second copy.
	resp, err = client.Post(base+"/employees/"+target+"/snapshot", "application/json", bytes.NewReader(exported))
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("second import status %d", resp.StatusCode)
	}
	if tasks := listTasks(t, client, base+"/employees/"+target+"/tasks"); len(tasks) != 1 {
		t.Fatalf("expected replace semantics with 1 task, got %d", len(tasks))
	}
	if balance := getBalance(t, client, base, target); balance != 0 {
		t.Fatalf("re-imported book should stay settled, balance %v", balance)
	}

	// A corrupt document is rejected whole.
	resp, err = client.Post(base+"/employees/"+target+"/snapshot", "application/json", bytes.NewReader([]byte(`{"employeeTasks": [{`)))
	if err != nil {
		t.Fatalf("corrupt import request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("corrupt import status %d, want 400", resp.StatusCode)
	}
}

func createTask(t *testing.T, client *http.Client, base, employeeID, taskType, date string, hours, rate float64) string {
	t.Helper()
	resp := postJSON(t, client, base+"/employees/"+employeeID+"/tasks", map[string]any{
		"type":        taskType,
		"description": "journey work",
		"date":        date,
		"hours":       hours,
		"rate":        rate,
	}, http.StatusCreated)
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("new task status %q, want pending", created.Status)
	}
	return created.ID
}

func approveTask(t *testing.T, client *http.Client, base, taskID string) {
	t.Helper()
	postStatus(t, client, base+"/tasks/"+taskID+"/approve", nil, http.StatusOK)
}

func createPayment(t *testing.T, client *http.Client, base, employeeID string, taskIDs []string) (string, float64) {
	t.Helper()
	resp := postJSON(t, client, base+"/employees/"+employeeID+"/payments", map[string]any{
		"month":         "2026-03",
		"date":          "2026-03-31",
		"dueDate":       "2026-04-05",
		"baseSalary":    2500.0,
		"taskIds":       taskIDs,
		"bonus":         100.0,
		"allowances":    50.0,
		"deductions":    150.0,
		"taxes":         500.0,
		"paymentMethod": "bank_transfer",
	}, http.StatusCreated)
	var created struct {
		ID     string  `json:"id"`
		Total  float64 `json:"total"`
		Status string  `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if created.Status != "draft" {
		t.Fatalf("new payment status %q, want draft", created.Status)
	}
	return created.ID, created.Total
}

func listTasks(t *testing.T, client *http.Client, url string) []map[string]any {
	t.Helper()
	resp := getJSON(t, client, url, http.StatusOK)
	var tasks []map[string]any
	if err := json.Unmarshal(resp.Data, &tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	return tasks
}

func getBalance(t *testing.T, client *http.Client, base, employeeID string) float64 {
	t.Helper()
	resp := getJSON(t, client, base+"/employees/"+employeeID+"/balance", http.StatusOK)
	var payload struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	return payload.Balance
}

type statementPayload struct {
	Entries []struct {
		Kind   string  `json:"kind"`
		Amount float64 `json:"amount"`
	} `json:"entries"`
	ClosingBalance float64 `json:"closingBalance"`
}

func getStatement(t *testing.T, client *http.Client, base, employeeID string) statementPayload {
	t.Helper()
	resp := getJSON(t, client, base+"/employees/"+employeeID+"/ledger", http.StatusOK)
	var stmt statementPayload
	if err := json.Unmarshal(resp.Data, &stmt); err != nil {
		t.Fatalf("decode statement: %v", err)
	}
	return stmt
}

func getJSON(t *testing.T, client *http.Client, url string, wantStatus int) envelope {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	return decodeEnvelope(t, resp, url, wantStatus)
}

func postJSON(t *testing.T, client *http.Client, url string, body any, wantStatus int) envelope {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return decodeEnvelope(t, resp, url, wantStatus)
}

func postStatus(t *testing.T, client *http.Client, url string, body any, wantStatus int) {
	t.Helper()
	var reader io.Reader = bytes.NewReader([]byte("{}"))
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	resp, err := client.Post(url, "application/json", reader)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	decodeEnvelope(t, resp, url, wantStatus)
}

func patchStatus(t *testing.T, client *http.Client, url string, body any, wantStatus int) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build PATCH %s: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PATCH %s failed: %v", url, err)
	}
	decodeEnvelope(t, resp, url, wantStatus)
}

func deleteStatus(t *testing.T, client *http.Client, url string, wantStatus int) {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("build DELETE %s: %v", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s failed: %v", url, err)
	}
	decodeEnvelope(t, resp, url, wantStatus)
}

func decodeEnvelope(t *testing.T, resp *http.Response, url string, wantStatus int) envelope {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response from %s: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s returned %d, want %d: %s", url, resp.StatusCode, wantStatus, string(body))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope from %s: %v", url, err)
	}
	return env
}
