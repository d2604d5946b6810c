package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"taskhub/pkg/message"
	"taskhub/pkg/notify"
	"taskhub/pkg/pricing"
	"taskhub/pkg/task"
)

func newTestServer() (*Server, *task.MemStore) {
	tasks := task.NewMemStore()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := New(tasks, message.NewMemStore(), notify.NewMemStore(), pricing.NewCalculator(0.10), log)
	return s, tasks
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func createBody(price float64) map[string]any {
	return map[string]any{
		"title":           "Deep clean apartment",
		"description":     "Two-bedroom apartment, kitchen and both bathrooms",
		"clientId":        "client-1",
		"categoryId":      "CLEANING",
		"addressId":       "addr-1",
		"scheduledAt":     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"durationEstMins": 120,
		"priceGHS":        price,
	}
}

func createTask(t *testing.T, s *Server, price float64) string {
	t.Helper()
	w := doJSON(t, s, "POST", "/tasks", createBody(price))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	decode(t, w, &resp)
	if !resp.Success || resp.Data.TaskID == "" {
		t.Fatalf("unexpected create response: %s", w.Body.String())
	}
	return resp.Data.TaskID
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer()
	w := doJSON(t, s, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp map[string]any
	decode(t, w, &resp)
	if resp["status"] != "healthy" || resp["version"] == "" || resp["timestamp"] == "" {
		t.Fatalf("unexpected health payload: %v", resp)
	}
}

func TestCreateTaskComputesFee(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)

	w := doJSON(t, s, "GET", "/tasks/"+id, nil)
	var resp struct {
		Data task.Task `json:"data"`
	}
	decode(t, w, &resp)
	if resp.Data.PlatformFeeGHS != 10 {
		t.Errorf("fee for 100 at 10%% should be 10, got %v", resp.Data.PlatformFeeGHS)
	}
	if resp.Data.Status != task.StatusCreated {
		t.Errorf("new task should be CREATED, got %s", resp.Data.Status)
	}
	if resp.Data.TaskerID != nil {
		t.Error("new task should have no tasker")
	}
}

func TestCreateTaskBelowMinPrice(t *testing.T) {
	s, _ := newTestServer()
	w := doJSON(t, s, "POST", "/tasks", createBody(5))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decode(t, w, &resp)
	if resp.Success || !strings.Contains(resp.Error, "minimum price") {
		t.Fatalf("error should mention minimum price: %s", resp.Error)
	}
}

func TestCreateTaskListsEveryViolation(t *testing.T) {
	s, _ := newTestServer()
	w := doJSON(t, s, "POST", "/tasks", map[string]any{
		"title":    "Mop",
		"priceGHS": 5,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	body := w.Body.String()
	for _, field := range []string{"title", "description", "priceGHS", "durationEstMins", "scheduledAt"} {
		if !strings.Contains(body, field) {
			t.Errorf("response should mention %s: %s", field, body)
		}
	}
}

func TestGetTaskNotFound(t *testing.T) {
	s, _ := newTestServer()
	w := doJSON(t, s, "GET", "/tasks/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}

func TestAssignFlow(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)

	w := doJSON(t, s, "POST", "/tasks/"+id+"/assign", map[string]string{"taskerId": "T1"})
	if w.Code != http.StatusOK {
		t.Fatalf("assign: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data task.Task `json:"data"`
	}
	decode(t, w, &resp)
	if resp.Data.Status != task.StatusAssigned || resp.Data.TaskerID == nil || *resp.Data.TaskerID != "T1" {
		t.Fatalf("unexpected task after assign: %+v", resp.Data)
	}

	// second assign conflicts
	w = doJSON(t, s, "POST", "/tasks/"+id+"/assign", map[string]string{"taskerId": "T2"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second assign: status %d, want 409", w.Code)
	}
}

func TestAssignRequiresTasker(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)
	w := doJSON(t, s, "POST", "/tasks/"+id+"/assign", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestStatusRouteEnforcesLifecycle(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)
	doJSON(t, s, "POST", "/tasks/"+id+"/assign", map[string]string{"taskerId": "T1"})

	for _, next := range []task.Status{task.StatusEnRoute, task.StatusOnSite, task.StatusInProgress, task.StatusCompleted} {
		w := doJSON(t, s, "POST", "/tasks/"+id+"/status", map[string]string{"status": string(next)})
		if w.Code != http.StatusOK {
			t.Fatalf("to %s: status %d: %s", next, w.Code, w.Body.String())
		}
	}

	// COMPLETED is terminal
	w := doJSON(t, s, "POST", "/tasks/"+id+"/status", map[string]string{"status": "IN_PROGRESS"})
	if w.Code != http.StatusConflict {
		t.Fatalf("COMPLETED -> IN_PROGRESS: status %d, want 409", w.Code)
	}

	// unknown status is a validation problem, not a conflict
	w = doJSON(t, s, "POST", "/tasks/"+id+"/status", map[string]string{"status": "SHIPPED"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d, want 400", w.Code)
	}
}

func TestUpdateRejectsStatusField(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)
	w := doJSON(t, s, "PUT", "/tasks/"+id, map[string]any{"status": "ASSIGNED"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/tasks/{id}/status") {
		t.Fatalf("response should point at the status route: %s", w.Body.String())
	}
}

func TestUpdateRecomputesFee(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)
	w := doJSON(t, s, "PUT", "/tasks/"+id, map[string]any{"priceGHS": 200})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data task.Task `json:"data"`
	}
	decode(t, w, &resp)
	if resp.Data.PlatformFeeGHS != 20 {
		t.Fatalf("fee should follow the price, got %v", resp.Data.PlatformFeeGHS)
	}
}

func TestDeleteGuard(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)
	doJSON(t, s, "POST", "/tasks/"+id+"/assign", map[string]string{"taskerId": "T1"})
	doJSON(t, s, "POST", "/tasks/"+id+"/status", map[string]string{"status": "EN_ROUTE"})
	doJSON(t, s, "POST", "/tasks/"+id+"/status", map[string]string{"status": "ON_SITE"})
	doJSON(t, s, "POST", "/tasks/"+id+"/status", map[string]string{"status": "IN_PROGRESS"})

	w := doJSON(t, s, "DELETE", "/tasks/"+id, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("deleting IN_PROGRESS: status %d, want 409", w.Code)
	}
	if w := doJSON(t, s, "GET", "/tasks/"+id, nil); w.Code != http.StatusOK {
		t.Fatal("task should survive a refused delete")
	}

	fresh := createTask(t, s, 100)
	if w := doJSON(t, s, "DELETE", "/tasks/"+fresh, nil); w.Code != http.StatusOK {
		t.Fatalf("deleting CREATED: status %d", w.Code)
	}
	if w := doJSON(t, s, "GET", "/tasks/"+fresh, nil); w.Code != http.StatusNotFound {
		t.Fatal("deleted task should 404")
	}
}

func TestListPaginationEnvelope(t *testing.T) {
	s, _ := newTestServer()
	for i := 0; i < 45; i++ {
		createTask(t, s, 100)
	}

	w := doJSON(t, s, "GET", "/tasks?page=3&limit=20", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success    bool        `json:"success"`
		Data       []task.Task `json:"data"`
		Total      int         `json:"total"`
		Page       int         `json:"page"`
		Limit      int         `json:"limit"`
		TotalPages int         `json:"totalPages"`
	}
	decode(t, w, &resp)
	if len(resp.Data) != 5 || resp.Total != 45 || resp.TotalPages != 3 || resp.Page != 3 || resp.Limit != 20 {
		t.Fatalf("unexpected page: items=%d total=%d pages=%d", len(resp.Data), resp.Total, resp.TotalPages)
	}
}

func TestListRejectsZeroLimit(t *testing.T) {
	s, _ := newTestServer()
	w := doJSON(t, s, "GET", "/tasks?limit=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("limit=0: status %d, want 400", w.Code)
	}
}

func TestListFilterByStatus(t *testing.T) {
	s, _ := newTestServer()
	a := createTask(t, s, 100)
	createTask(t, s, 100)
	doJSON(t, s, "POST", "/tasks/"+a+"/assign", map[string]string{"taskerId": "T1"})

	w := doJSON(t, s, "GET", "/tasks?status=ASSIGNED", nil)
	var resp struct {
		Total int `json:"total"`
	}
	decode(t, w, &resp)
	if resp.Total != 1 {
		t.Fatalf("one ASSIGNED task expected, got %d", resp.Total)
	}

	if w := doJSON(t, s, "GET", "/tasks?status=SHIPPED", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status filter: %d, want 400", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)
	doJSON(t, s, "POST", "/tasks/"+id+"/assign", map[string]string{"taskerId": "T1"})
	doJSON(t, s, "POST", "/tasks/"+id+"/status", map[string]any{"status": "EN_ROUTE", "note": "on my way"})

	w := doJSON(t, s, "GET", "/tasks/"+id+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Data []task.HistoryEntry `json:"data"`
	}
	decode(t, w, &resp)
	if len(resp.Data) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(resp.Data))
	}
	if resp.Data[2].Note != "on my way" {
		t.Fatalf("note missing from history: %+v", resp.Data[2])
	}
}

func TestQuoteEndpoint(t *testing.T) {
	s, _ := newTestServer()
	w := doJSON(t, s, "POST", "/pricing/quote", map[string]any{"priceGHS": 100})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data pricing.Quote `json:"data"`
	}
	decode(t, w, &resp)
	if resp.Data.PlatformFeeGHS != 10 || resp.Data.TotalGHS != 110 {
		t.Fatalf("unexpected quote: %+v", resp.Data)
	}

	if w := doJSON(t, s, "POST", "/pricing/quote", map[string]any{"priceGHS": 5}); w.Code != http.StatusBadRequest {
		t.Fatalf("below-minimum quote: %d, want 400", w.Code)
	}
}

func TestStatusesMetadata(t *testing.T) {
	s, _ := newTestServer()
	w := doJSON(t, s, "GET", "/statuses", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Data []struct {
			Status   task.Status   `json:"status"`
			Label    string        `json:"label"`
			Next     []task.Status `json:"next"`
			Terminal bool          `json:"terminal"`
		} `json:"data"`
	}
	decode(t, w, &resp)
	if len(resp.Data) != 8 {
		t.Fatalf("expected 8 statuses, got %d", len(resp.Data))
	}
	for _, info := range resp.Data {
		if info.Terminal != (len(info.Next) == 0) {
			t.Errorf("%s: terminal flag disagrees with next list", info.Status)
		}
	}
}

func TestMessageThread(t *testing.T) {
	s, _ := newTestServer()
	id := createTask(t, s, 100)

	w := doJSON(t, s, "POST", "/tasks/"+id+"/messages", map[string]string{
		"senderId": "client-1",
		"content":  "Please bring your own supplies",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create message: status %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, "GET", "/tasks/"+id+"/messages", nil)
	var resp struct {
		Data []message.Message `json:"data"`
	}
	decode(t, w, &resp)
	if len(resp.Data) != 1 || resp.Data[0].Content != "Please bring your own supplies" {
		t.Fatalf("unexpected thread: %+v", resp.Data)
	}
	if resp.Data[0].Type != "text" {
		t.Errorf("type should default to text, got %q", resp.Data[0].Type)
	}

	// unknown task 404s
	if w := doJSON(t, s, "GET", "/tasks/nope/messages", nil); w.Code != http.StatusNotFound {
		t.Fatalf("messages of unknown task: %d, want 404", w.Code)
	}
	// missing fields 400
	if w := doJSON(t, s, "POST", "/tasks/"+id+"/messages", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty message: %d, want 400", w.Code)
	}
}

func TestNotificationsRequireUser(t *testing.T) {
	s, _ := newTestServer()
	if w := doJSON(t, s, "GET", "/notifications", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing userId: %d, want 400", w.Code)
	}
	w := doJSON(t, s, "GET", "/notifications?userId=client-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest("POST", "/tasks", strings.NewReader("{broken"))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("broken JSON: status %d, want 400", w.Code)
	}
}

func TestListBeyondRangeIsEmpty(t *testing.T) {
	s, _ := newTestServer()
	createTask(t, s, 100)
	w := doJSON(t, s, "GET", fmt.Sprintf("/tasks?page=%d&limit=20", 50), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var resp struct {
		Data  []task.Task `json:"data"`
		Total int         `json:"total"`
	}
	decode(t, w, &resp)
	if len(resp.Data) != 0 || resp.Total != 1 {
		t.Fatalf("beyond-range page should be empty with total intact: %+v", resp)
	}
}
