package queue_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-easel/pkg/queue"
)

func TestClient_SubmitAsync(t *testing.T) {
	var sawAuth, sawContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/fal-ai/flux/dev" {
			t.Errorf("path = %s", r.URL.Path)
		}
		sawAuth = r.Header.Get("Authorization")
		sawContentType = r.Header.Get("Content-Type")

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["prompt"] != "a red fox" {
			t.Errorf("prompt = %v", body["prompt"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"request_id":   "req-123",
			"status_url":   "http://example.test/requests/req-123/status",
			"response_url": "http://example.test/requests/req-123",
			"cancel_url":   "http://example.test/requests/req-123/cancel",
		})
	}))
	defer server.Close()

	client := queue.NewClient("secret-key", queue.WithBaseURL(server.URL))
	submission, err := client.Submit(context.Background(), "fal-ai/flux/dev", map[string]any{"prompt": "a red fox"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if sawAuth != "Key secret-key" {
		t.Fatalf("authorization header = %q", sawAuth)
	}
	if sawContentType != "application/json" {
		t.Fatalf("content type = %q", sawContentType)
	}
	if !submission.Async() {
		t.Fatal("expected asynchronous submission")
	}
	if submission.Handle.RequestID != "req-123" {
		t.Fatalf("request id = %q", submission.Handle.RequestID)
	}
	if submission.Handle.CancelURL == "" {
		t.Fatal("cancel url should be carried through")
	}
}

func TestClient_SubmitSynchronousResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"images": []map[string]any{
				{"url": "https://cdn.test/out.jpg", "file_name": "out.jpg"},
			},
			"seed": 42,
		})
	}))
	defer server.Close()

	client := queue.NewClient("secret-key", queue.WithBaseURL(server.URL))
	submission, err := client.Submit(context.Background(), "fal-ai/fast-sdxl", map[string]any{"prompt": "x"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submission.Async() {
		t.Fatal("expected synchronous result")
	}
	if len(submission.Result.Images) != 1 || submission.Result.Images[0].URL != "https://cdn.test/out.jpg" {
		t.Fatalf("images = %#v", submission.Result.Images)
	}
}

func TestClient_SubmitRequiresKey(t *testing.T) {
	client := queue.NewClient("")
	if _, err := client.Submit(context.Background(), "fal-ai/flux/dev", nil); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestClient_StatusRequestsLogs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("logs"); got != "1" {
			t.Errorf("logs param = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":         "IN_QUEUE",
			"queue_position": 3,
		})
	}))
	defer server.Close()

	client := queue.NewClient("k")
	status, err := client.Status(context.Background(), queue.Handle{StatusURL: server.URL + "/requests/r1/status"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Status != queue.StatusInQueue || status.QueuePosition != 3 {
		t.Fatalf("status = %+v", status)
	}
}

func TestClient_CancelIgnoresResponseBody(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Method != http.MethodPut {
			t.Errorf("cancel method = %s", r.Method)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"already finished"}`))
	}))
	defer server.Close()

	client := queue.NewClient("k")
	err := client.Cancel(context.Background(), queue.Handle{CancelURL: server.URL + "/requests/r1/cancel"})
	if err != nil {
		t.Fatalf("cancel should swallow http errors, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("cancel hits = %d", hits)
	}
}

func TestClient_CancelDerivesURLFromStatus(t *testing.T) {
	var sawPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawPath = r.URL.Path
	}))
	defer server.Close()

	client := queue.NewClient("k")
	handle := queue.Handle{StatusURL: server.URL + "/requests/r1/status"}
	if err := client.Cancel(context.Background(), handle); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sawPath != "/requests/r1/cancel" {
		t.Fatalf("cancel path = %q", sawPath)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw   string
		want  queue.Status
		known bool
	}{
		{"COMPLETED", queue.StatusCompleted, true},
		{"in_progress", queue.StatusInProgress, true},
		{" In_Queue ", queue.StatusInQueue, true},
		{"WARMING_UP", queue.Status("WARMING_UP"), false},
	}
	for _, tc := range cases {
		got, known := queue.ParseStatus(tc.raw)
		if got != tc.want || known != tc.known {
			t.Fatalf("ParseStatus(%q) = %q %v, want %q %v", tc.raw, got, known, tc.want, tc.known)
		}
	}

	if !queue.StatusCompleted.Terminal() || !queue.StatusFailed.Terminal() {
		t.Fatal("completed/failed should be terminal")
	}
	if queue.StatusInProgress.Terminal() {
		t.Fatal("in_progress should not be terminal")
	}
}
