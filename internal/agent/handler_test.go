package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/riddler/internal/a2a"
	"github.com/ashureev/riddler/internal/config"
	"github.com/ashureev/riddler/internal/domain"
	"github.com/ashureev/riddler/internal/intent"
	"github.com/ashureev/riddler/internal/provider"
	"github.com/ashureev/riddler/internal/session"
	"github.com/ashureev/riddler/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// topicProvider echoes the topic into the riddle so tests can see it.
func topicProvider(calls *atomic.Int32) provider.Provider {
	return provider.ProviderFunc(func(_ context.Context, topic string) domain.Riddle {
		n := calls.Add(1)
		return domain.Riddle{
			Riddle: fmt.Sprintf("riddle-%d about %q", n, topic),
			Hint:   fmt.Sprintf("hint-%d", n),
			Answer: fmt.Sprintf("answer-%d", n),
			Source: "fake",
		}
	})
}

func newTestServer(t *testing.T, p provider.Provider, s store.Store, cfg *config.Config) *httptest.Server {
	t.Helper()
	if s == nil {
		s = store.NewMemory(0, 0)
	}
	h := NewHandler(
		intent.NewClassifier(intent.DefaultConfig()),
		session.NewController(s, p, nil),
		nil,
		cfg,
		nil,
	)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	h.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		h.Close()
	})
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) a2a.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+Route, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var out a2a.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func message(taskID, text string) string {
	msg := map[string]any{
		"role":  "user",
		"parts": []map[string]any{{"kind": "text", "text": text}},
	}
	if taskID != "" {
		msg["taskId"] = taskID
	}
	b, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      "req-1",
		"method":  "message/send",
		"params":  map[string]any{"message": msg},
	})
	return string(b)
}

func replyText(t *testing.T, r a2a.Response) string {
	t.Helper()
	parts := r.Result.Status.Message.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		t.Fatalf("Expected non-empty reply text, got %+v", r.Result.Status.Message)
	}
	return parts[0].Text
}

func TestTopicRequestWithoutTaskID(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, topicProvider(&calls), nil, nil)

	first := post(t, srv, message("", "give me a riddle about pyramids"))
	if first.Result.Status.State != a2a.StateCompleted {
		t.Fatalf("Expected completed, got %q", first.Result.Status.State)
	}
	text := replyText(t, first)
	if !strings.Contains(text, `riddle-1 about "pyramids"`) || !strings.Contains(text, "Reply H for hint or A for answer.") {
		t.Errorf("Unexpected reply: %q", text)
	}
	if first.JSONRPC != "2.0" || first.ID != "req-1" {
		t.Errorf("Unexpected envelope: jsonrpc=%q id=%q", first.JSONRPC, first.ID)
	}
	taskID := first.Result.ID
	if !strings.HasPrefix(taskID, "task-") {
		t.Fatalf("Expected synthesized task id, got %q", taskID)
	}
	if first.Result.Status.Message.TaskID != taskID {
		t.Errorf("Expected agent message to carry task id %q, got %q", taskID, first.Result.Status.Message.TaskID)
	}
	if first.Result.ContextID != a2a.DefaultContextID {
		t.Errorf("Expected default context id, got %q", first.Result.ContextID)
	}
	if len(first.Result.Artifacts) != 1 || first.Result.Artifacts[0].Name != a2a.ArtifactName {
		t.Errorf("Expected riddle artifact, got %+v", first.Result.Artifacts)
	}

	// Reusing the synthesized id continues the same session.
	second := post(t, srv, message(taskID, "h"))
	if got := replyText(t, second); !strings.Contains(got, "hint-1") {
		t.Errorf("Expected hint of the first riddle, got %q", got)
	}
	if second.Result.ID != taskID {
		t.Errorf("Expected task id %q to be echoed, got %q", taskID, second.Result.ID)
	}
}

func TestHintReturnsCurrentRiddle(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, topicProvider(&calls), nil, nil)

	first := post(t, srv, message("t1", "riddle"))
	second := post(t, srv, message("t1", "h"))

	if got := replyText(t, second); got != "💡 Hint: hint-1\n\nReply A to see the answer." {
		t.Errorf("Unexpected hint reply: %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected one generation, got %d", calls.Load())
	}
	if first.Result.Artifacts[0].Parts[0].Text != second.Result.Artifacts[0].Parts[0].Text {
		t.Errorf("Expected both responses to describe the same riddle")
	}
}

func TestAnswerAsFirstMessage(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, topicProvider(&calls), nil, nil)

	resp := post(t, srv, message("t9", "a"))
	if resp.Result.Status.State != a2a.StateCompleted {
		t.Fatalf("Expected completed, got %q", resp.Result.Status.State)
	}
	if got := replyText(t, resp); got != "✅ Answer: answer-1\n\nReply anything to get a new riddle!" {
		t.Errorf("Unexpected answer reply: %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected one internal generation, got %d", calls.Load())
	}
}

func TestMalformedBodyStartsRiddle(t *testing.T) {
	for _, body := range []string{`{}`, `not json`, `[1,2,3]`, ``} {
		t.Run(body, func(t *testing.T) {
			var calls atomic.Int32
			srv := newTestServer(t, topicProvider(&calls), nil, nil)

			resp := post(t, srv, body)
			if resp.Result.Status.State != a2a.StateCompleted {
				t.Fatalf("Expected completed, got %q", resp.Result.Status.State)
			}
			if got := replyText(t, resp); !strings.Contains(got, "riddle-1") {
				t.Errorf("Expected a new riddle, got %q", got)
			}
			if !strings.HasPrefix(resp.Result.ID, "task-") {
				t.Errorf("Expected synthesized task id, got %q", resp.Result.ID)
			}
		})
	}
}

func TestOversizedBodyIsMalformed(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, topicProvider(&calls), nil, &config.Config{MaxRequestBodySize: 64})

	body := message("big", strings.Repeat("x", 100))
	resp := post(t, srv, body)
	if resp.Result.ID == "big" {
		t.Errorf("Expected oversized body to be treated as malformed")
	}
	if resp.Result.Status.State != a2a.StateCompleted {
		t.Errorf("Expected completed, got %q", resp.Result.Status.State)
	}
}

func TestReplyAlwaysNonEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, topicProvider(&calls), nil, nil)

	for _, text := range []string{"riddle about cats", "h", "hint", "a", "answer", "", "what?", "H", " A "} {
		resp := post(t, srv, message("p6", text))
		replyText(t, resp)
	}
}

type brokenStore struct {
	store.Store
}

func (brokenStore) Put(context.Context, string, *domain.RiddleRecord) error {
	return fmt.Errorf("database is locked")
}

func TestStoreFailureRendersFailedTask(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, topicProvider(&calls), brokenStore{Store: store.NewMemory(0, 0)}, nil)

	resp := post(t, srv, message("t1", "riddle"))
	if resp.Result.Status.State != a2a.StateFailed {
		t.Fatalf("Expected failed, got %q", resp.Result.Status.State)
	}
	if got := replyText(t, resp); !strings.HasPrefix(got, "Sorry, something went wrong: ") {
		t.Errorf("Unexpected failure text: %q", got)
	}
	if resp.Result.ID != "t1" {
		t.Errorf("Expected task id to be echoed, got %q", resp.Result.ID)
	}
}

func TestPanicRendersFailedTask(t *testing.T) {
	p := provider.ProviderFunc(func(context.Context, string) domain.Riddle {
		panic("provider exploded")
	})
	srv := newTestServer(t, p, nil, nil)

	resp := post(t, srv, message("t1", "riddle"))
	if resp.Result.Status.State != a2a.StateFailed {
		t.Fatalf("Expected failed, got %q", resp.Result.Status.State)
	}
	if got := replyText(t, resp); !strings.Contains(got, "provider exploded") {
		t.Errorf("Expected diagnostic in reply, got %q", got)
	}
}

func TestRateLimitedRoute(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, topicProvider(&calls), nil, &config.Config{
		RateLimit: config.RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute},
	})

	post(t, srv, message("t1", "riddle"))

	resp, err := http.Post(srv.URL+Route, "application/json", bytes.NewBufferString(message("t1", "h")))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", resp.StatusCode)
	}
}

func TestConversationEventsLogged(t *testing.T) {
	var calls atomic.Int32
	rec := &recordingLogger{}
	h := NewHandler(
		intent.NewClassifier(intent.DefaultConfig()),
		session.NewController(store.NewMemory(0, 0), topicProvider(&calls), nil),
		rec,
		nil,
		nil,
	)

	req := httptest.NewRequest(http.MethodPost, Route, strings.NewReader(message("t1", "riddle")))
	w := httptest.NewRecorder()
	h.HandleA2A(w, req)

	if len(rec.events) != 2 {
		t.Fatalf("Expected inbound and outbound events, got %d", len(rec.events))
	}
	if rec.events[0].Direction != "inbound" || rec.events[0].ContentRaw != "riddle" {
		t.Errorf("Unexpected inbound event: %+v", rec.events[0])
	}
	if rec.events[1].Direction != "outbound" || rec.events[1].Meta["state"] != a2a.StateCompleted {
		t.Errorf("Unexpected outbound event: %+v", rec.events[1])
	}
}

type recordingLogger struct {
	events []ConversationLogEvent
}

func (r *recordingLogger) Log(e ConversationLogEvent) {
	r.events = append(r.events, e)
}

func (r *recordingLogger) Close() error {
	return nil
}
