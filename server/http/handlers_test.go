package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/w-h-a/recall/internal/service/chat"
	memorystore "github.com/w-h-a/recall/store/memory"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0, 0}, nil
}

type stubGenerator struct {
	output string
	err    error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func newTestServer(t *testing.T, gen *stubGenerator) *httptest.Server {
	t.Helper()
	if gen == nil {
		gen = &stubGenerator{output: "{}"}
	}
	service := chat.New(&stubEmbedder{}, memorystore.NewStore(), gen, 0.5)
	srv := httptest.NewServer(NewHandler(service, 5*time.Second).Router())
	t.Cleanup(srv.Close)
	return srv
}

func decodeEnvelope(t *testing.T, rsp *http.Response) Envelope {
	t.Helper()
	defer rsp.Body.Close()
	var envelope Envelope
	if err := json.NewDecoder(rsp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope
}

func TestSaveChatEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{"title":"go talk","content":"channels and selects","tags":["go"]}`
	rsp, err := http.Post(srv.URL+"/api/save-chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/save-chat: %v", err)
	}
	if rsp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/save-chat: status %d", rsp.StatusCode)
	}

	envelope := decodeEnvelope(t, rsp)
	if !envelope.Success {
		t.Fatalf("POST /api/save-chat: success=false: %+v", envelope)
	}

	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("POST /api/save-chat: unexpected data shape: %T", envelope.Data)
	}
	if data["title"] != "go talk" {
		t.Fatalf("POST /api/save-chat: title mismatch: %v", data["title"])
	}
	if id, _ := data["id"].(string); len(id) == 0 {
		t.Fatal("POST /api/save-chat: missing id")
	}
	if _, exists := data["content"]; exists {
		t.Fatal("POST /api/save-chat: content must not be echoed back")
	}
}

func TestSaveChatEndpointRejectsMissingFields(t *testing.T) {
	srv := newTestServer(t, nil)

	rsp, err := http.Post(srv.URL+"/api/save-chat", "application/json", strings.NewReader(`{"title":"only a title"}`))
	if err != nil {
		t.Fatalf("POST /api/save-chat: %v", err)
	}
	if rsp.StatusCode != http.StatusBadRequest {
		t.Fatalf("POST /api/save-chat: want 400, got %d", rsp.StatusCode)
	}

	envelope := decodeEnvelope(t, rsp)
	if envelope.Success {
		t.Fatal("POST /api/save-chat: success=true on invalid input")
	}
}

func TestSearchChatsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	save := `{"title":"go talk","content":"channels and selects"}`
	if _, err := http.Post(srv.URL+"/api/save-chat", "application/json", strings.NewReader(save)); err != nil {
		t.Fatalf("POST /api/save-chat: %v", err)
	}

	rsp, err := http.Get(srv.URL + "/api/search-chats?q=channels&limit=3")
	if err != nil {
		t.Fatalf("GET /api/search-chats: %v", err)
	}
	if rsp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/search-chats: status %d", rsp.StatusCode)
	}

	envelope := decodeEnvelope(t, rsp)
	results, ok := envelope.Data.([]any)
	if !ok {
		t.Fatalf("GET /api/search-chats: unexpected data shape: %T", envelope.Data)
	}
	if len(results) != 1 {
		t.Fatalf("GET /api/search-chats: want 1 result, got %d", len(results))
	}

	result := results[0].(map[string]any)
	if result["summary"] != "channels and selects..." {
		t.Fatalf("GET /api/search-chats: summary fallback mismatch: %v", result["summary"])
	}
	if result["similarity"] != 1.0 {
		t.Fatalf("GET /api/search-chats: similarity mismatch: %v", result["similarity"])
	}
}

func TestSearchChatsEndpointRequiresQuery(t *testing.T) {
	srv := newTestServer(t, nil)

	rsp, err := http.Get(srv.URL + "/api/search-chats")
	if err != nil {
		t.Fatalf("GET /api/search-chats: %v", err)
	}
	if rsp.StatusCode != http.StatusBadRequest {
		t.Fatalf("GET /api/search-chats: want 400, got %d", rsp.StatusCode)
	}
}

func TestSearchChatsEndpointRejectsBadParams(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, query := range []string{
		"/api/search-chats?q=x&limit=zero",
		"/api/search-chats?q=x&limit=-1",
		"/api/search-chats?q=x&threshold=2",
		"/api/search-chats?q=x&threshold=abc",
	} {
		rsp, err := http.Get(srv.URL + query)
		if err != nil {
			t.Fatalf("GET %s: %v", query, err)
		}
		rsp.Body.Close()
		if rsp.StatusCode != http.StatusBadRequest {
			t.Fatalf("GET %s: want 400, got %d", query, rsp.StatusCode)
		}
	}
}

func TestListAndGetEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rsp, err := http.Post(srv.URL+"/api/save-chat", "application/json", strings.NewReader(`{"title":"t","content":"c"}`))
	if err != nil {
		t.Fatalf("POST /api/save-chat: %v", err)
	}
	saved := decodeEnvelope(t, rsp)
	id := saved.Data.(map[string]any)["id"].(string)

	rsp, err = http.Get(srv.URL + "/api/chats")
	if err != nil {
		t.Fatalf("GET /api/chats: %v", err)
	}
	listed := decodeEnvelope(t, rsp)
	chats, ok := listed.Data.([]any)
	if !ok || len(chats) != 1 {
		t.Fatalf("GET /api/chats: want 1 chat, got %+v", listed.Data)
	}
	if _, exists := chats[0].(map[string]any)["content"]; exists {
		t.Fatal("GET /api/chats: list view must not include content")
	}

	rsp, err = http.Get(fmt.Sprintf("%s/api/chats/%s", srv.URL, id))
	if err != nil {
		t.Fatalf("GET /api/chats/{id}: %v", err)
	}
	fetched := decodeEnvelope(t, rsp)
	record, ok := fetched.Data.(map[string]any)
	if !ok {
		t.Fatalf("GET /api/chats/{id}: unexpected data shape: %T", fetched.Data)
	}
	if record["content"] != "c" {
		t.Fatalf("GET /api/chats/{id}: content mismatch: %v", record["content"])
	}
}

func TestGetChatNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	rsp, err := http.Get(srv.URL + "/api/chats/does-not-exist")
	if err != nil {
		t.Fatalf("GET /api/chats/{id}: %v", err)
	}
	rsp.Body.Close()
	if rsp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET /api/chats/{id}: want 404, got %d", rsp.StatusCode)
	}
}

func TestAnalyzeChatEndpointSentinelFallback(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{output: "this is not json"})

	rsp, err := http.Post(srv.URL+"/api/analyze-chat", "application/json", strings.NewReader(`{"content":"a transcript"}`))
	if err != nil {
		t.Fatalf("POST /api/analyze-chat: %v", err)
	}
	if rsp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/analyze-chat: want 200 despite parse failure, got %d", rsp.StatusCode)
	}

	envelope := decodeEnvelope(t, rsp)
	data := envelope.Data.(map[string]any)
	if data["category"] != "other" {
		t.Fatalf("POST /api/analyze-chat: want sentinel category, got %v", data["category"])
	}
	insights, _ := data["key_insights"].([]any)
	if len(insights) != 1 || insights[0] != "analysis retry needed" {
		t.Fatalf("POST /api/analyze-chat: want sentinel insights, got %v", insights)
	}
}

func TestAnalyzeChatEndpointRequiresContent(t *testing.T) {
	srv := newTestServer(t, nil)

	rsp, err := http.Post(srv.URL+"/api/analyze-chat", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /api/analyze-chat: %v", err)
	}
	rsp.Body.Close()
	if rsp.StatusCode != http.StatusBadRequest {
		t.Fatalf("POST /api/analyze-chat: want 400, got %d", rsp.StatusCode)
	}
}

func TestMethodMismatch(t *testing.T) {
	srv := newTestServer(t, nil)

	rsp, err := http.Get(srv.URL + "/api/save-chat")
	if err != nil {
		t.Fatalf("GET /api/save-chat: %v", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /api/save-chat: want 405, got %d", rsp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(rsp.Body).Decode(&body); err != nil {
		t.Fatalf("decode 405 body: %v", err)
	}
	if body["message"] != "Method not allowed" {
		t.Fatalf("GET /api/save-chat: message mismatch: %q", body["message"])
	}
}

func TestToolDiscoveryAndExecution(t *testing.T) {
	srv := newTestServer(t, nil)

	rsp, err := http.Post(srv.URL+"/api/tools", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("POST /api/tools: %v", err)
	}
	var catalog struct {
		Version string           `json:"version"`
		Tools   []map[string]any `json:"tools"`
	}
	if err := json.NewDecoder(rsp.Body).Decode(&catalog); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	rsp.Body.Close()
	if len(catalog.Tools) != 2 {
		t.Fatalf("POST /api/tools: want 2 tools, got %d", len(catalog.Tools))
	}

	call := `{"tool":"save_chat","arguments":{"title":"t","content":"c"}}`
	rsp, err = http.Post(srv.URL+"/api/tools", "application/json", strings.NewReader(call))
	if err != nil {
		t.Fatalf("POST /api/tools: %v", err)
	}
	var executed struct {
		Result map[string]any `json:"result"`
	}
	if err := json.NewDecoder(rsp.Body).Decode(&executed); err != nil {
		t.Fatalf("decode tool result: %v", err)
	}
	rsp.Body.Close()
	if id, _ := executed.Result["id"].(string); len(id) == 0 {
		t.Fatalf("POST /api/tools: save_chat result missing id: %+v", executed.Result)
	}

	call = `{"tool":"nope","arguments":{}}`
	rsp, err = http.Post(srv.URL+"/api/tools", "application/json", strings.NewReader(call))
	if err != nil {
		t.Fatalf("POST /api/tools: %v", err)
	}
	rsp.Body.Close()
	if rsp.StatusCode != http.StatusBadRequest {
		t.Fatalf("POST /api/tools: want 400 for unknown tool, got %d", rsp.StatusCode)
	}
}
