package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory cache.Store for tests.
type memStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemStore() *memStore { return &memStore{m: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *memStore) Close() error { return nil }

func responsesBody(text string) string {
	return fmt.Sprintf(`{"id":"resp_1","model":"gpt-test","output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":%s}]}],"usage":{"input_tokens":10,"output_tokens":5,"total_tokens":15}}`, strconv.Quote(text))
}

func testRequest() Request {
	return Request{
		Model:           "gpt-test",
		Input:           []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "usr"}},
		Temperature:     0,
		TopP:            1.0,
		MaxOutputTokens: 256,
		Mode:            ModeJSONSchema,
		SchemaName:      "clue_candidate",
		Schema:          map[string]any{"type": "object"},
	}
}

func newTestClient(t *testing.T, baseURL string, store *memStore) *Client {
	t.Helper()
	opts := Options{
		BaseURL:        baseURL,
		Retries:        3,
		InitialBackoff: time.Millisecond,
	}
	if store != nil {
		opts.Cache = store
	}
	c, err := New("test-key", opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("  ", Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestClient_CreateJSON_ParsesResponse(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		fmt.Fprint(w, responsesBody(`{"clue":"RIVER","number":2}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	res, err := c.CreateJSON(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJSON: %v", err)
	}
	obj, ok := res.Parsed.(map[string]any)
	if !ok {
		t.Fatalf("Parsed = %T, want map", res.Parsed)
	}
	if obj["clue"] != "RIVER" {
		t.Errorf("clue = %v, want RIVER", obj["clue"])
	}
	if res.ResponseID != "resp_1" || res.Model != "gpt-test" {
		t.Errorf("id/model = %q/%q", res.ResponseID, res.Model)
	}
	if res.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d, want 15", res.Usage.TotalTokens)
	}
	if res.FromCache {
		t.Error("fresh call marked as cached")
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPayload["model"] != "gpt-test" {
		t.Errorf("payload model = %v", gotPayload["model"])
	}
	if gotPayload["store"] != false {
		t.Errorf("payload store = %v, want false", gotPayload["store"])
	}
	text, _ := gotPayload["text"].(map[string]any)
	format, _ := text["format"].(map[string]any)
	if format["type"] != "json_schema" || format["name"] != "clue_candidate" || format["strict"] != true {
		t.Errorf("text.format = %v", format)
	}
}

func TestClient_CreateJSON_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, responsesBody(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	if _, err := c.CreateJSON(context.Background(), testRequest()); err != nil {
		t.Fatalf("CreateJSON: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestClient_CreateJSON_ExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.CreateJSON(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if te.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", te.Status)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestClient_CreateJSON_BadRequestIsFatal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad schema"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.CreateJSON(context.Background(), testRequest())
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls)
	}
}

func TestClient_CreateJSON_RefusalIsFatal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"id":"resp_2","model":"gpt-test","output":[{"type":"message","role":"assistant","content":[{"type":"refusal","refusal":"cannot help with that"}]}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.CreateJSON(context.Background(), testRequest())
	var re *RefusalError
	if !errors.As(err, &re) {
		t.Fatalf("expected RefusalError, got %v", err)
	}
	if re.Message != "cannot help with that" {
		t.Errorf("refusal message = %q", re.Message)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (refusals must not retry)", calls)
	}
}

func TestClient_CreateJSON_SalvagesWrappedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, responsesBody(`Sure, here is the clue: {"clue":"FANG","number":3} hope that helps`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	res, err := c.CreateJSON(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateJSON: %v", err)
	}
	obj := res.Parsed.(map[string]any)
	if obj["clue"] != "FANG" {
		t.Errorf("clue = %v, want FANG", obj["clue"])
	}
}

func TestClient_CreateJSON_UnsalvageableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, responsesBody(`no json here at all`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	_, err := c.CreateJSON(context.Background(), testRequest())
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestClient_CreateJSON_CachesDeterministicCalls(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, responsesBody(`{"clue":"RIVER","number":2}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, newMemStore())
	req := testRequest() // temperature 0, top_p 1.0

	first, err := c.CreateJSON(context.Background(), req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := c.CreateJSON(context.Background(), req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second should hit cache)", calls)
	}
	if first.FromCache || !second.FromCache {
		t.Errorf("FromCache = %v/%v, want false/true", first.FromCache, second.FromCache)
	}
	if !bytes.Equal(first.Raw, second.Raw) {
		t.Error("cached raw body differs from original")
	}
}

func TestClient_CreateJSON_SkipsCacheWhenSampling(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, responsesBody(`{"clue":"RIVER","number":2}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, newMemStore())
	req := testRequest()
	req.Temperature = 0.8

	for i := 0; i < 2; i++ {
		if _, err := c.CreateJSON(context.Background(), req); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (sampled calls bypass cache)", calls)
	}
}

func TestClient_CreateJSON_CacheAllOverridesGate(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, responsesBody(`{"clue":"RIVER","number":2}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, newMemStore())
	req := testRequest()
	req.Temperature = 0.8
	req.CacheAll = true

	for i := 0; i < 2; i++ {
		if _, err := c.CreateJSON(context.Background(), req); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (CacheAll should cache sampled calls)", calls)
	}
}

func TestBuildPayload_StableAcrossCalls(t *testing.T) {
	req := testRequest()
	req.Schema = map[string]any{
		"type":       "object",
		"properties": map[string]any{"clue": map[string]any{"type": "string"}},
		"required":   []any{"clue"},
	}
	a, err := buildPayload(req)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}
	b, err := buildPayload(req)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical requests produced different payload bytes")
	}
}

func TestBuildPayload_JSONObjectMode(t *testing.T) {
	req := testRequest()
	req.Mode = ModeJSONObject
	req.SchemaName = ""
	req.Schema = nil
	body, err := buildPayload(req)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	text := payload["text"].(map[string]any)
	format := text["format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("format type = %v, want json_object", format["type"])
	}
	if _, ok := format["schema"]; ok {
		t.Error("json_object mode must not carry a schema")
	}
}

func TestBuildPayload_RejectsUnknownMode(t *testing.T) {
	req := testRequest()
	req.Mode = "yaml"
	if _, err := buildPayload(req); err == nil {
		t.Fatal("expected error for unknown output mode")
	}
}

func TestParseOutputJSON_SalvageOnlyOnce(t *testing.T) {
	// Braces present but the enclosed span is still invalid. The single
	// salvage attempt must fail rather than hunting for smaller spans.
	if _, err := parseOutputJSON(`{"a": } trailing {"b": 1}`); err == nil {
		t.Fatal("expected error when the widest brace span is invalid")
	}
	v, err := parseOutputJSON(`prefix {"b": 1} suffix`)
	if err != nil {
		t.Fatalf("parseOutputJSON: %v", err)
	}
	if v.(map[string]any)["b"].(float64) != 1 {
		t.Errorf("parsed = %v", v)
	}
}
