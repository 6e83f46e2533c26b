package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/session"
)

type mockSearcher struct {
	calls       int
	lastReq     models.SearchRequest
	resp        models.SearchResponse
	suggestions []string
}

func (m *mockSearcher) Search(_ context.Context, req models.SearchRequest) models.SearchResponse {
	m.calls++
	m.lastReq = req
	return m.resp
}

func (m *mockSearcher) Suggestions() []string {
	return m.suggestions
}

func newTestHandler() (*Handler, *mockSearcher) {
	m := &mockSearcher{suggestions: []string{"Screen repair", "Battery"}}
	return NewHandler(m, zap.NewNop()), m
}

func decodeSearch(t *testing.T, rr *httptest.ResponseRecorder) searchResponse {
	t.Helper()
	var out searchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestParseSearchRequest_GET(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/search?q=iphone&user_id=u123", nil)
	sr, err := h.parseSearchRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr.Query != "iphone" {
		t.Errorf("expected query 'iphone', got %q", sr.Query)
	}
	if sr.UserID != "" {
		t.Errorf("user_id param must be ignored, got %q", sr.UserID)
	}
}

func TestParseSearchRequest_HeaderIsTheOnlyIdentity(t *testing.T) {
	tests := []struct {
		name   string
		method string
		url    string
		body   string
		header string
		want   string
	}{
		{"header on GET", http.MethodGet, "/search?q=iphone", "", " u-header ", "u-header"},
		{"header beats param", http.MethodGet, "/search?q=iphone&user_id=spoofed", "", "u-header", "u-header"},
		{"header on POST", http.MethodPost, "/search", `{"query":"battery"}`, "u-header", "u-header"},
		{"header beats body", http.MethodPost, "/search", `{"query":"battery","user_id":"spoofed"}`, "u-header", "u-header"},
		{"blank header is signed out", http.MethodGet, "/search?q=iphone&user_id=spoofed", "", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler()
			req := httptest.NewRequest(tt.method, tt.url, strings.NewReader(tt.body))
			req.Header.Set(UserIDHeader, tt.header)

			sr, err := h.parseSearchRequest(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sr.UserID != tt.want {
				t.Errorf("UserID = %q, want %q", sr.UserID, tt.want)
			}
		})
	}
}

func TestParseSearchRequest_POST(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"query":"battery","user_id":"u9"}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	sr, err := h.parseSearchRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr.Query != "battery" {
		t.Errorf("expected query 'battery', got %q", sr.Query)
	}
	if sr.UserID != "" {
		t.Errorf("user_id in the body must be ignored, got %q", sr.UserID)
	}
}

func TestParseSearchRequest_POST_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("not json"))
	if _, err := h.parseSearchRequest(req); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseSearchRequest_POST_EmptyBody(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(""))
	if _, err := h.parseSearchRequest(req); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestSearch_BlankQueryReturnsSuggestions(t *testing.T) {
	for _, url := range []string{"/search", "/search?q=", "/search?q=%20%20"} {
		t.Run(url, func(t *testing.T) {
			h, m := newTestHandler()
			rr := httptest.NewRecorder()
			h.Search(rr, httptest.NewRequest(http.MethodGet, url, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			out := decodeSearch(t, rr)
			if out.State != session.Idle {
				t.Errorf("expected idle state, got %q", out.State)
			}
			if len(out.Suggestions) != 2 {
				t.Errorf("expected suggestions, got %v", out.Suggestions)
			}
			if m.calls != 0 {
				t.Errorf("blank query must not search, got %d calls", m.calls)
			}
		})
	}
}

func TestSearch_Results(t *testing.T) {
	h, m := newTestHandler()
	m.resp = models.SearchResponse{
		Query: "iphone",
		Hits:  []models.Hit{{ID: "p1", Type: models.HitPart, Category: models.CategorySpareParts, Name: "iPhone Battery", URL: "/spare-parts/p1"}},
		Sources: []models.SourceReport{
			{Source: "spare_parts", Status: models.SourceOK, Hits: 1},
		},
		TookMs: 12,
	}

	req := httptest.NewRequest(http.MethodGet, "/search?q=iphone", nil)
	req.Header.Set(UserIDHeader, "u1")
	rr := httptest.NewRecorder()
	h.Search(rr, req)

	out := decodeSearch(t, rr)
	if out.State != session.Results || out.Query != "iphone" || len(out.Hits) != 1 {
		t.Errorf("unexpected response %+v", out)
	}
	if out.Suggestions != nil {
		t.Errorf("suggestions should be omitted with results, got %v", out.Suggestions)
	}
	if m.lastReq.UserID != "u1" {
		t.Errorf("expected user id passed through, got %q", m.lastReq.UserID)
	}
	if !strings.Contains(rr.Body.String(), `"category":"Spare Parts"`) {
		t.Errorf("expected category label in body: %s", rr.Body.String())
	}
}

func TestSearch_NoResults(t *testing.T) {
	h, m := newTestHandler()
	m.resp = models.SearchResponse{Query: "zzz", Hits: []models.Hit{}}

	rr := httptest.NewRecorder()
	h.Search(rr, httptest.NewRequest(http.MethodGet, "/search?q=zzz", nil))

	out := decodeSearch(t, rr)
	if out.State != session.NoResults {
		t.Errorf("expected no_results, got %q", out.State)
	}
	if out.Hits == nil {
		t.Error("hits should encode as an empty list")
	}
}

func TestSearch_PassesRequestID(t *testing.T) {
	h, m := newTestHandler()
	m.resp = models.SearchResponse{Query: "x"}

	req := httptest.NewRequest(http.MethodGet, "/search?q=x", nil)
	req = req.WithContext(context.WithValue(req.Context(), requestIDKey, "req-42"))
	h.Search(httptest.NewRecorder(), req)

	if m.lastReq.RequestID != "req-42" {
		t.Errorf("expected request id req-42, got %q", m.lastReq.RequestID)
	}
}

func TestSearch_InvalidPOSTBody(t *testing.T) {
	h, _ := newTestHandler()

	rr := httptest.NewRecorder()
	h.Search(rr, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("not json")))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid body, got %d", rr.Code)
	}
}

func TestSuggestions(t *testing.T) {
	h, _ := newTestHandler()
	rr := httptest.NewRecorder()
	h.Suggestions(rr, httptest.NewRequest(http.MethodGet, "/suggestions", nil))

	var out map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(out["suggestions"]) != 2 {
		t.Errorf("unexpected suggestions %v", out)
	}
}

func TestWriteJSON(t *testing.T) {
	h, _ := newTestHandler()
	rr := httptest.NewRecorder()

	h.writeJSON(rr, http.StatusOK, map[string]string{"hello": "world"})

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Error("expected application/json content type")
	}

	var result map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["hello"] != "world" {
		t.Errorf("unexpected response: %v", result)
	}
}

func TestWriteError(t *testing.T) {
	h, _ := newTestHandler()
	rr := httptest.NewRecorder()

	h.writeError(rr, http.StatusBadRequest, "invalid_request", "bad body")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}

	var result map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["error"] != "bad body" || result["code"] != "invalid_request" {
		t.Errorf("unexpected error body %v", result)
	}
}

func TestMaxRequestBodySize(t *testing.T) {
	if maxRequestBodySize != 1<<20 {
		t.Errorf("expected maxRequestBodySize 1MB, got %d", maxRequestBodySize)
	}
}
