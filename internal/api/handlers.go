package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/repairhub/repair-search/internal/models"
	"github.com/repairhub/repair-search/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// UserIDHeader carries the signed-in user's id, set by the auth proxy in
// front of the service.
const UserIDHeader = "X-User-ID"

// Searcher is the aggregator as seen by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) models.SearchResponse
	Suggestions() []string
}

type Handler struct {
	searcher Searcher
	logger   *zap.Logger
}

func NewHandler(searcher Searcher, logger *zap.Logger) *Handler {
	return &Handler{
		searcher: searcher,
		logger:   logger,
	}
}

// searchResponse is what the search box renders: the dropdown state plus
// either hits or suggestions.
type searchResponse struct {
	State       session.State         `json:"state"`
	Query       string                `json:"query"`
	Hits        []models.Hit          `json:"hits"`
	Suggestions []string              `json:"suggestions,omitempty"`
	TookMs      int64                 `json:"took_ms"`
	Sources     []models.SourceReport `json:"sources,omitempty"`
	Truncated   bool                  `json:"truncated,omitempty"`
}

// Search never fails on a blank query: the caller gets the idle state and
// the suggestion list instead.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.parseSearchRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.RequestID = RequestIDFromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		h.writeJSON(w, http.StatusOK, searchResponse{
			State:       session.Idle,
			Hits:        []models.Hit{},
			Suggestions: h.searcher.Suggestions(),
		})
		return
	}

	resp := h.searcher.Search(ctx, req)
	out := searchResponse{
		State:     session.Results,
		Query:     resp.Query,
		Hits:      resp.Hits,
		TookMs:    resp.TookMs,
		Sources:   resp.Sources,
		Truncated: resp.Truncated,
	}
	if len(resp.Hits) == 0 {
		out.State = session.NoResults
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": h.searcher.Suggestions(),
	})
}

// parseSearchRequest reads the query from ?q= or a JSON body. The user id
// only ever comes from the auth proxy's header.
func (h *Handler) parseSearchRequest(r *http.Request) (models.SearchRequest, error) {
	var req models.SearchRequest
	if r.Method == http.MethodPost {
		limited := io.LimitReader(r.Body, maxRequestBodySize)
		if err := json.NewDecoder(limited).Decode(&req); err != nil {
			return models.SearchRequest{}, err
		}
	} else {
		req.Query = r.URL.Query().Get("q")
	}

	req.UserID = strings.TrimSpace(r.Header.Get(UserIDHeader))
	return req, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("writing json response", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, Code: code})
}
