package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"webscout/internal/domain"
	"webscout/internal/infra/config"
	"webscout/pkg/scout"
)

// maxEnhanceBody bounds POST /enhance request bodies.
const maxEnhanceBody = 64 << 10

type handlers struct {
	svc       Service
	searchCfg config.SearchConfig
	logger    *slog.Logger
}

type searchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Results []scout.Result `json:"results"`
}

type fetchResponse struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type enhanceRequest struct {
	Query     string `json:"query"`
	Max       int    `json:"max"`
	URL       string `json:"url"`
	MaxLength int    `json:"max_length"`
}

type enhanceResponse struct {
	Prompt  string `json:"prompt"`
	Results int    `json:"results"`
}

type healthResponse struct {
	Status   string                `json:"status"`
	Backends []scout.BackendStatus `json:"backends"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	backends := h.svc.Backends()
	open := 0
	for _, b := range backends {
		if b.State == "open" {
			open++
		}
	}
	if len(backends) > 0 && open == len(backends) {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: status, Backends: backends})
}

// GET /search?q=...&max=5
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "missing query parameter q")
		return
	}
	max, ok := intParam(r, "max", h.searchCfg.DefaultResults)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "max must be an integer")
		return
	}

	results := h.svc.Search(r.Context(), query, max)
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Count: len(results), Results: results})
}

// GET /fetch?url=...&max_length=8000
func (h *handlers) fetch(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "missing query parameter url")
		return
	}
	maxLength, ok := intParam(r, "max_length", h.searchCfg.PageMaxLength)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "max_length must be an integer")
		return
	}

	page, ok := h.svc.FetchContent(r.Context(), target, maxLength)
	if !ok {
		code := domain.CodeNoContent
		msg := "no readable content at " + target
		if cause := page.Metadata[domain.MetaError]; cause != "" {
			code = domain.CodeFetch
			msg = cause
		}
		writeError(w, http.StatusUnprocessableEntity, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, fetchResponse{
		URL:      page.Source,
		Title:    page.Title,
		Content:  page.Content,
		Metadata: page.Metadata,
	})
}

// POST /enhance {"query": "...", "max": 5} or {"query": "...", "url": "..."}
func (h *handlers) enhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnhanceBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "invalid JSON body: "+err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "query must not be empty")
		return
	}

	if req.URL != "" {
		page, ok := h.svc.FetchContent(r.Context(), req.URL, req.MaxLength)
		if !ok {
			writeJSON(w, http.StatusOK, enhanceResponse{Prompt: req.Query})
			return
		}
		writeJSON(w, http.StatusOK, enhanceResponse{
			Prompt:  scout.FormatPageForPrompt(req.Query, page.Content, page.Source),
			Results: 1,
		})
		return
	}

	max := req.Max
	if max == 0 {
		max = h.searchCfg.DefaultResults
	}
	results := h.svc.Search(r.Context(), req.Query, max)
	writeJSON(w, http.StatusOK, enhanceResponse{
		Prompt:  scout.FormatForPrompt(req.Query, results),
		Results: len(results),
	})
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code domain.ErrorCode, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: string(code)})
}
