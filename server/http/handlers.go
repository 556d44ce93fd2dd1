package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/w-h-a/recall/internal/service/chat"
)

const defaultRequestTimeout = 30 * time.Second

type Handler struct {
	service *chat.Service
	timeout time.Duration
}

func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/save-chat", h.SaveChat).Methods(http.MethodPost)
	router.HandleFunc("/api/search-chats", h.SearchChats).Methods(http.MethodGet)
	router.HandleFunc("/api/chats", h.ListChats).Methods(http.MethodGet)
	router.HandleFunc("/api/chats/{id}", h.GetChat).Methods(http.MethodGet)
	router.HandleFunc("/api/analyze-chat", h.AnalyzeChat).Methods(http.MethodPost)
	router.HandleFunc("/api/tools", h.Tools).Methods(http.MethodPost)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
	})

	router.Use(h.withTimeout, withRequestLog)

	return router
}

func (h *Handler) SaveChat(w http.ResponseWriter, r *http.Request) {
	var req chat.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, &chat.ValidationError{Message: "request body must be valid JSON"}, "")
		return
	}

	receipt, err := h.service.Save(r.Context(), req)
	if err != nil {
		writeError(r.Context(), w, err, "failed to save the chat")
		return
	}

	writeSuccess(w, "Chat saved successfully.", receipt)
}

func (h *Handler) SearchChats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	opts, err := searchOptionsFromQuery(r)
	if err != nil {
		writeError(r.Context(), w, err, "")
		return
	}

	results, err := h.service.Search(r.Context(), query, opts...)
	if err != nil {
		writeError(r.Context(), w, err, "failed to search chats")
		return
	}

	writeSuccess(w, fmt.Sprintf("Search results for %q.", query), results)
}

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err, "failed to list chats")
		return
	}

	writeSuccess(w, "", summaries)
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, err, "failed to fetch the chat")
		return
	}

	writeSuccess(w, "", record)
}

func (h *Handler) AnalyzeChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, &chat.ValidationError{Message: "request body must be valid JSON"}, "")
		return
	}

	analysis, err := h.service.Analyze(r.Context(), req.Content)
	if err != nil {
		writeError(r.Context(), w, err, "failed to analyze the chat")
		return
	}

	writeSuccess(w, "Analysis complete.", analysis)
}

func searchOptionsFromQuery(r *http.Request) ([]chat.SearchOption, error) {
	var opts []chat.SearchOption

	if raw := r.URL.Query().Get("limit"); len(raw) > 0 {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return nil, &chat.ValidationError{Message: "limit must be a positive integer"}
		}
		opts = append(opts, chat.WithLimit(limit))
	}

	if raw := r.URL.Query().Get("threshold"); len(raw) > 0 {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			return nil, &chat.ValidationError{Message: "threshold must be a number between 0 and 1"}
		}
		opts = append(opts, chat.WithThreshold(threshold))
	}

	return opts, nil
}

func (h *Handler) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.InfoContext(r.Context(), "handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

func NewHandler(service *chat.Service, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Handler{
		service: service,
		timeout: timeout,
	}
}
