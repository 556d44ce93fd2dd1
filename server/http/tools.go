package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/w-h-a/recall/internal/service/chat"
)

// tools is the catalog served to tool-calling clients.
var tools = []map[string]any{
	{
		"name":        "save_chat",
		"description": "Persist a new chat with its metadata",
		"inputs": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":        map[string]string{"type": "string", "description": "Chat title"},
				"content":      map[string]string{"type": "string", "description": "Full transcript"},
				"summary":      map[string]string{"type": "string", "description": "Chat summary"},
				"category":     map[string]string{"type": "string", "description": "Category (e.g. career, tech, personal)"},
				"tags":         map[string]any{"type": "array", "items": map[string]string{"type": "string"}},
				"key_insights": map[string]any{"type": "array", "items": map[string]string{"type": "string"}},
				"action_items": map[string]any{"type": "array", "items": map[string]string{"type": "string"}},
			},
			"required": []string{"title", "content"},
		},
	},
	{
		"name":        "search_chats",
		"description": "Search previously saved chats related to a query",
		"inputs": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]string{"type": "string", "description": "Question or keywords to search for"},
				"limit": map[string]string{"type": "number", "description": "Number of results (default 5)"},
			},
			"required": []string{"query"},
		},
	},
}

// Tools serves tool discovery and execution on one endpoint: an empty body
// returns the catalog, a JSON body invokes the named tool.
func (h *Handler) Tools(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(r.Context(), w, &chat.ValidationError{Message: "failed to read body"}, "")
		return
	}
	defer r.Body.Close()

	if len(raw) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"version": "1.0",
			"tools":   tools,
		})
		return
	}

	var call struct {
		Tool      string          `json:"tool"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(raw, &call); err != nil {
		writeError(r.Context(), w, &chat.ValidationError{Message: "request body must be valid JSON"}, "")
		return
	}

	switch call.Tool {
	case "save_chat":
		var req chat.SaveRequest
		if err := json.Unmarshal(call.Arguments, &req); err != nil {
			writeError(r.Context(), w, &chat.ValidationError{Message: "invalid save_chat arguments"}, "")
			return
		}
		receipt, err := h.service.Save(r.Context(), req)
		if err != nil {
			writeError(r.Context(), w, err, "failed to save the chat")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": receipt})
	case "search_chats":
		var args struct {
			Query string `json:"query"`
			Limit int    `json:"limit"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			writeError(r.Context(), w, &chat.ValidationError{Message: "invalid search_chats arguments"}, "")
			return
		}
		var opts []chat.SearchOption
		if args.Limit > 0 {
			opts = append(opts, chat.WithLimit(args.Limit))
		}
		results, err := h.service.Search(r.Context(), args.Query, opts...)
		if err != nil {
			writeError(r.Context(), w, err, "failed to search chats")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": results})
	default:
		writeError(r.Context(), w, &chat.ValidationError{Message: "unknown tool"}, "")
	}
}
