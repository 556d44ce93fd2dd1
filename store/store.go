package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no chat exists with the given id.
var ErrNotFound = errors.New("chat not found")

// Chat is a persisted conversation record. Id and CreatedAt are assigned
// by the store at insert and never change. The embedding is computed by the
// pipeline before insert and is never recomputed.
type Chat struct {
	Id          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	KeyInsights []string  `json:"key_insights"`
	ActionItems []string  `json:"action_items"`
	Embedding   []float32 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Match is a chat ranked against a query vector.
type Match struct {
	Chat
	Similarity float64 `json:"similarity"`
}

type ChatStore interface {
	// Insert persists the chat and returns it with Id and CreatedAt set.
	Insert(ctx context.Context, chat Chat) (Chat, error)
	Get(ctx context.Context, id string) (Chat, error)
	// ListRecent returns up to limit chats, newest first.
	ListRecent(ctx context.Context, limit int) ([]Chat, error)
	// Match returns up to limit chats whose cosine similarity to the query
	// vector is at least threshold, ordered by descending similarity.
	Match(ctx context.Context, vector []float32, threshold float64, limit int) ([]Match, error)
}
