package chat

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/w-h-a/recall/embedder"
	"github.com/w-h-a/recall/generator"
	"github.com/w-h-a/recall/store"
)

const (
	defaultSearchLimit    = 5
	defaultMatchThreshold = 0.5
	listLimit             = 20
	summaryFallbackLength = 100
	summaryFallbackMarker = "..."
)

// Service orchestrates the embedding provider, the chat store, and the
// analysis generator. One instance is constructed per process and is safe
// for concurrent use.
type Service struct {
	embedder  embedder.Embedder
	store     store.ChatStore
	generator generator.Generator
	threshold float64
}

// SaveRequest is the caller-supplied chat payload. Title and Content are
// required; everything else defaults to empty.
type SaveRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	KeyInsights []string `json:"key_insights"`
	ActionItems []string `json:"action_items"`
}

// SaveReceipt echoes back only the store-assigned identity of a saved chat.
type SaveReceipt struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult is a shaped match: summary falls back to truncated content
// and similarity is rounded to two decimals.
type SearchResult struct {
	Id          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	KeyInsights []string  `json:"key_insights"`
	ActionItems []string  `json:"action_items"`
	CreatedAt   time.Time `json:"created_at"`
	Similarity  float64   `json:"similarity"`
}

// ChatSummary is the list-view projection of a chat.
type ChatSummary struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Save validates the payload, embeds its canonical text, and persists the
// chat. All-or-nothing: an embedding or store failure leaves nothing behind.
func (s *Service) Save(ctx context.Context, req SaveRequest) (SaveReceipt, error) {
	if len(strings.TrimSpace(req.Title)) == 0 || len(strings.TrimSpace(req.Content)) == 0 {
		return SaveReceipt{}, &ValidationError{Message: "title and content are required"}
	}

	vec, err := s.embedder.Embed(ctx, SearchableText(req))
	if err != nil {
		return SaveReceipt{}, &ProviderError{Op: "embed", Err: err}
	}

	chat := store.Chat{
		Title:       req.Title,
		Content:     req.Content,
		Summary:     req.Summary,
		Category:    req.Category,
		Tags:        defaulted(req.Tags),
		KeyInsights: defaulted(req.KeyInsights),
		ActionItems: defaulted(req.ActionItems),
		Embedding:   vec,
	}

	stored, err := s.store.Insert(ctx, chat)
	if err != nil {
		return SaveReceipt{}, &StoreError{Op: "insert", Err: err}
	}

	return SaveReceipt{
		Id:        stored.Id,
		Title:     stored.Title,
		CreatedAt: stored.CreatedAt,
	}, nil
}

// Search embeds the query and returns the nearest stored chats meeting the
// threshold, ordered by descending similarity. An empty result is not an
// error.
func (s *Service) Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchResult, error) {
	if len(strings.TrimSpace(query)) == 0 {
		return nil, &ValidationError{Message: "query is required"}
	}

	options := s.newSearchOptions(opts...)

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &ProviderError{Op: "embed", Err: err}
	}

	matches, err := s.store.Match(ctx, vec, options.Threshold, options.Limit)
	if err != nil {
		return nil, &StoreError{Op: "match", Err: err}
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			Id:          m.Id,
			Title:       m.Title,
			Summary:     summaryOrExcerpt(m.Summary, m.Content),
			Category:    m.Category,
			Tags:        defaulted(m.Tags),
			KeyInsights: defaulted(m.KeyInsights),
			ActionItems: defaulted(m.ActionItems),
			CreatedAt:   m.CreatedAt,
			Similarity:  math.Round(m.Similarity*100) / 100,
		})
	}

	return results, nil
}

// List returns up to 20 chats, newest first, projected to their list view.
func (s *Service) List(ctx context.Context) ([]ChatSummary, error) {
	chats, err := s.store.ListRecent(ctx, listLimit)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, ChatSummary{
			Id:        chat.Id,
			Title:     chat.Title,
			Summary:   chat.Summary,
			Category:  chat.Category,
			Tags:      defaulted(chat.Tags),
			CreatedAt: chat.CreatedAt,
		})
	}

	return summaries, nil
}

// Get fetches the full chat record. store.ErrNotFound passes through.
func (s *Service) Get(ctx context.Context, id string) (store.Chat, error) {
	chat, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Chat{}, err
	}
	if err != nil {
		return store.Chat{}, &StoreError{Op: "get", Err: err}
	}
	return chat, nil
}

func summaryOrExcerpt(summary, content string) string {
	if len(strings.TrimSpace(summary)) > 0 {
		return summary
	}
	runes := []rune(content)
	if len(runes) > summaryFallbackLength {
		runes = runes[:summaryFallbackLength]
	}
	return string(runes) + summaryFallbackMarker
}

func defaulted(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func New(
	embedder embedder.Embedder,
	store store.ChatStore,
	generator generator.Generator,
	threshold float64,
) *Service {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultMatchThreshold
	}

	return &Service{
		embedder:  embedder,
		store:     store,
		generator: generator,
		threshold: threshold,
	}
}
