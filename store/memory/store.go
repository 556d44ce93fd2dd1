package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/recall/store"
)

type memoryStore struct {
	options store.Options
	chats   map[string]store.Chat
	mtx     sync.RWMutex
}

func (s *memoryStore) Insert(ctx context.Context, chat store.Chat) (store.Chat, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	chat.Id = uuid.New().String()
	chat.CreatedAt = time.Now().UTC()

	cpy := make([]float32, len(chat.Embedding))
	copy(cpy, chat.Embedding)
	chat.Embedding = cpy

	s.chats[chat.Id] = chat

	return chat, nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (store.Chat, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	chat, exists := s.chats[id]
	if !exists {
		return store.Chat{}, store.ErrNotFound
	}

	return chat, nil
}

func (s *memoryStore) ListRecent(ctx context.Context, limit int) ([]store.Chat, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	chats := make([]store.Chat, 0, len(s.chats))
	for _, chat := range s.chats {
		chats = append(chats, chat)
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].CreatedAt.After(chats[j].CreatedAt)
	})

	if len(chats) > limit {
		chats = chats[:limit]
	}

	return chats, nil
}

func (s *memoryStore) Match(ctx context.Context, vector []float32, threshold float64, limit int) ([]store.Match, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	candidates := make([]store.Match, 0, len(s.chats))

	for _, chat := range s.chats {
		similarity := store.CosineSimilarity(vector, chat.Embedding)
		if similarity < threshold {
			continue
		}
		candidates = append(candidates, store.Match{Chat: chat, Similarity: similarity})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

func NewStore(opts ...store.Option) *memoryStore {
	options := store.NewOptions(opts...)

	s := &memoryStore{
		options: options,
		chats:   map[string]store.Chat{},
		mtx:     sync.RWMutex{},
	}

	return s
}
