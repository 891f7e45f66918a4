package content

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and the -store=memory
// local mode.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
	// failWith, when set, makes every call fail. Lets tests exercise the
	// degraded paths.
	failWith error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

// Put inserts or replaces an item.
func (s *MemoryStore) Put(items ...Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[it.ID] = it
	}
}

// Fail makes subsequent calls return err; pass nil to restore service.
func (s *MemoryStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *MemoryStore) GetAllItems(ctx context.Context, pageSize int) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) PrefixRange(ctx context.Context, field Field, start, end string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Item, 0)
	for _, it := range s.items {
		var v string
		switch field {
		case FieldTitle:
			v = it.Title
		case FieldAuthor:
			v = it.AuthorName
		default:
			continue
		}
		v = strings.ToLower(v)
		if v >= start && v < end {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
