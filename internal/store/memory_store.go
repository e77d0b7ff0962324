package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process. It is the default for local runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, collection, key string) (Document, error) {
	s.mu.RLock()
	raw, ok := s.docs[collection][key]
	s.mu.RUnlock()
	if !ok {
		return Document{}, ErrNotFound
	}

	data, err := decode(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{Key: key, Data: data}, nil
}

func (s *MemoryStore) GetAll(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.docs[collection]))
	for k := range s.docs[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Document, 0, len(keys))
	for _, k := range keys {
		data, err := decode(s.docs[collection][k])
		if err != nil {
			return nil, err
		}
		out = append(out, Document{Key: k, Data: data})
	}
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, collection, key string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectionLocked(collection)[key] = raw
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[collection], key)
	return nil
}

func (s *MemoryStore) CreateIfAbsent(_ context.Context, collection, key string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collectionLocked(collection)
	if _, exists := col[key]; exists {
		return ErrAlreadyExists
	}
	col[key] = raw
	return nil
}

func (s *MemoryStore) QueryByField(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := validateField(field); err != nil {
		return nil, err
	}

	all, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}

	var out []Document
	for _, d := range all {
		if v, ok := d.Data[field].(string); ok && v == value {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) collectionLocked(collection string) map[string][]byte {
	col, ok := s.docs[collection]
	if !ok {
		col = make(map[string][]byte)
		s.docs[collection] = col
	}
	return col
}
