package index

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

// ChromemStore - VectorStore поверх коллекции chromem-go
type ChromemStore struct {
	mu            sync.RWMutex
	db            *chromem.DB
	name          string
	embeddingFunc chromem.EmbeddingFunc
	coll          *chromem.Collection
}

// OpenChromemStore открывает (или создаёт) персистентную БД в dir
func OpenChromemStore(dir string, compress bool, name string, embeddingFunc chromem.EmbeddingFunc) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dir, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database at %s: %w", dir, err)
	}
	return NewChromemStore(db, name, embeddingFunc)
}

// NewChromemStore берёт коллекцию name из db, создавая её при необходимости
func NewChromemStore(db *chromem.DB, name string, embeddingFunc chromem.EmbeddingFunc) (*ChromemStore, error) {
	coll, err := db.GetOrCreateCollection(name, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %q: %w", name, err)
	}
	return &ChromemStore{
		db:            db,
		name:          name,
		embeddingFunc: embeddingFunc,
		coll:          coll,
	}, nil
}

func (s *ChromemStore) collection() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll
}

func (s *ChromemStore) Count() int {
	return s.collection().Count()
}

func (s *ChromemStore) Add(ctx context.Context, ids []string, embeddings [][]float32, metadatas []map[string]string, documents []string) error {
	return s.collection().AddConcurrently(ctx, ids, embeddings, metadatas, documents, runtime.NumCPU())
}

func (s *ChromemStore) Query(ctx context.Context, text string, n int, where map[string]string) ([]string, error) {
	coll := s.collection()

	// chromem не принимает n больше размера коллекции
	if total := coll.Count(); n > total {
		n = total
	}
	if n <= 0 {
		return []string{}, nil
	}

	results, err := coll.Query(ctx, text, n, where, nil)
	if err != nil {
		return nil, err
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Content)
	}
	return docs, nil
}

// Reset пересоздаёт коллекцию с нуля
func (s *ChromemStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", s.name, err)
	}
	coll, err := s.db.CreateCollection(s.name, nil, s.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to recreate collection %q: %w", s.name, err)
	}
	s.coll = coll
	return nil
}
