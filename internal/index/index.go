package index

import (
	"context"
	"errors"
	"fmt"

	"feedback_rag/internal/batcher"
)

var (
	// ErrEmbedding - сбой сервиса эмбеддингов при индексации
	ErrEmbedding = errors.New("embedding service error")
	// ErrIndexQuery - сбой поиска в векторном хранилище
	ErrIndexQuery = errors.New("index query error")
)

// BatchEmbedder считает векторы для батча одним вызовом
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Filter - фильтр по секции
type Filter struct {
	Section string
}

// Index - индекс комментариев поверх VectorStore
type Index struct {
	store    VectorStore
	embedder BatchEmbedder
}

func New(store VectorStore, embedder BatchEmbedder) *Index {
	return &Index{store: store, embedder: embedder}
}

func (ix *Index) IsEmpty() bool {
	return ix.store.Count() == 0
}

func (ix *Index) Count() int {
	return ix.store.Count()
}

// BulkInsert считает эмбеддинги батча и сохраняет документы, id и {seccion}
func (ix *Index) BulkInsert(ctx context.Context, batch batcher.Batch) error {
	if len(batch.Records) == 0 {
		return nil
	}

	texts := batch.Texts()
	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vectors), len(texts))
	}

	metadatas := make([]map[string]string, len(batch.Records))
	for i, r := range batch.Records {
		metadatas[i] = map[string]string{MetadataSection: r.Section}
	}

	if err := ix.store.Add(ctx, batch.IDs(), vectors, metadatas, texts); err != nil {
		return fmt.Errorf("failed to add %d documents: %w", len(texts), err)
	}
	return nil
}

// Query возвращает до topK самых похожих комментариев.
// Если фильтр ничего не нашёл - пустой результат, не ошибка.
func (ix *Index) Query(ctx context.Context, text string, topK int, filter *Filter) ([]string, error) {
	var where map[string]string
	if filter != nil {
		where = map[string]string{MetadataSection: filter.Section}
	}

	docs, err := ix.store.Query(ctx, text, topK, where)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexQuery, err)
	}
	if docs == nil {
		docs = []string{}
	}
	return docs, nil
}

// Reset очищает коллекцию
func (ix *Index) Reset(ctx context.Context) error {
	return ix.store.Reset(ctx)
}
