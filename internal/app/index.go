package app

import (
	"context"

	"feedback_rag/internal/batcher"
	"feedback_rag/internal/dataset"
	"feedback_rag/internal/index"
)

// BuildIndex загружает датасет и индексирует его, если коллекция ещё не собрана.
// onBatch (может быть nil) получает прогресс по батчам.
func (a *App) BuildIndex(ctx context.Context, force bool, onBatch func(done, total int)) (index.BuildReport, error) {
	b := &index.Builder{
		Index:      a.index,
		Markers:    a.markers,
		Loader:     dataset.NewLoader(),
		Batcher:    batcher.Batcher{Strict: a.cfg.StrictTokenBudget},
		Tokenizer:  a.tokenizer,
		Collection: a.cfg.Collection,
		MaxTokens:  a.cfg.MaxTokens,
		Model:      a.embedder.ModelName(),
		Force:      force,
		OnBatch:    onBatch,
	}
	return b.Build(ctx, a.cfg.DatasetPath)
}
