package app

import (
	"context"

	"feedback_rag/internal/retriever"
)

// Search ищет похожие комментарии с учётом секции из вопроса
func (a *App) Search(ctx context.Context, query string, topK int) (retriever.Result, error) {
	a.mu.RLock()
	r := a.retriever
	a.mu.RUnlock()

	if r == nil {
		return retriever.Result{}, ErrNotReady
	}
	if topK <= 0 {
		topK = a.cfg.TopK
	}
	return r.Search(ctx, query, topK)
}
