package index

import "context"

// MetadataSection - ключ метаданных с меткой секции
const MetadataSection = "seccion"

// VectorStore - персистентная коллекция документов с векторами
type VectorStore interface {
	// Count возвращает число документов в коллекции
	Count() int

	// Add сохраняет документы с готовыми векторами и метаданными
	Add(ctx context.Context, ids []string, embeddings [][]float32, metadatas []map[string]string, documents []string) error

	// Query возвращает до n самых похожих текстов; where - фильтр по равенству метаданных
	Query(ctx context.Context, text string, n int, where map[string]string) ([]string, error)

	// Reset удаляет все документы коллекции
	Reset(ctx context.Context) error
}
