package batcher

import (
	"errors"
	"fmt"

	"feedback_rag/internal/dataset"
	"feedback_rag/internal/tokenizer"
)

// ErrTokenBudgetViolation - одна запись сама по себе дороже лимита
var ErrTokenBudgetViolation = errors.New("token budget violation")

// Batch - группа записей для одного запроса к embeddings API
type Batch struct {
	Records   []dataset.Record
	Tokens    int  // Сумма токенов всех записей
	Oversized bool // Единственная запись, которая одна превышает лимит
}

// Texts возвращает тексты в порядке записей
func (b Batch) Texts() []string {
	out := make([]string, len(b.Records))
	for i, r := range b.Records {
		out[i] = r.Text
	}
	return out
}

// IDs возвращает идентификаторы в порядке записей
func (b Batch) IDs() []string {
	out := make([]string, len(b.Records))
	for i, r := range b.Records {
		out[i] = r.ID
	}
	return out
}

// Batcher упаковывает записи жадно за один проход
type Batcher struct {
	// Strict: запись дороже лимита - ошибка, а не отдельный батч
	Strict bool
}

// Pack упаковывает записи с настройками по умолчанию
func Pack(records []dataset.Record, maxTokens int, tok tokenizer.Counter) ([]Batch, error) {
	return Batcher{}.Pack(records, maxTokens, tok)
}

// Pack разбивает записи на батчи, сумма токенов в каждом <= maxTokens.
// Порядок записей сохраняется внутри и между батчами.
func (b Batcher) Pack(records []dataset.Record, maxTokens int, tok tokenizer.Counter) ([]Batch, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("batcher: max tokens must be > 0, got %d", maxTokens)
	}

	var batches []Batch
	var current Batch

	for _, rec := range records {
		cost := tok.CountTokens(rec.Text)

		if cost > maxTokens && b.Strict {
			return nil, fmt.Errorf("%w: %s costs %d tokens, limit is %d", ErrTokenBudgetViolation, rec.ID, cost, maxTokens)
		}

		// Не влезает - закрываем текущий батч
		if len(current.Records) > 0 && current.Tokens+cost > maxTokens {
			batches = append(batches, current)
			current = Batch{}
		}

		current.Records = append(current.Records, rec)
		current.Tokens += cost
		if cost > maxTokens {
			current.Oversized = true
		}
	}

	if len(current.Records) > 0 {
		batches = append(batches, current)
	}

	return batches, nil
}
