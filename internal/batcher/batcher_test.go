package batcher

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"feedback_rag/internal/dataset"
)

// wordCounter считает один токен на слово
type wordCounter struct{}

func (wordCounter) CountTokens(text string) int {
	return len(strings.Fields(text))
}

func makeRecords(words ...int) []dataset.Record {
	records := make([]dataset.Record, len(words))
	for i, n := range words {
		records[i] = dataset.Record{
			ID:      fmt.Sprintf("doc_%d", i),
			Text:    strings.TrimSpace(strings.Repeat("palabra ", n)),
			Section: fmt.Sprintf("%d", i%3+1),
		}
	}
	return records
}

func TestPack_GreedySplit(t *testing.T) {
	records := makeRecords(3, 4, 2, 5, 1)

	batches, err := Pack(records, 7, wordCounter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// [3,4] [2,5] [1]
	wantSizes := []int{2, 2, 1}
	wantTokens := []int{7, 7, 1}
	if len(batches) != len(wantSizes) {
		t.Fatalf("expected %d batches, got %d", len(wantSizes), len(batches))
	}
	for i, b := range batches {
		if len(b.Records) != wantSizes[i] {
			t.Errorf("batch %d: expected %d records, got %d", i, wantSizes[i], len(b.Records))
		}
		if b.Tokens != wantTokens[i] {
			t.Errorf("batch %d: expected %d tokens, got %d", i, wantTokens[i], b.Tokens)
		}
		if b.Oversized {
			t.Errorf("batch %d should not be oversized", i)
		}
	}
}

func TestPack_BudgetAndOrderProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(40)
		words := make([]int, n)
		for i := range words {
			words[i] = rng.Intn(15) + 1
		}
		records := makeRecords(words...)
		maxTokens := rng.Intn(20) + 1

		batches, err := Pack(records, maxTokens, wordCounter{})
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}

		var flat []dataset.Record
		for i, b := range batches {
			if len(b.Records) == 0 {
				t.Fatalf("trial %d: batch %d is empty", trial, i)
			}
			if b.Tokens > maxTokens && len(b.Records) != 1 {
				t.Errorf("trial %d: batch %d has %d tokens > %d with %d records",
					trial, i, b.Tokens, maxTokens, len(b.Records))
			}
			if b.Oversized != (b.Tokens > maxTokens) {
				t.Errorf("trial %d: batch %d Oversized=%v but tokens=%d max=%d",
					trial, i, b.Oversized, b.Tokens, maxTokens)
			}
			flat = append(flat, b.Records...)
		}

		if len(flat) != len(records) {
			t.Fatalf("trial %d: expected %d records after round trip, got %d", trial, len(records), len(flat))
		}
		for i := range records {
			if flat[i] != records[i] {
				t.Errorf("trial %d: record %d = %+v, want %+v", trial, i, flat[i], records[i])
			}
		}
	}
}

func TestPack_OversizedRecordAlone(t *testing.T) {
	records := makeRecords(2, 12, 3)

	batches, err := Pack(records, 10, wordCounter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if !batches[1].Oversized || len(batches[1].Records) != 1 || batches[1].Records[0].ID != "doc_1" {
		t.Errorf("expected doc_1 alone in an oversized batch, got %+v", batches[1])
	}
	if batches[0].Oversized || batches[2].Oversized {
		t.Error("only the middle batch should be oversized")
	}
}

func TestPack_StrictRejectsOversized(t *testing.T) {
	records := makeRecords(2, 12, 3)

	_, err := Batcher{Strict: true}.Pack(records, 10, wordCounter{})
	if !errors.Is(err, ErrTokenBudgetViolation) {
		t.Fatalf("expected ErrTokenBudgetViolation, got %v", err)
	}
	if !strings.Contains(err.Error(), "doc_1") {
		t.Errorf("error should name the record, got %v", err)
	}
}

func TestPack_EmptyInput(t *testing.T) {
	batches, err := Pack(nil, 10, wordCounter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("expected no batches, got %d", len(batches))
	}
}

func TestPack_InvalidLimit(t *testing.T) {
	if _, err := Pack(makeRecords(1), 0, wordCounter{}); err == nil {
		t.Error("expected error for max tokens = 0")
	}
}

func TestBatch_TextsAndIDs(t *testing.T) {
	b := Batch{Records: makeRecords(1, 2)}

	ids := b.IDs()
	texts := b.Texts()
	if ids[0] != "doc_0" || ids[1] != "doc_1" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if texts[1] != "palabra palabra" {
		t.Errorf("unexpected texts: %v", texts)
	}
}
