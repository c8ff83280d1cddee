package index

import (
	"context"
	"fmt"
	"log"
	"time"

	"feedback_rag/internal/batcher"
	"feedback_rag/internal/dataset"
	"feedback_rag/internal/tokenizer"
)

// RecordLoader читает записи из источника
type RecordLoader interface {
	Load(source string) ([]dataset.Record, error)
}

// Markers хранит отметки о завершённой сборке
type Markers interface {
	Get(collection string) (BuildMarker, bool, error)
	Put(collection string, marker BuildMarker) error
	Delete(collection string) error
}

// BuildReport - итог Build
type BuildReport struct {
	Skipped   bool
	Rebuilt   bool // Найдена незавершённая сборка или включён force
	Records   int
	Batches   int
	Oversized int
	Checksum  string
	Duration  time.Duration
}

// Builder строит индекс один раз: загрузка -> упаковка -> BulkInsert по батчам
type Builder struct {
	Index      *Index
	Markers    Markers
	Loader     RecordLoader
	Batcher    batcher.Batcher
	Tokenizer  tokenizer.Counter
	Collection string
	MaxTokens  int
	Model      string
	Force      bool

	// OnBatch вызывается после каждого добавленного батча
	OnBatch func(done, total int)
}

func (b *Builder) Build(ctx context.Context, source string) (BuildReport, error) {
	start := time.Now()

	checksum, err := dataset.Checksum(source)
	if err != nil {
		return BuildReport{}, err
	}
	report := BuildReport{Checksum: checksum}

	marker, built, err := b.Markers.Get(b.Collection)
	if err != nil {
		return report, fmt.Errorf("failed to read build marker: %w", err)
	}

	empty := b.Index.IsEmpty()
	if built && !empty && !b.Force {
		if marker.Checksum != checksum {
			log.Printf("⚠️  Dataset %s changed since the index was built at %s; keeping the existing index (set FORCE_REINDEX=true to rebuild)",
				source, marker.CompletedAt.Format(time.RFC3339))
		}
		log.Printf("✅ Collection %q already built (%d documents), skipping indexing", b.Collection, b.Index.Count())
		report.Skipped = true
		report.Records = marker.Records
		report.Batches = marker.Batches
		return report, nil
	}

	if !empty {
		if b.Force {
			log.Printf("🔁 Force reindex: clearing collection %q (%d documents)", b.Collection, b.Index.Count())
		} else {
			log.Printf("⚠️  Collection %q has %d documents but no completed build, rebuilding", b.Collection, b.Index.Count())
		}
		if err := b.Index.Reset(ctx); err != nil {
			return report, err
		}
		report.Rebuilt = true
	}
	if built {
		if err := b.Markers.Delete(b.Collection); err != nil {
			return report, fmt.Errorf("failed to clear build marker: %w", err)
		}
	}

	records, err := b.Loader.Load(source)
	if err != nil {
		return report, err
	}

	batches, err := b.Batcher.Pack(records, b.MaxTokens, b.Tokenizer)
	if err != nil {
		return report, err
	}

	log.Printf("📦 Indexing %d comments in %d batches (max %d tokens per batch)", len(records), len(batches), b.MaxTokens)

	for i, batch := range batches {
		if batch.Oversized {
			report.Oversized++
			log.Printf("⚠️  %s alone costs %d tokens (limit %d), sending it as its own batch",
				batch.Records[0].ID, batch.Tokens, b.MaxTokens)
		}

		if err := b.Index.BulkInsert(ctx, batch); err != nil {
			return report, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}

		if b.OnBatch != nil {
			b.OnBatch(i+1, len(batches))
		}
	}

	err = b.Markers.Put(b.Collection, BuildMarker{
		Checksum:    checksum,
		Records:     len(records),
		Batches:     len(batches),
		Model:       b.Model,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return report, fmt.Errorf("failed to write build marker: %w", err)
	}

	report.Records = len(records)
	report.Batches = len(batches)
	report.Duration = time.Since(start)

	log.Printf("✅ Indexed %d comments in %s", len(records), report.Duration.Round(time.Millisecond))
	return report, nil
}
