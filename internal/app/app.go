package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"feedback_rag/internal/config"
	"feedback_rag/internal/embedding"
	"feedback_rag/internal/generation"
	"feedback_rag/internal/index"
	"feedback_rag/internal/retriever"
	"feedback_rag/internal/telemetry"
	"feedback_rag/internal/tokenizer"
)

// ErrNotReady - индекс ещё строится
var ErrNotReady = errors.New("index is not ready")

// Generator - генерация ответа по найденным комментариям
type Generator interface {
	Answer(ctx context.Context, question string, comments []string) (string, error)
}

type App struct {
	cfg       *config.Config
	store     *index.ChromemStore
	markers   *index.MarkerStore
	index     *index.Index
	embedder  *embedding.Client
	tokenizer tokenizer.Counter
	generator Generator
	metrics   *telemetry.Metrics
	redis     *redis.Client

	mu        sync.RWMutex
	retriever *retriever.Retriever
	ready     atomic.Bool
}

func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	a := &App{
		cfg:       cfg,
		embedder:  embedding.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.EmbedModel),
		tokenizer: tok,
		generator: generation.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.ChatModel),
		metrics:   metrics,
	}

	log.Printf("Opening vector database in %s (collection %q)", cfg.DataDir, cfg.Collection)
	a.store, err = index.OpenChromemStore(cfg.DataDir, cfg.CompressDB, cfg.Collection, a.embedder.EmbeddingFunc())
	if err != nil {
		return nil, err
	}
	a.index = index.New(a.store, a.embedder)

	a.markers, err = index.OpenMarkerStore(cfg.MarkerFile())
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Init строит индекс (если нужно) и готовит поиск
func (a *App) Init(ctx context.Context) error {
	report, err := a.BuildIndex(ctx, a.cfg.ForceReindex, nil)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	opts := []retriever.Option{}
	if a.cfg.RedisURL != "" {
		rdb, err := retriever.DialRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, search cache disabled: %v", err)
		} else {
			a.redis = rdb
			opts = append(opts, retriever.WithCache(retriever.NewRedisCache(rdb, a.cfg.CacheTTL, report.Checksum)))
			log.Printf("✅ Search cache enabled (ttl %s)", a.cfg.CacheTTL)
		}
	}

	a.mu.Lock()
	a.retriever = retriever.New(a.index, opts...)
	a.mu.Unlock()
	a.ready.Store(true)

	log.Printf("✅ Collection %q ready with %d comments", a.cfg.Collection, a.index.Count())
	return nil
}

func (a *App) Ready() bool {
	return a.ready.Load()
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.markers != nil {
		errs = append(errs, a.markers.Close())
	}
	return errors.Join(errs...)
}
