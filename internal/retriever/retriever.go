package retriever

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"feedback_rag/internal/index"
	"feedback_rag/internal/section"
)

// DefaultTopK - сколько комментариев возвращать по умолчанию
const DefaultTopK = 10

// Result - результат поиска для генерации ответа
type Result struct {
	Query     string   `json:"pregunta" yaml:"pregunta"`
	Section   *string  `json:"seccion_detectada" yaml:"seccion_detectada"`
	Documents []string `json:"respuestas" yaml:"respuestas"`
}

// Querier - поиск по индексу комментариев
type Querier interface {
	Query(ctx context.Context, text string, topK int, filter *index.Filter) ([]string, error)
}

// Cache хранит готовые результаты поиска
type Cache interface {
	Get(ctx context.Context, query string, topK int) (Result, bool, error)
	Set(ctx context.Context, query string, topK int, r Result) error
}

type Option func(*Retriever)

// WithCache включает кэш результатов
func WithCache(c Cache) Option {
	return func(r *Retriever) { r.cache = c }
}

// WithDetector заменяет детектор секций
func WithDetector(d *section.Detector) Option {
	return func(r *Retriever) { r.detector = d }
}

// Retriever: детекция секции -> поиск с фильтром
type Retriever struct {
	index    Querier
	detector *section.Detector
	cache    Cache
	tracer   trace.Tracer
	searches metric.Int64Counter
}

func New(ix Querier, opts ...Option) *Retriever {
	r := &Retriever{
		index:    ix,
		detector: section.Default,
		tracer:   otel.Tracer("feedback_rag/retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}

	counter, err := otel.Meter("feedback_rag/retriever").Int64Counter(
		"retriever.searches",
		metric.WithDescription("Total feedback searches"),
	)
	if err != nil {
		log.Printf("⚠️  Failed to create search counter: %v", err)
	}
	r.searches = counter

	return r
}

// Search ищет topK похожих комментариев. Если в вопросе есть секция, поиск
// ограничен ею; пустой результат по секции возвращается как есть.
func (r *Retriever) Search(ctx context.Context, query string, topK int) (Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	ctx, span := r.tracer.Start(ctx, "retriever.search")
	defer span.End()

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, query, topK)
		if err != nil {
			log.Printf("⚠️  Cache read failed: %v", err)
		} else if ok {
			span.SetAttributes(attribute.Bool("retriever.cache_hit", true))
			r.count(ctx, cached, true)
			return cached, nil
		}
	}

	result := Result{Query: query, Documents: []string{}}

	var filter *index.Filter
	if sec, ok := r.detector.Detect(query); ok {
		result.Section = &sec
		filter = &index.Filter{Section: sec}
		span.SetAttributes(attribute.String("retriever.section", sec))
	}

	docs, err := r.index.Query(ctx, query, topK, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	result.Documents = docs

	span.SetAttributes(
		attribute.Int("retriever.top_k", topK),
		attribute.Int("retriever.documents", len(docs)),
	)
	r.count(ctx, result, false)

	if r.cache != nil {
		if err := r.cache.Set(ctx, query, topK, result); err != nil {
			log.Printf("⚠️  Cache write failed: %v", err)
		}
	}

	return result, nil
}

func (r *Retriever) count(ctx context.Context, res Result, cacheHit bool) {
	if r.searches == nil {
		return
	}
	r.searches.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("section_filter", res.Section != nil),
		attribute.Bool("cache_hit", cacheHit),
		attribute.Bool("empty", len(res.Documents) == 0),
	))
}
