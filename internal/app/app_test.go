package app

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"feedback_rag/internal/config"
)

const testDims = 256

func bagOfWords(text string) []float32 {
	v := make([]float32, testDims)
	v[0] = 0.1
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		v[1+int(h.Sum32()%(testDims-1))] += 1
	}
	return v
}

// fakeOpenAI отвечает на /embeddings и /chat/completions
type fakeOpenAI struct {
	*httptest.Server
	embedCalls atomic.Int32
	chatCalls  atomic.Int32
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/embeddings":
			f.embedCalls.Add(1)
			var req struct {
				Input []string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data := make([]map[string]interface{}, len(req.Input))
			for i, text := range req.Input {
				data[i] = map[string]interface{}{"index": i, "embedding": bagOfWords(text)}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
		case "/chat/completions":
			f.chatCalls.Add(1)
			w.Write([]byte(`{"choices":[{"message":{"content":"Resumen de los comentarios."}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "base.csv")
	content := "comentario_limpio,seccion\n" +
		"el envio llego tarde,1\n" +
		"envio rapido y barato,1\n" +
		",1\n" +
		"la atencion fue excelente,2\n" +
		"atencion lenta por telefono,2\n" +
		"precio muy alto,3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func appConfig(t *testing.T, api *fakeOpenAI) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DatasetPath:    writeDataset(t, dir),
		DataDir:        filepath.Join(dir, "store"),
		Collection:     "opiniones",
		OpenAIBaseURL:  api.URL,
		EmbedModel:     "text-embedding-3-small",
		ChatModel:      "gpt-4o",
		MaxTokens:      8,
		Tokenizer:      "approx",
		TopK:           10,
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
		CacheTTL:       time.Minute,
	}
}

func TestApp_BuildSearchAnswer(t *testing.T) {
	api := newFakeOpenAI(t)
	cfg := appConfig(t, api)
	ctx := context.Background()

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if a.Ready() {
		t.Fatal("app must not be ready before Init")
	}
	if _, err := a.Search(ctx, "hola", 0); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	if err := a.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !a.Ready() {
		t.Fatal("app must be ready after Init")
	}
	if n := a.index.Count(); n != 5 {
		t.Fatalf("expected 5 indexed comments, got %d", n)
	}

	res, err := a.Search(ctx, "que opinan de la atencion en la seccion 2", 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Section == nil || *res.Section != "2" {
		t.Fatalf("expected section 2, got %v", res.Section)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected both section 2 comments, got %v", res.Documents)
	}
	for _, d := range res.Documents {
		if !strings.Contains(d, "atencion") {
			t.Errorf("comment from another section: %q", d)
		}
	}

	answer, err := a.Answer(ctx, "que opinan", res.Documents)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Resumen de los comentarios." {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestApp_RestartSkipsIndexing(t *testing.T) {
	api := newFakeOpenAI(t)
	cfg := appConfig(t, api)
	ctx := context.Background()

	first, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	report, err := first.BuildIndex(ctx, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped || report.Records != 5 {
		t.Fatalf("unexpected first build %+v", report)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	calls := api.embedCalls.Load()

	second, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	var progress int
	report, err = second.BuildIndex(ctx, false, func(done, total int) { progress++ })
	if err != nil {
		t.Fatal(err)
	}
	if !report.Skipped {
		t.Errorf("expected skipped build after restart, got %+v", report)
	}
	if progress != 0 {
		t.Errorf("no batches expected, got %d", progress)
	}
	if got := api.embedCalls.Load(); got != calls {
		t.Errorf("restart re-embedded the dataset: %d -> %d calls", calls, got)
	}
	if n := second.index.Count(); n != 5 {
		t.Errorf("expected 5 persisted comments, got %d", n)
	}

	report, err = second.BuildIndex(ctx, true, func(done, total int) { progress++ })
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped || !report.Rebuilt || progress != report.Batches {
		t.Errorf("unexpected forced build %+v (progress %d)", report, progress)
	}
}

func TestApp_ChatEndToEnd(t *testing.T) {
	api := newFakeOpenAI(t)
	cfg := appConfig(t, api)

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := a.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	router := NewRouter(cfg, a, a.metrics)
	w := doJSON(t, router, http.MethodPost, "/chat", `{"pregunta":"el envio de la sección uno"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SeccionDetectada == nil || *resp.SeccionDetectada != "1" {
		t.Errorf("expected section 1, got %v", resp.SeccionDetectada)
	}
	if len(resp.RespuestasSimilares) != 2 {
		t.Errorf("expected 2 comments, got %v", resp.RespuestasSimilares)
	}
	if resp.RespuestaGenerada != "Resumen de los comentarios." {
		t.Errorf("unexpected answer %q", resp.RespuestaGenerada)
	}
	if api.chatCalls.Load() != 1 {
		t.Errorf("expected 1 chat call, got %d", api.chatCalls.Load())
	}
}

func TestApp_Console(t *testing.T) {
	api := newFakeOpenAI(t)
	cfg := appConfig(t, api)

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := a.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	in := strings.NewReader("precio de la seccion 3\n\n")
	var out bytes.Buffer
	if err := a.Console(context.Background(), in, &out, 5, true); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	if !strings.Contains(got, "Section 3, 1 comments") || !strings.Contains(got, "precio muy alto") {
		t.Errorf("unexpected console output:\n%s", got)
	}
	if !strings.Contains(got, "Resumen de los comentarios.") {
		t.Errorf("missing generated answer:\n%s", got)
	}
}

func TestApp_MetricsExported(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { mp.Shutdown(context.Background()) })

	api := newFakeOpenAI(t)
	cfg := appConfig(t, api)

	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := a.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	router := NewRouter(cfg, a, a.metrics)
	if w := doJSON(t, router, http.MethodPost, "/chat", `{"pregunta":"precio en la seccion 3"}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := a.Search(context.Background(), "envio", 0); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	counters := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counters[m.Name] += dp.Value
				}
			}
		}
	}

	want := map[string]int64{
		"http.requests.total":       1,
		"retriever.searches":        2,
		"generation.requests.total": 1,
	}
	for name, n := range want {
		if counters[name] != n {
			t.Errorf("%s = %d, want %d (all: %v)", name, counters[name], n, counters)
		}
	}
}
