package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Run поднимает HTTP сервис, строит индекс и ждёт отмены контекста.
// /ready отвечает 503, пока индекс не готов.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    a.cfg.ListenAddr,
		Handler: NewRouter(a.cfg, a, a.metrics),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server listening on http://%s", a.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if err := a.Init(ctx); err != nil {
		shutdown(srv)
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}

	log.Println("Shutting down server...")
	return shutdown(srv)
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// Console читает вопросы построчно из in и печатает найденные комментарии
// (и ответ модели, если generate) в out. Индекс должен быть готов (Init).
func (a *App) Console(ctx context.Context, in io.Reader, out io.Writer, topK int, generate bool) error {
	log.Println("Enter a question (one per line). Ctrl+C to exit.")

	scanner := bufio.NewScanner(in)

	// Увеличим буфер под длинные вопросы
	const maxLineSize = 1024 * 1024
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("stdin error: %w", err)
				}
				return nil
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			a.handleQuestion(ctx, out, line, topK, generate)
		}
	}
}

func (a *App) handleQuestion(ctx context.Context, out io.Writer, question string, topK int, generate bool) {
	result, err := a.Search(ctx, question, topK)
	if err != nil {
		log.Printf("❌ Search error: %v", err)
		return
	}

	if result.Section != nil {
		fmt.Fprintf(out, "🔍 Section %s, %d comments:\n", *result.Section, len(result.Documents))
	} else {
		fmt.Fprintf(out, "🔍 %d comments:\n", len(result.Documents))
	}
	for i, d := range result.Documents {
		fmt.Fprintf(out, "   %d. %s\n", i+1, d)
	}

	if !generate {
		return
	}

	answer, err := a.Answer(ctx, question, result.Documents)
	if err != nil {
		log.Printf("❌ LLM error: %v", err)
		return
	}
	fmt.Fprintf(out, "\n🤖 %s\n\n", answer)
}
