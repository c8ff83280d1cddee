package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("¿Qué opinan del envío?", []string{"llegó tarde", "muy rápido"})
	want := "Basándote en los siguientes comentarios de clientes:\n" +
		"- llegó tarde\n- muy rápido\n\n" +
		"Responde a la siguiente pregunta: ¿Qué opinan del envío?"
	if got != want {
		t.Errorf("BuildPrompt() =\n%q\nwant\n%q", got, want)
	}
}

func TestAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if req.Model != "gpt-4o" {
			t.Errorf("unexpected model %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "- llegó tarde") {
			t.Errorf("prompt misses the comment: %q", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  Los clientes se quejan del envío.\n"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "gpt-4o")
	got, err := c.Answer(context.Background(), "¿Qué opinan?", []string{"llegó tarde"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Los clientes se quejan del envío." {
		t.Errorf("unexpected answer %q", got)
	}
}

func TestAnswer_ErrorsAndBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "gpt-4o")
	for i := 0; i < 3; i++ {
		if _, err := c.Answer(context.Background(), "q", nil); !errors.Is(err, ErrGeneration) {
			t.Fatalf("call %d: expected ErrGeneration, got %v", i, err)
		}
	}

	// После трёх ошибок breaker открыт и запрос не уходит
	_, err := c.Answer(context.Background(), "q", nil)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 upstream calls, got %d", n)
	}
}
