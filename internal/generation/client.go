package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrGeneration - LLM не смог сгенерировать ответ
var ErrGeneration = errors.New("generation error")

const systemPrompt = "Eres un asistente útil que responde preguntas basándose en comentarios de clientes. " +
	"Menciona absolutamente todos los temas del los que hablen los clientes sin omitir ninguno."

// Client отправляет вопрос и найденные комментарии в OpenAI-совместимый chat API
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey, model string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ChatCompletions",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("⚡ Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		breaker: breaker,
	}
}

// Answer генерирует ответ на вопрос по комментариям клиентов
func (c *Client) Answer(ctx context.Context, question string, comments []string) (string, error) {
	prompt := BuildPrompt(question, comments)

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return out.(string), nil
}

// BuildPrompt формирует пользовательский промпт
func BuildPrompt(question string, comments []string) string {
	var buf strings.Builder

	buf.WriteString("Basándote en los siguientes comentarios de clientes:\n")
	for i, c := range comments {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("- ")
		buf.WriteString(c)
	}
	buf.WriteString("\n\nResponde a la siguiente pregunta: ")
	buf.WriteString(question)

	return buf.String()
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
