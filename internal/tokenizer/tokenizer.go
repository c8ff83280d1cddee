// Package tokenizer counts tokens the way the embedding model does.
package tokenizer

import (
	"fmt"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Counter returns the number of tokens a text costs for the embedding model.
type Counter interface {
	CountTokens(text string) int
}

// EmbeddingEncoding is the BPE encoding used by text-embedding-3-*.
const EmbeddingEncoding = "cl100k_base"

var loaderOnce sync.Once

// Tiktoken counts exact BPE tokens.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the encoding from the embedded BPE ranks, no network needed.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Approx estimates ~1.3 tokens per word.
type Approx struct{}

func (Approx) CountTokens(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if !inWord {
				words++
				inWord = true
			}
			continue
		}
		inWord = false
	}
	if words == 0 {
		return 0
	}
	n := int(float64(words) * 1.3)
	if n == 0 {
		n = 1
	}
	return n
}

// New picks the counter by name ("tiktoken" or "approx").
func New(kind string) (Counter, error) {
	switch kind {
	case "tiktoken":
		return NewTiktoken(EmbeddingEncoding)
	case "approx":
		return Approx{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", kind)
	}
}
