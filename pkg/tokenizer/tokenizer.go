// Package tokenizer counts prompt tokens for cost estimation and routing.
package tokenizer

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used when no dedicated encoding exists for a model.
// cl100k_base is the GPT-4 tokenizer and a reasonable approximation for
// other modern LLMs.
const fallbackEncoding = "cl100k_base"

// charsPerToken is the rune-based estimate used when tiktoken itself
// cannot initialize (English average).
const charsPerToken = 4

// Counter counts tokens for a prompt under a model's encoding.
// Implementations must be deterministic and must never fail: unknown
// models degrade to a generic encoding, empty text counts as zero.
type Counter interface {
	Count(text, modelID string) int
}

// TiktokenCounter counts tokens with tiktoken, caching one encoder per
// model. Safe for concurrent use.
type TiktokenCounter struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

// NewTiktokenCounter creates a TiktokenCounter. Encoders are loaded
// lazily on first use per model.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{encoders: make(map[string]*tiktoken.Tiktoken)}
}

// Count returns the token count of text under modelID's encoding. Models
// without a dedicated encoding fall back to cl100k_base; if no encoder
// can be loaded at all, a rune-based estimate is returned so counting
// never fails.
func (c *TiktokenCounter) Count(text, modelID string) int {
	if text == "" {
		return 0
	}

	enc := c.encoderFor(modelID)
	if enc == nil {
		return EstimateTokens(text)
	}

	// Allow special tokens so inputs containing sequences like
	// "<|endoftext|>" are counted rather than rejected.
	return len(enc.Encode(text, []string{"all"}, nil))
}

func (c *TiktokenCounter) encoderFor(modelID string) *tiktoken.Tiktoken {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encoders[modelID]; ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(modelID)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			enc = nil
		}
	}
	c.encoders[modelID] = enc
	return enc
}

// EstimateTokens returns a rune-based token estimate:
// ceil(rune_count / 4), minimum 1 for non-empty text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}
