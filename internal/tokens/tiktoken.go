package tokens

import (
	"fmt"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// TiktokenEstimator counts tokens with a real BPE tokenizer. It uses
// the cl100k_base encoding, which tracks GPT-4-era models closely and
// is an acceptable approximation for other providers.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken

	mu    sync.Mutex
	cache map[string]int
}

// NewTiktokenEstimator creates an estimator for the given encoding.
// Pass "" for cl100k_base.
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokens: get encoding %q: %w", encoding, err)
	}
	return &TiktokenEstimator{
		enc:   enc,
		cache: make(map[string]int),
	}, nil
}

// Estimate returns the exact token count for text. The model ID is
// ignored: the encoding is fixed at construction. Short strings are
// memoized since prompt fragments repeat across calls.
func (e *TiktokenEstimator) Estimate(text string, _ string) int {
	if text == "" {
		return 0
	}

	const memoLimit = 512
	if len(text) <= memoLimit {
		e.mu.Lock()
		if n, ok := e.cache[text]; ok {
			e.mu.Unlock()
			return n
		}
		e.mu.Unlock()
	}

	n := len(e.enc.Encode(text, nil, nil))

	if len(text) <= memoLimit {
		e.mu.Lock()
		e.cache[text] = n
		e.mu.Unlock()
	}
	return n
}

// Truncate cuts text to at most maxTokens tokens.
func (e *TiktokenEstimator) Truncate(text string, maxTokens int) string {
	ids := e.enc.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text
	}
	if maxTokens <= 0 {
		return ""
	}
	return e.enc.Decode(ids[:maxTokens])
}
