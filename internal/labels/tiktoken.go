package labels

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Vocabulary sizes of the supported encodings, special tokens included.
var tiktokenVocab = map[string]int{
	"cl100k_base": 100277,
	"p50k_base":   50281,
	"r50k_base":   50257,
}

// TikToken is a BPE vocabulary backed by pkoukk/tiktoken-go.
// Token id k is class k+1.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
	vocab    int
}

// NewTikToken loads the named encoding ("cl100k_base", "p50k_base" or
// "r50k_base"). The BPE ranks are fetched on first use if not cached.
func NewTikToken(encodingName string) (*TikToken, error) {
	vocab, ok := tiktokenVocab[encodingName]
	if !ok {
		return nil, fmt.Errorf("tiktoken: unsupported encoding %q", encodingName)
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName, vocab: vocab}, nil
}

// Encode converts text to classes.
func (t *TikToken) Encode(text string) ([]int64, error) {
	tokens := t.encoding.Encode(text, nil, nil)
	out := make([]int64, len(tokens))
	for i, tok := range tokens {
		out[i] = int64(tok) + 1
	}
	return out, nil
}

// Decode converts classes back to text. The blank decodes to nothing.
func (t *TikToken) Decode(classes []int64) (string, error) {
	tokens := make([]int, 0, len(classes))
	for _, k := range classes {
		if k == 0 {
			continue
		}
		if k < 0 || k > int64(t.vocab) {
			return "", fmt.Errorf("tiktoken: class %d out of range", k)
		}
		tokens = append(tokens, int(k-1))
	}
	return t.encoding.Decode(tokens), nil
}

// NumClasses returns the encoding's vocabulary size plus the blank.
func (t *TikToken) NumClasses() int {
	return t.vocab + 1
}

// Name returns the encoding name.
func (t *TikToken) Name() string {
	return t.name
}
