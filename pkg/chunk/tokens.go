package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncodingModel is the model whose encoding is used for token counts
// when none is configured.
const DefaultEncodingModel = "gpt-4"

// TokenCounter measures text in tokens.
type TokenCounter interface {
	CountTokens(text string) int
}

// TokenCounterFunc adapts a plain function to TokenCounter.
type TokenCounterFunc func(text string) int

func (f TokenCounterFunc) CountTokens(text string) int {
	return f(text)
}

// TiktokenCounter counts tokens with a BPE encoding from tiktoken.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// ErrUnknownEncoding is returned for a name that is neither a known model nor
// a tiktoken encoding.
var ErrUnknownEncoding = errors.New("unknown tokenizer encoding")

// NewTiktokenCounter resolves model as a model name first (e.g. "gpt-4") and
// falls back to treating it as an encoding name (e.g. "cl100k_base"). Names
// that resolve to nothing yield ErrUnknownEncoding; any other error means the
// encoding is known but its ranks could not be loaded.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	if model == "" {
		model = DefaultEncodingModel
	}

	name, ok := encodingName(model)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, model)
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer encoding %s: %w", name, err)
	}

	return &TiktokenCounter{enc: enc}, nil
}

func encodingName(model string) (string, bool) {
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name, true
	}
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return name, true
		}
	}
	switch model {
	case tiktoken.MODEL_O200K_BASE, tiktoken.MODEL_CL100K_BASE, tiktoken.MODEL_P50K_BASE,
		tiktoken.MODEL_P50K_EDIT, tiktoken.MODEL_R50K_BASE:
		return model, true
	}
	return "", false
}

func (c *TiktokenCounter) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// ApproxCounter estimates tokens as one per CharsPerToken runes. It needs no
// encoding files and is used when the tokenizer cannot be loaded offline.
type ApproxCounter struct{}

func (ApproxCounter) CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}
