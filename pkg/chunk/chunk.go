// Package chunk splits long text into token-bounded chunks for extraction.
//
// Text that fits the budget is returned unchanged as a single chunk. Longer
// text is first cut at Markdown headings, and sections that are still too
// large are split recursively on paragraph, line, word and character
// boundaries with a small character overlap between neighbours.
package chunk

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/OFFIS-RIT/textgraph/pkg/common"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// CharsPerToken converts a token budget into a character budget for the
	// recursive splitter.
	CharsPerToken = 4
	// DefaultMaxTokens is the token budget of a single chunk.
	DefaultMaxTokens = 100000
	// DefaultOverlap is the character overlap between adjacent sub-chunks.
	DefaultOverlap = 200
	// refinePasses bounds how often an oversized sub-chunk is split again
	// with a smaller character budget.
	refinePasses = 3
)

// DefaultHeadingLevels are the heading levels text is split at: "#" and "##".
var DefaultHeadingLevels = []int{1, 2}

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

// Params configures a Chunker.
type Params struct {
	MaxTokens     int
	Overlap       int
	HeadingLevels []int
	Counter       TokenCounter
}

// Chunker splits text into ordered chunks within a token budget.
// A Chunker holds no mutable state and is safe for concurrent use.
type Chunker struct {
	maxTokens int
	overlap   int
	levels    map[int]bool
	counter   TokenCounter
}

// NewChunker validates params and returns a Chunker.
func NewChunker(params Params) (*Chunker, error) {
	if params.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", params.MaxTokens)
	}
	if params.Overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", params.Overlap)
	}
	if params.Overlap >= params.MaxTokens*CharsPerToken {
		return nil, fmt.Errorf(
			"overlap %d must be smaller than the character budget %d",
			params.Overlap, params.MaxTokens*CharsPerToken,
		)
	}
	if params.Counter == nil {
		return nil, errors.New("token counter is required")
	}

	headingLevels := params.HeadingLevels
	if len(headingLevels) == 0 {
		headingLevels = DefaultHeadingLevels
	}
	levels := make(map[int]bool, len(headingLevels))
	for _, l := range headingLevels {
		if l < 1 || l > 4 {
			return nil, fmt.Errorf("heading level %d out of range 1-4", l)
		}
		levels[l] = true
	}

	return &Chunker{
		maxTokens: params.MaxTokens,
		overlap:   params.Overlap,
		levels:    levels,
		counter:   params.Counter,
	}, nil
}

// MaxTokens returns the configured token budget.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Chunk splits text into chunks. The result is never empty: when nothing
// splittable remains the whole text is returned as one chunk.
func (c *Chunker) Chunk(text string) ([]common.Chunk, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}

	tokens := c.counter.CountTokens(text)
	if tokens <= c.maxTokens {
		return c.finish([]piece{{text: text, tokens: tokens}}), nil
	}

	var pieces []piece
	for _, s := range splitSections(text, c.levels) {
		if strings.TrimSpace(s.text) == "" {
			continue
		}

		t := c.counter.CountTokens(s.text)
		if t <= c.maxTokens {
			pieces = append(pieces, piece{text: s.text, tokens: t, headerPath: s.headerPath})
			continue
		}

		parts, err := c.splitOversized(s.text, c.maxTokens*CharsPerToken, refinePasses)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			p.headerPath = s.headerPath
			pieces = append(pieces, p)
		}
	}

	if len(pieces) == 0 {
		pieces = []piece{{text: text, tokens: tokens}}
	}

	return c.finish(pieces), nil
}

type piece struct {
	text       string
	tokens     int
	headerPath map[string]string
}

// splitOversized runs the recursive character splitter over text. Parts that
// still exceed the token budget are split again with a character budget
// of their own length scaled by how far they overshoot, at most passes times. A part that
// cannot shrink any further is kept as is.
func (c *Chunker) splitOversized(text string, chunkSize int, passes int) ([]piece, error) {
	overlap := c.overlap
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(defaultSeparators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)

	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("recursive split failed: %w", err)
	}

	var out []piece
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}

		t := c.counter.CountTokens(part)
		if t <= c.maxTokens || passes <= 0 {
			out = append(out, piece{text: part, tokens: t})
			continue
		}

		runes := utf8.RuneCountInString(part)
		size := runes * c.maxTokens / t
		if size >= runes {
			size = runes - 1
		}
		if size < 1 || runes <= 1 {
			out = append(out, piece{text: part, tokens: t})
			continue
		}

		sub, err := c.splitOversized(part, size, passes-1)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}

	return out, nil
}

func (c *Chunker) finish(pieces []piece) []common.Chunk {
	chunks := make([]common.Chunk, 0, len(pieces))
	for i, p := range pieces {
		var hp map[string]string
		if len(p.headerPath) > 0 {
			hp = make(map[string]string, len(p.headerPath))
			for k, v := range p.headerPath {
				hp[k] = v
			}
		}
		chunks = append(chunks, common.Chunk{
			Index:      i + 1,
			Total:      len(pieces),
			Text:       p.text,
			Tokens:     p.tokens,
			HeaderPath: hp,
		})
	}
	return chunks
}

// Levels returns the heading levels the chunker splits at, in ascending order.
func (c *Chunker) Levels() []int {
	levels := make([]int, 0, len(c.levels))
	for l := range c.levels {
		levels = append(levels, l)
	}
	slices.Sort(levels)
	return levels
}
