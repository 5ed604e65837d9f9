package html

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/loader"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td, th, dt, dd"

// HTMLTextLoader extracts the visible text of HTML documents read through a
// base loader. Headings become markdown headings so the chunker can split
// at them.
type HTMLTextLoader struct {
	loader loader.TextLoader
	cache  *loader.Cache
}

// NewHTMLTextLoader creates a new HTMLTextLoader with the given base loader.
func NewHTMLTextLoader(base loader.TextLoader) *HTMLTextLoader {
	return &HTMLTextLoader{
		loader: base,
		cache:  loader.NewCache(),
	}
}

// Load reads source through the base loader and converts it to text.
func (l *HTMLTextLoader) Load(ctx context.Context, source string) ([]byte, error) {
	return l.cache.Do(source, func() ([]byte, error) {
		raw, err := l.loader.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		text, err := ExtractText(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse html %s: %w", source, err)
		}
		return []byte(text), nil
	})
}

// ExtractText returns the text of an HTML document without scripts, styles
// and navigation. Block elements are separated by blank lines and h1 to h6
// are written as "#" to "######" headings. Documents without block
// elements fall back to the whitespace-normalized body text.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, header, footer, noscript, iframe, template").Remove()

	var blocks []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are emitted by their innermost element.
		if s.Find(blockSelector).Length() > 0 && goquery.NodeName(s) != "pre" {
			return
		}

		name := goquery.NodeName(s)
		var text string
		if name == "pre" {
			text = strings.TrimRight(s.Text(), "\n ")
		} else {
			text = strings.Join(strings.Fields(s.Text()), " ")
		}
		if text == "" {
			return
		}

		switch name {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			text = strings.Repeat("#", int(name[1]-'0')) + " " + text
		case "li":
			text = "- " + text
		}
		blocks = append(blocks, text)
	})

	if len(blocks) == 0 {
		body := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
		return util.SanitizeText(body), nil
	}

	return util.SanitizeText(strings.Join(blocks, "\n\n") + "\n"), nil
}
