package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OFFIS-RIT/textgraph/internal/util"
	"github.com/OFFIS-RIT/textgraph/pkg/loader"
	htmlloader "github.com/OFFIS-RIT/textgraph/pkg/loader/html"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"

	"codeberg.org/readeck/go-readability/v2"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// WebTextLoader loads content from web URLs and extracts readable text.
// For HTML pages, it uses readability to extract the main content.
type WebTextLoader struct {
	client *http.Client
	cache  *loader.Cache
}

// NewWebTextLoader creates a new web loader with a default HTTP client.
func NewWebTextLoader() *WebTextLoader {
	return NewWebTextLoaderWithClient(&http.Client{Timeout: defaultTimeout})
}

// NewWebTextLoaderWithClient creates a web loader using client.
func NewWebTextLoaderWithClient(client *http.Client) *WebTextLoader {
	return &WebTextLoader{
		client: client,
		cache:  loader.NewCache(),
	}
}

// Load fetches a URL and extracts readable text content. Non-HTML
// responses are returned as they are.
func (l *WebTextLoader) Load(ctx context.Context, source string) ([]byte, error) {
	return l.cache.Do(source, func() ([]byte, error) {
		pageURL, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("failed to parse url: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("failed to fetch url: %s", resp.Status)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
			return []byte(util.SanitizeText(string(body))), nil
		}

		text, err := articleText(body, pageURL)
		if err != nil || strings.TrimSpace(text) == "" {
			logger.Debug("[Loader] Readability failed, using page text", "url", source, "err", err)
			text, err = htmlloader.ExtractText(bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("failed to parse html: %w", err)
			}
		}

		return []byte(util.SanitizeText(text)), nil
	})
}

func articleText(body []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return "", fmt.Errorf("failed to render article text: %w", err)
	}
	return builder.String(), nil
}
