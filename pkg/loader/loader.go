// Package loader reads the text a knowledge graph is built from.
//
// Sources are local files, stdin ("-"), HTML files, web pages and S3
// objects. Resolver picks the loader for a source by its form.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// StdinSource is the source name that reads standard input.
const StdinSource = "-"

// TextLoader defines the interface for loading the text of one source.
// Implementations may read from disk, the network or cloud storage.
type TextLoader interface {
	Load(ctx context.Context, source string) ([]byte, error)
}

// TextLoaderFunc adapts a function to TextLoader.
type TextLoaderFunc func(ctx context.Context, source string) ([]byte, error)

func (f TextLoaderFunc) Load(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

// Cache memoizes loaded sources. Concurrent loads of the same key share a
// single call; failed loads are not cached.
type Cache struct {
	entries map[string][]byte
	mu      sync.RWMutex
	group   singleflight.Group
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// Do returns the cached value of key or stores the result of load.
func (c *Cache) Do(key string, load func() ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	if cached, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		if cached, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		data, err := load()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = data
		c.mu.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// ErrNoLoader is returned when no loader is configured for a source.
var ErrNoLoader = errors.New("no loader configured for source")

// Resolver dispatches sources to loaders. Any loader may be nil, in which
// case sources of that kind fail with ErrNoLoader.
type Resolver struct {
	File TextLoader
	HTML TextLoader
	Web  TextLoader
	S3   TextLoader
}

// Resolve returns the loader responsible for source.
//
//	"-", "notes.txt"         -> File
//	"page.html", "page.htm"  -> HTML
//	"https://example.com/a"  -> Web
//	"s3://bucket/key"        -> S3
func (r Resolver) Resolve(source string) (TextLoader, error) {
	var l TextLoader
	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		l = r.Web
	case strings.HasPrefix(lower, "s3://"):
		l = r.S3
	case source == StdinSource:
		l = r.File
	case filepath.Ext(lower) == ".html", filepath.Ext(lower) == ".htm":
		l = r.HTML
	default:
		l = r.File
	}

	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, source)
	}
	return l, nil
}

// Load reads source with the loader Resolve picks for it.
func (r Resolver) Load(ctx context.Context, source string) ([]byte, error) {
	l, err := r.Resolve(source)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, source)
}
