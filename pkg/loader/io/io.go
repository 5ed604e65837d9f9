package io

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/OFFIS-RIT/textgraph/pkg/loader"
)

// IOTextLoader loads files directly from the local filesystem with
// caching. The source "-" reads standard input, which is never cached.
type IOTextLoader struct {
	stdin io.Reader
	cache *loader.Cache
}

// NewIOTextLoader creates a new filesystem-based loader reading stdin
// from os.Stdin.
func NewIOTextLoader() *IOTextLoader {
	return NewIOTextLoaderWithStdin(os.Stdin)
}

// NewIOTextLoaderWithStdin creates a filesystem-based loader reading the
// "-" source from stdin.
func NewIOTextLoaderWithStdin(stdin io.Reader) *IOTextLoader {
	return &IOTextLoader{
		stdin: stdin,
		cache: loader.NewCache(),
	}
}

// Load reads the file content from the filesystem. Results are cached.
func (l *IOTextLoader) Load(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if source == loader.StdinSource {
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	return l.cache.Do(source, func() ([]byte, error) {
		return os.ReadFile(source)
	})
}
