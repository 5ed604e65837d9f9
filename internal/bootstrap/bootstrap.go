// Package bootstrap builds the components shared by the textgraph binaries
// from a resolved configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/textgraph/internal/config"
	"github.com/OFFIS-RIT/textgraph/internal/storage"
	"github.com/OFFIS-RIT/textgraph/pkg/ai"
	anai "github.com/OFFIS-RIT/textgraph/pkg/ai/anthropic"
	oai "github.com/OFFIS-RIT/textgraph/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/textgraph/pkg/ai/openai"
	"github.com/OFFIS-RIT/textgraph/pkg/chunk"
	"github.com/OFFIS-RIT/textgraph/pkg/export"
	"github.com/OFFIS-RIT/textgraph/pkg/graph"
	"github.com/OFFIS-RIT/textgraph/pkg/loader"
	htmlloader "github.com/OFFIS-RIT/textgraph/pkg/loader/html"
	ioloader "github.com/OFFIS-RIT/textgraph/pkg/loader/io"
	s3loader "github.com/OFFIS-RIT/textgraph/pkg/loader/s3"
	webloader "github.com/OFFIS-RIT/textgraph/pkg/loader/web"
	"github.com/OFFIS-RIT/textgraph/pkg/logger"
	"github.com/OFFIS-RIT/textgraph/pkg/logger/console"
	"github.com/OFFIS-RIT/textgraph/pkg/logger/file"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// InitLogger installs the console logger and, with LogFile set, a rotating
// file logger. The returned function closes the file.
func InitLogger(cfg *config.Config, prefix string) func() {
	instances := []logger.LoggerInstance{
		console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug:  cfg.Debug,
			Prefix: prefix,
		}),
	}

	closeFn := func() {}
	if cfg.LogFile != "" {
		fileLogger := file.NewFileLogger(file.FileLoggerParams{
			Path:  cfg.LogFile,
			Debug: cfg.Debug,
		})
		instances = append(instances, fileLogger)
		closeFn = func() { _ = fileLogger.Close() }
	}

	logger.Init(instances...)
	return closeFn
}

// NewAIClient returns the chat adapter selected by cfg.AI.Adapter.
func NewAIClient(cfg *config.Config) (ai.GraphAIClient, error) {
	switch cfg.AI.Adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ExtractionModel:       cfg.AI.Model,
			BaseURL:               cfg.AI.URL,
			ApiKey:                cfg.AI.Key,
			MaxConcurrentRequests: cfg.AI.Parallel,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create Ollama client: %w", err)
		}
		return client, nil
	case "anthropic":
		return anai.NewGraphAnthropicClient(anai.NewGraphAnthropicClientParams{
			ExtractionModel: cfg.AI.Model,
			BaseURL:         cfg.AI.URL,
			ApiKey:          cfg.AI.Key,
			MaxRetries:      cfg.AI.MaxRetries,
		}), nil
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ExtractionModel: cfg.AI.Model,
			ChatURL:         cfg.AI.URL,
			ChatKey:         cfg.AI.Key,
			MaxRetries:      cfg.AI.MaxRetries,
		}), nil
	}
}

// NewCounter returns the tiktoken counter of cfg.Chunk.EncodingModel. A name
// tiktoken does not know is a configuration error. When a known encoding
// cannot be loaded, e.g. offline, it estimates instead.
func NewCounter(cfg *config.Config) (chunk.TokenCounter, error) {
	counter, err := chunk.NewTiktokenCounter(cfg.Chunk.EncodingModel)
	if errors.Is(err, chunk.ErrUnknownEncoding) {
		return nil, fmt.Errorf("invalid chunk.encoding: %w", err)
	}
	if err != nil {
		logger.Warn("[Bootstrap] Tokenizer unavailable, estimating tokens", "encoding", cfg.Chunk.EncodingModel, "err", err)
		return chunk.ApproxCounter{}, nil
	}
	return counter, nil
}

// NewGraphClient wires chunker and extractor for cfg around client.
func NewGraphClient(cfg *config.Config, client ai.GraphAIClient, counter chunk.TokenCounter) (*graph.GraphClient, error) {
	chunker, err := chunk.NewChunker(chunk.Params{
		MaxTokens:     cfg.Chunk.MaxTokens,
		Overlap:       cfg.Chunk.Overlap,
		HeadingLevels: cfg.Chunk.HeadingLevels,
		Counter:       counter,
	})
	if err != nil {
		return nil, err
	}

	extractor, err := graph.NewLLMExtractor(graph.NewLLMExtractorParams{
		Client:      client,
		NodeTypes:   cfg.AI.NodeTypes,
		Temperature: cfg.AI.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return graph.NewGraphClient(graph.NewGraphClientParams{
		Chunker:   chunker,
		Extractor: extractor,
	})
}

// NewS3Client returns a client for cfg.AWS.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	return storage.NewS3Client(ctx, storage.S3ClientParams{
		Region:    cfg.AWS.Region,
		Endpoint:  cfg.AWS.Endpoint,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
	})
}

// NewResolver returns a resolver for every source form. stdin backs "-";
// a nil client leaves s3:// sources unsupported.
func NewResolver(cfg *config.Config, client *s3.Client, stdin io.Reader) *loader.Resolver {
	files := ioloader.NewIOTextLoaderWithStdin(stdin)
	r := &loader.Resolver{
		File: files,
		HTML: htmlloader.NewHTMLTextLoader(files),
		Web:  webloader.NewWebTextLoader(),
	}
	if client != nil {
		r.S3 = s3loader.NewS3TextLoaderWithClient(cfg.AWS.Bucket, client)
	}
	return r
}

// NewUploader returns an uploader for cfg.Export.S3Bucket, or nil when no
// bucket is configured.
func NewUploader(cfg *config.Config, client *s3.Client) export.Uploader {
	if cfg.Export.S3Bucket == "" || client == nil {
		return nil
	}
	return &storage.S3Uploader{Client: client, Bucket: cfg.Export.S3Bucket}
}
