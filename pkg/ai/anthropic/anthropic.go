package anthropic

import (
	"github.com/OFFIS-RIT/textgraph/pkg/ai"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultMaxTokens bounds the answer length when no limit is configured.
// The Messages API requires an explicit value.
const defaultMaxTokens = 8192

// GraphAnthropicClient implements ai.GraphAIClient on the Anthropic
// Messages API. Structured output is requested through the system prompt
// and repaired with ai.UnmarshalFlexible.
type GraphAnthropicClient struct {
	ai.MetricsTracker

	extractionModel string
	maxTokens       int

	Client anthropic.Client
}

// NewGraphAnthropicClientParams contains configuration options for creating
// a new GraphAnthropicClient.
type NewGraphAnthropicClientParams struct {
	ExtractionModel string
	MaxTokens       int

	BaseURL string
	ApiKey  string

	MaxRetries int
}

// NewGraphAnthropicClient creates a client for the given parameters.
func NewGraphAnthropicClient(params NewGraphAnthropicClientParams) *GraphAnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(params.ApiKey),
	}
	if params.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(params.BaseURL))
	}
	if params.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(params.MaxRetries))
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &GraphAnthropicClient{
		extractionModel: params.ExtractionModel,
		maxTokens:       maxTokens,
		Client:          anthropic.NewClient(opts...),
	}
}
