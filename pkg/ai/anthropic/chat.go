package anthropic

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/OFFIS-RIT/textgraph/pkg/ai"

	"github.com/anthropics/anthropic-sdk-go"
)

func (c *GraphAnthropicClient) message(
	ctx context.Context,
	prompt string,
	options ai.GenerateOptions,
) (string, error) {
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(options.Temperature),
	}
	for _, sp := range options.SystemPrompts {
		params.System = append(params.System, anthropic.TextBlockParam{Text: sp})
	}

	start := time.Now()
	msg, err := c.Client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	duration := time.Since(start).Milliseconds()

	in := int(msg.Usage.InputTokens)
	out := int(msg.Usage.OutputTokens)
	c.AddMetrics(ai.ModelMetrics{
		InputTokens:  in,
		OutputTokens: out,
		TotalTokens:  in + out,
		DurationMs:   duration,
		WallClockMs:  duration,
	})

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("unexpected response format: no text blocks (stop_reason: %s)", msg.StopReason)
	}

	return text.String(), nil
}

// GenerateCompletion sends a single-turn prompt and returns the text of
// the answer.
func (c *GraphAnthropicClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.3,
	}, opts...)

	return c.message(ctx, prompt, options)
}

// GenerateCompletionWithFormat appends the JSON schema of out to the system
// prompts and decodes the answer into out.
func (c *GraphAnthropicClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	if rv := reflect.ValueOf(out); rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	schema, err := ai.SchemaJSON(out)
	if err != nil {
		return err
	}

	options := ai.ApplyOptions(ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}, opts...)
	options.SystemPrompts = append(
		append([]string{}, options.SystemPrompts...),
		fmt.Sprintf(ai.JSONOnlyPrompt, name, description, schema),
	)

	text, err := c.message(ctx, prompt, options)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(text, out)
}
