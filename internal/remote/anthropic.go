package remote

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicClient sends each message as a single-turn conversation through
// the Anthropic Messages API. Credentials come from the environment the SDK
// reads (ANTHROPIC_API_KEY).
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicClient creates a client for the given model. An empty model
// falls back to the SDK's latest Sonnet alias.
func NewAnthropicClient(model string) *AnthropicClient {
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaude3_7SonnetLatest
	}
	return &AnthropicClient{client: anthropic.NewClient(), model: m}
}

// Send runs one message turn and concatenates the text blocks of the reply.
func (c *AnthropicClient) Send(ctx context.Context, message string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(1024),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	})
	if err != nil {
		return "", err
	}

	var reply string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			reply += tb.Text
		}
	}
	if reply == "" {
		return "", fmt.Errorf("reply contained no text")
	}
	return reply, nil
}
