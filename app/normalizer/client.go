package normalizer

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// CompletionClient is the single outbound dependency of the normalizer: a
// chat-style completion returning one text reply. Tests substitute fakes.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient adapts the OpenAI chat completions API to CompletionClient.
// Low temperature keeps the structured output stable; the token budget is
// generous because the reply carries the whole event batch back.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: 0.2,
		maxTokens:   16000,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
