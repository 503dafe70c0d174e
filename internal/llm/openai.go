package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultChatTimeout = 30 * time.Second
	chatTemperature    = 0.7
	chatMaxTokens      = 150
)

// OpenAIProvider calls the OpenAI Chat Completions API. A provider built
// without an API key stays registered but reports ErrNotConfigured on use.
type OpenAIProvider struct {
	model  openai.ChatModel
	client *openai.Client
}

func NewOpenAI(apiKey string, model openai.ChatModel) *OpenAIProvider {
	if model == "" {
		model = openai.ChatModelGPT3_5Turbo
	}
	p := &OpenAIProvider{model: model}
	if apiKey != "" {
		cli := openai.NewClient(option.WithAPIKey(apiKey))
		p.client = &cli
	}
	return p
}

func (p *OpenAIProvider) Key() Key     { return KeyOpenAI }
func (p *OpenAIProvider) Name() string { return "OpenAI GPT-3.5" }

func (p *OpenAIProvider) Generate(ctx context.Context, question string) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()
	resp, err := p.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are a helpful assistant."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(question),
					},
				},
			},
		},
		Temperature:         openai.Float(chatTemperature),
		MaxCompletionTokens: openai.Int(chatMaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
