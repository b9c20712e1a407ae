package generator

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nodebanana-ai/nodebanana/pkg/config"
	"github.com/nodebanana-ai/nodebanana/pkg/models"
)

// chatClient is the slice of the OpenAI client the text generator
// needs; the interface exists so tests can stub the provider.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI generates text through an OpenAI-compatible chat completion
// endpoint.
type OpenAI struct {
	client   chatClient
	provider string
}

// NewOpenAI creates a text generator for the given provider config.
func NewOpenAI(p config.Provider) *OpenAI {
	cfg := openai.DefaultConfig(p.APIKey)
	if p.URL != "" {
		cfg.BaseURL = p.URL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), provider: p.Name}
}

// Generate runs a chat completion. The seed is forwarded so repeated
// calls with identical inputs stay as reproducible as the provider
// allows; resolved upstream images are attached as image parts.
func (o *OpenAI) Generate(ctx context.Context, req Request) (*models.Artifact, error) {
	message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(req.Images) == 0 {
		message.Content = req.Prompt
	} else {
		parts := []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
		}
		for _, img := range req.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: img},
			})
		}
		message.MultiContent = parts
	}

	seed := int(req.Seed)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    []openai.ChatCompletionMessage{message},
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Seed:        &seed,
	})
	if err != nil {
		return nil, newError(o.provider, err.Error())
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, newError(o.provider, "provider returned no usable output")
	}

	return &models.Artifact{Text: resp.Choices[0].Message.Content}, nil
}
