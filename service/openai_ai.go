package service

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/chali-ug/chali-be/types"
)

const (
	generationTemperature = 0.7
	generationMaxTokens   = 500
)

// OpenAIService generates replies through an OpenAI-compatible endpoint.
// A single call per request, bounded by a fixed deadline; sampling
// settings are fixed configuration, not per-request.
type OpenAIService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIService(baseURL, apiKey, model string, timeout time.Duration) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIService{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
	}
}

func (s *OpenAIService) Name() string { return "openai" }

func (s *OpenAIService) Generate(ctx context.Context, system string, history []types.ConversationTurn, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role != types.RoleUser {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages:    messages,
			Model:       s.model,
			Temperature: generationTemperature,
			MaxTokens:   generationMaxTokens,
		},
	)
	if err != nil {
		return "", translateOpenAIError(err, ctx)
	}
	if len(resp.Choices) == 0 {
		return "", types.NewPipelineError(types.ErrKindGeneration, "no response generated", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func translateOpenAIError(err error, ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.NewPipelineError(types.ErrKindGenerationTimeout, "timeout", err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return types.NewPipelineError(types.ErrKindGenerationRateLimit, "rate limited", err)
		case 401, 403:
			return types.NewPipelineError(types.ErrKindGenerationAuth, "authentication failed", err)
		}
	}
	return types.NewPipelineError(types.ErrKindGeneration, "provider call failed", err)
}
