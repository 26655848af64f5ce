package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/chali-ug/chali-be/types"
)

// GeminiService generates replies through the Gemini API. Multiple API
// keys rotate on failure so the next request uses a fresh key; within a
// single request there is exactly one attempt.
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	model      *genai.GenerativeModel
	modelName  string
	timeout    time.Duration
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string, timeout time.Duration) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:   apiKeys,
		modelName: modelName,
		timeout:   timeout,
	}
	if err := service.initClient(); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *GeminiService) initClient() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	model := client.GenerativeModel(s.modelName)
	temp := float32(generationTemperature)
	maxTokens := int32(generationMaxTokens)
	model.Temperature = &temp
	model.MaxOutputTokens = &maxTokens
	s.model = model
	return nil
}

func (s *GeminiService) rotateAPIKey() error {
	s.mu.Lock()
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.initClient()
}

func (s *GeminiService) Name() string { return "gemini" }

func (s *GeminiService) Generate(ctx context.Context, system string, history []types.ConversationTurn, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	model := s.model
	s.mu.Unlock()

	chatHistory := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role != types.RoleUser {
			role = "model"
		}
		chatHistory = append(chatHistory, &genai.Content{
			Parts: []genai.Part{genai.Text(turn.Content)},
			Role:  role,
		})
	}

	chat := model.StartChat()
	chat.History = chatHistory

	resp, err := chat.SendMessage(ctx, genai.Text(system+"\n\nCustomer: "+message))
	if err != nil {
		// Rotate so the next request starts on a fresh key; this request
		// is not retried.
		if rotateErr := s.rotateAPIKey(); rotateErr != nil {
			return "", types.NewPipelineError(types.ErrKindGeneration, "key rotation failed", rotateErr)
		}
		return "", translateGeminiError(err, ctx)
	}
	if len(resp.Candidates) == 0 {
		return "", types.NewPipelineError(types.ErrKindGeneration, "no response generated", nil)
	}

	content := ""
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content += string(text)
			}
		}
	}
	return content, nil
}

func translateGeminiError(err error, ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.NewPipelineError(types.ErrKindGenerationTimeout, "timeout", err)
	}
	return types.NewPipelineError(types.ErrKindGeneration, "provider call failed", err)
}
